package patterns

import (
	"github.com/formsentry/spam-detector/internal/core"
)

// DefaultPatterns returns the built-in detection pattern set used when no
// external pattern source is configured. Priorities order execution within a
// kind; lower runs first.
func DefaultPatterns() []core.PatternDefinition {
	return []core.PatternDefinition{
		// Regex patterns
		{
			Name:       "pharma_spam",
			Kind:       core.PatternRegex,
			Body:       `(?:viagra|cialis|levitra|xanax|cheap\s+meds?|online\s+pharmacy)`,
			WholeWord:  true,
			RiskWeight: 90,
			Priority:   10,
			Enabled:    true,
		},
		{
			Name:       "lottery_scam",
			Kind:       core.PatternRegex,
			Body:       `(?:you\s+(?:have\s+)?won|lottery\s+winner|claim\s+your\s+prize|million\s+dollars)`,
			RiskWeight: 85,
			Priority:   20,
			Enabled:    true,
		},
		{
			Name:       "crypto_scam",
			Kind:       core.PatternRegex,
			Body:       `(?:guaranteed\s+(?:profits?|returns)|double\s+your\s+(?:btc|bitcoin|crypto)|risk[\s-]free\s+investment)`,
			RiskWeight: 80,
			Priority:   30,
			Enabled:    true,
		},
		{
			Name:       "seo_spam",
			Kind:       core.PatternRegex,
			Body:       `(?:boost\s+your\s+(?:seo|rankings?)|backlinks?\s+for\s+sale|guest\s+post(?:ing)?\s+services?)`,
			RiskWeight: 75,
			Priority:   40,
			Enabled:    true,
		},
		{
			Name:       "url_shortener",
			Kind:       core.PatternRegex,
			Body:       `https?://(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|is\.gd|cutt\.ly)/\S+`,
			RiskWeight: 65,
			Priority:   50,
			Enabled:    true,
		},

		// Keyword and phrase patterns
		{Name: "kw_viagra", Kind: core.PatternKeyword, Body: "viagra", WholeWord: true, RiskWeight: 85, Priority: 10, Enabled: true},
		{Name: "kw_cialis", Kind: core.PatternKeyword, Body: "cialis", WholeWord: true, RiskWeight: 85, Priority: 11, Enabled: true},
		{Name: "kw_casino", Kind: core.PatternKeyword, Body: "casino", WholeWord: true, RiskWeight: 60, Priority: 20, Enabled: true},
		{Name: "ph_make_money_fast", Kind: core.PatternPhrase, Body: "make money fast", RiskWeight: 80, Priority: 30, Enabled: true},
		{Name: "ph_free_money", Kind: core.PatternPhrase, Body: "free money", RiskWeight: 70, Priority: 31, Enabled: true},
		{Name: "ph_payday_loan", Kind: core.PatternPhrase, Body: "payday loan", RiskWeight: 70, Priority: 32, Enabled: true},
		{Name: "ph_work_from_home", Kind: core.PatternPhrase, Body: "work from home", RiskWeight: 50, Priority: 40, Enabled: true},
		{Name: "ph_click_here", Kind: core.PatternPhrase, Body: "click here now", RiskWeight: 45, Priority: 41, Enabled: true},

		// Structural rules consumed by the content analyzer
		{Name: "st_min_length", Kind: core.PatternStructural, Body: "min_length:16", RiskWeight: 20, Priority: 10, Enabled: true},
		{Name: "st_max_length", Kind: core.PatternStructural, Body: "max_length:10000", RiskWeight: 20, Priority: 11, Enabled: true},
		{Name: "st_max_links", Kind: core.PatternStructural, Body: "max_links:3", RiskWeight: 35, Priority: 20, Enabled: true},
		{Name: "st_caps_ratio", Kind: core.PatternStructural, Body: "caps_ratio:0.5", RiskWeight: 25, Priority: 30, Enabled: true},
		{Name: "st_repetition", Kind: core.PatternStructural, Body: "repetition:0.3", RiskWeight: 25, Priority: 40, Enabled: true},
		{Name: "st_max_emails", Kind: core.PatternStructural, Body: "max_emails:2", RiskWeight: 20, Priority: 50, Enabled: true},
		{Name: "st_max_phones", Kind: core.PatternStructural, Body: "max_phones:2", RiskWeight: 20, Priority: 51, Enabled: true},
	}
}
