package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker provides functionality to check if submitter identifiers are trusted
type Checker struct {
	identifiers map[string]bool
	domains     []string
	logger      *zap.Logger
}

// NewChecker creates a new trusted-identifier checker. Entries may be exact
// identifiers (IP addresses, account IDs, full email addresses) or email
// domains, which match any address at that domain.
func NewChecker(identifiers []string, domains []string, logger *zap.Logger) *Checker {
	normalizedIDs := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		id = strings.ToLower(strings.TrimSpace(id))
		if id != "" {
			normalizedIDs[id] = true
		}
	}

	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalizedDomains = append(normalizedDomains, domain)
		}
	}

	if (len(normalizedIDs) > 0 || len(normalizedDomains) > 0) && logger != nil {
		logger.Info("Initialized trust checker",
			zap.Int("identifiers", len(normalizedIDs)),
			zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		identifiers: normalizedIDs,
		domains:     normalizedDomains,
		logger:      logger,
	}
}

// IsTrusted checks if the identifier is trusted, either directly or through
// its email domain.
func (c *Checker) IsTrusted(identifier string) bool {
	if len(c.identifiers) == 0 && len(c.domains) == 0 {
		return false
	}

	normalized := strings.ToLower(strings.TrimSpace(identifier))
	if normalized == "" {
		return false
	}

	if c.identifiers[normalized] {
		if c.logger != nil {
			c.logger.Debug("Identifier is trusted", zap.String("identifier", normalized))
		}
		return true
	}

	// Email-shaped identifiers can match on domain
	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}
	domain := parts[1]

	for _, trusted := range c.domains {
		if trusted == domain {
			if c.logger != nil {
				c.logger.Debug("Identifier domain is trusted",
					zap.String("domain", domain),
					zap.String("identifier", normalized))
			}
			return true
		}
	}

	return false
}
