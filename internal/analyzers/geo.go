package analyzers

import (
	"context"
	"strings"

	"github.com/formsentry/spam-detector/internal/core"
	"go.uber.org/zap"
)

// GeoAnalyzer scores geolocation risk from the context metadata resolved by
// an upstream provider. Without geolocation data the method is unavailable.
type GeoAnalyzer struct {
	highRisk map[string]struct{}
	logger   *zap.Logger
}

// NewGeoAnalyzer creates a geolocation analyzer with the configured
// high-risk country codes.
func NewGeoAnalyzer(highRiskCountries []string, logger *zap.Logger) *GeoAnalyzer {
	highRisk := make(map[string]struct{}, len(highRiskCountries))
	for _, cc := range highRiskCountries {
		highRisk[strings.ToUpper(cc)] = struct{}{}
	}
	return &GeoAnalyzer{highRisk: highRisk, logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *GeoAnalyzer) Method() core.Method {
	return core.MethodGeolocation
}

// Analyze scores the geolocation signals present in the submission context.
func (a *GeoAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	if sub.Context == nil || sub.Context.Geo == nil {
		return nil, core.ErrUnavailable
	}
	geo := sub.Context.Geo

	result := &core.MethodResult{}
	if geo.Anonymizer {
		result.Score += 0.40
		result.Tags = append(result.Tags, "anonymizing_network")
	}
	if _, risky := a.highRisk[strings.ToUpper(geo.CountryCode)]; risky {
		result.Score += 0.30
		result.Tags = append(result.Tags, "high_risk_geo")
	}

	result.Score = clamp01(result.Score)
	return result, nil
}

// IPReputationAnalyzer converts a provider-supplied reputation score into a
// risk score. Unavailable when no reputation data accompanied the request.
type IPReputationAnalyzer struct {
	logger *zap.Logger
}

// NewIPReputationAnalyzer creates an IP reputation analyzer.
func NewIPReputationAnalyzer(logger *zap.Logger) *IPReputationAnalyzer {
	return &IPReputationAnalyzer{logger: logger}
}

// Method returns the method identifier for this analyzer.
func (a *IPReputationAnalyzer) Method() core.Method {
	return core.MethodIPReputation
}

// Analyze inverts the reputation score: pristine reputation scores 0, the
// worst reputation scores 1.
func (a *IPReputationAnalyzer) Analyze(ctx context.Context, sub *core.Submission) (*core.MethodResult, error) {
	if sub.Context == nil || sub.Context.Geo == nil || !sub.Context.Geo.HasReputation {
		return nil, core.ErrUnavailable
	}
	geo := sub.Context.Geo

	score := clamp01(1 - geo.ReputationScore)
	result := &core.MethodResult{Score: score}
	if score >= 0.6 {
		result.Tags = append(result.Tags, "poor_ip_reputation")
	}
	return result, nil
}
