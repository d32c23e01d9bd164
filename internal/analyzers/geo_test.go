package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/formsentry/spam-detector/internal/core"
)

func geoSubmission(geo *core.GeoData) *core.Submission {
	return &core.Submission{
		Text:    "hello",
		Context: &core.SubmissionContext{Geo: geo},
	}
}

func TestGeoAnalyzerUnavailableWithoutData(t *testing.T) {
	a := NewGeoAnalyzer([]string{"xx"}, zap.NewNop())

	_, err := a.Analyze(context.Background(), &core.Submission{Text: "hello"})
	assert.ErrorIs(t, err, core.ErrUnavailable)

	_, err = a.Analyze(context.Background(), geoSubmission(nil))
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestGeoAnalyzerSignals(t *testing.T) {
	a := NewGeoAnalyzer([]string{"xx", "yy"}, zap.NewNop())

	tests := []struct {
		name      string
		geo       *core.GeoData
		wantScore float64
		wantTags  []string
	}{
		{
			name:      "clean origin",
			geo:       &core.GeoData{CountryCode: "DE"},
			wantScore: 0,
		},
		{
			name:      "anonymizing network",
			geo:       &core.GeoData{CountryCode: "DE", Anonymizer: true},
			wantScore: 0.40,
			wantTags:  []string{"anonymizing_network"},
		},
		{
			name:      "high risk country matches case insensitively",
			geo:       &core.GeoData{CountryCode: "xx"},
			wantScore: 0.30,
			wantTags:  []string{"high_risk_geo"},
		},
		{
			name:      "signals stack",
			geo:       &core.GeoData{CountryCode: "YY", Anonymizer: true},
			wantScore: 0.70,
			wantTags:  []string{"anonymizing_network", "high_risk_geo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := a.Analyze(context.Background(), geoSubmission(tt.geo))
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, result.Score, 1e-9)
			if len(tt.wantTags) == 0 {
				assert.Empty(t, result.Tags)
			} else {
				assert.Equal(t, tt.wantTags, result.Tags)
			}
		})
	}
}

func TestIPReputationAnalyzerUnavailableWithoutData(t *testing.T) {
	a := NewIPReputationAnalyzer(zap.NewNop())

	_, err := a.Analyze(context.Background(), &core.Submission{Text: "hello"})
	assert.ErrorIs(t, err, core.ErrUnavailable)

	_, err = a.Analyze(context.Background(), geoSubmission(&core.GeoData{ReputationScore: 0.5}))
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestIPReputationAnalyzerInvertsReputation(t *testing.T) {
	a := NewIPReputationAnalyzer(zap.NewNop())

	pristine, err := a.Analyze(context.Background(),
		geoSubmission(&core.GeoData{ReputationScore: 1.0, HasReputation: true}))
	require.NoError(t, err)
	assert.Zero(t, pristine.Score)
	assert.Empty(t, pristine.Tags)

	poor, err := a.Analyze(context.Background(),
		geoSubmission(&core.GeoData{ReputationScore: 0.1, HasReputation: true}))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, poor.Score, 1e-9)
	assert.Equal(t, []string{"poor_ip_reputation"}, poor.Tags)
}
