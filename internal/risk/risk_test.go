package risk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpret(t *testing.T) {
	cases := []struct {
		score    float64
		level    Level
		referral bool
	}{
		{0, Low, false},
		{0.2999, Low, false},
		{0.30, Moderate, false},
		{0.5999, Moderate, false},
		{0.60, High, false},
		{0.6999, High, false},
		{0.70, High, true},
		{1, High, true},
	}
	for _, tc := range cases {
		level, rec := Interpret(tc.score)
		assert.Equal(t, tc.level, level, "score %v", tc.score)
		assert.Equal(t, tc.referral, strings.HasSuffix(rec, ReferralClause), "score %v", tc.score)
		assert.Equal(t, tc.referral, NeedsReferral(tc.score), "score %v", tc.score)
	}
}

func TestInterpret_Recommendations(t *testing.T) {
	_, rec := Interpret(0.1)
	assert.Equal(t, RecommendMaintain, rec)
	_, rec = Interpret(0.45)
	assert.Equal(t, RecommendImprove, rec)
	_, rec = Interpret(0.65)
	assert.Equal(t, RecommendConsult, rec)
	_, rec = Interpret(0.9)
	assert.Equal(t, RecommendConsult+ReferralClause, rec)
}

func TestThresholdsAreIndependent(t *testing.T) {
	assert.Less(t, LowUpper, HighLower)
	assert.Greater(t, ReferralThreshold, HighLower)
}
