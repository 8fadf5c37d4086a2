// Package risk maps a probability to a risk tier and a recommendation.
package risk

// Level is a discrete risk tier.
type Level string

const (
	Low      Level = "low"
	Moderate Level = "moderate"
	High     Level = "high"
)

const (
	// LowUpper is the exclusive upper bound of the low tier.
	LowUpper = 0.30
	// HighLower is the inclusive lower bound of the high tier.
	HighLower = 0.60
	// ReferralThreshold adds a coordinated-evaluation notice to high scores,
	// independently of HighLower.
	ReferralThreshold = 0.70
)

const (
	RecommendMaintain = "Maintain healthy habits"
	RecommendImprove  = "Improve lifestyle with personalized coaching"
	RecommendConsult  = "Consult a health professional urgently"
	ReferralClause    = " and arrange a coordinated professional medical evaluation"
)

// Interpret returns the tier and recommendation for score.
func Interpret(score float64) (Level, string) {
	switch {
	case score < LowUpper:
		return Low, RecommendMaintain
	case score < HighLower:
		return Moderate, RecommendImprove
	}
	rec := RecommendConsult
	if NeedsReferral(score) {
		rec += ReferralClause
	}
	return High, rec
}

// NeedsReferral reports whether score warrants professional referral.
func NeedsReferral(score float64) bool {
	return score >= ReferralThreshold
}
