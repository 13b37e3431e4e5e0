package model

import "time"

// TierPro is the highest paid subscription tier; it unlocks the semantic stage.
const TierPro = "pro"

// AdvancedMatchingConfig is a user's feed filtering policy.
type AdvancedMatchingConfig struct {
	UserID               string
	Prompt               string   // free-text inclusion/exclusion intent
	BlacklistedCompanies []string // exact, case-insensitive company names
}

// Profile is a user's entitlement record.
type Profile struct {
	UserID              string
	SubscriptionTier    string
	SubscriptionEndDate time.Time
}

// HasAdvancedMatching reports whether the profile is entitled to the semantic
// stage at the given instant. A nil profile is never entitled.
func (p *Profile) HasAdvancedMatching(now time.Time) bool {
	if p == nil {
		return false
	}
	return p.SubscriptionTier == TierPro && p.SubscriptionEndDate.After(now)
}

// UsageIncrement is one metered LLM call.
type UsageIncrement struct {
	UserID       string
	Cost         float64 // USD
	InputTokens  int64
	OutputTokens int64
}

// Usage is the accumulated LLM usage of a user.
type Usage struct {
	UserID       string
	Calls        int64
	Cost         float64
	InputTokens  int64
	OutputTokens int64
}
