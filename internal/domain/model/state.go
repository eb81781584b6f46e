package model

import "math"

// StateSignals is the bundle of facts consulted to classify a user's
// lifecycle state. It is assembled per resolve call; inputs that are unknown
// stay at their zero value, which every predicate treats as "not observed".
type StateSignals struct {
	IsVerified         bool       `json:"is_verified"`
	HasStartedResume   bool       `json:"has_started_resume"`
	HasCompletedResume bool       `json:"has_completed_resume"`
	PlanStatus         PlanStatus `json:"plan_status"`
	PaymentFailed      bool       `json:"payment_failed"`
	JustConverted      bool       `json:"just_converted"`
	Credits            int64      `json:"credits"`
	InactiveDays       int        `json:"inactive_days"`
	UsageDecline       bool       `json:"usage_decline"`
	AdvancedUsage      bool       `json:"advanced_usage"`
	FeatureBlocked     bool       `json:"feature_blocked"`
	ResumeCount        int        `json:"resume_count"`
}

// StateSignalPatch is a partial update. Nil fields keep the value from the
// previous snapshot, so callers only report what they actually observed.
type StateSignalPatch struct {
	IsVerified         *bool
	HasStartedResume   *bool
	HasCompletedResume *bool
	PlanStatus         *PlanStatus
	PaymentFailed      *bool
	JustConverted      *bool
	Credits            *int64
	InactiveDays       *int
	UsageDecline       *bool
	AdvancedUsage      *bool
	FeatureBlocked     *bool
	ResumeCount        *int
}

func (p StateSignalPatch) ApplyTo(s StateSignals) StateSignals {
	if p.IsVerified != nil {
		s.IsVerified = *p.IsVerified
	}
	if p.HasStartedResume != nil {
		s.HasStartedResume = *p.HasStartedResume
	}
	if p.HasCompletedResume != nil {
		s.HasCompletedResume = *p.HasCompletedResume
	}
	if p.PlanStatus != nil {
		s.PlanStatus = *p.PlanStatus
	}
	if p.PaymentFailed != nil {
		s.PaymentFailed = *p.PaymentFailed
	}
	if p.JustConverted != nil {
		s.JustConverted = *p.JustConverted
	}
	if p.Credits != nil {
		s.Credits = *p.Credits
	}
	if p.InactiveDays != nil {
		s.InactiveDays = *p.InactiveDays
	}
	if p.UsageDecline != nil {
		s.UsageDecline = *p.UsageDecline
	}
	if p.AdvancedUsage != nil {
		s.AdvancedUsage = *p.AdvancedUsage
	}
	if p.FeatureBlocked != nil {
		s.FeatureBlocked = *p.FeatureBlocked
	}
	if p.ResumeCount != nil {
		s.ResumeCount = *p.ResumeCount
	}
	return s
}

// Lifecycle state labels. These are the only values ResolveState returns.
const (
	StateUnverified          = "Unverified"
	StatePaymentFailed       = "Payment Failed"
	StatePaidCreditExhausted = "Paid – Credit Exhausted"
	StateJustConverted       = "Just Converted"
	StatePowerUser           = "Power User"
	StateDormant             = "Dormant"
	StateUsageDeclining      = "Usage Declining"
	StateFeatureBlocked      = "Feature Blocked"
	StatePaidActive          = "Paid Active"
	StateFreeResumeCompleted = "Free – Resume Completed"
	StateFreeActive          = "Free – Active"
	StateNewUser             = "New User"
)

const (
	// DormantAfterDays is the inactivity threshold for the Dormant state.
	DormantAfterDays = 30
	// PowerUserResumeCount is the minimum resume count for Power User.
	PowerUserResumeCount = 3
)

// StateDefinition couples a lifecycle label with its predicate. Order decides
// precedence when several predicates co-match: the lowest Order wins.
type StateDefinition struct {
	Label   string
	Order   int
	Matches func(StateSignals) bool
}

// StateCatalog is the fixed, ordered catalog evaluated by ResolveState.
// Billing problems outrank engagement states (Payment Failed beats Dormant),
// and the final entry matches unconditionally so resolution is total.
var StateCatalog = []StateDefinition{
	{Label: StateUnverified, Order: 10, Matches: func(s StateSignals) bool {
		return !s.IsVerified
	}},
	{Label: StatePaymentFailed, Order: 20, Matches: func(s StateSignals) bool {
		return s.PaymentFailed
	}},
	{Label: StatePaidCreditExhausted, Order: 30, Matches: func(s StateSignals) bool {
		return s.PlanStatus == PlanStatusPaid && s.Credits <= 0
	}},
	{Label: StateJustConverted, Order: 40, Matches: func(s StateSignals) bool {
		return s.JustConverted
	}},
	{Label: StatePowerUser, Order: 50, Matches: func(s StateSignals) bool {
		return s.AdvancedUsage && s.ResumeCount >= PowerUserResumeCount
	}},
	{Label: StateDormant, Order: 60, Matches: func(s StateSignals) bool {
		return s.InactiveDays >= DormantAfterDays
	}},
	{Label: StateUsageDeclining, Order: 70, Matches: func(s StateSignals) bool {
		return s.UsageDecline
	}},
	{Label: StateFeatureBlocked, Order: 80, Matches: func(s StateSignals) bool {
		return s.FeatureBlocked
	}},
	{Label: StatePaidActive, Order: 90, Matches: func(s StateSignals) bool {
		return s.PlanStatus == PlanStatusPaid
	}},
	{Label: StateFreeResumeCompleted, Order: 100, Matches: func(s StateSignals) bool {
		return s.PlanStatus == PlanStatusFree && s.HasCompletedResume
	}},
	{Label: StateFreeActive, Order: 110, Matches: func(s StateSignals) bool {
		return s.PlanStatus == PlanStatusFree
	}},
	{Label: StateNewUser, Order: math.MaxInt, Matches: func(StateSignals) bool {
		return true
	}},
}

// ResolveState maps a signal bundle to exactly one lifecycle label. It is a
// pure function: no I/O, no clock, no randomness. Time only enters through
// the InactiveDays signal computed by the caller.
func ResolveState(s StateSignals) string {
	for _, def := range StateCatalog {
		if def.Matches(s) {
			return def.Label
		}
	}
	// Unreachable: the catalog ends with an unconditional catch-all.
	return StateNewUser
}
