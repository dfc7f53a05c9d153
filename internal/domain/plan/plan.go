// Package plan implements subscription plan gating. Feature flags and usage
// limits are static lookup tables keyed by plan name.
package plan

const (
	PlanFree       = "free"
	PlanSolo       = "solo"
	PlanGroup      = "group"
	PlanEnterprise = "enterprise"
)

const (
	FeatureAIBriefs       = "ai_briefs"
	FeatureAtRiskDash     = "at_risk_dashboard"
	FeatureTeamManagement = "team_management"
	FeatureExports        = "exports"
)

const (
	LimitMaxClients       = "max_clients"
	LimitAIBriefsPerMonth = "ai_briefs_per_month"
	LimitMaxTeamMembers   = "max_team_members"
)

// Unlimited marks a limit with no cap.
const Unlimited = -1

var planFeatures = map[string][]string{
	PlanFree:       {},
	PlanSolo:       {FeatureAIBriefs, FeatureAtRiskDash},
	PlanGroup:      {FeatureAIBriefs, FeatureAtRiskDash, FeatureTeamManagement, FeatureExports},
	PlanEnterprise: {FeatureAIBriefs, FeatureAtRiskDash, FeatureTeamManagement, FeatureExports},
}

var planLimits = map[string]map[string]int{
	PlanFree: {
		LimitMaxClients:       10,
		LimitAIBriefsPerMonth: 0,
		LimitMaxTeamMembers:   1,
	},
	PlanSolo: {
		LimitMaxClients:       75,
		LimitAIBriefsPerMonth: 50,
		LimitMaxTeamMembers:   1,
	},
	PlanGroup: {
		LimitMaxClients:       500,
		LimitAIBriefsPerMonth: 250,
		LimitMaxTeamMembers:   25,
	},
	PlanEnterprise: {
		LimitMaxClients:       Unlimited,
		LimitAIBriefsPerMonth: Unlimited,
		LimitMaxTeamMembers:   Unlimited,
	},
}

// ValidPlan reports whether the plan name is recognized.
func ValidPlan(plan string) bool {
	_, ok := planFeatures[plan]
	return ok
}

// HasFeature reports whether the plan includes the feature. Unknown plans
// have no features.
func HasFeature(plan, feature string) bool {
	for _, f := range planFeatures[plan] {
		if f == feature {
			return true
		}
	}
	return false
}

// LimitFor returns the cap for a limit under the plan. Unknown plans and
// limits return 0, meaning nothing is allowed.
func LimitFor(plan, limit string) int {
	limits, ok := planLimits[plan]
	if !ok {
		return 0
	}
	v, ok := limits[limit]
	if !ok {
		return 0
	}
	return v
}

// WithinLimit reports whether the current usage count leaves room under the
// plan's cap.
func WithinLimit(plan, limit string, current int) bool {
	cap := LimitFor(plan, limit)
	if cap == Unlimited {
		return true
	}
	return current < cap
}
