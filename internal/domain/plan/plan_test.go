package plan

import "testing"

func TestHasFeature(t *testing.T) {
	tests := []struct {
		plan    string
		feature string
		want    bool
	}{
		{PlanFree, FeatureAIBriefs, false},
		{PlanFree, FeatureAtRiskDash, false},
		{PlanSolo, FeatureAIBriefs, true},
		{PlanSolo, FeatureAtRiskDash, true},
		{PlanSolo, FeatureTeamManagement, false},
		{PlanGroup, FeatureTeamManagement, true},
		{PlanGroup, FeatureExports, true},
		{PlanEnterprise, FeatureAIBriefs, true},
		{"unknown", FeatureAIBriefs, false},
	}
	for _, tt := range tests {
		if got := HasFeature(tt.plan, tt.feature); got != tt.want {
			t.Errorf("HasFeature(%q, %q) = %v, want %v", tt.plan, tt.feature, got, tt.want)
		}
	}
}

func TestLimitFor(t *testing.T) {
	tests := []struct {
		plan  string
		limit string
		want  int
	}{
		{PlanFree, LimitMaxClients, 10},
		{PlanSolo, LimitMaxClients, 75},
		{PlanGroup, LimitAIBriefsPerMonth, 250},
		{PlanEnterprise, LimitMaxClients, Unlimited},
		{"unknown", LimitMaxClients, 0},
		{PlanFree, "unknown_limit", 0},
	}
	for _, tt := range tests {
		if got := LimitFor(tt.plan, tt.limit); got != tt.want {
			t.Errorf("LimitFor(%q, %q) = %d, want %d", tt.plan, tt.limit, got, tt.want)
		}
	}
}

func TestWithinLimit(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		limit   string
		current int
		want    bool
	}{
		{"under cap", PlanFree, LimitMaxClients, 9, true},
		{"at cap", PlanFree, LimitMaxClients, 10, false},
		{"over cap", PlanFree, LimitMaxClients, 11, false},
		{"unlimited", PlanEnterprise, LimitMaxClients, 100000, true},
		{"zero cap", PlanFree, LimitAIBriefsPerMonth, 0, false},
		{"unknown plan", "unknown", LimitMaxClients, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinLimit(tt.plan, tt.limit, tt.current); got != tt.want {
				t.Errorf("WithinLimit(%q, %q, %d) = %v, want %v", tt.plan, tt.limit, tt.current, got, tt.want)
			}
		})
	}
}

func TestValidPlan(t *testing.T) {
	for _, p := range []string{PlanFree, PlanSolo, PlanGroup, PlanEnterprise} {
		if !ValidPlan(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	if ValidPlan("trial") {
		t.Error("expected trial to be invalid")
	}
}
