package tool

import (
	"testing"

	contractx "github.com/zhafran/support-triage/agent/contract"
)

func TestVisibility(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		issue   contractx.IssueType
		premium bool
		want    []contractx.ToolID
	}{
		{
			name:    "refund premium",
			issue:   contractx.IssueRefund,
			premium: true,
			want:    []contractx.ToolID{contractx.ToolRefund},
		},
		{
			name:    "refund non-premium",
			issue:   contractx.IssueRefund,
			premium: false,
			want:    []contractx.ToolID{contractx.ToolRefund, contractx.ToolCheckIssueType},
		},
		{
			name:    "technical non-premium",
			issue:   contractx.IssueTechnical,
			premium: false,
			want:    []contractx.ToolID{contractx.ToolCheckIssueType, contractx.ToolRestartService},
		},
		{
			name:    "billing premium",
			issue:   contractx.IssueBilling,
			premium: true,
			want:    nil,
		},
		{
			name:    "unknown issue non-premium",
			issue:   contractx.IssueUnknown,
			premium: false,
			want:    []contractx.ToolID{contractx.ToolCheckIssueType},
		},
		{
			name:    "unknown issue premium",
			issue:   contractx.IssueUnknown,
			premium: true,
			want:    nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Visibility(tc.issue, tc.premium)
			if len(got) != len(tc.want) {
				t.Fatalf("Visibility(%s, %v) has %d tools, want %d", tc.issue, tc.premium, len(got), len(tc.want))
			}
			for _, id := range tc.want {
				if _, ok := got[id]; !ok {
					t.Errorf("Visibility(%s, %v) missing %s", tc.issue, tc.premium, id)
				}
			}
		})
	}
}

func TestEnabledRefundPredicate(t *testing.T) {
	t.Parallel()

	for _, issue := range []contractx.IssueType{contractx.IssueTechnical, contractx.IssueBilling, contractx.IssueUnknown} {
		if Enabled(contractx.ToolRefund, issue, true) {
			t.Errorf("refund must be disabled for issue=%s", issue)
		}
	}
	if !Enabled(contractx.ToolRefund, contractx.IssueRefund, false) {
		t.Error("refund must be enabled for refund issues regardless of premium")
	}
}

func TestEnabledCheckIssueTypePredicate(t *testing.T) {
	t.Parallel()

	for _, issue := range []contractx.IssueType{contractx.IssueTechnical, contractx.IssueBilling, contractx.IssueRefund, contractx.IssueUnknown} {
		if !Enabled(contractx.ToolCheckIssueType, issue, false) {
			t.Errorf("check_issue_type must be enabled for non-premium, issue=%s", issue)
		}
		if Enabled(contractx.ToolCheckIssueType, issue, true) {
			t.Errorf("check_issue_type must be disabled for premium, issue=%s", issue)
		}
	}
}

func TestVisibleForIntersectsCatalog(t *testing.T) {
	t.Parallel()

	user := contractx.UserContext{Name: "Areeba", Premium: false, Issue: contractx.IssueTechnical}

	got := VisibleFor(contractx.AgentTypeTechnical, user)
	if len(got) != 1 || got[0] != contractx.ToolRestartService {
		t.Fatalf("unexpected technical visible set: %#v", got)
	}

	if got := VisibleFor(contractx.AgentTypeBilling, user); len(got) != 0 {
		t.Fatalf("billing has no catalog, got %#v", got)
	}

	// refund agent's only tool is gated away on technical issues
	if got := VisibleFor(contractx.AgentTypeRefund, user); len(got) != 0 {
		t.Fatalf("refund tool must not be visible on technical issues, got %#v", got)
	}
}
