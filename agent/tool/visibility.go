package tool

import (
	contractx "github.com/zhafran/support-triage/agent/contract"
)

// Visibility returns the set of tools callable for a turn. It is a pure
// function of the issue category and premium flag:
//   - refund is offered only for refund issues,
//   - check_issue_type is offered only to non-premium users,
//   - restart_service is offered only for technical issues.
//
// Unknown issue values simply produce a smaller set; there is no failure mode.
func Visibility(issue contractx.IssueType, premium bool) map[contractx.ToolID]struct{} {
	visible := make(map[contractx.ToolID]struct{}, 3)
	if issue == contractx.IssueRefund {
		visible[contractx.ToolRefund] = struct{}{}
	}
	if !premium {
		visible[contractx.ToolCheckIssueType] = struct{}{}
	}
	if issue == contractx.IssueTechnical {
		visible[contractx.ToolRestartService] = struct{}{}
	}
	return visible
}

func Enabled(id contractx.ToolID, issue contractx.IssueType, premium bool) bool {
	_, ok := Visibility(issue, premium)[id]
	return ok
}

// VisibleFor intersects an agent's static catalog with the turn's visible set.
func VisibleFor(agentType contractx.AgentType, user contractx.UserContext) []contractx.ToolID {
	visible := Visibility(user.Issue, user.Premium)
	var ids []contractx.ToolID
	for _, id := range catalogToolIDs(agentType) {
		if _, ok := visible[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
