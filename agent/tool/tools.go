package tool

import (
	"fmt"

	contractx "github.com/zhafran/support-triage/agent/contract"
)

// Tool bodies are pure functions of the turn context. The refund and restart
// operations are simulated; the only output is the status string.

func executeRefund(user contractx.UserContext) contractx.ToolResult {
	if user.Premium {
		return contractx.ToolResult{
			Tool:   contractx.ToolRefund,
			Result: fmt.Sprintf("Refund processed successfully for %s.", user.Name),
		}
	}
	return contractx.ToolResult{
		Tool:   contractx.ToolRefund,
		Result: fmt.Sprintf("%s, you need a premium subscription to request a refund.", user.Name),
	}
}

func executeCheckIssueType(user contractx.UserContext) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:   contractx.ToolCheckIssueType,
		Result: string(user.Issue),
	}
}

func executeRestartService(user contractx.UserContext) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:   contractx.ToolRestartService,
		Result: fmt.Sprintf("Technical service has been restarted for %s.", user.Name),
	}
}
