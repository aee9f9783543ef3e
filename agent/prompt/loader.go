package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/triage.txt
	triageRaw string

	//go:embed template/technical.txt
	technicalRaw string

	//go:embed template/billing.txt
	billingRaw string

	//go:embed template/refund.txt
	refundRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Triage    string
	Technical string
	Billing   string
	Refund    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Triage:    strings.TrimSpace(triageRaw),
		Technical: strings.TrimSpace(technicalRaw),
		Billing:   strings.TrimSpace(billingRaw),
		Refund:    strings.TrimSpace(refundRaw),
	}
}
