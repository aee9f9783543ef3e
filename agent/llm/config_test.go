package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/zhafran/support-triage/agent/contract"
)

func TestValidateRequiresAPIKey(t *testing.T) {
	t.Parallel()

	cfg := Config{Model: "gpt-4o-mini"}
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing api key, got %v", err)
	}

	cfg.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:            "sk-test",
		Model:             "gpt-4o-mini",
		Temperature:       0.5,
		TriageModel:       "gpt-4o",
		TriageTemperature: 0,
		RefundTemperature: -1,
	}

	triage := cfg.OpenAIFor(contractx.AgentTypeTriage)
	if triage.Model != "gpt-4o" {
		t.Fatalf("triage model override not applied: %s", triage.Model)
	}
	if triage.Temperature != 0 {
		t.Fatalf("triage temperature override not applied: %v", triage.Temperature)
	}

	refund := cfg.OpenAIFor(contractx.AgentTypeRefund)
	if refund.Model != "gpt-4o-mini" {
		t.Fatalf("refund must fall back to the default model, got %s", refund.Model)
	}
	if refund.Temperature != 0.5 {
		t.Fatalf("negative override must keep the default temperature, got %v", refund.Temperature)
	}
}

func TestOpenAIForBuildsModelPerRole(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:             "sk-test",
		Model:              "gpt-4o-mini",
		MaxCompletionToken: 2000,
		Temperature:        0.5,
		Timeout:            30 * time.Second,
	}

	roles := []contractx.AgentType{
		contractx.AgentTypeTriage,
		contractx.AgentTypeTechnical,
		contractx.AgentTypeBilling,
		contractx.AgentTypeRefund,
	}
	for _, role := range roles {
		modelCfg := cfg.OpenAIFor(role)
		m, err := modelCfg.New(context.Background())
		if err != nil {
			t.Fatalf("build model for role %s: %v", role, err)
		}
		if m == nil {
			t.Fatalf("nil model for role %s", role)
		}
	}
}
