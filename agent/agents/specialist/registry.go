package specialist

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/zhafran/support-triage/agent/contract"
	llmx "github.com/zhafran/support-triage/agent/llm"
	promptx "github.com/zhafran/support-triage/agent/prompt"
)

type registryImpl struct {
	router    contractx.Router
	technical contractx.Specialist
	billing   contractx.Specialist
	refund    contractx.Specialist
}

func (r *registryImpl) Router() contractx.Router {
	return r.router
}

func (r *registryImpl) Technical() contractx.Specialist {
	return r.technical
}

func (r *registryImpl) Billing() contractx.Specialist {
	return r.billing
}

func (r *registryImpl) Refund() contractx.Specialist {
	return r.refund
}

// NewRegistry builds the triage router and the three specialist agents,
// each on its own chat model so roles can run different models or
// temperatures.
func NewRegistry(ctx context.Context, cfg llmx.Config, gateway contractx.ToolGateway) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()
	for _, p := range []struct {
		name string
		text string
	}{
		{"triage", prompts.Triage},
		{"technical", prompts.Technical},
		{"billing", prompts.Billing},
		{"refund", prompts.Refund},
	} {
		if strings.TrimSpace(p.text) == "" {
			return nil, fmt.Errorf("%w: %s", contractx.ErrPromptMissing, p.name)
		}
	}

	triageModelCfg := cfg.OpenAIFor(contractx.AgentTypeTriage)
	triageModel, err := triageModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create triage model: %v", contractx.ErrModelInvoke, err)
	}
	technicalModelCfg := cfg.OpenAIFor(contractx.AgentTypeTechnical)
	technicalModel, err := technicalModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create technical model: %v", contractx.ErrModelInvoke, err)
	}
	billingModelCfg := cfg.OpenAIFor(contractx.AgentTypeBilling)
	billingModel, err := billingModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create billing model: %v", contractx.ErrModelInvoke, err)
	}
	refundModelCfg := cfg.OpenAIFor(contractx.AgentTypeRefund)
	refundModel, err := refundModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create refund model: %v", contractx.ErrModelInvoke, err)
	}

	router, err := newRouter(ctx, triageModel, prompts.Triage, gateway)
	if err != nil {
		return nil, err
	}

	technical, err := newSpecialist(ctx, contractx.AgentTypeTechnical, technicalModel, prompts.Technical, gateway)
	if err != nil {
		return nil, err
	}
	billing, err := newSpecialist(ctx, contractx.AgentTypeBilling, billingModel, prompts.Billing, gateway)
	if err != nil {
		return nil, err
	}
	refund, err := newSpecialist(ctx, contractx.AgentTypeRefund, refundModel, prompts.Refund, gateway)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		router:    router,
		technical: technical,
		billing:   billing,
		refund:    refund,
	}, nil
}
