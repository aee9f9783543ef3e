package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/zhafran/support-triage/agent/contract"
	openaix "github.com/zhafran/support-triage/pkg/openai"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	TriageModel          string  `envconfig:"TRIAGE_MODEL" split_words:"true"`
	TechnicalModel       string  `envconfig:"TECHNICAL_MODEL" split_words:"true"`
	BillingModel         string  `envconfig:"BILLING_MODEL" split_words:"true"`
	RefundModel          string  `envconfig:"REFUND_MODEL" split_words:"true"`
	TriageTemperature    float32 `envconfig:"TRIAGE_TEMPERATURE" split_words:"true" default:"-1"`
	TechnicalTemperature float32 `envconfig:"TECHNICAL_TEMPERATURE" split_words:"true" default:"-1"`
	BillingTemperature   float32 `envconfig:"BILLING_TEMPERATURE" split_words:"true" default:"-1"`
	RefundTemperature    float32 `envconfig:"REFUND_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenAIFor resolves the model configuration for one agent role, applying
// any per-role model or temperature override.
func (c Config) OpenAIFor(agentType contractx.AgentType) openaix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch agentType {
	case contractx.AgentTypeTriage:
		override(c.TriageModel, c.TriageTemperature)
	case contractx.AgentTypeTechnical:
		override(c.TechnicalModel, c.TechnicalTemperature)
	case contractx.AgentTypeBilling:
		override(c.BillingModel, c.BillingTemperature)
	case contractx.AgentTypeRefund:
		override(c.RefundModel, c.RefundTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openaix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
