package main

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	specialistx "github.com/zhafran/support-triage/agent/agents/specialist"
	triagex "github.com/zhafran/support-triage/agent/agents/triage"
	consolex "github.com/zhafran/support-triage/agent/console"
	contractx "github.com/zhafran/support-triage/agent/contract"
	llmx "github.com/zhafran/support-triage/agent/llm"
	tracex "github.com/zhafran/support-triage/agent/trace"
	toolx "github.com/zhafran/support-triage/agent/tool"
	configx "github.com/zhafran/support-triage/pkg/config"
	_ "github.com/zhafran/support-triage/pkg/logger/autoload"
	openaix "github.com/zhafran/support-triage/pkg/openai"
)

func main() {
	ctx := context.Background()

	// OPENAI_API_KEY is required; config loading fails before any prompt
	// is shown when it is absent.
	llmCfg, err := configx.New[llmx.Config]("OPENAI")
	if err != nil {
		log.Fatal().Err(err).Msg("load openai config")
	}

	client := openaix.NewClient(llmCfg.OpenAIFor(contractx.AgentTypeTriage))
	if err := openaix.Healthcheck(ctx, client); err != nil {
		log.Fatal().Err(err).Msg("openai healthcheck")
	}

	gateway := toolx.NewGateway()

	registry, err := specialistx.NewRegistry(ctx, *llmCfg, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent registry")
	}

	svc, err := triagex.New(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("build triage service")
	}

	traceCfg := configx.MustNew[tracex.Config]("TRACE")
	var traceStore contractx.TraceStore = tracex.NewNoopStore()
	if strings.TrimSpace(traceCfg.DSN) != "" {
		store, err := tracex.NewStore(*traceCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("open trace store")
		}
		if err := store.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init trace store")
		}
		defer store.Close()
		traceStore = store
	}

	sessCfg := configx.MustNew[consolex.Config]("SESSION")
	session := consolex.NewSession(*sessCfg, svc, traceStore, os.Stdin, os.Stdout)

	if err := session.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("session loop")
	}
}
