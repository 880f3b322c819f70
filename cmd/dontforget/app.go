package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jeanpaul/dontforget/internal/agent"
	"github.com/jeanpaul/dontforget/internal/config"
	"github.com/jeanpaul/dontforget/internal/logging"
	"github.com/jeanpaul/dontforget/internal/memory"
	"github.com/jeanpaul/dontforget/internal/metrics"
	"github.com/jeanpaul/dontforget/internal/provider"
	"github.com/jeanpaul/dontforget/internal/store"
	"github.com/jeanpaul/dontforget/internal/tools"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *store.Store
	metrics *metrics.Metrics
	agent   *agent.Agent
	memory  *memory.Service
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigFile: configFile, DotEnv: dotEnvFile})
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newApp loads configuration, opens the store and wires the model. Callers
// must call close.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	m := metrics.New("dontforget")

	reg := tools.NewRegistry()
	tools.RegisterDefaults(reg, st)

	agt, err := agent.New(newProvider(cfg, false, log), reg, agent.Options{
		MaxTurns: cfg.Orchestrator.MaxTurns,
		Policy:   agent.Policy(cfg.Orchestrator.DeletePolicy),
		Logger:   log,
		Metrics:  m,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	classifier := &memory.LLMClassifier{Provider: newProvider(cfg, true, log)}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		metrics: m,
		agent:   agt,
		memory:  memory.NewService(st, classifier, log, m),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close store", zap.Error(err))
	}
	a.log.Sync()
}

// newProvider builds the configured model client wrapped in retry and, when
// enabled, a circuit breaker. jsonMode asks for JSON-only answers.
func newProvider(cfg *config.Config, jsonMode bool, log *zap.Logger) provider.Provider {
	gen := provider.Generation{
		Temperature:  provider.Temperature(cfg.Provider.Temperature),
		JSONResponse: jsonMode,
	}

	var p provider.Provider
	switch cfg.Provider.Type {
	case "openai":
		p = provider.NewOpenAI("openai", cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model, gen)
	default:
		g := provider.NewGoogle(cfg.Provider.APIKey, cfg.Provider.Model, gen)
		if cfg.Provider.BaseURL != "" {
			g = g.WithBaseURL(cfg.Provider.BaseURL)
		}
		p = g
	}

	p = provider.WithRetry(p, cfg.Resilience.MaxRetries, log)
	if cfg.Resilience.Breaker {
		p = provider.WithBreaker(p, provider.DefaultBreakerConfig(), log)
	}
	return p
}
