package container

import (
	"bizinsight/adapters/datareadiness/coercer"
	"bizinsight/adapters/excel"
	"bizinsight/adapters/llm"
	"bizinsight/app"
	"bizinsight/internal"
	"bizinsight/internal/config"
	"bizinsight/internal/errors"
	"bizinsight/ports"
)

// Container holds the application dependencies built from configuration
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	Reader ports.TableReader
	// LLM is nil when no API key is configured
	LLM ports.LLMClient

	DashboardService *app.DashboardService
}

// Options adjust how the container is assembled
type Options struct {
	// DisableNarrative leaves the LLM client unset even when a key exists
	DisableNarrative bool
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *internal.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("configuration is required")
	}
	if log == nil {
		log = internal.DefaultLogger
	}

	readerConfig := excel.DefaultReaderConfig()
	c := &Container{
		Config: cfg,
		Logger: log,
		Reader: excel.NewDataReader(readerConfig, log),
	}

	switch {
	case opts.DisableNarrative:
		log.Info("[Container] narrative generation disabled")
	case !cfg.AI.HasCredential():
		log.Warn("[Container] no OpenAI API key configured, narrative generation disabled")
	default:
		client, err := llm.NewOpenAIClient(llm.Config{
			APIKey:  cfg.AI.OpenAIKey,
			Model:   cfg.AI.OpenAIModel,
			BaseURL: cfg.AI.BaseURL,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize LLM client")
		}
		c.LLM = client
		log.Info("[Container] narrative generation enabled (model %s)", cfg.AI.OpenAIModel)
	}

	c.DashboardService = app.NewDashboardService(
		c.Reader,
		c.LLM,
		coercer.NewTypeCoercer(readerConfig.CoercionConfig),
		cfg.Upload.PreviewRows,
		log,
	)
	return c, nil
}
