package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/assistant"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/config"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dealers"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/extract"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/inventory"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/llm"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/places"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/search"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/server"
)

// app holds the wired components shared by the commands.
type app struct {
	dealers   *dealers.Registry
	search    *search.Service
	assistant *assistant.Assistant
	places    *places.Client
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	registry, err := dealers.Load(cfg.Dealers.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load dealer registry: %w", err)
	}

	completer := llm.NewClient(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
	})
	if !completer.Configured() {
		log.Warn("text generation API key is not set; description search and assistant will fail")
	}

	placesClient := places.NewClient(places.Config{
		BaseURL: cfg.Places.BaseURL,
		APIKey:  cfg.Places.APIKey,
		Timeout: cfg.Places.Timeout,
	})
	if cfg.Places.APIKey == "" {
		log.Warn("places API key is not set; nearby dealer search will fail")
	}

	inv := inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout, registry)

	return &app{
		dealers:   registry,
		search:    search.NewService(inv, extract.New(completer), cfg.Search.MaxPerModel, cfg.Search.Limit),
		assistant: assistant.New(completer),
		places:    placesClient,
	}, nil
}

func (a *app) serverOptions(cfg *config.Config, log *slog.Logger) server.Options {
	return server.Options{
		Search:         a.search,
		Assistant:      a.assistant,
		Places:         a.places,
		Dealers:        a.dealers,
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
}
