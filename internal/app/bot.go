package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/arogya-bot/internal/config"
	"github.com/Adda-Baaj/arogya-bot/internal/datacache"
	"github.com/Adda-Baaj/arogya-bot/internal/diseases"
	"github.com/Adda-Baaj/arogya-bot/internal/dispatch"
	"github.com/Adda-Baaj/arogya-bot/internal/logger"
	"github.com/Adda-Baaj/arogya-bot/internal/nlu"
	"github.com/Adda-Baaj/arogya-bot/internal/outbreaks"
	"github.com/Adda-Baaj/arogya-bot/internal/remote"
	"github.com/Adda-Baaj/arogya-bot/internal/storage"
	"github.com/Adda-Baaj/arogya-bot/pkg/httpclient"
	"github.com/Adda-Baaj/arogya-bot/pkg/publishers"
)

// Bot bundles the components shared by the HTTP server and the CLI.
type Bot struct {
	Store      storage.Store
	Cache      *datacache.Cache
	Resolver   *diseases.Resolver
	Outbreaks  *outbreaks.Client
	Classifier nlu.Classifier
	Dispatcher *dispatch.Dispatcher
	Events     *publishers.Fanout

	log logger.Logger
}

// NewBot builds every component from cfg. The returned Bot owns the store
// and the publishers; release them with Close.
func NewBot(ctx context.Context, cfg *config.Config, log logger.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.CacheType, cfg.CacheBBoltPath, storage.Options{
		EntryTTL:        cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init cache storage: %w", err)
	}
	log.InfoObj("cache storage initialized", "storage_config", map[string]any{
		"type":                     cfg.CacheType,
		"path":                     cfg.CacheBBoltPath,
		"ttl_seconds":              int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanupInterval.Seconds()),
	})

	b := &Bot{Store: store, log: log}
	if err := b.wire(ctx, cfg); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bot) wire(ctx context.Context, cfg *config.Config) error {
	fetcher := remote.NewFetcher(httpclient.NewRestyClient(cfg.FetchTimeout), cfg.UserAgent)
	b.Cache = datacache.New(b.Store, fetcher, b.log)

	sources := diseases.DefaultSources(cfg.SymptomsURL, cfg.PreventionURL)
	if strings.TrimSpace(cfg.SourcesFile) != "" {
		loaded, err := diseases.LoadSources(cfg.SourcesFile)
		if err != nil {
			return fmt.Errorf("load dataset sources: %w", err)
		}
		sources = append(sources, loaded...)
	}
	b.Resolver = diseases.NewResolver(b.Cache, sources, b.log)
	b.log.InfoObj("dataset sources loaded", "sources_meta", map[string]any{
		"count":        len(sources),
		"sources_file": cfg.SourcesFile,
	})

	b.Outbreaks = outbreaks.NewClient(outbreaks.Feed{
		URL:      cfg.OutbreakFeedURL,
		Type:     cfg.OutbreakFeedType,
		LinkBase: cfg.OutbreakLinkBase,
		PageSize: cfg.OutbreakPageSize,
	}, outbreaks.DefaultFetcherRegistry(fetcher), b.log)

	classifier, err := nlu.New(ctx, nlu.Options{
		Type:       cfg.NLUType,
		WebhookURL: cfg.NLUWebhookURL,
		Timeout:    cfg.NLUTimeout,
		Dialogflow: nlu.DialogflowConfig{
			ProjectID:       cfg.DialogflowProjectID,
			LanguageCode:    cfg.DialogflowLanguage,
			CredentialsFile: cfg.DialogflowCredentialsFile,
		},
		OpenAI: nlu.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel},
	})
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}
	b.Classifier = classifier
	b.log.InfoObj("classifier initialized", "nlu_config", map[string]any{"type": cfg.NLUType})

	b.Dispatcher = dispatch.New(b.Resolver, b.Outbreaks, b.log)

	events, err := buildEvents(ctx, cfg.PublishersFile, b.log)
	if err != nil {
		return err
	}
	b.Events = events
	return nil
}

// buildEvents returns an empty fanout when no publishers file is configured.
func buildEvents(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil, log), nil
	}

	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(cfgs))
	for _, c := range cfgs {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs, log), nil
}

// Close drains pending events and closes the store.
func (b *Bot) Close() error {
	if b == nil {
		return nil
	}
	var errs []error
	if err := b.Events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
