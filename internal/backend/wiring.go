package backend

import (
	"context"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/notify"
	"budget/internal/services"
	"budget/internal/sheets"
	"budget/internal/sheets/google"
)

// cleanupInterval is how often expired LRU entries are evicted.
const cleanupInterval = time.Minute

// NewRecordsCache returns the year cache used by BudgetService: Redis when
// REDIS_URL is set, so every process sees the same invalidations. Without
// Redis a process-local LRU is only used on the memory backend, where no
// other process can write the records; sqlite and mongo run uncached.
func NewRecordsCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[services.YearRecords], func()) {
	logger = logger.WithComponent(log.ComponentCache)

	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Using Redis cache", "ttl", cfg.CacheTTL.String())
			return cache.NewRedisCache[services.YearRecords](client, "budget:records:", cfg.CacheTTL), func() { _ = client.Close() }
		}
		logger.Warn("Redis unavailable", log.FieldError, err)
	}

	if BackendType(cfg.DataBackend) != MemoryBackend {
		logger.Info("Records cache disabled, store is shared with other processes", "backend", cfg.DataBackend)
		return nil, func() {}
	}

	lru := cache.NewLRUCache[services.YearRecords](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cleanupInterval)
	logger.Info("Using in-memory cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTL.String())
	return lru, manager.Stop
}

// NewNotifier builds the dispatcher for feed entries. With a broker the
// server only publishes and budget-worker forwards to Telegram; without one
// the server posts to Telegram itself. The returned client is nil when AMQP
// is not configured.
func NewNotifier(cfg *config.Config, logger *log.Logger) (*notify.Dispatcher, *amqp.Client) {
	logger = logger.WithComponent(log.ComponentNotify)

	var sinks []notify.Named
	var client *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, notifications stay local", log.FieldError, err)
		} else {
			client = c
			sinks = append(sinks, notify.Named{Name: "amqp", Sink: notify.NewBroker(c)})
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	if client == nil && cfg.TelegramEnabled() {
		if tg := NewTelegram(cfg, logger); tg != nil {
			sinks = append(sinks, notify.Named{Name: "telegram", Sink: tg})
		}
	}

	return notify.NewDispatcher(sinks...), client
}

// NewTelegram returns nil when Telegram is not configured or the token is
// rejected.
func NewTelegram(cfg *config.Config, logger *log.Logger) *notify.Telegram {
	if !cfg.TelegramEnabled() {
		return nil
	}
	tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		logger.Warn("Telegram disabled", log.FieldError, err)
		return nil
	}
	logger.Info("Telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	return tg
}

// SheetsCredentials maps the Google settings to the Sheets client
// credentials.
func SheetsCredentials(cfg *config.Config) google.Credentials {
	return google.Credentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
		OAuth: google.OAuthClient{
			JSON:      cfg.GoogleOAuthClientJSON,
			File:      cfg.GoogleOAuthClientFile,
			TokenFile: cfg.GoogleOAuthTokenFile,
		},
	}
}

// NewSheetsExporter returns the spreadsheet mirror, or nil when
// GOOGLE_SPREADSHEET_ID is not set.
func NewSheetsExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (*sheets.Exporter, error) {
	if !cfg.SheetsEnabled() {
		return nil, nil
	}
	client, err := google.New(ctx, cfg.GoogleSpreadsheetID, SheetsCredentials(cfg))
	if err != nil {
		return nil, err
	}
	logger.WithComponent(log.ComponentSheets).Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return sheets.NewExporter(client, logger), nil
}
