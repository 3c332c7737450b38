package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/delivery"
	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/logger"
	"github.com/spigell/remote-digest/internal/reporter"
	"github.com/spigell/remote-digest/internal/runlock"
	"github.com/spigell/remote-digest/internal/secrets"
	"github.com/spigell/remote-digest/internal/store"
)

// setup builds the logger and reads the config. Any failure here is fatal.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

func redacted(config *Config) Config {
	c := *config
	if c.Store.PostgresDSN != "" {
		c.Store.PostgresDSN = "***"
	}
	if c.Lock.RedisURL != "" {
		c.Lock.RedisURL = "***"
	}
	if c.Telegram.Token != "" {
		c.Telegram.Token = "***"
	}
	return c
}

func storeConfig(config *Config) (store.Config, error) {
	cfg := store.Config{
		Driver:          config.Store.Driver,
		PostingsFile:    config.Store.PostingsFile,
		SubscribersFile: config.Store.SubscribersFile,
		SQLitePath:      config.Store.SQLitePath,
	}

	if strings.ToLower(strings.TrimSpace(cfg.Driver)) != store.DriverPostgres {
		return cfg, nil
	}

	dsn, err := secrets.Load(secrets.Source{
		Name:  "postgres dsn",
		Value: config.Store.PostgresDSN,
		File:  config.Store.PostgresDSNFile,
		Env:   "DATABASE_URL",
	})
	if err != nil {
		return cfg, fmt.Errorf("%w (set store.postgres-dsn, store.postgres-dsn-file or DATABASE_URL)", err)
	}
	cfg.PostgresDSN = dsn
	return cfg, nil
}

func openStore(ctx context.Context, config *Config, logger *zap.Logger) (store.Store, error) {
	cfg, err := storeConfig(config)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg, logger)
}

func newEngine(config *Config, st store.Store, onlyEmail string, logger *zap.Logger) (*digest.Engine, error) {
	sender, err := delivery.New(delivery.Config{
		Mode:      config.Delivery.Mode,
		OutboxDir: config.Delivery.OutboxDir,
		Subject:   config.Delivery.Subject,
	}, logger.Named("delivery"))
	if err != nil {
		return nil, err
	}

	weights := config.Scoring
	return digest.New(digest.Config{
		WindowDays:      config.Matching.WindowDays,
		TopN:            config.Matching.TopN,
		SalaryThreshold: config.Matching.SalaryThreshold,
		Weights:         &weights,
		DisabledFilters: config.Matching.DisabledFilters,
		OnlyEmail:       onlyEmail,
	}, digest.Deps{
		Postings:    st,
		Subscribers: st,
		Sender:      sender,
		Logger:      logger,
	})
}

func newLocker(ctx context.Context, config *Config, logger *zap.Logger) (runlock.Locker, error) {
	url, err := secrets.Optional(secrets.Source{
		Name:  "redis url",
		Value: config.Lock.RedisURL,
		File:  config.Lock.RedisURLFile,
		Env:   "REDIS_URL",
	})
	if err != nil {
		return nil, err
	}

	if url == "" {
		logger.Debug("no redis url configured, runs are not locked")
		return runlock.Nop{}, nil
	}

	return runlock.NewRedis(ctx, url, config.Lock.Key, config.Lock.TTL, logger.Named("runlock"))
}

func newReporter(config *Config, logger *zap.Logger) (reporter.Reporter, error) {
	token, err := secrets.Optional(secrets.Source{
		Name:  "telegram token",
		Value: config.Telegram.Token,
		File:  config.Telegram.TokenFile,
		Env:   "TELEGRAM_BOT_TOKEN",
	})
	if err != nil {
		return nil, err
	}

	if token == "" {
		return reporter.Nop{}, nil
	}

	return reporter.NewTelegramReporter(token, config.Telegram.ChatID, logger.Named("reporter"))
}

// runOnce is one locked engine run followed by the operator report. A held
// lock skips the run without an error.
func runOnce(ctx context.Context, engine *digest.Engine, locker runlock.Locker, rep reporter.Reporter, config *Config, logger *zap.Logger) error {
	token := uuid.NewString()

	err := runlock.AcquireWait(ctx, locker, token, config.Lock.WaitAttempts, config.Lock.WaitInterval)
	if errors.Is(err, runlock.ErrLocked) {
		logger.Info("skipping run", zap.String("reason", "another run is in progress"))
		return nil
	}
	if err != nil {
		return err
	}
	defer releaseLock(locker, token, logger)

	report, err := engine.Run(ctx)
	if err != nil {
		if rerr := rep.SendError(err); rerr != nil {
			logger.Warn("reporting run error", zap.Error(rerr))
		}
		return err
	}

	if err := rep.SendReport(report); err != nil {
		logger.Warn("sending run report", zap.Error(err))
	}
	return nil
}

func releaseLock(locker runlock.Locker, token string, logger *zap.Logger) {
	// The run context may already be cancelled; release on a fresh one.
	if err := locker.Release(context.Background(), token); err != nil {
		logger.Warn("releasing run lock", zap.Error(err))
	}
}
