package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bnema/windsurf-accounts-cli/internal/adapters/httpapi"
	sqliteoplog "github.com/bnema/windsurf-accounts-cli/internal/adapters/oplog/sqlite"
	tomlrepo "github.com/bnema/windsurf-accounts-cli/internal/adapters/repo/toml"
	"github.com/bnema/windsurf-accounts-cli/internal/application"
	"github.com/bnema/windsurf-accounts-cli/internal/ports"
)

const configDirName = ".windsurf-manager"

type app struct {
	store     *application.Store
	queue     *application.UpdateQueue
	refresher *application.Refresher
	scheduler *application.Scheduler
	oplog     *sqliteoplog.Store

	logger zerolog.Logger
	now    func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.GetString("log.level"))

	apiClient := httpapi.NewClient(
		cfg.GetString("api.base_url"),
		cfg.GetString("api.token"),
		http.DefaultClient,
		cfg.GetFloat64("api.requests_per_second"),
	)

	settings, err := tomlrepo.NewSettings(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}

	oplogStore, err := sqliteoplog.NewStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("wire operation log: %w", err)
	}

	clock := ports.SystemClock{}
	store := application.NewStore(apiClient, settings, oplogStore, clock, logger)
	queue := application.NewUpdateQueue(store, apiClient, logger, application.DefaultFlushDelay)
	refresher := application.NewRefresher(store, queue, apiClient, clock, logger)
	scheduler := application.NewScheduler(refresher, application.AutoRefreshConfig{
		Enabled:             cfg.GetBool("refresh.auto"),
		Interval:            cfg.GetDuration("refresh.interval"),
		ConcurrentLimit:     cfg.GetInt("refresh.concurrent_limit"),
		UnlimitedConcurrent: cfg.GetBool("refresh.unlimited"),
	}, logger)

	return &app{
		store:     store,
		queue:     queue,
		refresher: refresher,
		scheduler: scheduler,
		oplog:     oplogStore,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func loadConfig(configDir string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName("config")
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(configDir)

	cfg.SetEnvPrefix("WA")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault("api.base_url", "http://127.0.0.1:8045")
	cfg.SetDefault("api.token", "")
	cfg.SetDefault("api.requests_per_second", 0.0)
	cfg.SetDefault("refresh.auto", true)
	cfg.SetDefault("refresh.interval", application.DefaultRefreshInterval)
	cfg.SetDefault("refresh.concurrent_limit", application.DefaultConcurrentLimit)
	cfg.SetDefault("refresh.unlimited", false)
	cfg.SetDefault("log.level", "warn")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.WarnLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(parsed).With().Timestamp().Logger()
}

func (a *app) close() error {
	a.queue.Flush()
	return a.oplog.Close()
}
