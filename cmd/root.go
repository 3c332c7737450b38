package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/filtering"
	"github.com/spigell/remote-digest/internal/runlock"
	"github.com/spigell/remote-digest/internal/scheduler"
	"github.com/spigell/remote-digest/internal/scoring"
)

const (
	app       = "remote-digest"
	envPrefix = "DIGEST"
)

type Config struct {
	Store    StoreConfig     `mapstructure:"store"`
	Matching MatchingConfig  `mapstructure:"matching"`
	Scoring  scoring.Weights `mapstructure:"scoring"`
	Delivery DeliveryConfig  `mapstructure:"delivery"`
	Schedule ScheduleConfig  `mapstructure:"schedule"`
	Lock     LockConfig      `mapstructure:"lock"`
	Telegram TelegramConfig  `mapstructure:"telegram"`
}

type StoreConfig struct {
	Driver          string `mapstructure:"driver"`
	PostingsFile    string `mapstructure:"postings-file"`
	SubscribersFile string `mapstructure:"subscribers-file"`
	SQLitePath      string `mapstructure:"sqlite-path"`
	PostgresDSN     string `mapstructure:"postgres-dsn"`
	PostgresDSNFile string `mapstructure:"postgres-dsn-file"`
}

type MatchingConfig struct {
	WindowDays      int      `mapstructure:"window-days"`
	TopN            int      `mapstructure:"top-n"`
	SalaryThreshold float64  `mapstructure:"salary-threshold"`
	DisabledFilters []string `mapstructure:"disabled-filters"`
}

type DeliveryConfig struct {
	Mode      string `mapstructure:"mode"`
	OutboxDir string `mapstructure:"outbox-dir"`
	Subject   string `mapstructure:"subject"`
}

type ScheduleConfig struct {
	Spec       string `mapstructure:"spec"`
	RunOnStart bool   `mapstructure:"run-on-start"`
}

type LockConfig struct {
	RedisURL     string        `mapstructure:"redis-url"`
	RedisURLFile string        `mapstructure:"redis-url-file"`
	Key          string        `mapstructure:"key"`
	TTL          time.Duration `mapstructure:"ttl"`
	WaitAttempts int           `mapstructure:"wait-attempts"`
	WaitInterval time.Duration `mapstructure:"wait-interval"`
}

type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	ChatID    int64  `mapstructure:"chat-id"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "remote-digest matches fresh remote job postings to subscribers and sends them a digest",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is remote-digest.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.postings-file", "postings.json")
	v.SetDefault("store.subscribers-file", "subscribers.json")
	v.SetDefault("store.sqlite-path", "remote-digest.db")
	v.SetDefault("store.postgres-dsn", "")
	v.SetDefault("store.postgres-dsn-file", "")

	v.SetDefault("matching.window-days", digest.DefaultWindowDays)
	v.SetDefault("matching.top-n", digest.DefaultTopN)
	v.SetDefault("matching.salary-threshold", filtering.DefaultSalaryThreshold)
	v.SetDefault("matching.disabled-filters", []string{})

	v.SetDefault("delivery.mode", "dry-run")
	v.SetDefault("delivery.outbox-dir", "outbox")
	v.SetDefault("delivery.subject", "")

	v.SetDefault("schedule.spec", scheduler.DefaultSpec)
	v.SetDefault("schedule.run-on-start", false)

	v.SetDefault("lock.redis-url", "")
	v.SetDefault("lock.redis-url-file", "")
	v.SetDefault("lock.key", runlock.DefaultKey)
	v.SetDefault("lock.ttl", runlock.DefaultTTL)
	v.SetDefault("lock.wait-attempts", 1)
	v.SetDefault("lock.wait-interval", 10*time.Second)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.token-file", "")
	v.SetDefault("telegram.chat-id", 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// version does not need any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
	case cfgFile == "" && errors.As(err, &notFound):
		// Defaults and DIGEST_* variables are enough to run.
	default:
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	config := &Config{Scoring: scoring.DefaultWeights()}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
