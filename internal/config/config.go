package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "KOB"

type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Display  DisplayConfig  `mapstructure:"display"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Discord  DiscordConfig  `mapstructure:"discord"`
}

type FeedConfig struct {
	Url          string        `mapstructure:"url"`
	Pairs        []string      `mapstructure:"pairs"`
	Depth        int           `mapstructure:"depth"`
	PingInterval time.Duration `mapstructure:"pingInterval"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	BackoffMin   time.Duration `mapstructure:"backoffMin"`
	BackoffMax   time.Duration `mapstructure:"backoffMax"`
}

type DisplayConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Mode     string        `mapstructure:"mode"`
	Interval time.Duration `mapstructure:"interval"`
	Depth    int           `mapstructure:"depth"`
}

type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type DiscordConfig struct {
	WebhookUrl    string        `mapstructure:"webhookUrl"`
	AlertInterval time.Duration `mapstructure:"alertInterval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "wss://ws.kraken.com/")
	v.SetDefault("feed.pairs", []string{})
	v.SetDefault("feed.depth", 0)
	v.SetDefault("feed.pingInterval", 15*time.Second)
	v.SetDefault("feed.readTimeout", 30*time.Second)
	v.SetDefault("feed.writeTimeout", 5*time.Second)
	v.SetDefault("feed.backoffMin", 250*time.Millisecond)
	v.SetDefault("feed.backoffMax", 8*time.Second)

	v.SetDefault("display.enabled", true)
	v.SetDefault("display.mode", "Stream")
	v.SetDefault("display.interval", 5*time.Second)
	v.SetDefault("display.depth", 10)

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "data/anomalies.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "orderbook:")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "orderbook.top")

	v.SetDefault("discord.webhookUrl", "")
	v.SetDefault("discord.alertInterval", time.Minute)
}

// Flags declares the command line flags Load understands.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("orderbook", pflag.ContinueOnError)
	flags.String("config", "config.json", "path to the JSON config file")
	flags.StringSlice("pairs", nil, "comma separated pairs, e.g. ETH/USD,XBT/USD")
	flags.Int("port", 0, "HTTP port, overrides server.port")
	flags.String("mode", "", "console display mode: Stream or Scheduled")
	return flags
}

// Load reads defaults, then the JSON file named by the config flag (if it
// exists), then KOB_* environment variables, then flags that were set.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := "config.json"
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			path = f.Value.String()
		}
		bindings := map[string]string{
			"feed.pairs":   "pairs",
			"server.port":  "port",
			"display.mode": "mode",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}
