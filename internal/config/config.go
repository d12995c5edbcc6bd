package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PUMP_HTTP_MAX_BODY_BYTES.
const EnvPrefix = "PUMP"

// Config is the full service configuration.
type Config struct {
	Port  string      `mapstructure:"port"`
	Log   LogConfig   `mapstructure:"log"`
	DB    DBConfig    `mapstructure:"db"`
	Relay RelayConfig `mapstructure:"relay"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	CORS  CORSConfig  `mapstructure:"cors"`
	MQTT  MQTTConfig  `mapstructure:"mqtt"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

// DBConfig locates the event log. An empty path disables it.
type DBConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type RelayConfig struct {
	SendTimeout        time.Duration `mapstructure:"send_timeout"`
	PingPeriod         time.Duration `mapstructure:"ping_period"`
	PongWait           time.Duration `mapstructure:"pong_wait"`
	DeviceStatusOverWS bool          `mapstructure:"device_status_over_ws"`
}

type HTTPConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	GzipMinSize  int   `mapstructure:"gzip_min_size"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MQTTConfig enables the broker bridge when Broker is set.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

// Enabled reports whether the MQTT bridge should run.
func (c MQTTConfig) Enabled() bool { return c.Broker != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "pump.db")
	v.SetDefault("db.busy_timeout", 5*time.Second)
	v.SetDefault("relay.send_timeout", 5*time.Second)
	v.SetDefault("relay.ping_period", 54*time.Second)
	v.SetDefault("relay.pong_wait", 60*time.Second)
	v.SetDefault("relay.device_status_over_ws", false)
	v.SetDefault("http.max_body_bytes", 2048)
	v.SetDefault("http.gzip_min_size", 1000)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "pump-relay")
	v.SetDefault("mqtt.topic_prefix", "pump")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
}

// Load reads .env (if present), then the YAML config, then PUMP_* environment overrides.
// With an empty path it looks for configs/config.yml and tolerates its absence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.Relay.SendTimeout <= 0 {
		return fmt.Errorf("relay.send_timeout must be positive, got %s", c.Relay.SendTimeout)
	}
	if c.Relay.PingPeriod >= c.Relay.PongWait {
		return fmt.Errorf("relay.ping_period (%s) must be shorter than relay.pong_wait (%s)", c.Relay.PingPeriod, c.Relay.PongWait)
	}
	return nil
}
