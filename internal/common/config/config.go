package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP      HTTP
	Store     Store
	Notifier  Notifier
	Estimator Estimator
	AMQP      AMQP
	Auth      Auth
}

type HTTP struct {
	Port           int
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Store struct {
	Path string
}

type Notifier struct {
	APIKey        string `mapstructure:"api_key"`
	From          string
	OperatorEmail string `mapstructure:"operator_email"`
	Endpoint      string
	Timeout       time.Duration
}

type Estimator struct {
	Endpoint string
	Timeout  time.Duration
}

// AMQP configures the optional push-event relay. Empty URL disables it.
type AMQP struct {
	URL      string
	Exchange string
}

type Auth struct {
	Secret    string
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

// Load reads the YAML config file and applies RVTC_* environment overrides
// (e.g. RVTC_NOTIFIER_API_KEY). A missing file is not an error; defaults
// plus environment are enough to start.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RVTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.port", 3001)
	v.SetDefault("http.base_url", "http://localhost:3001")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("store.path", "db.json")
	v.SetDefault("notifier.endpoint", "https://api.sendgrid.com/v3/mail/send")
	v.SetDefault("notifier.from", "monchauffeurprive5@gmail.com")
	v.SetDefault("notifier.operator_email", "monchauffeurprive5@gmail.com")
	v.SetDefault("notifier.timeout", "5s")
	v.SetDefault("estimator.timeout", "5s")
	v.SetDefault("amqp.exchange", "reservation_events")
	v.SetDefault("auth.access_ttl", "2h")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("http.port out of range: %d", cfg.HTTP.Port)
	}
	return &cfg, nil
}
