package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"wisfind/internal/constants"
)

// Load builds the configuration from defaults, an optional YAML file and
// WISFIND_* environment variables, in increasing precedence. Flag overrides
// are applied by the caller on top of the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("wisfind")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVariables(v)

	if configFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker.endpoint", constants.DefaultBroker)
	v.SetDefault("broker.topics", []string{constants.TopicAllCoreData})
	v.SetDefault("broker.user", constants.WIS2CoreUser)
	v.SetDefault("broker.password", constants.WIS2CorePass)
	v.SetDefault("broker.transport", constants.TransportTCP)
	v.SetDefault("broker.client_id", constants.DefaultClientID)
	v.SetDefault("broker.reconnect_delay", constants.DefaultReconnectDelay)
	v.SetDefault("broker.reconnect_attempts", constants.DefaultReconnectAttempts)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("validation.strict", true)
	v.SetDefault("metrics.port", 0)
}

func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("broker.endpoint", "WISFIND_BROKER_ENDPOINT")
	v.BindEnv("broker.user", "WISFIND_BROKER_USER")
	v.BindEnv("broker.password", "WISFIND_BROKER_PASSWORD")
	v.BindEnv("broker.transport", "WISFIND_BROKER_TRANSPORT")
	v.BindEnv("broker.port", "WISFIND_BROKER_PORT")
	v.BindEnv("broker.client_id", "WISFIND_BROKER_CLIENT_ID")
	v.BindEnv("broker.reconnect_delay", "WISFIND_BROKER_RECONNECT_DELAY")
	v.BindEnv("broker.reconnect_attempts", "WISFIND_BROKER_RECONNECT_ATTEMPTS")

	v.BindEnv("logging.level", "WISFIND_LOGGING_LEVEL")
	v.BindEnv("validation.strict", "WISFIND_VALIDATION_STRICT")
	v.BindEnv("metrics.port", "WISFIND_METRICS_PORT")
}
