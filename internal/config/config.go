// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ResultTTLSeconds int
}

// ForecastConfig carries the deployment-level computation defaults.
// Every value can still be overridden per request.
type ForecastConfig struct {
	HorizonDays      int
	Timezone         string
	Statistic        string // "max" or "p90"
	Tiebreak         string // "half-up" or "half-even"
	BlendPolicy      string // "linear-alpha", "dominance-ceiling" or "additive-uplift"
	Alpha            float64
	CriticalAlpha    float64
	SlowAlpha        float64
	CapLow           float64
	CapHigh          float64
	UpliftFraction   float64
	RoundingMultiple int
	SortOrder        string // "name" or "quantity"
	Years            []int
	Renormalize      bool
	Workers          int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RESULT_TTL_SECONDS", 300)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_TIMEZONE", "America/Mexico_City")
		viper.SetDefault("FORECAST_STATISTIC", "max")
		viper.SetDefault("FORECAST_TIEBREAK", "half-up")
		viper.SetDefault("FORECAST_BLEND_POLICY", "linear-alpha")
		viper.SetDefault("FORECAST_ALPHA", 0.30)
		viper.SetDefault("FORECAST_CRITICAL_ALPHA", 0.50)
		viper.SetDefault("FORECAST_SLOW_ALPHA", 0.10)
		viper.SetDefault("FORECAST_CAP_LOW", 0.70)
		viper.SetDefault("FORECAST_CAP_HIGH", 1.30)
		viper.SetDefault("FORECAST_UPLIFT_FRACTION", 0.10)
		viper.SetDefault("FORECAST_ROUNDING_MULTIPLE", 5)
		viper.SetDefault("FORECAST_SORT_ORDER", "name")
		viper.SetDefault("FORECAST_RENORMALIZE", true)
		viper.SetDefault("FORECAST_WORKERS", 4)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ResultTTLSeconds: viper.GetInt("CACHE_RESULT_TTL_SECONDS"),
			},
			Forecast: ForecastConfig{
				HorizonDays:      viper.GetInt("FORECAST_HORIZON_DAYS"),
				Timezone:         viper.GetString("FORECAST_TIMEZONE"),
				Statistic:        viper.GetString("FORECAST_STATISTIC"),
				Tiebreak:         viper.GetString("FORECAST_TIEBREAK"),
				BlendPolicy:      viper.GetString("FORECAST_BLEND_POLICY"),
				Alpha:            viper.GetFloat64("FORECAST_ALPHA"),
				CriticalAlpha:    viper.GetFloat64("FORECAST_CRITICAL_ALPHA"),
				SlowAlpha:        viper.GetFloat64("FORECAST_SLOW_ALPHA"),
				CapLow:           viper.GetFloat64("FORECAST_CAP_LOW"),
				CapHigh:          viper.GetFloat64("FORECAST_CAP_HIGH"),
				UpliftFraction:   viper.GetFloat64("FORECAST_UPLIFT_FRACTION"),
				RoundingMultiple: viper.GetInt("FORECAST_ROUNDING_MULTIPLE"),
				SortOrder:        viper.GetString("FORECAST_SORT_ORDER"),
				Years:            viper.GetIntSlice("FORECAST_YEARS"),
				Renormalize:      viper.GetBool("FORECAST_RENORMALIZE"),
				Workers:          viper.GetInt("FORECAST_WORKERS"),
			},
		}
	})

	return instance
}
