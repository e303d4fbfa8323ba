// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/inventory"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Analysis AnalysisConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns a libpq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AppConfig struct {
	UploadDir string
	DataDir   string
	LogLevel  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	AnalysisTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
}

// AnalysisConfig carries the business constants. Every value can be
// overridden through ANALYSIS_* environment variables.
type AnalysisConfig struct {
	HoldingCostRate       float64
	OrderingCost          float64
	ImplementationCost    float64
	TargetFillRate        float64
	OpportunityCostRate   float64
	SimulationDays        int
	ServiceLevelA         float64
	ServiceLevelB         float64
	ServiceLevelC         float64
	FallbackZ             float64
	TurnoverAnnualization float64
	ForecastWindow        int
	ForecastHorizon       int
	Seed                  int64
	Workers               int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure upload and data directories exist
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	defaults := inventory.DefaultParams()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "replenish")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("APP_DATA_DIR", "./data/output")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_ANALYSIS_TTL_SECONDS", 3600)
	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_PREFIX", "analysis")
	viper.SetDefault("DRIVE_CREDENTIALS_FILE", "credentials.json")

	viper.SetDefault("ANALYSIS_HOLDING_COST_RATE", defaults.HoldingCostRate)
	viper.SetDefault("ANALYSIS_ORDERING_COST", defaults.OrderingCost)
	viper.SetDefault("ANALYSIS_IMPLEMENTATION_COST", defaults.ImplementationCost)
	viper.SetDefault("ANALYSIS_TARGET_FILL_RATE", defaults.TargetFillRate)
	viper.SetDefault("ANALYSIS_OPPORTUNITY_COST_RATE", defaults.OpportunityCostRate)
	viper.SetDefault("ANALYSIS_SIMULATION_DAYS", defaults.SimulationDays)
	viper.SetDefault("ANALYSIS_SERVICE_LEVEL_A", defaults.ServiceLevels[domain.ClassA])
	viper.SetDefault("ANALYSIS_SERVICE_LEVEL_B", defaults.ServiceLevels[domain.ClassB])
	viper.SetDefault("ANALYSIS_SERVICE_LEVEL_C", defaults.ServiceLevels[domain.ClassC])
	viper.SetDefault("ANALYSIS_FALLBACK_Z", defaults.FallbackZ)
	viper.SetDefault("ANALYSIS_TURNOVER_ANNUALIZATION", defaults.TurnoverAnnualization)
	viper.SetDefault("ANALYSIS_FORECAST_WINDOW", defaults.ForecastWindow)
	viper.SetDefault("ANALYSIS_FORECAST_HORIZON", defaults.ForecastHorizon)
	viper.SetDefault("ANALYSIS_SEED", 0)
	viper.SetDefault("ANALYSIS_WORKERS", 4)
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			UploadDir: viper.GetString("APP_UPLOAD_DIR"),
			DataDir:   viper.GetString("APP_DATA_DIR"),
			LogLevel:  viper.GetString("LOG_LEVEL"),
		},
		Cache: CacheConfig{
			Enabled:            viper.GetBool("CACHE_ENABLED"),
			RedisURL:           viper.GetString("REDIS_URL"),
			RedisHost:          viper.GetString("REDIS_HOST"),
			RedisPort:          viper.GetString("REDIS_PORT"),
			RedisPassword:      viper.GetString("REDIS_PASSWORD"),
			RedisDB:            viper.GetInt("REDIS_DB"),
			AnalysisTTLSeconds: viper.GetInt("CACHE_ANALYSIS_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsFile: viper.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
		},
		Analysis: AnalysisConfig{
			HoldingCostRate:       viper.GetFloat64("ANALYSIS_HOLDING_COST_RATE"),
			OrderingCost:          viper.GetFloat64("ANALYSIS_ORDERING_COST"),
			ImplementationCost:    viper.GetFloat64("ANALYSIS_IMPLEMENTATION_COST"),
			TargetFillRate:        viper.GetFloat64("ANALYSIS_TARGET_FILL_RATE"),
			OpportunityCostRate:   viper.GetFloat64("ANALYSIS_OPPORTUNITY_COST_RATE"),
			SimulationDays:        viper.GetInt("ANALYSIS_SIMULATION_DAYS"),
			ServiceLevelA:         viper.GetFloat64("ANALYSIS_SERVICE_LEVEL_A"),
			ServiceLevelB:         viper.GetFloat64("ANALYSIS_SERVICE_LEVEL_B"),
			ServiceLevelC:         viper.GetFloat64("ANALYSIS_SERVICE_LEVEL_C"),
			FallbackZ:             viper.GetFloat64("ANALYSIS_FALLBACK_Z"),
			TurnoverAnnualization: viper.GetFloat64("ANALYSIS_TURNOVER_ANNUALIZATION"),
			ForecastWindow:        viper.GetInt("ANALYSIS_FORECAST_WINDOW"),
			ForecastHorizon:       viper.GetInt("ANALYSIS_FORECAST_HORIZON"),
			Seed:                  viper.GetInt64("ANALYSIS_SEED"),
			Workers:               viper.GetInt("ANALYSIS_WORKERS"),
		},
	}
}

// Params converts the analysis section into engine parameters.
func (a AnalysisConfig) Params() inventory.Params {
	p := inventory.DefaultParams()
	p.HoldingCostRate = a.HoldingCostRate
	p.OrderingCost = a.OrderingCost
	p.ImplementationCost = a.ImplementationCost
	p.TargetFillRate = a.TargetFillRate
	p.OpportunityCostRate = a.OpportunityCostRate
	p.SimulationDays = a.SimulationDays
	p.ServiceLevels = map[domain.ABCClass]float64{
		domain.ClassA: a.ServiceLevelA,
		domain.ClassB: a.ServiceLevelB,
		domain.ClassC: a.ServiceLevelC,
	}
	p.FallbackZ = a.FallbackZ
	p.TurnoverAnnualization = a.TurnoverAnnualization
	p.ForecastWindow = a.ForecastWindow
	p.ForecastHorizon = a.ForecastHorizon
	return p
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
