package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// PostgresConfig holds connection settings for the interview store.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"required"`
	DbName            string `mapstructure:"db_name" validate:"required"`
	User              string `mapstructure:"auth__user" validate:"required"`
	Password          string `mapstructure:"auth__password" validate:"required"`
	MaxOpenConnection int    `mapstructure:"max_open_connection"`
	MaxIdleConnection int    `mapstructure:"max_ideal_connection"`
	SslMode           string `mapstructure:"ssl_mode"`
}

// RecordingConfig bounds a single answer capture.
type RecordingConfig struct {
	MaxDurationSeconds int `mapstructure:"max_duration" validate:"required"`
	SampleRate         int `mapstructure:"sample_rate" validate:"required"`
	Channels           int `mapstructure:"channels" validate:"required"`
}

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Secret   string `mapstructure:"secret" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path" validate:"required"`

	PostgresConfig  PostgresConfig  `mapstructure:"postgres" validate:"required"`
	RecordingConfig RecordingConfig `mapstructure:"recording" validate:"required"`

	// Remote AI services.
	GeminiApiKey     string `mapstructure:"gemini_api_key"`
	GeminiModel      string `mapstructure:"gemini_model" validate:"required"`
	GoogleCredential string `mapstructure:"google_credential"`

	// Where /gemini/transcribe writes uploaded answer audio.
	UploadDir string `mapstructure:"upload_dir" validate:"required"`

	// Base URL the interview client talks to.
	PrepvaultHost string `mapstructure:"prepvault_host" validate:"required"`

	// Interview defaults.
	QuestionAmount int `mapstructure:"question_amount" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "prepvault")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("SECRET", "prepvault-dev-secret")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8082)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "logs")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash-001")
	v.SetDefault("GOOGLE_CREDENTIAL", "")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("PREPVAULT_HOST", "http://localhost:8082")
	v.SetDefault("QUESTION_AMOUNT", 5)

	v.SetDefault("RECORDING__MAX_DURATION", 15)
	v.SetDefault("RECORDING__SAMPLE_RATE", 16000)
	v.SetDefault("RECORDING__CHANNELS", 1)

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "prepvault")
	v.SetDefault("POSTGRES__AUTH__USER", "prepvault")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "prepvault")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
