package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Draft store backends
const (
	DraftBackendMemory   = "memory"
	DraftBackendPostgres = "postgres"
	DraftBackendRedis    = "redis"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		BodyLimit       string // e.g. "8M", unlimited when empty
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr      string
		Password  string
		DB        int
		KeyPrefix string
	}

	GeocodingConfig struct {
		BaseURL   string
		UserAgent string
		Timeout   time.Duration
	}

	WizardConfig struct {
		SessionTTL  time.Duration
		MaxSessions int
	}

	MediaConfig struct {
		MaxPhotoPixels int
	}

	LogConfig struct {
		Level    string
		Encoding string
		File     string // stderr when empty
	}

	Config struct {
		AppName         string
		Env             string
		Build           string
		Debug           bool
		TestMode        bool
		FrontendBaseURL string
		WorkDir         string
		RollbarToken    string
		SendgridApiKey  string
		DraftBackend    string

		defaultFromEmail string

		Server    ServerConfig
		Database  DatabaseConfig
		Redis     RedisConfig
		Geocoding GeocodingConfig
		Wizard    WizardConfig
		Media     MediaConfig
		Log       LogConfig
	}
)

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DefaultFromEmail parses the configured sender, falling back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.defaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Kaushal")
	conf.SetDefault("build", "develop")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "Kaushal <noreply@localhost>")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("draftBackend", DraftBackendMemory)

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverReadTimeout", 5*time.Second)
	conf.SetDefault("serverWriteTimeout", 10*time.Second)
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("serverBodyLimit", "8M")

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbUser", "kaushal")
	conf.SetDefault("dbPassword", "kaushal")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbName", "kaushal")
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("redisAddr", "localhost:6379")
	conf.SetDefault("redisPassword", "")
	conf.SetDefault("redisDB", 0)
	conf.SetDefault("redisKeyPrefix", "kaushal:draft:")

	conf.SetDefault("geocodingBaseURL", "https://nominatim.openstreetmap.org")
	conf.SetDefault("geocodingUserAgent", "kaushal/1.0")
	conf.SetDefault("geocodingTimeout", 5*time.Second)

	conf.SetDefault("wizardSessionTTL", 30*time.Minute)
	conf.SetDefault("wizardMaxSessions", 1024)

	conf.SetDefault("mediaMaxPhotoPixels", 25_000_000)

	conf.SetDefault("logLevel", "info")
	conf.SetDefault("logEncoding", "console")
	conf.SetDefault("logFile", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:          conf.GetString("appName"),
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		WorkDir:          workDir,
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		DraftBackend:     strings.ToLower(conf.GetString("draftBackend")),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Address:         conf.GetString("serverAddress"),
			DebugHost:       conf.GetString("serverDebugHost"),
			ReadTimeout:     conf.GetDuration("serverReadTimeout"),
			WriteTimeout:    conf.GetDuration("serverWriteTimeout"),
			ShutdownTimeout: conf.GetDuration("serverShutdownTimeout"),
			BodyLimit:       conf.GetString("serverBodyLimit"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			Name:          conf.GetString("dbName"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:      conf.GetString("redisAddr"),
			Password:  conf.GetString("redisPassword"),
			DB:        conf.GetInt("redisDB"),
			KeyPrefix: conf.GetString("redisKeyPrefix"),
		},
		Geocoding: GeocodingConfig{
			BaseURL:   conf.GetString("geocodingBaseURL"),
			UserAgent: conf.GetString("geocodingUserAgent"),
			Timeout:   conf.GetDuration("geocodingTimeout"),
		},
		Wizard: WizardConfig{
			SessionTTL:  conf.GetDuration("wizardSessionTTL"),
			MaxSessions: conf.GetInt("wizardMaxSessions"),
		},
		Media: MediaConfig{
			MaxPhotoPixels: conf.GetInt("mediaMaxPhotoPixels"),
		},
		Log: LogConfig{
			Level:    conf.GetString("logLevel"),
			Encoding: conf.GetString("logEncoding"),
			File:     conf.GetString("logFile"),
		},
	}
}
