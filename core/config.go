package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageInMem    = "inmem"
)

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		LoginRateLimit     float64 // requests per second per IP
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	NotifyConfig struct {
		QueueSize int
		Workers   int
	}

	AdminConfig struct {
		Email    string
		Name     string
		Password string
	}

	Config struct {
		Env                       string // DEV (local; default), TEST, QA, PROD
		Build                     string
		Debug                     bool
		TestMode                  bool
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		Location                  *time.Location
		PasswordResetTimeoutDelta time.Duration
		RollbarToken              string
		SendgridApiKey            string
		ExpoAccessToken           string
		ExpoPushURL               string
		WhatsappCountryCode       string
		Storage                   string

		Server   ServerConfig
		Database DatabaseConfig
		Notify   NotifyConfig
		Admin    AdminConfig
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "VidyaSetu")
	v.SetDefault("secretKey", "k2#vq8m!x0s@rj5^w3e7t9(yb4)zf6nh1&dla-ucp*og+ie")
	v.SetDefault("frontendBaseURL", "http://localhost:8081")
	v.SetDefault("defaultFromEmail", "VidyaSetu <noreply@localhost>")
	v.SetDefault("timezone", "Asia/Kolkata")
	v.SetDefault("passwordResetTimeoutDelta", 10*time.Minute)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("expoAccessToken", "")
	v.SetDefault("expoPushURL", "https://exp.host/--/api/v2/push/send")
	v.SetDefault("whatsappCountryCode", "91")
	v.SetDefault("storage", StoragePostgres)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.loginRateLimit", 5.0)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "vidyasetu")
	v.SetDefault("database.user", "vidyasetu")
	v.SetDefault("database.password", "vidyasetu")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("notify.queueSize", 256)
	v.SetDefault("notify.workers", 2)
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Env vars are prefixed with the env name, e.g. PROD_SECRETKEY or PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// bootstrap credentials are shared across envs
	_ = v.BindEnv("admin.email", "ADMIN_EMAIL")
	_ = v.BindEnv("admin.name", "ADMIN_NAME")
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")

	return fromViper(env, v)
}

func fromViper(env string, v *viper.Viper) *Config {
	conf := &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		AppName:                   v.GetString("appName"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		ExpoAccessToken:           v.GetString("expoAccessToken"),
		ExpoPushURL:               v.GetString("expoPushURL"),
		WhatsappCountryCode:       v.GetString("whatsappCountryCode"),
		Storage:                   strings.ToLower(v.GetString("storage")),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debugAddress"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			LoginRateLimit:     v.GetFloat64("server.loginRateLimit"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Notify: NotifyConfig{
			QueueSize: v.GetInt("notify.queueSize"),
			Workers:   v.GetInt("notify.workers"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Name:     v.GetString("admin.name"),
			Password: v.GetString("admin.password"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}
	conf.DefaultFromEmail = *from

	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		log.Fatalf("config.timezone: %v", err)
	}
	conf.Location = loc
	return conf
}

// NewTestConfig returns the configuration used by tests: defaults only, UTC, in-memory storage.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("timezone", "UTC")
	v.Set("storage", StorageInMem)
	v.Set("server.disableReqLogs", true)
	return fromViper("TEST", v)
}
