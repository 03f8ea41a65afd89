package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		AppName  string
		Build    string

		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridAPIKey   string
		RollbarToken     string

		Auth     AuthConfig
		Server   ServerConfig
		Database DatabaseConfig
	}

	AuthConfig struct {
		// AccessSecret and RefreshSecret are independent signing keys so a
		// leaked access key cannot be used to forge refresh tokens.
		AccessSecret  []byte
		RefreshSecret []byte

		AccessTokenTTL       time.Duration
		RefreshTokenTTL      time.Duration
		PasswordResetTimeout time.Duration
	}

	ServerConfig struct {
		Host            string
		Port            int
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}
)

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewConfig loads the app configuration from the environment and an optional
// `config/.env.<env>` file. It is built once at process start and passed
// explicitly into constructors; nothing mutates it at runtime.
func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Upskill")
	conf.SetDefault("build", "dev")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("accessSecret", "y2ju$h@5dj#m-dev-only-2m&o)d^3a$8f(k9!qw")
	conf.SetDefault("refreshSecret", "x8pe%w2r_dev-only-g7#b@c4n*v6(z1!u0m-lk")
	conf.SetDefault("accessTokenTTL", 15*time.Minute)
	conf.SetDefault("refreshTokenTTL", 7*24*time.Hour)
	conf.SetDefault("passwordResetTimeout", 3*24*time.Hour)
	conf.SetDefault("serverHost", "0.0.0.0")
	conf.SetDefault("serverPort", 8000)
	conf.SetDefault("shutdownTimeout", 5*time.Second)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "upskill")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbUser", "")
	conf.SetDefault("dbPassword", "")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridAPIKey:   conf.GetString("sendgridAPIKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		Auth: AuthConfig{
			AccessSecret:         []byte(conf.GetString("accessSecret")),
			RefreshSecret:        []byte(conf.GetString("refreshSecret")),
			AccessTokenTTL:       conf.GetDuration("accessTokenTTL"),
			RefreshTokenTTL:      conf.GetDuration("refreshTokenTTL"),
			PasswordResetTimeout: conf.GetDuration("passwordResetTimeout"),
		},
		Server: ServerConfig{
			Host:            conf.GetString("serverHost"),
			Port:            conf.GetInt("serverPort"),
			ShutdownTimeout: conf.GetDuration("shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Name:          conf.GetString("dbName"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
	}
	if err := c.validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(string(c.Auth.AccessSecret), "accessSecret"),
		vala.StringNotEmpty(string(c.Auth.RefreshSecret), "refreshSecret"),
		vala.Not(vala.Equals(string(c.Auth.AccessSecret), string(c.Auth.RefreshSecret), "accessSecret")),
		vala.GreaterThan(int(c.Auth.AccessTokenTTL), 0, "accessTokenTTL"),
		vala.GreaterThan(int(c.Auth.RefreshTokenTTL), 0, "refreshTokenTTL"),
		vala.StringNotEmpty(c.Database.Engine, "dbEngine"),
		vala.StringNotEmpty(c.Database.Name, "dbName"),
	).Check()
}
