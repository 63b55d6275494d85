package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	AppEnv            string        `env:"APP_ENV" envDefault:"development"`
	HTTPPort          string        `env:"HTTP_PORT" envDefault:"8080"`
	StoreDriver       string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase     string        `env:"MONGO_DATABASE"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"0"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	LoginRateWindow   time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"10m"`
	LoginRateMax      int           `env:"LOGIN_RATE_MAX" envDefault:"10"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.AppEnv {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("unrecognised APP_ENV value %q", c.AppEnv)
	}
	switch c.StoreDriver {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", StorePostgres)
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER value %q", c.StoreDriver)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL must not be negative")
	}
	return nil
}

// IsProduction indica si el proceso corre en produccion.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// MongoDatabaseName devuelve la base elegida segun el entorno si no se fijo una explicita.
func (c *Config) MongoDatabaseName() string {
	if c.MongoDatabase != "" {
		return c.MongoDatabase
	}
	if c.AppEnv == EnvTest {
		return "TestTodoApp"
	}
	return "TodoApp"
}
