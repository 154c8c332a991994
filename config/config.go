package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"
)

// Prefix for every environment variable, e.g. AUTHZ_SIGNING_KEY
const Prefix = "AUTHZ"

// Config holds the process configuration. It satisfies auth.Config.
type Config struct {
	SigningKey      string `envconfig:"SIGNING_KEY" required:"true" json:"-"`
	SigningMethod   string `envconfig:"SIGNING_METHOD" default:"HS256" json:"signing_method"`
	TokenTTLMinutes int    `envconfig:"TOKEN_TTL_MINUTES" default:"15" json:"token_ttl_minutes"`

	DBDriver string `envconfig:"DB_DRIVER" default:"sqlite" json:"db_driver"`
	DBDSN    string `envconfig:"DB_DSN" json:"-"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8000" json:"http_addr"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR" default:":9100" json:"metrics_addr"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" json:"shutdown_timeout"`

	BcryptCost int  `envconfig:"BCRYPT_COST" default:"0" json:"bcrypt_cost"`
	UseHashid  bool `envconfig:"USE_HASHID" default:"false" json:"use_hashid"`
	Debug      bool `envconfig:"DEBUG" default:"false" json:"debug"`

	ContextKey  string `envconfig:"CONTEXT_KEY" default:"identity" json:"context_key"`
	TokenLookup string `envconfig:"TOKEN_LOOKUP" default:"header:Authorization" json:"token_lookup"`
	AuthScheme  string `envconfig:"AUTH_SCHEME" default:"Bearer" json:"auth_scheme"`
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	problems := map[string]any{}

	if strings.TrimSpace(c.SigningKey) == "" {
		problems["signing_key"] = "required"
	}

	switch c.SigningMethod {
	case "HS256", "HS384", "HS512":
	default:
		problems["signing_method"] = fmt.Sprintf("unsupported %q", c.SigningMethod)
	}

	if c.TokenTTLMinutes <= 0 {
		problems["token_ttl_minutes"] = "must be positive"
	}

	switch strings.ToLower(c.DBDriver) {
	case "sqlite":
	case "postgres", "pgx":
		if c.DBDSN == "" {
			problems["db_dsn"] = "required for postgres"
		}
	default:
		problems["db_driver"] = fmt.Sprintf("unsupported %q", c.DBDriver)
	}

	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		problems["bcrypt_cost"] = fmt.Sprintf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.HTTPAddr == "" {
		problems["http_addr"] = "required"
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.New("invalid configuration", errors.CategoryValidation).
		WithTextCode("INVALID_CONFIG").
		WithMetadata(problems)
}

func (c Config) GetSigningKey() string {
	return c.SigningKey
}

func (c Config) GetSigningMethod() string {
	return c.SigningMethod
}

func (c Config) GetTokenExpiration() int {
	return c.TokenTTLMinutes
}

func (c Config) GetContextKey() string {
	return c.ContextKey
}

func (c Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c Config) GetBcryptCost() int {
	return c.BcryptCost
}

func (c Config) GetUseHashid() bool {
	return c.UseHashid
}
