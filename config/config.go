package config

import (
	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config is read once at process start and passed explicitly; nothing
// re-reads the environment at runtime.
type Config struct {
	Port string `env:"PORT,default=8080"`

	// SQLite is the default store; POSTGRES_URI switches the driver.
	SQLitePath  string `env:"SQLITE_PATH,default=employees.db"`
	PostgresURI string `env:"POSTGRES_URI"`

	AdminUser string `env:"ADMIN_USER,default=admin"`
	AdminPass string `env:"ADMIN_PASS,default=admin123"`
	SecretKey string `env:"SECRET_KEY,default=dev-secret-change-me"`

	UploadRoot  string `env:"UPLOAD_FOLDER,default=uploads"`
	MaxUploadMB int64  `env:"MAX_CONTENT_LENGTH_MB,default=20"`

	LogLevel        string `env:"LOG_LEVEL,default=info"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS,default=12"`

	Extras env.EnvSet
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	es, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, err
	}
	cfg.Extras = es
	return &cfg, nil
}

// MaxUploadBytes is the request body cap enforced at the router.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}
