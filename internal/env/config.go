package env

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Addr is the SmolDB server to talk to
	Addr string `env:"SMOLDB_ADDR,default=localhost:8222"`

	// AccessKey authenticates every data operation
	AccessKey string `env:"SMOLDB_ACCESS_KEY"`

	DialTimeout time.Duration `env:"SMOLDB_DIAL_TIMEOUT,default=5s"`
	IOTimeout   time.Duration `env:"SMOLDB_IO_TIMEOUT,default=5s"`

	// RequireEncryption makes the client negotiate a sealed channel on
	// every fresh connection before any data operation
	RequireEncryption bool `env:"SMOLDB_REQUIRE_ENCRYPTION"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
