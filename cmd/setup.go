package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/zenithx/internal/repositories"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the document store and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
		config = shared.DefaultConfig()
	}
	config.ApplyEnv(os.LookupEnv)

	r.logger.Info("initializing document store", "driver", config.Database.Driver, "path", config.Database.Path)

	store, err := repositories.Open(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer store.Close()

	r.logger.Infof("setup complete for %s database", config.Database.Driver)
	return r.writePlain("✓ Database ready (%s)\n", config.Database.Driver)
}

// SetupConfig writes the example configuration to the given path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set search.api_key (or YOUTUBE_API_KEY) and auth.jwt_secret (or ZENITHX_JWT_SECRET)\n")
	r.writePlain("2. Run 'zenithx setup database' then 'zenithx serve'\n")
	return nil
}
