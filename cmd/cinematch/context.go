package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/app"
	"github.com/temcen/cinematch/internal/config"
	"github.com/temcen/cinematch/internal/database"
	"github.com/temcen/cinematch/internal/engine"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	config *config.Config
	logger *logrus.Logger
	model  *engine.Model
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, jsonFlag: jsonFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}

	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := app.SetupLogger(cfg)
	logger.SetOutput(os.Stderr)
	if logger.GetLevel() > logrus.WarnLevel {
		logger.SetLevel(logrus.WarnLevel)
	}

	c.config = cfg
	c.logger = logger
	return cfg, nil
}

func (c *commandContext) jsonMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// ensureModel runs the offline build once per invocation. The database, when
// configured, is only held open while ratings are read.
func (c *commandContext) ensureModel(ctx context.Context) (*engine.Model, error) {
	if c.model != nil {
		return c.model, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	source, err := app.NewRatingSource(cfg, db, c.logger)
	if err != nil {
		return nil, err
	}

	model, err := app.BuildModel(ctx, cfg, source, c.logger, nil)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	c.model = model
	return model, nil
}
