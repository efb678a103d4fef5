package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/wac0705/fastenmind-system-sub000/internal/audit"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
	"github.com/wac0705/fastenmind-system-sub000/internal/cache"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation"
	"github.com/wac0705/fastenmind-system-sub000/internal/catalog"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	"github.com/wac0705/fastenmind-system-sub000/internal/costparameter"
	"github.com/wac0705/fastenmind-system-sub000/internal/migration"
	"github.com/wac0705/fastenmind-system-sub000/internal/observability"
	"github.com/wac0705/fastenmind-system-sub000/internal/routing"
	"github.com/wac0705/fastenmind-system-sub000/internal/seed"
	"github.com/wac0705/fastenmind-system-sub000/internal/server"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// Functional Domains
		audit.Module,
		authorization.Module,
		cache.Module,
		catalog.Module,
		costparameter.Module,
		routing.Module,
		calculation.Module,

		seed.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
