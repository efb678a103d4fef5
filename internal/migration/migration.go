package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/wac0705/fastenmind-system-sub000/internal/audit/domain"
	calculationdomain "github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	"gorm.io/gorm"
)

// Models lists every table owned by the engine, parents first.
func Models() []any {
	return []any{
		&catalogdomain.Category{},
		&catalogdomain.Equipment{},
		&catalogdomain.Step{},
		&catalogdomain.Route{},
		&catalogdomain.RouteDetail{},
		&costparameterdomain.CostParameter{},
		&calculationdomain.CostCalculation{},
		&calculationdomain.CostCalculationDetail{},
		&auditdomain.AuditLog{},
	}
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite, mysql and tests.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
