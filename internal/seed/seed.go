// Package seed loads a small fastener catalog so a fresh install can quote immediately.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DemoApprover = "demo-approver"
	DemoAdmin    = "demo-admin"
)

var demoEffectiveDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type Params struct {
	fx.In

	Config     config.Config
	Log        *zap.Logger
	Catalog    catalogdomain.Service
	Parameters costparameterdomain.Service
	Authz      authorization.Service
}

// Run seeds the demo data when SEED_DEMO_CATALOG is enabled.
func Run(p Params) error {
	if !p.Config.SeedDemoCatalog {
		return nil
	}
	return DemoCatalog(context.Background(), p.Catalog, p.Parameters, p.Authz, p.Log.Named("seed"))
}

// DemoCatalog creates one hex bolt route family, the base rates and the demo roles.
// It does nothing when the catalog already has categories.
func DemoCatalog(ctx context.Context, catalog catalogdomain.Service, parameters costparameterdomain.Service, authz authorization.Service, log *zap.Logger) error {
	if catalog == nil || parameters == nil {
		return errors.New("seed services are required")
	}

	existing, err := catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("catalog already seeded", zap.Int("categories", len(existing)))
		return nil
	}

	forming, err := catalog.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Forming", DisplayName: "Cold forming", SortOrder: 10})
	if err != nil {
		return err
	}
	threading, err := catalog.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Threading", DisplayName: "Thread rolling", SortOrder: 20})
	if err != nil {
		return err
	}
	heatTreat, err := catalog.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Heat Treat", DisplayName: "Heat treatment", SortOrder: 30})
	if err != nil {
		return err
	}

	header, err := catalog.CreateEquipment(ctx, catalogdomain.CreateEquipmentRequest{
		CategoryID:             forming.ID.String(),
		Name:                   "Cold Header 2-Die",
		CapacityPerHour:        dec("6000"),
		PowerKW:                dec("5"),
		DepreciationYears:      10,
		PurchaseCost:           dec("360000"),
		MaintenanceCostPerYear: dec("4000"),
		Location:               "Line A",
	})
	if err != nil {
		return err
	}
	roller, err := catalog.CreateEquipment(ctx, catalogdomain.CreateEquipmentRequest{
		CategoryID:             threading.ID.String(),
		Name:                   "Thread Roller Flat Die",
		CapacityPerHour:        dec("4500"),
		PowerKW:                dec("3.5"),
		DepreciationYears:      8,
		PurchaseCost:           dec("180000"),
		MaintenanceCostPerYear: dec("2500"),
		Location:               "Line A",
	})
	if err != nil {
		return err
	}
	furnace, err := catalog.CreateEquipment(ctx, catalogdomain.CreateEquipmentRequest{
		CategoryID:             heatTreat.ID.String(),
		Name:                   "Mesh Belt Furnace",
		CapacityPerHour:        dec("20000"),
		PowerKW:                dec("90"),
		DepreciationYears:      15,
		PurchaseCost:           dec("900000"),
		MaintenanceCostPerYear: dec("15000"),
		Location:               "Heat Treat Bay",
	})
	if err != nil {
		return err
	}

	heading, err := catalog.CreateStep(ctx, catalogdomain.CreateStepRequest{
		CategoryID:         forming.ID.String(),
		DefaultEquipmentID: header.ID.String(),
		Name:               "Cold Heading",
		SetupMinutes:       dec("30"),
		CycleSeconds:       dec("0.6"),
		LaborRequired:      dec("1"),
		SortOrder:          10,
	})
	if err != nil {
		return err
	}
	rolling, err := catalog.CreateStep(ctx, catalogdomain.CreateStepRequest{
		CategoryID:         threading.ID.String(),
		DefaultEquipmentID: roller.ID.String(),
		Name:               "Thread Rolling",
		SetupMinutes:       dec("20"),
		CycleSeconds:       dec("0.8"),
		LaborRequired:      dec("1"),
		SortOrder:          20,
	})
	if err != nil {
		return err
	}
	hardening, err := catalog.CreateStep(ctx, catalogdomain.CreateStepRequest{
		CategoryID:         heatTreat.ID.String(),
		DefaultEquipmentID: furnace.ID.String(),
		Name:               "Quench and Temper",
		SetupMinutes:       dec("45"),
		CycleSeconds:       dec("0.2"),
		LaborRequired:      dec("0.5"),
		SortOrder:          30,
	})
	if err != nil {
		return err
	}

	standard := []catalogdomain.RouteDetailInput{
		{Sequence: 10, StepID: heading.ID.String(), YieldRate: dec("0.99")},
		{Sequence: 20, StepID: rolling.ID.String(), YieldRate: dec("0.985")},
	}
	hardened := append(append([]catalogdomain.RouteDetailInput{}, standard...),
		catalogdomain.RouteDetailInput{Sequence: 30, StepID: hardening.ID.String(), YieldRate: dec("0.995")},
	)

	if _, err := catalog.CreateRoute(ctx, catalogdomain.CreateRouteRequest{
		ProductCategory: "hex-bolt",
		Name:            "Hex bolt standard",
		IsDefault:       true,
		Details:         standard,
	}); err != nil {
		return err
	}
	if _, err := catalog.CreateRoute(ctx, catalogdomain.CreateRouteRequest{
		ProductCategory: "hex-bolt-hardened",
		MaterialType:    "alloy-steel",
		SizeRange:       "M6-M12",
		Name:            "Hex bolt class 10.9",
		Details:         hardened,
	}); err != nil {
		return err
	}

	for _, param := range []costparameterdomain.CreateRequest{
		{ParameterType: "labor", Value: dec("15"), Unit: "USD/hour", Description: "Shop floor labor"},
		{ParameterType: "electricity", Value: dec("0.12"), Unit: "USD/kWh", Description: "Industrial tariff"},
		{ParameterType: "overhead", Value: dec("0.10"), Unit: "ratio", Description: "Plant overhead"},
		{ParameterType: "land", Value: dec("250"), Unit: "USD/m2/year", Description: "Plant floor space"},
	} {
		param.EffectiveDate = demoEffectiveDate
		if _, err := parameters.Create(ctx, param); err != nil {
			return err
		}
	}

	if authz != nil {
		if err := authz.AssignRole(ctx, DemoApprover, authorization.RoleApprover); err != nil {
			return err
		}
		if err := authz.AssignRole(ctx, DemoAdmin, authorization.RoleAdmin); err != nil {
			return err
		}
	}

	log.Info("demo catalog seeded")
	return nil
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
