package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wac0705/fastenmind-system-sub000/internal/actorcontext"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	auditdomain "github.com/wac0705/fastenmind-system-sub000/internal/audit/domain"
	auditrepository "github.com/wac0705/fastenmind-system-sub000/internal/audit/repository"
	auditservice "github.com/wac0705/fastenmind-system-sub000/internal/audit/service"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
	"github.com/wac0705/fastenmind-system-sub000/internal/cache"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/repository"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	catalogrepository "github.com/wac0705/fastenmind-system-sub000/internal/catalog/repository"
	catalogservice "github.com/wac0705/fastenmind-system-sub000/internal/catalog/service"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	costparameterrepository "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/repository"
	costparameterservice "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/service"
	"github.com/wac0705/fastenmind-system-sub000/internal/costing"
	"github.com/wac0705/fastenmind-system-sub000/internal/migration"
	"github.com/wac0705/fastenmind-system-sub000/internal/routing"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	fixtureNow     = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ratesEffective = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exampleTotals  = map[string]string{
		"material": "500",
		"process":  "126.7",
		"overhead": "62.67",
		"total":    "689.37",
		"unit":     "0.68937",
		"selling":  "861.71",
	}
)

type fixture struct {
	t          *testing.T
	db         *gorm.DB
	clock      *clock.FakeClock
	catalog    catalogdomain.Service
	parameters costparameterdomain.Service
	authz      authorization.Service
	audit      auditdomain.Service
	svc        domain.Service

	categoryID  string
	equipmentID string
	stepID      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(fixtureNow)
	engineCfg := config.NewStaticCostEngineConfigHolder(config.DefaultCostEngineConfig())

	catalogRepo := catalogrepository.Provide()
	parameterRepo := costparameterrepository.Provide()

	audit := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: auditrepository.Provide(),
	})
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer, AuditSvc: audit})

	f := &fixture{
		t:     t,
		db:    db,
		clock: fake,
		catalog: catalogservice.New(catalogservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: catalogRepo,
		}),
		parameters: costparameterservice.New(costparameterservice.Params{
			DB: db, Log: log, GenID: node, Clock: fake, Repo: parameterRepo, EngineConfig: engineCfg,
		}),
		authz: authz,
		audit: audit,
	}
	f.svc = New(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         fake,
		Config:        config.Config{DBType: "sqlite"},
		EngineConfig:  engineCfg,
		Repo:          repository.Provide(),
		CatalogRepo:   catalogRepo,
		ParameterRepo: parameterRepo,
		AuditSvc:      audit,
		Authz:         authz,
		Cache:         cache.NewMemoryCalculationCache(time.Hour),
	})
	return f
}

// seedExample builds the single step catalog of the reference scenario: 30 min setup,
// 10 s cycle, one operator, equipment at 20/hour drawing 5 kW.
func (f *fixture) seedExample() {
	f.t.Helper()
	ctx := context.Background()

	category, err := f.catalog.CreateCategory(ctx, catalogdomain.CreateCategoryRequest{Name: "Forming"})
	require.NoError(f.t, err)
	f.categoryID = category.ID.String()

	equipment, err := f.catalog.CreateEquipment(ctx, catalogdomain.CreateEquipmentRequest{
		CategoryID:             f.categoryID,
		Code:                   "HDR-1",
		Name:                   "Cold header",
		PowerKW:                dec("5"),
		DepreciationYears:      10,
		PurchaseCost:           dec("360000"),
		MaintenanceCostPerYear: dec("4000"),
	})
	require.NoError(f.t, err)
	f.equipmentID = equipment.ID.String()

	step, err := f.catalog.CreateStep(ctx, catalogdomain.CreateStepRequest{
		CategoryID:         f.categoryID,
		DefaultEquipmentID: f.equipmentID,
		Code:               "STEP-A",
		Name:               "Step A",
		SetupMinutes:       dec("30"),
		CycleSeconds:       dec("10"),
		LaborRequired:      dec("1"),
	})
	require.NoError(f.t, err)
	f.stepID = step.ID.String()
}

func (f *fixture) seedRates(types ...string) {
	f.t.Helper()
	values := map[string]string{"labor": "15", "electricity": "0.12", "overhead": "0.10"}
	if len(types) == 0 {
		types = []string{"labor", "electricity", "overhead"}
	}
	for _, parameterType := range types {
		_, err := f.parameters.Create(context.Background(), costparameterdomain.CreateRequest{
			ParameterType: parameterType,
			Value:         dec(values[parameterType]),
			Unit:          "unit",
			EffectiveDate: ratesEffective,
		})
		require.NoError(f.t, err)
	}
}

func (f *fixture) createRoute(category string, isDefault bool) *catalogdomain.Route {
	f.t.Helper()
	route, err := f.catalog.CreateRoute(context.Background(), catalogdomain.CreateRouteRequest{
		ProductCategory: category,
		Name:            "Route " + category,
		IsDefault:       isDefault,
		Details: []catalogdomain.RouteDetailInput{
			{Sequence: 1, StepID: f.stepID, YieldRate: dec("0.98")},
		},
	})
	require.NoError(f.t, err)
	return route
}

func exampleRequest() domain.CalculateRequest {
	margin := dec("20")
	return domain.CalculateRequest{
		Product:       domain.ProductSpec{Name: "M10 hex bolt", Category: "hex-bolt"},
		Quantity:      1000,
		MaterialCost:  dec("500"),
		MarginPercent: &margin,
	}
}

func as(actor string) context.Context {
	return actorcontext.WithActorID(context.Background(), actor)
}

func paginationOf(token string, size int) pagination.Pagination {
	return pagination.Pagination{PageToken: token, PageSize: size}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func assertExampleTotals(t *testing.T, calc *domain.CostCalculation) {
	t.Helper()
	assertDecimal(t, exampleTotals["material"], calc.MaterialCost)
	assertDecimal(t, exampleTotals["process"], calc.ProcessCost)
	assertDecimal(t, exampleTotals["overhead"], calc.OverheadCost)
	assertDecimal(t, exampleTotals["total"], calc.TotalCost)
	assertDecimal(t, exampleTotals["unit"], calc.UnitCost)
	assertDecimal(t, exampleTotals["selling"], calc.SellingPrice)
}

func TestCalculateExampleScenario(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	route := f.createRoute("hex-bolt", true)

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)

	assertExampleTotals(t, calc)
	assert.Equal(t, domain.StatusDraft, calc.Status)
	assert.Equal(t, 1, calc.Version)
	assert.Equal(t, "alice", calc.RequestedBy)
	assert.Equal(t, domain.RouteSourceResolved, calc.RouteSource)
	assert.Equal(t, string(routing.RuleDefault), calc.RouteRule)
	require.NotNil(t, calc.RouteID)
	assert.Equal(t, route.ID, *calc.RouteID)
	assert.True(t, strings.HasPrefix(calc.CalculationNumber, "CC-20240301-"))
	assert.True(t, calc.ParametersAsOf.Equal(fixtureNow))
	assertDecimal(t, "15", calc.Rates.Data().Labor.Value)

	require.Len(t, calc.Details, 1)
	detail := calc.Details[0]
	assertDecimal(t, "49.17", detail.LaborCost)
	assertDecimal(t, "65.56", detail.EquipmentCost)
	assertDecimal(t, "1.97", detail.ElectricityCost)
	assertDecimal(t, "10", detail.YieldLossCost)
	assertDecimal(t, "126.7", detail.Subtotal)

	stored, err := f.svc.Get(context.Background(), calc.ID.String())
	require.NoError(t, err)
	assertExampleTotals(t, stored)
	require.Len(t, stored.Details, 1)
	assertDecimal(t, "3.277778", stored.Details[0].TotalHours)
	assertDecimal(t, "20", stored.MarginPercent.Decimal)

	logs, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{Action: "calculation.created"})
	require.NoError(t, err)
	require.Len(t, logs.AuditLogs, 1)
	assert.Equal(t, calc.ID.String(), *logs.AuditLogs[0].TargetID)
}

func TestCalculateIsRepeatable(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	first, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	second, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)

	assert.NotEqual(t, first.CalculationNumber, second.CalculationNumber)
	require.Len(t, second.Details, len(first.Details))
	for i := range first.Details {
		assert.True(t, first.Details[i].Subtotal.Equal(second.Details[i].Subtotal))
		assert.True(t, first.Details[i].TotalHours.Equal(second.Details[i].TotalHours))
	}
}

func TestCalculateRequiresActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Calculate(context.Background(), exampleRequest())
	assert.ErrorIs(t, err, domain.ErrMissingActor)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCalculateValidatesInput(t *testing.T) {
	f := newFixture(t)

	req := exampleRequest()
	req.Quantity = 0
	_, err := f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, costing.ErrInvalidQuantity)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = exampleRequest()
	req.Product.Name = "  "
	_, err = f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, domain.ErrInvalidProductName)

	req = exampleRequest()
	req.RouteID = "not-a-number"
	_, err = f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCalculateWithCustomRoute(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()

	req := exampleRequest()
	req.Product.Category = "one-off"
	req.CustomRoute = []catalogdomain.RouteDetailInput{
		{Sequence: 5, StepID: f.stepID, YieldRate: dec("0.98")},
	}

	calc, err := f.svc.Calculate(as("alice"), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceCustom, calc.RouteSource)
	assert.Nil(t, calc.RouteID)
	assertExampleTotals(t, calc)
	require.Len(t, calc.Details, 1)
	assert.Equal(t, 5, calc.Details[0].Sequence)
	assert.Equal(t, f.equipmentID, calc.Details[0].EquipmentID.String())
}

func TestCalculateExplicitRouteWins(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	explicit := f.createRoute("hex-bolt", false)

	req := exampleRequest()
	req.RouteID = explicit.ID.String()
	req.CustomRoute = []catalogdomain.RouteDetailInput{{Sequence: 1, StepID: "0", YieldRate: dec("1")}}

	calc, err := f.svc.Calculate(as("alice"), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceExplicit, calc.RouteSource)
	require.NotNil(t, calc.RouteID)
	assert.Equal(t, explicit.ID, *calc.RouteID)
}

func TestCalculateRejectsInactiveExplicitRoute(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	original := f.createRoute("hex-bolt", true)

	_, err := f.catalog.ReviseRoute(context.Background(), original.ID.String(), catalogdomain.ReviseRouteRequest{
		Details: []catalogdomain.RouteDetailInput{{Sequence: 1, StepID: f.stepID, YieldRate: dec("0.99")}},
	})
	require.NoError(t, err)

	req := exampleRequest()
	req.RouteID = original.ID.String()
	_, err = f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, catalogdomain.ErrRouteInactive)

	req.RouteID = "123456789"
	_, err = f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, catalogdomain.ErrRouteNotFound)
}

func TestCalculateWithoutRouteFails(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()

	_, err := f.svc.Calculate(as("alice"), exampleRequest())
	assert.ErrorIs(t, err, routing.ErrNoRouteAvailable)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCalculateMissingParameter(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates("labor", "overhead")
	f.createRoute("hex-bolt", true)

	_, err := f.svc.Calculate(as("alice"), exampleRequest())
	var missing *costparameterdomain.MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, costparameterdomain.ParameterTypeElectricity, missing.Type)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&domain.CostCalculation{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCalculateBeforeRatesTakeEffect(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	req := exampleRequest()
	asOf := ratesEffective.Add(-time.Hour)
	req.ParametersAsOf = &asOf
	_, err := f.svc.Calculate(as("alice"), req)
	assert.ErrorIs(t, err, costparameterdomain.ErrMissingParameter)
}

func TestCalculateFailsClosedOnImplausibleRate(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates("electricity", "overhead")
	f.createRoute("hex-bolt", true)

	require.NoError(t, f.db.Create(&costparameterdomain.CostParameter{
		ID:            snowflake.ID(99),
		ParameterType: costparameterdomain.ParameterTypeLabor,
		Value:         dec("5000"),
		Unit:          "USD/hour",
		EffectiveDate: ratesEffective,
		CreatedAt:     fixtureNow,
	}).Error)

	_, err := f.svc.Calculate(as("alice"), exampleRequest())
	assert.ErrorIs(t, err, costparameterdomain.ErrImplausibleRate)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestCalculateRejectsInactiveEquipment(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	require.NoError(t, f.db.Model(&catalogdomain.Equipment{}).
		Where("code = ?", "HDR-1").
		Update("active", false).Error)

	_, err := f.svc.Calculate(as("alice"), exampleRequest())
	var inactive *costing.InactiveReferenceError
	require.True(t, errors.As(err, &inactive))
	assert.Equal(t, costing.ReferenceEquipment, inactive.Kind)
	assert.Equal(t, "HDR-1", inactive.Code)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}

func TestApprovalLifecycle(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	id := calc.ID.String()

	_, err = f.svc.Approve(as("bob"), id)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)

	_, err = f.svc.Submit(as("bob"), id)
	assert.ErrorIs(t, err, domain.ErrNotRequester)

	submitted, err := f.svc.Submit(as("alice"), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, submitted.Status)
	assert.Equal(t, 2, submitted.Version)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = f.svc.Approve(as("alice"), id)
	assert.ErrorIs(t, err, domain.ErrSelfApproval)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.svc.Approve(as("carol"), id)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	f.clock.Advance(time.Hour)
	approved, err := f.svc.Approve(as("bob"), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	assert.Equal(t, 3, approved.Version)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "bob", *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(fixtureNow.Add(time.Hour)))
	assertExampleTotals(t, approved)

	logs, err := f.audit.List(context.Background(), auditdomain.ListAuditLogRequest{TargetID: id})
	require.NoError(t, err)
	actions := make([]string, 0, len(logs.AuditLogs))
	for _, entry := range logs.AuditLogs {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, "calculation.submit")
	assert.Contains(t, actions, "calculation.approve")
}

func TestSubmitApprovedCalculationConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	id := calc.ID.String()
	_, err = f.svc.Submit(as("alice"), id)
	require.NoError(t, err)
	_, err = f.svc.Approve(as("bob"), id)
	require.NoError(t, err)

	_, err = f.svc.Submit(as("alice"), id)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)
	_, err = f.svc.Reject(as("bob"), id, "too late")
	assert.ErrorIs(t, err, domain.ErrStatusConflict)
	_, err = f.svc.Recalculate(as("alice"), id, exampleRequest())
	assert.ErrorIs(t, err, domain.ErrStatusConflict)

	var stored domain.CostCalculation
	require.NoError(t, f.db.First(&stored, "id = ?", calc.ID).Error)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.Equal(t, 3, stored.Version)
	assert.Nil(t, stored.RejectedBy)
}

func TestApprovedCalculationServedFromCache(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	_, err = f.svc.Submit(as("alice"), calc.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Approve(as("bob"), calc.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.db.Where("calculation_id = ?", calc.ID).Delete(&domain.CostCalculationDetail{}).Error)
	require.NoError(t, f.db.Where("id = ?", calc.ID).Delete(&domain.CostCalculation{}).Error)

	cached, err := f.svc.Get(context.Background(), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, cached.Status)
	assert.Len(t, cached.Details, 1)
}

func TestStaleTransitionConflicts(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)

	repo := repository.Provide()
	rows, err := repo.ApplyTransition(context.Background(), f.db, domain.Transition{
		ID:              calc.ID,
		From:            domain.StatusDraft,
		To:              domain.StatusSubmitted,
		ExpectedVersion: calc.Version + 1,
		Fields:          map[string]any{"updated_at": fixtureNow},
	})
	require.NoError(t, err)
	assert.Zero(t, rows)

	stale := *calc
	stale.TotalCost = dec("1")
	rows, err = repo.ReplaceDraft(context.Background(), f.db, &stale, calc.Version+1)
	require.NoError(t, err)
	assert.Zero(t, rows)

	stored, err := f.svc.Get(context.Background(), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, stored.Status)
	assertDecimal(t, "689.37", stored.TotalCost)
}

func TestRecalculateDraft(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)

	req := exampleRequest()
	req.MarginPercent = nil
	_, err = f.svc.Recalculate(as("bob"), calc.ID.String(), req)
	assert.ErrorIs(t, err, domain.ErrNotRequester)

	updated, err := f.svc.Recalculate(as("alice"), calc.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, calc.CalculationNumber, updated.CalculationNumber)
	assert.False(t, updated.MarginPercent.Valid)
	assertDecimal(t, "689.37", updated.SellingPrice)

	stored, err := f.svc.Get(context.Background(), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.False(t, stored.MarginPercent.Valid)
	require.Len(t, stored.Details, 1)
	assert.Equal(t, updated.Details[0].ID, stored.Details[0].ID)
}

func TestRejectAndRevise(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	id := calc.ID.String()

	_, err = f.svc.Revise(as("alice"), id)
	assert.ErrorIs(t, err, domain.ErrStatusConflict)

	_, err = f.svc.Submit(as("alice"), id)
	require.NoError(t, err)
	rejected, err := f.svc.Reject(as("bob"), id, "  material quote expired ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "material quote expired", *rejected.RejectionReason)
	require.NotNil(t, rejected.RejectedBy)
	assert.Equal(t, "bob", *rejected.RejectedBy)

	revised, err := f.svc.Revise(as("alice"), id)
	require.NoError(t, err)
	assert.NotEqual(t, calc.ID, revised.ID)
	assert.Equal(t, domain.StatusDraft, revised.Status)
	require.NotNil(t, revised.ParentCalculationID)
	assert.Equal(t, calc.ID, *revised.ParentCalculationID)
	assert.Equal(t, calc.RouteID, revised.RouteID)
	assertExampleTotals(t, revised)

	original, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, original.Status)
	assert.Equal(t, 3, original.Version)
}

func TestReviseCustomRouteReplaysDetails(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	req := exampleRequest()
	req.CustomRoute = []catalogdomain.RouteDetailInput{{Sequence: 1, StepID: f.stepID, YieldRate: dec("0.98")}}
	calc, err := f.svc.Calculate(as("alice"), req)
	require.NoError(t, err)

	_, err = f.svc.Submit(as("alice"), calc.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Reject(as("bob"), calc.ID.String(), "")
	require.NoError(t, err)

	revised, err := f.svc.Revise(as("alice"), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceCustom, revised.RouteSource)
	assertExampleTotals(t, revised)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)

	ids := make([]snowflake.ID, 0, 3)
	for i := 0; i < 3; i++ {
		calc, err := f.svc.Calculate(as("alice"), exampleRequest())
		require.NoError(t, err)
		ids = append(ids, calc.ID)
	}
	_, err := f.svc.Submit(as("alice"), ids[0].String())
	require.NoError(t, err)

	ctx := context.Background()
	page, err := f.svc.List(ctx, domain.ListRequest{Pagination: paginationOf("", 2)})
	require.NoError(t, err)
	require.Len(t, page.Calculations, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, ids[2], page.Calculations[0].ID)
	assert.Equal(t, ids[1], page.Calculations[1].ID)

	next, err := f.svc.List(ctx, domain.ListRequest{Pagination: paginationOf(page.NextPageToken, 2)})
	require.NoError(t, err)
	require.Len(t, next.Calculations, 1)
	assert.False(t, next.HasMore)
	assert.Equal(t, ids[0], next.Calculations[0].ID)

	submitted, err := f.svc.List(ctx, domain.ListRequest{Status: "submitted"})
	require.NoError(t, err)
	require.Len(t, submitted.Calculations, 1)
	assert.Equal(t, ids[0], submitted.Calculations[0].ID)

	_, err = f.svc.List(ctx, domain.ListRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.List(ctx, domain.ListRequest{Pagination: paginationOf("%%%", 2)})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestGetUnknownCalculation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrCalculationNotFound)

	_, err = f.svc.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestReviseResolvesAgainAfterRouteRevision(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	route := f.createRoute("hex-bolt", true)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	calc, err := f.svc.Calculate(as("alice"), exampleRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceResolved, calc.RouteSource)
	_, err = f.svc.Submit(as("alice"), calc.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Reject(as("bob"), calc.ID.String(), "")
	require.NoError(t, err)

	next, err := f.catalog.ReviseRoute(context.Background(), route.ID.String(), catalogdomain.ReviseRouteRequest{
		Details: []catalogdomain.RouteDetailInput{{Sequence: 1, StepID: f.stepID, YieldRate: dec("0.98")}},
	})
	require.NoError(t, err)

	revised, err := f.svc.Revise(as("alice"), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceResolved, revised.RouteSource)
	require.NotNil(t, revised.RouteID)
	assert.Equal(t, next.ID, *revised.RouteID)
	assertExampleTotals(t, revised)
}

func TestReviseKeepsExplicitRoutePinned(t *testing.T) {
	f := newFixture(t)
	f.seedExample()
	f.seedRates()
	f.createRoute("hex-bolt", true)
	pinned := f.createRoute("hex-bolt", false)
	require.NoError(t, f.authz.AssignRole(context.Background(), "bob", authorization.RoleApprover))

	req := exampleRequest()
	req.RouteID = pinned.ID.String()
	calc, err := f.svc.Calculate(as("alice"), req)
	require.NoError(t, err)
	_, err = f.svc.Submit(as("alice"), calc.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Reject(as("bob"), calc.ID.String(), "")
	require.NoError(t, err)

	revised, err := f.svc.Revise(as("alice"), calc.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.RouteSourceExplicit, revised.RouteSource)
	require.NotNil(t, revised.RouteID)
	assert.Equal(t, pinned.ID, *revised.RouteID)
}
