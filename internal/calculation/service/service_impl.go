package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/actorcontext"
	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	auditdomain "github.com/wac0705/fastenmind-system-sub000/internal/audit/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
	"github.com/wac0705/fastenmind-system-sub000/internal/cache"
	"github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	catalogservice "github.com/wac0705/fastenmind-system-sub000/internal/catalog/service"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	costparameterservice "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/service"
	"github.com/wac0705/fastenmind-system-sub000/internal/costing"
	"github.com/wac0705/fastenmind-system-sub000/internal/observability/metrics"
	"github.com/wac0705/fastenmind-system-sub000/internal/observability/tracing"
	"github.com/wac0705/fastenmind-system-sub000/internal/routing"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const targetType = "cost_calculation"

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Config        config.Config
	EngineConfig  *config.CostEngineConfigHolder
	Repo          domain.Repository
	CatalogRepo   catalogdomain.Repository
	ParameterRepo costparameterdomain.Repository
	AuditSvc      auditdomain.Service
	Authz         authorization.Service
	Cache         cache.CalculationCache `optional:"true"`
	Metrics       *metrics.Metrics       `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	engineConfig  *config.CostEngineConfigHolder
	repo          domain.Repository
	catalogRepo   catalogdomain.Repository
	parameterRepo costparameterdomain.Repository
	auditSvc      auditdomain.Service
	authz         authorization.Service
	cache         cache.CalculationCache
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	readOptions   []*sql.TxOptions
}

func New(p Params) domain.Service {
	var readOptions []*sql.TxOptions
	if opts := db.SnapshotTxOptions(p.Config.DBType); opts != nil {
		readOptions = append(readOptions, opts)
	}

	calcCache := p.Cache
	if calcCache == nil {
		calcCache = cache.NewMemoryCalculationCache(0)
	}

	return &Service{
		db:            p.DB,
		log:           p.Log.Named("calculation.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		engineConfig:  p.EngineConfig,
		repo:          p.Repo,
		catalogRepo:   p.CatalogRepo,
		parameterRepo: p.ParameterRepo,
		auditSvc:      p.AuditSvc,
		authz:         p.Authz,
		cache:         calcCache,
		metrics:       p.Metrics,
		tracer:        otel.Tracer("fastenmind/calculation"),
		readOptions:   readOptions,
	}
}

// routeChoice records which route fed a computation and how it was picked.
type routeChoice struct {
	id     *snowflake.ID
	source domain.RouteSource
	rule   string
}

type computation struct {
	route  routeChoice
	asOf   time.Time
	rates  costparameterdomain.Snapshot
	result costing.Result
}

func (s *Service) Calculate(ctx context.Context, req domain.CalculateRequest) (_ *domain.CostCalculation, err error) {
	ctx, span := s.tracer.Start(ctx, "calculation.Calculate")
	defer func() { s.finishCalculation(ctx, span, "calculate", err) }()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	product, err := normalizeProduct(req.Product)
	if err != nil {
		return nil, err
	}

	comp, err := s.compute(ctx, product, req)
	if err != nil {
		return nil, err
	}

	calc, err := s.persistDraft(ctx, actor, product, comp, nil)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("calculation.id", calc.ID.String()))
	return calc, nil
}

func (s *Service) Recalculate(ctx context.Context, id string, req domain.CalculateRequest) (_ *domain.CostCalculation, err error) {
	ctx, span := s.tracer.Start(ctx, "calculation.Recalculate")
	defer func() { s.finishCalculation(ctx, span, "recalculate", err) }()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	calcID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	product, err := normalizeProduct(req.Product)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, s.db, calcID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrCalculationNotFound
	}
	if current.Status != domain.StatusDraft {
		return nil, domain.ErrStatusConflict
	}
	if current.RequestedBy != actor {
		return nil, domain.ErrNotRequester
	}

	comp, err := s.compute(ctx, product, req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updated := *current
	applyComputation(&updated, product, comp)
	updated.Version = current.Version + 1
	updated.UpdatedAt = now
	updated.Details = s.detailRows(updated.ID, comp.result.Steps)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.ReplaceDraft(ctx, tx, &updated, current.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStatusConflict
		}
		if err := s.repo.DeleteDetails(ctx, tx, updated.ID); err != nil {
			return err
		}
		if err := s.repo.InsertDetails(ctx, tx, updated.Details); err != nil {
			return err
		}
		return s.auditSvc.AuditLog(ctx, tx, auditdomain.Entry{
			ActorID:    &actor,
			Action:     "calculation.recalculated",
			TargetType: targetType,
			TargetID:   updated.ID.String(),
			Metadata: map[string]any{
				"version":    updated.Version,
				"total_cost": updated.TotalCost.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.CostCalculation, error) {
	calcID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.cache.Get(ctx, calcID); ok {
		return cached, nil
	}

	calc, err := s.load(ctx, s.db, calcID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, calc)
	return calc, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	var cursorID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		cursorID = id
	}

	limit := req.Limit()
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Status:          status,
		RequestedBy:     strings.TrimSpace(req.RequestedBy),
		ProductCategory: strings.TrimSpace(req.ProductCategory),
		CursorID:        cursorID,
		Limit:           limit,
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(item *domain.CostCalculation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: item.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	calcs := make([]domain.CostCalculation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		calcs = append(calcs, *item)
	}
	return domain.ListResponse{PageInfo: *pageInfo, Calculations: calcs}, nil
}

func (s *Service) Submit(ctx context.Context, id string) (*domain.CostCalculation, error) {
	return s.transition(ctx, id, domain.ActionSubmit, "")
}

func (s *Service) Approve(ctx context.Context, id string) (*domain.CostCalculation, error) {
	return s.transition(ctx, id, domain.ActionApprove, "")
}

func (s *Service) Reject(ctx context.Context, id string, reason string) (*domain.CostCalculation, error) {
	return s.transition(ctx, id, domain.ActionReject, reason)
}

// Revise starts a new draft from a rejected calculation using the rates in force now.
// The rejected record is left untouched.
func (s *Service) Revise(ctx context.Context, id string) (_ *domain.CostCalculation, err error) {
	ctx, span := s.tracer.Start(ctx, "calculation.Revise")
	defer func() { s.finishCalculation(ctx, span, "revise", err) }()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	calcID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	original, err := s.load(ctx, s.db, calcID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.StatusRejected {
		return nil, domain.ErrStatusConflict
	}

	req := reviseRequest(original)
	product, err := normalizeProduct(req.Product)
	if err != nil {
		return nil, err
	}
	comp, err := s.compute(ctx, product, req)
	if err != nil {
		return nil, err
	}
	return s.persistDraft(ctx, actor, product, comp, &original.ID)
}

// compute resolves the route and rates in one read transaction and runs the engine.
func (s *Service) compute(ctx context.Context, product domain.ProductSpec, req domain.CalculateRequest) (*computation, error) {
	if err := costing.ValidateInput(req.Quantity, req.MaterialCost, req.MarginPercent); err != nil {
		return nil, err
	}

	var routeID snowflake.ID
	if raw := strings.TrimSpace(req.RouteID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		routeID = id
	}

	var custom []catalogdomain.ParsedDetail
	if routeID == 0 && len(req.CustomRoute) > 0 {
		parsed, err := catalogdomain.ParseDetailInputs(req.CustomRoute)
		if err != nil {
			return nil, err
		}
		custom = parsed
	}

	asOf := s.clock.Now()
	if req.ParametersAsOf != nil && !req.ParametersAsOf.IsZero() {
		asOf = *req.ParametersAsOf
	}
	asOf = asOf.UTC()

	comp := &computation{asOf: asOf}
	var snapshot *catalogdomain.RouteSnapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch {
		case routeID != 0:
			snapshot, err = s.explicitRoute(ctx, tx, routeID)
			comp.route = routeChoice{id: &routeID, source: domain.RouteSourceExplicit}
		case custom != nil:
			snapshot, err = s.customRoute(ctx, tx, custom)
			comp.route = routeChoice{source: domain.RouteSourceCustom}
		default:
			var resolution *routing.Resolution
			resolution, err = routing.ResolveWith(ctx, s.catalogRepo, tx, routing.Query{
				Category:     product.Category,
				MaterialType: product.MaterialType,
				SizeRange:    product.SizeRange,
			})
			if err != nil {
				return err
			}
			resolvedID := resolution.Route.ID
			comp.route = routeChoice{id: &resolvedID, source: domain.RouteSourceResolved, rule: string(resolution.Rule)}
			s.metrics.RecordResolution(ctx, string(resolution.Rule))
			snapshot, err = catalogservice.LoadSnapshot(ctx, s.catalogRepo, tx, resolution.Route)
		}
		if err != nil {
			return err
		}

		comp.rates, err = costparameterservice.LoadSnapshot(ctx, s.parameterRepo, tx, asOf, s.engineConfig.Get().RateBounds)
		return err
	}, s.readOptions...)
	if err != nil {
		return nil, err
	}

	comp.result, err = costing.Calculate(costing.Input{
		Quantity:     req.Quantity,
		MaterialCost: req.MaterialCost,
		Details:      engineDetails(snapshot),
		Rates: costing.Rates{
			Labor:       comp.rates.Labor.Value,
			Electricity: comp.rates.Electricity.Value,
			Overhead:    comp.rates.Overhead.Value,
		},
		MarginPercent: req.MarginPercent,
	})
	if err != nil {
		return nil, err
	}
	return comp, nil
}

func (s *Service) explicitRoute(ctx context.Context, tx *gorm.DB, routeID snowflake.ID) (*catalogdomain.RouteSnapshot, error) {
	route, err := s.catalogRepo.FindRouteByID(ctx, tx, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, catalogdomain.ErrRouteNotFound
	}
	if !route.Active {
		return nil, catalogdomain.ErrRouteInactive
	}
	return catalogservice.LoadSnapshot(ctx, s.catalogRepo, tx, *route)
}

// customRoute binds caller supplied details without persisting them as a catalog route.
func (s *Service) customRoute(ctx context.Context, tx *gorm.DB, parsed []catalogdomain.ParsedDetail) (*catalogdomain.RouteSnapshot, error) {
	details, err := catalogservice.BuildDetails(ctx, s.catalogRepo, tx, s.genID, 0, parsed, s.clock.Now)
	if err != nil {
		return nil, err
	}
	return catalogservice.LoadSnapshot(ctx, s.catalogRepo, tx, catalogdomain.Route{Details: details})
}

func (s *Service) persistDraft(ctx context.Context, actor string, product domain.ProductSpec, comp *computation, parentID *snowflake.ID) (*domain.CostCalculation, error) {
	now := s.clock.Now()
	id := s.genID.Generate()

	calc := &domain.CostCalculation{
		ID:                  id,
		CalculationNumber:   s.calculationNumber(id, now),
		Status:              domain.StatusDraft,
		Version:             1,
		ParentCalculationID: parentID,
		RequestedBy:         actor,
		RequestedAt:         now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	applyComputation(calc, product, comp)
	calc.Details = s.detailRows(id, comp.result.Steps)

	action := "calculation.created"
	metadata := map[string]any{
		"calculation_number": calc.CalculationNumber,
		"route_source":       string(calc.RouteSource),
		"total_cost":         calc.TotalCost.String(),
	}
	if parentID != nil {
		action = "calculation.revised"
		metadata["parent_calculation_id"] = parentID.String()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, calc); err != nil {
			return err
		}
		if err := s.repo.InsertDetails(ctx, tx, calc.Details); err != nil {
			return err
		}
		return s.auditSvc.AuditLog(ctx, tx, auditdomain.Entry{
			ActorID:    &actor,
			Action:     action,
			TargetType: targetType,
			TargetID:   calc.ID.String(),
			Metadata:   metadata,
		})
	})
	if err != nil {
		return nil, err
	}
	return calc, nil
}

func (s *Service) transition(ctx context.Context, id string, action domain.Action, reason string) (_ *domain.CostCalculation, err error) {
	ctx, span := s.tracer.Start(ctx, "calculation.Transition",
		trace.WithAttributes(attribute.String("calculation.action", string(action))),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, outcome)
		}
		s.metrics.RecordTransition(ctx, string(action), outcome)
		span.End()
	}()

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	calcID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, s.db, calcID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrCalculationNotFound
	}

	now := s.clock.Now()
	t := domain.Transition{
		ID:              current.ID,
		ExpectedVersion: current.Version,
		Fields:          map[string]any{"updated_at": now},
	}

	switch action {
	case domain.ActionSubmit:
		if current.Status != domain.StatusDraft {
			return nil, domain.ErrStatusConflict
		}
		if current.RequestedBy != actor {
			return nil, domain.ErrNotRequester
		}
		t.From, t.To = domain.StatusDraft, domain.StatusSubmitted
		t.Fields["submitted_at"] = now
	case domain.ActionApprove, domain.ActionReject:
		if current.RequestedBy == actor {
			return nil, domain.ErrSelfApproval
		}
		permission := authorization.ActionCalculationApprove
		if action == domain.ActionReject {
			permission = authorization.ActionCalculationReject
		}
		if err := s.authz.Authorize(ctx, actor, authorization.ObjectCalculation, permission); err != nil {
			return nil, err
		}
		if current.Status != domain.StatusSubmitted {
			return nil, domain.ErrStatusConflict
		}
		t.From = domain.StatusSubmitted
		if action == domain.ActionApprove {
			t.To = domain.StatusApproved
			t.Fields["approved_by"] = actor
			t.Fields["approved_at"] = now
		} else {
			t.To = domain.StatusRejected
			t.Fields["rejected_by"] = actor
			t.Fields["rejected_at"] = now
			if reason = strings.TrimSpace(reason); reason != "" {
				t.Fields["rejection_reason"] = reason
			}
		}
	default:
		return nil, domain.ErrStatusConflict
	}

	var updated *domain.CostCalculation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.ApplyTransition(ctx, tx, t)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrStatusConflict
		}
		if err := s.auditSvc.AuditLog(ctx, tx, auditdomain.Entry{
			ActorID:    &actor,
			Action:     "calculation." + string(action),
			TargetType: targetType,
			TargetID:   current.ID.String(),
			Metadata: map[string]any{
				"from":    string(t.From),
				"to":      string(t.To),
				"version": t.ExpectedVersion + 1,
			},
		}); err != nil {
			return err
		}
		updated, err = s.load(ctx, tx, current.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrStatusConflict) {
			s.log.Info("calculation transition lost race",
				zap.String("calculation_id", current.ID.String()),
				zap.String("action", string(action)),
			)
		}
		return nil, err
	}

	s.cache.Set(ctx, updated)
	return updated, nil
}

func (s *Service) load(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.CostCalculation, error) {
	calc, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if calc == nil {
		return nil, domain.ErrCalculationNotFound
	}
	details, err := s.repo.ListDetails(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	calc.Details = details
	return calc, nil
}

func (s *Service) detailRows(calcID snowflake.ID, steps []costing.StepCost) []domain.CostCalculationDetail {
	rows := make([]domain.CostCalculationDetail, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, domain.CostCalculationDetail{
			ID:              s.genID.Generate(),
			CalculationID:   calcID,
			Sequence:        step.Sequence,
			StepID:          step.StepID,
			EquipmentID:     step.EquipmentID,
			SetupMinutes:    step.SetupMinutes,
			CycleSeconds:    step.CycleSeconds,
			TotalHours:      step.TotalHours,
			YieldRate:       step.YieldRate,
			CumulativeYield: step.CumulativeYield,
			LaborCost:       step.LaborCost,
			EquipmentCost:   step.EquipmentCost,
			ElectricityCost: step.ElectricityCost,
			OtherCost:       step.OtherCost,
			YieldLossCost:   step.YieldLossCost,
			Subtotal:        step.Subtotal,
			Notes:           step.Notes,
		})
	}
	return rows
}

// calculationNumber renders <prefix>-<yyyymmdd>-<base36 id>.
func (s *Service) calculationNumber(id snowflake.ID, now time.Time) string {
	prefix := strings.TrimSpace(s.engineConfig.Get().CalculationNumberPrefix)
	if prefix == "" {
		prefix = config.DefaultCostEngineConfig().CalculationNumberPrefix
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), strings.ToUpper(id.Base36()))
}

func (s *Service) finishCalculation(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()

	if err == nil {
		s.metrics.RecordCalculation(ctx, "ok")
		return
	}

	outcome := outcomeOf(err)
	s.metrics.RecordCalculation(ctx, outcome)
	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, outcome)

	if errors.Is(err, apperror.ErrConfiguration) {
		s.log.Error("calculation blocked by catalog or parameter data",
			zap.String("operation", operation),
			zap.String("code", apperror.Code(err)),
			zap.Error(err),
		)
	}
}

func applyComputation(calc *domain.CostCalculation, product domain.ProductSpec, comp *computation) {
	result := comp.result
	calc.ProductName = product.Name
	calc.ProductCategory = product.Category
	calc.MaterialType = optionalString(product.MaterialType)
	calc.SizeRange = optionalString(product.SizeRange)
	calc.Quantity = result.Quantity
	calc.MaterialCost = result.MaterialCost
	calc.ProcessCost = result.ProcessCost
	calc.OverheadCost = result.OverheadCost
	calc.TotalCost = result.TotalCost
	calc.UnitCost = result.UnitCost
	calc.MarginPercent = decimal.NullDecimal{}
	if result.MarginPercent != nil {
		calc.MarginPercent = decimal.NewNullDecimal(*result.MarginPercent)
	}
	calc.SellingPrice = result.SellingPrice
	calc.RouteID = comp.route.id
	calc.RouteSource = comp.route.source
	calc.RouteRule = comp.route.rule
	calc.ParametersAsOf = comp.asOf
	calc.Rates = datatypes.NewJSONType(comp.rates)
}

func engineDetails(snapshot *catalogdomain.RouteSnapshot) []costing.Detail {
	details := make([]costing.Detail, 0, len(snapshot.Route.Details))
	for _, detail := range snapshot.Route.Details {
		details = append(details, costing.Detail{
			Sequence:             detail.Sequence,
			Step:                 snapshot.Steps[detail.StepID],
			Equipment:            snapshot.Equipment[detail.EquipmentID],
			SetupMinutesOverride: detail.SetupMinutesOverride,
			CycleSecondsOverride: detail.CycleSecondsOverride,
			YieldRate:            detail.YieldRate,
			OtherCost:            detail.OtherCost,
			Notes:                detail.Notes,
		})
	}
	return details
}

// reviseRequest replays the inputs of calc. Resolved routes are resolved again against the
// current catalog and only explicit routes stay pinned. Custom routes are rebuilt from the
// executed details with their effective times pinned as overrides.
func reviseRequest(calc *domain.CostCalculation) domain.CalculateRequest {
	req := domain.CalculateRequest{
		Product: domain.ProductSpec{
			Name:         calc.ProductName,
			Category:     calc.ProductCategory,
			MaterialType: valueOf(calc.MaterialType),
			SizeRange:    valueOf(calc.SizeRange),
		},
		Quantity:     calc.Quantity,
		MaterialCost: calc.MaterialCost,
	}
	if calc.MarginPercent.Valid {
		margin := calc.MarginPercent.Decimal
		req.MarginPercent = &margin
	}
	switch calc.RouteSource {
	case domain.RouteSourceResolved:
		return req
	case domain.RouteSourceExplicit:
		if calc.RouteID != nil {
			req.RouteID = calc.RouteID.String()
			return req
		}
	}

	req.CustomRoute = make([]catalogdomain.RouteDetailInput, 0, len(calc.Details))
	for _, detail := range calc.Details {
		setup := detail.SetupMinutes
		cycle := detail.CycleSeconds
		other := detail.OtherCost
		req.CustomRoute = append(req.CustomRoute, catalogdomain.RouteDetailInput{
			Sequence:             detail.Sequence,
			StepID:               detail.StepID.String(),
			EquipmentID:          detail.EquipmentID.String(),
			SetupMinutesOverride: &setup,
			CycleSecondsOverride: &cycle,
			YieldRate:            detail.YieldRate,
			OtherCost:            &other,
			Notes:                detail.Notes,
		})
	}
	return req
}

func normalizeProduct(spec domain.ProductSpec) (domain.ProductSpec, error) {
	spec.Name = strings.TrimSpace(spec.Name)
	spec.Category = strings.TrimSpace(spec.Category)
	spec.MaterialType = strings.TrimSpace(spec.MaterialType)
	spec.SizeRange = strings.TrimSpace(spec.SizeRange)
	if spec.Name == "" {
		return spec, domain.ErrInvalidProductName
	}
	if spec.Category == "" {
		return spec, domain.ErrInvalidProductCategory
	}
	return spec, nil
}

func requireActor(ctx context.Context) (string, error) {
	actor, ok := actorcontext.ActorIDFromContext(ctx)
	if !ok {
		return "", domain.ErrMissingActor
	}
	return strings.TrimSpace(actor), nil
}

// outcomeOf labels a failure by its class so metric cardinality stays bounded.
func outcomeOf(err error) string {
	if class := apperror.Class(err); class != nil {
		return class.Error()
	}
	return "internal_error"
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func valueOf(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
