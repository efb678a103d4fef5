package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	code, err := normalizeCode(req.Code, name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	category := &domain.Category{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		DisplayName: strings.TrimSpace(req.DisplayName),
		SortOrder:   req.SortOrder,
		Active:      boolOrDefault(req.Active, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertCategory(ctx, s.db, category); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, s.db)
}

func (s *Service) CreateEquipment(ctx context.Context, req domain.CreateEquipmentRequest) (*domain.Equipment, error) {
	categoryID, err := parseID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	code, err := normalizeCode(req.Code, name)
	if err != nil {
		return nil, err
	}
	if req.DepreciationYears <= 0 {
		return nil, domain.ErrInvalidDepreciation
	}
	for _, amount := range []decimal.Decimal{req.CapacityPerHour, req.PowerKW, req.PurchaseCost, req.MaintenanceCostPerYear} {
		if amount.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	now := s.clock.Now()
	equipment := &domain.Equipment{
		ID:                     s.genID.Generate(),
		CategoryID:             category.ID,
		Code:                   code,
		Name:                   name,
		CapacityPerHour:        req.CapacityPerHour,
		PowerKW:                req.PowerKW,
		DepreciationYears:      req.DepreciationYears,
		PurchaseCost:           req.PurchaseCost,
		MaintenanceCostPerYear: req.MaintenanceCostPerYear,
		Location:               strings.TrimSpace(req.Location),
		Active:                 boolOrDefault(req.Active, true),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.repo.InsertEquipment(ctx, s.db, equipment); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	return equipment, nil
}

func (s *Service) GetEquipment(ctx context.Context, id string) (*domain.Equipment, error) {
	equipmentID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repo.FindEquipmentByID(ctx, s.db, equipmentID)
	if err != nil {
		return nil, err
	}
	if equipment == nil {
		return nil, domain.ErrEquipmentNotFound
	}
	return equipment, nil
}

func (s *Service) CreateStep(ctx context.Context, req domain.CreateStepRequest) (*domain.Step, error) {
	categoryID, err := parseID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	code, err := normalizeCode(req.Code, name)
	if err != nil {
		return nil, err
	}
	if req.SetupMinutes.IsNegative() || req.CycleSeconds.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if req.LaborRequired.IsNegative() {
		return nil, domain.ErrInvalidLaborRequired
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	var defaultEquipmentID *snowflake.ID
	if raw := strings.TrimSpace(req.DefaultEquipmentID); raw != "" {
		equipmentID, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		equipment, err := s.repo.FindEquipmentByID(ctx, s.db, equipmentID)
		if err != nil {
			return nil, err
		}
		if equipment == nil {
			return nil, domain.ErrEquipmentNotFound
		}
		if equipment.CategoryID != category.ID {
			return nil, domain.ErrEquipmentCategory
		}
		defaultEquipmentID = &equipment.ID
	}

	now := s.clock.Now()
	step := &domain.Step{
		ID:                 s.genID.Generate(),
		CategoryID:         category.ID,
		DefaultEquipmentID: defaultEquipmentID,
		Code:               code,
		Name:               name,
		SetupMinutes:       req.SetupMinutes,
		CycleSeconds:       req.CycleSeconds,
		LaborRequired:      req.LaborRequired,
		SortOrder:          req.SortOrder,
		Active:             boolOrDefault(req.Active, true),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.InsertStep(ctx, s.db, step); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateCode
		}
		return nil, err
	}
	return step, nil
}

func (s *Service) GetStep(ctx context.Context, id string) (*domain.Step, error) {
	stepID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	step, err := s.repo.FindStepByID(ctx, s.db, stepID)
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, domain.ErrStepNotFound
	}
	return step, nil
}

func (s *Service) CreateRoute(ctx context.Context, req domain.CreateRouteRequest) (*domain.Route, error) {
	productCategory := strings.TrimSpace(req.ProductCategory)
	if productCategory == "" {
		return nil, domain.ErrInvalidProductCategory
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	parsed, err := domain.ParseDetailInputs(req.Details)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	route := &domain.Route{
		ID:              s.genID.Generate(),
		ProductCategory: productCategory,
		MaterialType:    optionalString(req.MaterialType),
		SizeRange:       optionalString(req.SizeRange),
		Name:            name,
		Version:         1,
		IsDefault:       req.IsDefault,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details, err := s.buildDetails(ctx, tx, route.ID, parsed)
		if err != nil {
			return err
		}
		if err := s.repo.InsertRoute(ctx, tx, route); err != nil {
			return err
		}
		if err := s.repo.InsertRouteDetails(ctx, tx, details); err != nil {
			return err
		}
		route.Details = details
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("route created",
		zap.String("route_id", route.ID.String()),
		zap.String("product_category", route.ProductCategory),
		zap.Int("steps", len(route.Details)),
	)
	return route, nil
}

// ReviseRoute stores new details as version+1 of the route and deactivates the old version.
func (s *Service) ReviseRoute(ctx context.Context, id string, req domain.ReviseRouteRequest) (*domain.Route, error) {
	routeID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	parsed, err := domain.ParseDetailInputs(req.Details)
	if err != nil {
		return nil, err
	}

	var revised *domain.Route
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindRouteByID(ctx, tx, routeID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrRouteNotFound
		}
		if !current.Active {
			return domain.ErrRouteInactive
		}

		affected, err := s.repo.DeactivateRoute(ctx, tx, current.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrRouteInactive
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = current.Name
		}
		isDefault := current.IsDefault
		if req.IsDefault != nil {
			isDefault = *req.IsDefault
		}

		// A revision inherits created_at so it keeps the family's place in the first-active order.
		now := s.clock.Now()
		previousID := current.ID
		next := &domain.Route{
			ID:              s.genID.Generate(),
			ProductCategory: current.ProductCategory,
			MaterialType:    current.MaterialType,
			SizeRange:       current.SizeRange,
			Name:            name,
			Version:         current.Version + 1,
			PreviousRouteID: &previousID,
			IsDefault:       isDefault,
			Active:          true,
			CreatedAt:       current.CreatedAt,
			UpdatedAt:       now,
		}

		details, err := s.buildDetails(ctx, tx, next.ID, parsed)
		if err != nil {
			return err
		}
		if err := s.repo.InsertRoute(ctx, tx, next); err != nil {
			return err
		}
		if err := s.repo.InsertRouteDetails(ctx, tx, details); err != nil {
			return err
		}
		next.Details = details
		revised = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("route revised",
		zap.String("route_id", revised.ID.String()),
		zap.String("previous_route_id", routeID.String()),
		zap.Int("version", revised.Version),
	)
	return revised, nil
}

func (s *Service) GetRoute(ctx context.Context, id string) (*domain.Route, error) {
	routeID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	route, err := s.repo.FindRouteByID(ctx, s.db, routeID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, domain.ErrRouteNotFound
	}
	details, err := s.repo.ListRouteDetails(ctx, s.db, route.ID)
	if err != nil {
		return nil, err
	}
	domain.SortDetails(details)
	route.Details = details
	return route, nil
}

func (s *Service) ListActiveRoutes(ctx context.Context, productCategory string) ([]domain.Route, error) {
	productCategory = strings.TrimSpace(productCategory)
	if productCategory == "" {
		return nil, domain.ErrInvalidProductCategory
	}
	return s.repo.ListActiveRoutes(ctx, s.db, productCategory)
}

func (s *Service) LoadRouteSnapshot(ctx context.Context, route domain.Route) (*domain.RouteSnapshot, error) {
	return LoadSnapshot(ctx, s.repo, s.db, route)
}

// LoadSnapshot loads the details of route (unless already attached) and every step and
// equipment they reference through db, which may be an open transaction.
func LoadSnapshot(ctx context.Context, repo domain.Repository, db *gorm.DB, route domain.Route) (*domain.RouteSnapshot, error) {
	if len(route.Details) == 0 {
		details, err := repo.ListRouteDetails(ctx, db, route.ID)
		if err != nil {
			return nil, err
		}
		route.Details = details
	}
	domain.SortDetails(route.Details)

	stepIDs := make([]snowflake.ID, 0, len(route.Details))
	equipmentIDs := make([]snowflake.ID, 0, len(route.Details))
	for _, detail := range route.Details {
		stepIDs = append(stepIDs, detail.StepID)
		equipmentIDs = append(equipmentIDs, detail.EquipmentID)
	}

	steps, err := repo.FindStepsByIDs(ctx, db, stepIDs)
	if err != nil {
		return nil, err
	}
	equipment, err := repo.FindEquipmentByIDs(ctx, db, equipmentIDs)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.RouteSnapshot{
		Route:     route,
		Steps:     make(map[snowflake.ID]domain.Step, len(steps)),
		Equipment: make(map[snowflake.ID]domain.Equipment, len(equipment)),
	}
	for _, step := range steps {
		snapshot.Steps[step.ID] = step
	}
	for _, item := range equipment {
		snapshot.Equipment[item.ID] = item
	}
	for _, detail := range route.Details {
		if _, ok := snapshot.Steps[detail.StepID]; !ok {
			return nil, domain.ErrStepNotFound
		}
		if _, ok := snapshot.Equipment[detail.EquipmentID]; !ok {
			return nil, domain.ErrEquipmentNotFound
		}
	}
	return snapshot, nil
}

// BuildDetails resolves parsed inputs against db into route detail rows owned by routeID.
func BuildDetails(ctx context.Context, repo domain.Repository, db *gorm.DB, genID *snowflake.Node, routeID snowflake.ID, parsed []domain.ParsedDetail, now func() time.Time) ([]domain.RouteDetail, error) {
	steps, err := repo.FindStepsByIDs(ctx, db, domain.StepIDs(parsed))
	if err != nil {
		return nil, err
	}
	stepsByID := make(map[snowflake.ID]domain.Step, len(steps))
	for _, step := range steps {
		stepsByID[step.ID] = step
	}

	bound, err := domain.BindEquipment(parsed, stepsByID)
	if err != nil {
		return nil, err
	}

	equipmentIDs := domain.EquipmentIDs(bound)
	equipment, err := repo.FindEquipmentByIDs(ctx, db, equipmentIDs)
	if err != nil {
		return nil, err
	}
	if len(equipment) != len(equipmentIDs) {
		return nil, domain.ErrEquipmentNotFound
	}

	createdAt := now()
	details := make([]domain.RouteDetail, 0, len(bound))
	for _, item := range bound {
		details = append(details, domain.RouteDetail{
			ID:                   genID.Generate(),
			RouteID:              routeID,
			Sequence:             item.Sequence,
			StepID:               item.StepID,
			EquipmentID:          *item.EquipmentID,
			SetupMinutesOverride: item.SetupMinutesOverride,
			CycleSecondsOverride: item.CycleSecondsOverride,
			YieldRate:            item.YieldRate,
			OtherCost:            item.OtherCost,
			Notes:                item.Notes,
			CreatedAt:            createdAt,
		})
	}
	return details, nil
}

func (s *Service) buildDetails(ctx context.Context, tx *gorm.DB, routeID snowflake.ID, parsed []domain.ParsedDetail) ([]domain.RouteDetail, error) {
	return BuildDetails(ctx, s.repo, tx, s.genID, routeID, parsed, s.clock.Now)
}

func normalizeCode(code, name string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		code = strings.ToUpper(slug.Make(name))
	}
	if code == "" {
		return "", domain.ErrInvalidCode
	}
	return code, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func boolOrDefault(value *bool, def bool) bool {
	if value == nil {
		return def
	}
	return *value
}
