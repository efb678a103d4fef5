package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	"github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	pkgdb "github.com/wac0705/fastenmind-system-sub000/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	EngineConfig *config.CostEngineConfigHolder
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	engineConfig *config.CostEngineConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("costparameter.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		engineConfig: p.EngineConfig,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CostParameter, error) {
	parameterType := domain.ParameterType(strings.ToLower(strings.TrimSpace(req.ParameterType)))
	if !parameterType.Valid() {
		return nil, domain.ErrInvalidParameterType
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		return nil, domain.ErrInvalidUnit
	}
	if req.EffectiveDate.IsZero() {
		return nil, domain.ErrInvalidDateRange
	}
	if err := domain.CheckBound(parameterType, req.Value, s.engineConfig.Get().RateBounds); err != nil {
		return nil, domain.ErrInvalidValue
	}

	param := &domain.CostParameter{
		ID:            s.genID.Generate(),
		ParameterType: parameterType,
		Value:         req.Value,
		Unit:          unit,
		Description:   strings.TrimSpace(req.Description),
		EffectiveDate: req.EffectiveDate.UTC(),
		CreatedAt:     s.clock.Now(),
	}
	if req.EndDate != nil {
		end := req.EndDate.UTC()
		if !end.After(param.EffectiveDate) {
			return nil, domain.ErrInvalidDateRange
		}
		param.EndDate = &end
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.LockByType(ctx, tx, parameterType)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if param.Overlaps(other) {
				return domain.ErrParameterOverlap
			}
		}
		if err := s.repo.Insert(ctx, tx, param); err != nil {
			if pkgdb.IsExclusionViolation(err) {
				return domain.ErrParameterOverlap
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("cost parameter created",
		zap.String("parameter_id", param.ID.String()),
		zap.String("parameter_type", string(param.ParameterType)),
		zap.Time("effective_date", param.EffectiveDate),
	)
	return param, nil
}

func (s *Service) List(ctx context.Context, parameterType string) ([]domain.CostParameter, error) {
	parameterType = strings.ToLower(strings.TrimSpace(parameterType))
	if parameterType == "" {
		all := append([]domain.ParameterType{}, domain.RequiredTypes...)
		all = append(all, domain.ParameterTypeLand)
		return s.repo.ListByTypes(ctx, s.db, all)
	}
	t := domain.ParameterType(parameterType)
	if !t.Valid() {
		return nil, domain.ErrInvalidParameterType
	}
	return s.repo.ListByType(ctx, s.db, t)
}

func (s *Service) ResolveAt(ctx context.Context, parameterType string, at time.Time) (*domain.CostParameter, error) {
	t := domain.ParameterType(strings.ToLower(strings.TrimSpace(parameterType)))
	if !t.Valid() {
		return nil, domain.ErrInvalidParameterType
	}
	params, err := s.repo.ListByType(ctx, s.db, t)
	if err != nil {
		return nil, err
	}
	found := domain.Resolve(params, at.UTC())
	if found == nil {
		return nil, &domain.MissingParameterError{Type: t}
	}
	return found, nil
}

func (s *Service) Snapshot(ctx context.Context, at time.Time) (domain.Snapshot, error) {
	return LoadSnapshot(ctx, s.repo, s.db, at, s.engineConfig.Get().RateBounds)
}

// LoadSnapshot reads every parameter type through db, which may be an open transaction,
// and resolves them for at.
func LoadSnapshot(ctx context.Context, repo domain.Repository, db *gorm.DB, at time.Time, bounds map[string]config.RateBound) (domain.Snapshot, error) {
	types := append([]domain.ParameterType{}, domain.RequiredTypes...)
	types = append(types, domain.ParameterTypeLand)

	params, err := repo.ListByTypes(ctx, db, types)
	if err != nil {
		return domain.Snapshot{}, err
	}
	byType := make(map[domain.ParameterType][]domain.CostParameter, len(types))
	for _, param := range params {
		byType[param.ParameterType] = append(byType[param.ParameterType], param)
	}
	return domain.BuildSnapshot(byType, at.UTC(), bounds)
}
