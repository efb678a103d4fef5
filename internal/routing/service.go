package routing

import (
	"context"

	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("routing.service",
	fx.Provide(NewService),
)

// Resolution is a selected route and the rule that selected it.
type Resolution struct {
	Route catalogdomain.Route `json:"route"`
	Rule  Rule                `json:"rule"`
}

type Service interface {
	ResolveRoute(ctx context.Context, q Query) (*Resolution, error)
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    catalogdomain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    catalogdomain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) Service {
	return &service{
		db:      p.DB,
		log:     p.Log.Named("routing.service"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *service) ResolveRoute(ctx context.Context, q Query) (*Resolution, error) {
	resolution, err := ResolveWith(ctx, s.repo, s.db, q)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordResolution(ctx, string(resolution.Rule))
	s.log.Debug("route resolved",
		zap.String("category", resolution.Route.ProductCategory),
		zap.String("route_id", resolution.Route.ID.String()),
		zap.String("rule", string(resolution.Rule)),
	)
	return resolution, nil
}

// ResolveWith loads the category's active routes through db, which may be an open
// transaction, and applies Resolve. The returned route carries its details.
func ResolveWith(ctx context.Context, repo catalogdomain.Repository, db *gorm.DB, q Query) (*Resolution, error) {
	q = q.normalized()
	if q.Category == "" {
		return nil, ErrInvalidCategory
	}

	routes, err := repo.ListActiveRoutes(ctx, db, q.Category)
	if err != nil {
		return nil, err
	}
	route, rule, err := Resolve(routes, q)
	if err != nil {
		return nil, err
	}

	details, err := repo.ListRouteDetails(ctx, db, route.ID)
	if err != nil {
		return nil, err
	}
	catalogdomain.SortDetails(details)

	resolved := *route
	resolved.Details = details
	return &Resolution{Route: resolved, Rule: rule}, nil
}
