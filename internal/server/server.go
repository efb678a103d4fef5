package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/wac0705/fastenmind-system-sub000/internal/audit/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
	calculationdomain "github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/clock"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/observability"
	obsmiddleware "github.com/wac0705/fastenmind-system-sub000/internal/observability/logger"
	obsmetrics "github.com/wac0705/fastenmind-system-sub000/internal/observability/metrics"
	obstracing "github.com/wac0705/fastenmind-system-sub000/internal/observability/tracing"
	"github.com/wac0705/fastenmind-system-sub000/internal/routing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ActorContext())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	log           *zap.Logger
	clock         clock.Clock
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	calculations  calculationdomain.Service
	catalogSvc    catalogdomain.Service
	parameterSvc  costparameterdomain.Service
	routeResolver routing.Service
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Log            *zap.Logger
	Clock          clock.Clock
	AuthzSvc       authorization.Service
	AuditSvc       auditdomain.Service
	CalculationSvc calculationdomain.Service
	CatalogSvc     catalogdomain.Service
	ParameterSvc   costparameterdomain.Service
	RouteResolver  routing.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		log:           p.Log.Named("http.server"),
		clock:         p.Clock,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		calculations:  p.CalculationSvc,
		catalogSvc:    p.CatalogSvc,
		parameterSvc:  p.ParameterSvc,
		routeResolver: p.RouteResolver,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/routes/resolve", s.ResolveRoute)

	// -------- Calculations --------
	api.GET("/calculations", s.ListCalculations)
	api.GET("/calculations/:id", s.GetCalculation)
	api.POST("/calculations", RequireActor(), s.CreateCalculation)
	api.PUT("/calculations/:id", RequireActor(), s.RecalculateCalculation)
	api.POST("/calculations/:id/submit", RequireActor(), s.SubmitCalculation)
	api.POST("/calculations/:id/approve", RequireActor(), s.ApproveCalculation)
	api.POST("/calculations/:id/reject", RequireActor(), s.RejectCalculation)
	api.POST("/calculations/:id/revise", RequireActor(), s.ReviseCalculation)
}

func (s *Server) registerAdminRoutes() {
	catalog := s.engine.Group("/api/catalog")
	manageCatalog := s.authorizeAction(authorization.ObjectCatalog, authorization.ActionCatalogManage)

	// -------- Catalog --------
	catalog.GET("/categories", s.ListCategories)
	catalog.POST("/categories", RequireActor(), manageCatalog, s.CreateCategory)
	catalog.POST("/equipment", RequireActor(), manageCatalog, s.CreateEquipment)
	catalog.GET("/equipment/:id", s.GetEquipment)
	catalog.POST("/steps", RequireActor(), manageCatalog, s.CreateStep)
	catalog.GET("/steps/:id", s.GetStep)
	catalog.GET("/routes", s.ListRoutes)
	catalog.POST("/routes", RequireActor(), manageCatalog, s.CreateRoute)
	catalog.GET("/routes/:id", s.GetRoute)
	catalog.POST("/routes/:id/revise", RequireActor(), manageCatalog, s.ReviseRoute)

	// -------- Cost parameters --------
	api := s.engine.Group("/api")
	api.GET("/cost-parameters", s.ListCostParameters)
	api.GET("/cost-parameters/resolve", s.ResolveCostParameter)
	api.POST("/cost-parameters", RequireActor(),
		s.authorizeAction(authorization.ObjectCostParameter, authorization.ActionCostParameterManage),
		s.CreateCostParameter)

	// -------- Authorization --------
	api.GET("/authorization/roles/:actor", RequireActor(), s.ListRoles)
	api.POST("/authorization/roles", RequireActor(),
		s.authorizeAction(authorization.ObjectRole, authorization.ActionRoleAssign),
		s.AssignRole)

	// -------- Audit --------
	api.GET("/audit-logs", RequireActor(),
		s.authorizeAction(authorization.ObjectAudit, authorization.ActionAuditView),
		s.ListAuditLogs)
}
