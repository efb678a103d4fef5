package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/wac0705/fastenmind-system-sub000/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectCalculation   = "calculation"
	ObjectCatalog       = "catalog"
	ObjectCostParameter = "cost_parameter"
	ObjectRole          = "role"
	ObjectAudit         = "audit"
)

const (
	ActionCalculationCreate  = "calculation.create"
	ActionCalculationSubmit  = "calculation.submit"
	ActionCalculationApprove = "calculation.approve"
	ActionCalculationReject  = "calculation.reject"

	ActionCatalogManage       = "catalog.manage"
	ActionCostParameterManage = "cost_parameter.manage"
	ActionRoleAssign          = "role.assign"
	ActionAuditView           = "audit.view"
)

const (
	RoleRequester = "requester"
	RoleApprover  = "approver"
	RoleAdmin     = "admin"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := subjectFor(actor)
	if err := s.ensureBaseRole(subject); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Info("authorization denied",
			zap.String("actor_id", actor),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.audit(ctx, actor, "authorization.denied", object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.audit(ctx, actor, "authorization.granted", object, action)
	}
	return nil
}

func (s *ServiceImpl) AssignRole(ctx context.Context, actor string, role string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case RoleRequester, RoleApprover, RoleAdmin:
	default:
		return ErrInvalidRole
	}

	subject := subjectFor(actor)
	roleName := roleNameFor(role)
	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	if _, err := s.enforcer.AddGroupingPolicy(subject, roleName); err != nil {
		return err
	}

	s.log.Info("role assigned", zap.String("actor_id", actor), zap.String("role", role))
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, nil, auditdomain.Entry{
			Action:     "authorization.role_assigned",
			TargetType: "actor",
			TargetID:   actor,
			Metadata:   map[string]any{"role": role},
		})
	}
	return nil
}

func (s *ServiceImpl) RolesFor(actor string) ([]string, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, ErrInvalidActor
	}
	roles, err := s.enforcer.GetRolesForUser(subjectFor(actor))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, strings.TrimPrefix(role, "role:"))
	}
	return out, nil
}

// ensureBaseRole gives actors without any role the requester role.
func (s *ServiceImpl) ensureBaseRole(subject string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleNameFor(RoleRequester))
	return err
}

func (s *ServiceImpl) audit(ctx context.Context, actor string, event string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor
	_ = s.auditSvc.AuditLog(ctx, nil, auditdomain.Entry{
		ActorID:    &actorID,
		Action:     event,
		TargetType: "authorization",
		TargetID:   object,
		Metadata: map[string]any{
			"object":  object,
			"action":  action,
			"subject": subjectFor(actor),
		},
	})
}

func subjectFor(actor string) string {
	return fmt.Sprintf("user:%s", actor)
}

func roleNameFor(role string) string {
	return fmt.Sprintf("role:%s", role)
}

func shouldAuditGrant(action string) bool {
	switch action {
	case ActionCalculationApprove, ActionCalculationReject:
		return true
	default:
		return false
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:requester", ObjectCalculation, ActionCalculationCreate},
		{"role:requester", ObjectCalculation, ActionCalculationSubmit},

		{"role:approver", ObjectCalculation, ActionCalculationCreate},
		{"role:approver", ObjectCalculation, ActionCalculationSubmit},
		{"role:approver", ObjectCalculation, ActionCalculationApprove},
		{"role:approver", ObjectCalculation, ActionCalculationReject},

		{"role:admin", ObjectCalculation, ActionCalculationCreate},
		{"role:admin", ObjectCalculation, ActionCalculationSubmit},
		{"role:admin", ObjectCalculation, ActionCalculationApprove},
		{"role:admin", ObjectCalculation, ActionCalculationReject},
		{"role:admin", ObjectCatalog, ActionCatalogManage},
		{"role:admin", ObjectCostParameter, ActionCostParameterManage},
		{"role:admin", ObjectRole, ActionRoleAssign},
		{"role:admin", ObjectAudit, ActionAuditView},
		{"role:approver", ObjectAudit, ActionAuditView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
