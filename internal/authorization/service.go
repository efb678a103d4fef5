package authorization

import (
	"context"

	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	"go.uber.org/fx"
)

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Service interface {
	// Authorize fails with ErrForbidden unless actor may perform action on object.
	Authorize(ctx context.Context, actor string, object string, action string) error
	AssignRole(ctx context.Context, actor string, role string) error
	RolesFor(actor string) ([]string, error)
}

var (
	ErrInvalidActor  = apperror.New(apperror.ErrUnauthorized, "invalid_actor")
	ErrInvalidObject = apperror.New(apperror.ErrValidation, "invalid_object")
	ErrInvalidAction = apperror.New(apperror.ErrValidation, "invalid_action")
	ErrInvalidRole   = apperror.New(apperror.ErrValidation, "invalid_role")
	ErrForbidden     = apperror.New(apperror.ErrForbidden, "forbidden")
)
