package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wac0705/fastenmind-system-sub000/internal/actorcontext"
	"github.com/wac0705/fastenmind-system-sub000/internal/authorization"
)

// HeaderActor carries the subject already resolved by the identity provider in front of us.
const HeaderActor = "X-Actor-ID"

// ActorContext places the caller identity from HeaderActor on the request context.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorID := strings.TrimSpace(c.GetHeader(HeaderActor)); actorID != "" {
			c.Request = c.Request.WithContext(actorcontext.WithActorID(c.Request.Context(), actorID))
		}
		c.Next()
	}
}

func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := actorcontext.ActorIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actorID, ok := actorcontext.ActorIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, authorization.ErrForbidden)
			return
		}
		if err := s.authzSvc.Authorize(ctx, actorID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
