package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type assignRoleRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

func (s *Server) AssignRole(c *gin.Context) {
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actorID := strings.TrimSpace(req.ActorID)
	if err := s.authzSvc.AssignRole(c.Request.Context(), actorID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}

	roles, err := s.authzSvc.RolesFor(actorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"actor_id": actorID, "roles": roles}})
}

func (s *Server) ListRoles(c *gin.Context) {
	actorID := strings.TrimSpace(c.Param("actor"))
	roles, err := s.authzSvc.RolesFor(actorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"actor_id": actorID, "roles": roles}})
}
