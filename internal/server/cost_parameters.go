package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	costparameterdomain "github.com/wac0705/fastenmind-system-sub000/internal/costparameter/domain"
)

func (s *Server) CreateCostParameter(c *gin.Context) {
	var req costparameterdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.parameterSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCostParameters(c *gin.Context) {
	var query struct {
		Type string `form:"type"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.parameterSvc.List(c.Request.Context(), strings.TrimSpace(query.Type))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ResolveCostParameter returns the rate of one type in effect at the given instant, now by default.
func (s *Server) ResolveCostParameter(c *gin.Context) {
	var query struct {
		Type string `form:"type"`
		At   string `form:"at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	at, err := parseOptionalTime(query.At)
	if err != nil {
		AbortWithError(c, newValidationError("at", "invalid_at", "invalid at"))
		return
	}
	resolveAt := s.clock.Now()
	if at != nil {
		resolveAt = *at
	}

	resp, err := s.parameterSvc.ResolveAt(c.Request.Context(), strings.TrimSpace(query.Type), resolveAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
