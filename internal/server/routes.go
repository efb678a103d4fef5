package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wac0705/fastenmind-system-sub000/internal/routing"
)

type resolveRouteQuery struct {
	Category     string `form:"category"`
	MaterialType string `form:"material_type"`
	SizeRange    string `form:"size_range"`
}

func (s *Server) ResolveRoute(c *gin.Context) {
	var query resolveRouteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.routeResolver.ResolveRoute(c.Request.Context(), routing.Query{
		Category:     query.Category,
		MaterialType: query.MaterialType,
		SizeRange:    query.SizeRange,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
