// Package routing suggests a process route for a product category when the caller supplies none.
package routing

import (
	"fmt"
	"strings"

	"github.com/wac0705/fastenmind-system-sub000/internal/apperror"
	catalogdomain "github.com/wac0705/fastenmind-system-sub000/internal/catalog/domain"
)

// Rule names the resolver step that selected a route.
type Rule string

const (
	RuleDefault        Rule = "default"
	RuleAttributeMatch Rule = "attribute_match"
	RuleFirstActive    Rule = "first_active"
)

var (
	ErrNoRouteAvailable = apperror.New(apperror.ErrNotFound, "no_route_available")
	ErrInvalidCategory  = apperror.New(apperror.ErrValidation, "invalid_product_category")
)

// NoRouteError names the category without any active route.
type NoRouteError struct {
	Category string
}

func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no_route_available: %s", e.Category)
}

func (e *NoRouteError) ErrorCode() string { return "no_route_available" }

func (e *NoRouteError) Unwrap() error { return ErrNoRouteAvailable }

type Query struct {
	Category     string
	MaterialType string
	SizeRange    string
}

func (q Query) normalized() Query {
	return Query{
		Category:     strings.TrimSpace(q.Category),
		MaterialType: strings.TrimSpace(q.MaterialType),
		SizeRange:    strings.TrimSpace(q.SizeRange),
	}
}

// Resolve picks a route from routes, which must be the category's routes in catalog
// insertion order. First match wins:
//  1. an active route flagged as default
//  2. an active route whose material type and size range both equal the query (only when both are given)
//  3. the first active route
func Resolve(routes []catalogdomain.Route, q Query) (*catalogdomain.Route, Rule, error) {
	q = q.normalized()
	if q.Category == "" {
		return nil, "", ErrInvalidCategory
	}

	active := make([]*catalogdomain.Route, 0, len(routes))
	for i := range routes {
		route := &routes[i]
		if !route.Active || route.ProductCategory != q.Category {
			continue
		}
		active = append(active, route)
	}
	if len(active) == 0 {
		return nil, "", &NoRouteError{Category: q.Category}
	}

	for _, route := range active {
		if route.IsDefault {
			return route, RuleDefault, nil
		}
	}

	if q.MaterialType != "" && q.SizeRange != "" {
		for _, route := range active {
			if valueOf(route.MaterialType) == q.MaterialType && valueOf(route.SizeRange) == q.SizeRange {
				return route, RuleAttributeMatch, nil
			}
		}
	}

	return active[0], RuleFirstActive, nil
}

func valueOf(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
