// Package http assembles the Gin application: middleware stack, route
// groups, and the Module contract each bounded context implements.
package http

import (
	"crm_backend/platform/config"
	"crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes. The router
// iterates registered modules so it never references concrete handlers.
type Module interface {
	// Name identifies the module in startup logs.
	Name() string
	// RegisterRoutes mounts the module's endpoints on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext bundles the route groups and shared middleware handed to
// each module during registration.
type RouterContext struct {
	// Engine is the root engine, for modules needing engine-level routes.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected requires a valid access token.
	Protected *gin.RouterGroup
	// Admin requires the admin role, under /api/v1/admin.
	Admin *gin.RouterGroup
	// Config carries the JWT settings for modules that build middleware.
	Config config.JWTConfig
	// AuthMiddleware is the token-validation middleware.
	AuthMiddleware gin.HandlerFunc
	// AuthRateLimiter throttles the credential endpoints.
	AuthRateLimiter *httpkit.AuthRateLimiter
}
