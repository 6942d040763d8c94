package main

import (
	"leadcall-api/internal/agents"
	"leadcall-api/internal/dispatch"
	"leadcall-api/internal/httpapi"
	"leadcall-api/internal/lead"
	"leadcall-api/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

type appDeps struct {
	enums      lead.Enums
	limiter    *ratelimit.Limiter
	resolver   *agents.Resolver
	dispatcher dispatch.CallDispatcher
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	h := httpapi.Handlers{
		Enums:      deps.enums,
		Limiter:    deps.limiter,
		Resolver:   deps.resolver,
		Dispatcher: deps.dispatcher,
	}
	r.POST("/api/call", h.HandleCall)
}
