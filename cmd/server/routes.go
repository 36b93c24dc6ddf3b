package main

import (
	"github.com/gin-gonic/gin"

	"github.com/eventhub/backend/internal/activities"
	"github.com/eventhub/backend/internal/analytics"
	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/identity"
	"github.com/eventhub/backend/internal/importer"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/profiles"
	"github.com/eventhub/backend/internal/registrations"
	"github.com/eventhub/backend/internal/reports"
)

// handlers groups the HTTP handlers mounted by registerRoutes.
type handlers struct {
	identity      *identity.Handler
	profiles      *profiles.Handler
	events        *events.Handler
	activities    *activities.Handler
	registrations *registrations.Handler
	analytics     *analytics.Handler
	importer      *importer.Handler
	reports       *reports.Handler
}

// registerRoutes mounts the REST API. Reads are public; registrations and
// profile edits need any token; catalogue writes and administration need staff.
func registerRoutes(router *gin.Engine, h handlers, validator middleware.TokenValidator) {
	api := router.Group("")
	api.Use(middleware.ReadOnlyOrJWT(validator))
	{
		api.GET("/events", h.events.List)
		api.GET("/events/:id", h.events.GetByID)
		api.GET("/events/:id/activities", h.events.Activities)
		api.GET("/events/:id/dashboard", h.events.Dashboard)
		api.GET("/events/:id/schedule", h.events.Schedule)

		api.GET("/events/:id/registrations", h.registrations.ListByEvent)
		api.POST("/events/:id/registrations", h.registrations.Register)
		api.GET("/registrations", h.registrations.List)
		api.GET("/registrations/:id", h.registrations.GetByID)
		api.DELETE("/registrations/:id", h.registrations.Cancel)

		api.GET("/activities", h.activities.List)
		api.GET("/activities/:id", h.activities.GetByID)

		api.GET("/profiles", h.profiles.List)
		api.GET("/users/:id", h.profiles.UserDetail)
		api.PATCH("/users/:id", h.identity.Update)
		api.GET("/users/:id/profile", h.profiles.Get)
		api.PUT("/users/:id/profile", h.profiles.Update)
	}

	staff := router.Group("")
	staff.Use(middleware.JWT(validator), middleware.RequireStaff())
	{
		staff.POST("/events", h.events.Create)
		staff.PATCH("/events/:id", h.events.Update)
		staff.DELETE("/events/:id", h.events.Delete)

		staff.POST("/activities", h.activities.Create)
		staff.PATCH("/activities/:id", h.activities.Update)
		staff.PATCH("/activities/:id/responsible", h.activities.SetResponsible)
		staff.DELETE("/activities/:id", h.activities.Delete)

		staff.GET("/users", h.identity.List)
		staff.POST("/users", h.identity.Create)
		staff.DELETE("/users/:id", h.identity.Delete)
		staff.GET("/users/:id/groups", h.identity.Groups)

		staff.PATCH("/registrations/:id", h.registrations.UpdateStatus)

		staff.GET("/dashboard", h.analytics.Dashboard)
		staff.GET("/events/:id/analytics", h.analytics.GetByEvent)

		staff.POST("/events/:id/reports", h.reports.Create)
		staff.GET("/events/:id/reports", h.reports.ListByEvent)
		staff.GET("/reports/:id", h.reports.Get)
		staff.DELETE("/reports/:id", h.reports.Delete)

		staff.POST("/admin/import", h.importer.Import)
		staff.POST("/admin/import/async", h.importer.ImportAsync)
	}
}
