package router

import (
	"github.com/shopadmin/backend/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers of the dashboard API
type Handlers struct {
	Admin  *handler.AdminHandler
	Views  *handler.ViewHandler
	Events *handler.ViewEventsHandler
	Config *handler.ConfigHandler
	System *handler.SystemHandler
}

// AdminRoutes builds the admin API: resource lists, row CRUD, table views
// and the configuration forms
func AdminRoutes(h Handlers) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")

	admin.GET("/resources", h.Admin.ListResources).
		GET("/resources/:resource", h.Admin.GetResource)

	cfg := admin.Group("config", "/config")
	cfg.GET("/shipping", h.Config.GetShipping).
		PUT("/shipping", h.Config.ReplaceShipping).
		PATCH("/shipping", h.Config.ChangeShipping).
		GET("/pricing", h.Config.GetPricing).
		PUT("/pricing", h.Config.ReplacePricing).
		PATCH("/pricing", h.Config.ChangePricing)

	views := admin.Group("views", "/views")
	views.GET("/:id", h.Views.Get).
		POST("/:id/actions", h.Views.Dispatch).
		GET("/:id/events", h.Events.Stream).
		DELETE("/:id", h.Views.Close)

	admin.GET("/:resource", h.Admin.List).
		POST("/:resource/views", h.Views.Open).
		GET("/:resource/items/:id", h.Admin.GetItem).
		POST("/:resource/items", h.Admin.CreateItem).
		PUT("/:resource/items/:id", h.Admin.UpdateItem).
		DELETE("/:resource/items/:id", h.Admin.DeleteItem)

	return admin
}

// SystemRoutes builds the system info endpoints
func SystemRoutes(h Handlers) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)
	return system
}
