package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"walkieDesk/cmd/middleware"
	"walkieDesk/internal/ledger"
	"walkieDesk/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/api")

	apiGroup.GET("/volunteers", r.Service.ListVolunteers)
	apiGroup.POST("/volunteers", r.Service.CreateVolunteer)
	apiGroup.PUT("/volunteers/:id", r.Service.UpdateVolunteer)
	apiGroup.DELETE("/volunteers/:id", r.Service.DeleteVolunteer)

	// Walkies and lift cards get identical routes on purpose; only the
	// collection tag differs.
	itemRoutes := func(base string, col ledger.Collection) {
		apiGroup.GET(base, r.Service.ListItems(col))
		apiGroup.POST(base, r.Service.CreateItem(col))
		apiGroup.PUT(base+"/:id", r.Service.UpdateItem(col))
		apiGroup.DELETE(base+"/:id", r.Service.DeleteItem(col))
		apiGroup.POST(base+"/:id/toggle-unusable", r.Service.ToggleUnusable(col))
		apiGroup.POST(base+"/sign-out", r.Service.SignOutItem(col))
		apiGroup.POST(base+"/return/:id", r.Service.ReturnItem(col))
		apiGroup.POST(base+"/reset", r.Service.ResetItems(col))
	}
	itemRoutes("/walkies", ledger.Walkies)
	itemRoutes("/lift-cards", ledger.LiftCards)

	apiGroup.POST("/admin/verify", r.Service.VerifyPin)
	apiGroup.GET("/admin/config", r.Service.GetConfig)
	apiGroup.PUT("/admin/config", r.Service.UpdateConfig)
	apiGroup.GET("/admin/audit-log", r.Service.GetAuditLog)
	apiGroup.DELETE("/admin/audit-log", r.Service.ClearAuditLog)

	apiGroup.GET("/health", r.Service.Health)

	return app
}
