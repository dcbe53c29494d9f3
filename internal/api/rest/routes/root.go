package routes

import (
	"time"

	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/api/rest/routes/auth"
	"github.com/socialsync/api/internal/api/rest/routes/messages"
	"github.com/socialsync/api/internal/api/rest/routes/monitoring"
	"github.com/socialsync/api/internal/api/rest/routes/notifications"
	"github.com/socialsync/api/internal/api/rest/routes/posts"
	"github.com/socialsync/api/internal/global"
)

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/api",
		Method: rest.GET,
		Children: []rest.Route{
			&healthRoute{r.Ctx},
			auth.New(r.Ctx),
			posts.New(r.Ctx),
			messages.New(r.Ctx),
			notifications.New(r.Ctx),
			monitoring.New(r.Ctx),
		},
		Middleware: []rest.Middleware{},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	return ctx.JSON(rest.OK, HealthResponse{
		Online: true,
		Uptime: int64(time.Since(r.Ctx.StartedAt()).Seconds()),
	})
}

type HealthResponse struct {
	Message string `json:"message,omitempty"`
	Online  bool   `json:"online"`
	Uptime  int64  `json:"uptime"`
}

// healthRoute is the liveness check at /api/health. It never touches a backing service,
// see /api/monitoring/health for that.
type healthRoute struct {
	Ctx global.Context
}

func (r *healthRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/health",
		Method: rest.GET,
	}
}

func (r *healthRoute) Handler(ctx *rest.Ctx) rest.APIError {
	return ctx.JSON(rest.OK, HealthResponse{
		Message: "Server is running",
		Online:  true,
		Uptime:  int64(time.Since(r.Ctx.StartedAt()).Seconds()),
	})
}
