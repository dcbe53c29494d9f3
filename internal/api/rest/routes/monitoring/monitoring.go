package monitoring

import (
	"time"

	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/health"
	"github.com/socialsync/api/internal/svc/presence"
)

const statsWindow = 24 * time.Hour

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI: "/monitoring",
		Children: []rest.Route{
			&logsRoute{r.Ctx},
			&statsRoute{r.Ctx},
			&healthRoute{r.Ctx},
			&eventsRoute{r.Ctx},
		},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	return errors.ErrUnknownRoute()
}

type logsRoute struct {
	Ctx global.Context
}

func (r *logsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/logs",
		Method: rest.GET,
	}
}

type LogsResponse struct {
	Logs  []model.ActivityLog `json:"logs"`
	Count int                 `json:"count"`
}

func (r *logsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	limit, err := ctx.QueryInt("limit", query.DefaultLogLimit)
	if err != nil {
		return err
	}

	logs, qerr := r.Ctx.Inst().Query.ActivityLogs(ctx, query.ActivityLogFilter{
		EventType: model.ActivityEventType(ctx.Query("eventType")),
		UserID:    ctx.Query("userId"),
		Severity:  model.Severity(ctx.Query("severity")),
		Limit:     limit,
	}).Items()
	if qerr != nil {
		return errors.From(qerr)
	}

	if logs == nil {
		logs = []model.ActivityLog{}
	}

	return ctx.JSON(rest.OK, LogsResponse{
		Logs:  logs,
		Count: len(logs),
	})
}

type statsRoute struct {
	Ctx global.Context
}

func (r *statsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/stats",
		Method: rest.GET,
	}
}

type StatsResponse struct {
	Period      string               `json:"period"`
	Events      []query.ActivityStat `json:"events"`
	OnlineUsers int                  `json:"onlineUsers"`
	Online      []presence.Record    `json:"online"`
	Connections int                  `json:"connections"`
	LiveClients int                  `json:"liveClients"`
}

func (r *statsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	inst := r.Ctx.Inst()

	stats, err := inst.Query.ActivityStats(ctx, time.Now().Add(-statsWindow))
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, StatsResponse{
		Period:      "24h",
		Events:      stats,
		OnlineUsers: inst.Presence.Count(),
		Online:      inst.Presence.Records(),
		Connections: inst.Hub.Count(),
		LiveClients: inst.Activity.ClientCount(),
	})
}

type healthRoute struct {
	Ctx global.Context
}

func (r *healthRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/health",
		Method: rest.GET,
	}
}

type HealthResponse struct {
	Status      string        `json:"status"`
	Services    health.Status `json:"services"`
	Uptime      int64         `json:"uptime"`
	OnlineUsers int           `json:"onlineUsers"`
	Timestamp   string        `json:"timestamp"`
	Error       string        `json:"error,omitempty"`
}

func (r *healthRoute) Handler(ctx *rest.Ctx) rest.APIError {
	inst := r.Ctx.Inst()

	st, err := health.Check(ctx, inst)

	resp := HealthResponse{
		Status:    "healthy",
		Services:  st,
		Uptime:    int64(time.Since(r.Ctx.StartedAt()).Seconds()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if inst.Presence != nil {
		resp.OnlineUsers = inst.Presence.Count()
	}

	status := rest.OK
	if err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		status = rest.ServiceUnavailable
	}

	return ctx.JSON(status, resp)
}
