package rest

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/seventv/common/utils"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/api/rest/middleware"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/api/rest/routes"
	"github.com/socialsync/api/internal/api/websocket"
	"github.com/socialsync/api/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	SocketPath   = "/socket"
	maxErrorBody = 512
)

type HttpServer struct {
	gctx   global.Context
	router *router.Router
}

// New serves the REST api and the websocket endpoint until the global context is canceled
func New(gctx global.Context) error {
	port := gctx.Config().Http.Port
	if port == 0 {
		port = 5000
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", gctx.Config().Http.Addr, port))
	if err != nil {
		return err
	}

	srv := NewServer(gctx)

	zap.S().Infow("rest, listening", "addr", ln.Addr().String())

	// Gracefully exit when the global context is canceled
	go func() {
		<-gctx.Done()

		_ = srv.Shutdown()
	}()

	return srv.Serve(ln)
}

// NewServer builds the http server with every route registered
func NewServer(gctx global.Context) *fasthttp.Server {
	s := &HttpServer{
		gctx:   gctx,
		router: router.New(),
	}

	s.SetupHandlers()
	s.traverseRoutes(routes.New(gctx), "")

	ws := websocket.NewHandler(websocket.Options{
		Registry:       gctx.Inst().Presence,
		Hub:            gctx.Inst().Hub,
		Emitter:        gctx.Inst().Emitter,
		Events:         gctx.Inst().Events,
		Metrics:        gctx.Inst().Prometheus,
		SendBuffer:     gctx.Config().Realtime.SendBuffer,
		PingInterval:   gctx.Config().Realtime.PingInterval,
		WriteTimeout:   gctx.Config().Realtime.WriteTimeout,
		MaxMessageSize: gctx.Config().Realtime.MaxMessageSize,
	})
	s.router.GET(SocketPath, ws.Handle)

	doCORS := middleware.CORS(gctx.Config().Http.Cookie.Whitelist)

	return &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			start := time.Now()

			// Add client IP to context
			ip := string(ctx.Request.Header.Peek("X-Forwarded-For"))
			if i := strings.IndexByte(ip, ','); i >= 0 {
				ip = ip[:i]
			}

			if ip == "" {
				ip = ctx.RemoteIP().String()
			}

			ctx.SetUserValue(string(rest.ClientIPKey), ip)
			ctx.SetUserValue(string(rest.StartedAtKey), start)

			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in rest request handler",
						"panic", err,
						"status", ctx.Response.StatusCode(),
						"duration", int(time.Since(start)/time.Millisecond),
						"method", utils.B2S(ctx.Method()),
						"path", utils.B2S(ctx.Path()),
						"ip", ip,
					)
				} else {
					mills := time.Since(start) / time.Millisecond
					status := ctx.Response.StatusCode()

					logFn := zap.S().Debugw
					if mills >= 500 {
						logFn = zap.S().Infow
					}
					if status >= 500 {
						logFn = zap.S().Errorw
					}

					logFn("rest request",
						"status", status,
						"duration", int(mills),
						"method", utils.B2S(ctx.Method()),
						"path", utils.B2S(ctx.Path()),
						"ip", ip,
						"origin", utils.B2S(ctx.Request.Header.Peek("Origin")),
					)

					if status >= 400 {
						s.logAPIError(ctx, ip, time.Since(start))
					}
				}
			}()

			ctx.Response.Header.Set("X-Node-Name", gctx.Config().K8S.NodeName)
			ctx.Response.Header.Set("X-Pod-Name", gctx.Config().K8S.PodName)

			if err := doCORS(ctx); err != nil {
				return
			}

			if ctx.IsOptions() {
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			// Routing
			ctx.Response.Header.Set("Content-Type", "application/json") // default to JSON

			s.router.Handler(ctx)
		},
		ReadTimeout:                  time.Second * 600,
		IdleTimeout:                  time.Second * 10,
		ReadBufferSize:               int(32 * 1024),   // 32KB
		MaxRequestBodySize:           int(1024 * 1024), // 1MB
		DisablePreParseMultipartForm: true,
		CloseOnShutdown:              true,
	}
}

// logAPIError records a failed request as activity, off the request path
func (s *HttpServer) logAPIError(ctx *fasthttp.RequestCtx, ip string, took time.Duration) {
	m := s.gctx.Inst().Mutate
	if m == nil {
		return
	}

	body := ctx.Response.Body()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}

	log := model.ActivityLog{
		EventType:    model.ActivityAPIError,
		ResourceType: model.ResourceSystem,
		Action:       utils.B2S(ctx.Method()) + " " + utils.B2S(ctx.Path()),
		StatusCode:   ctx.Response.StatusCode(),
		ErrorMessage: string(body),
		IPAddress:    ip,
		UserAgent:    string(ctx.UserAgent()),
		DurationMS:   took.Milliseconds(),
		Severity:     utils.Ternary(ctx.Response.StatusCode() >= 500, model.SeverityError, model.SeverityWarning),
	}

	go func() {
		lctx, cancel := context.WithTimeout(s.gctx, 5*time.Second)
		defer cancel()

		m.LogActivity(lctx, log)
	}()
}
