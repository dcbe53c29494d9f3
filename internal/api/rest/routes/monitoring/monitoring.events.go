package monitoring

import (
	"bufio"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/global"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const heartbeatInterval = 30 * time.Second

type eventsRoute struct {
	Ctx global.Context
}

func (r *eventsRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/events",
		Method: rest.GET,
	}
}

// Handler streams activity events as server-sent events until the client goes away
func (r *eventsRoute) Handler(ctx *rest.Ctx) rest.APIError {
	stream := r.Ctx.Inst().Activity
	gCtx := r.Ctx

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")
	ctx.SetStatusCode(rest.OK)

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		id, ch := stream.Subscribe()
		defer stream.Unsubscribe(id)

		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		if err := writeEvent(w, map[string]string{"message": "Connected to event stream"}); err != nil {
			return
		}

		for {
			select {
			case <-gCtx.Done():
				return
			case <-ticker.C:
				if err := writeEvent(w, map[string]string{"type": "heartbeat"}); err != nil {
					return
				}
			case ev, ok := <-ch:
				if !ok {
					return
				}

				if err := writeEvent(w, ev); err != nil {
					zap.S().Debugw("monitoring, event stream client went away",
						"error", err,
					)

					return
				}
			}
		}
	})

	return nil
}

func writeEvent(w *bufio.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := w.WriteString("data: "); err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return err
	}

	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}

	return w.Flush()
}
