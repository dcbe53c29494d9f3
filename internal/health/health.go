package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/instance"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	StateUp       = "up"
	StateDown     = "down"
	StateDisabled = "disabled"
)

type Status struct {
	Mongo  string `json:"mongo"`
	Broker string `json:"broker"`
}

// Check probes every backing service. The returned error lists each one that is down.
func Check(ctx context.Context, inst *instance.Instances) (Status, error) {
	var (
		st  = Status{Mongo: StateDisabled, Broker: StateDisabled}
		res *multierror.Error
	)

	if inst.Mongo != nil {
		lCtx, cancel := context.WithTimeout(ctx, time.Second*5)
		if err := inst.Mongo.Ping(lCtx); err != nil {
			st.Mongo = StateDown
			res = multierror.Append(res, fmt.Errorf("mongo: %w", err))
		} else {
			st.Mongo = StateUp
		}
		cancel()
	}

	if inst.Broker != nil {
		if inst.Broker.Connected() {
			st.Broker = StateUp
		} else {
			st.Broker = StateDown
			res = multierror.Append(res, fmt.Errorf("broker: not connected"))
		}
	}

	return st, res.ErrorOrNil()
}

func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in health",
						"panic", err,
					)
				}
			}()

			if _, err := Check(gCtx, gCtx.Inst()); err != nil {
				zap.S().Warnw("health check failed",
					"error", err,
				)

				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			}
		},
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gCtx.Config().Health.Bind,
		)
		if err := srv.ListenAndServe(gCtx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()
		_ = srv.Shutdown()
	}()

	return done
}
