package global

import (
	"context"
	"time"

	"github.com/socialsync/api/internal/configure"
	"github.com/socialsync/api/internal/instance"
)

type Context interface {
	context.Context
	Config() *configure.Config
	Inst() *instance.Instances
	// StartedAt is the time the process-wide context was created
	StartedAt() time.Time
}

type gCtx struct {
	context.Context
	config  *configure.Config
	inst    *instance.Instances
	started time.Time
}

func (g *gCtx) Config() *configure.Config {
	return g.config
}

func (g *gCtx) Inst() *instance.Instances {
	return g.inst
}

func (g *gCtx) StartedAt() time.Time {
	return g.started
}

func New(ctx context.Context, config *configure.Config) Context {
	return &gCtx{
		Context: ctx,
		config:  config,
		inst:    &instance.Instances{},
		started: time.Now(),
	}
}

func derive(parent Context, ctx context.Context) Context {
	return &gCtx{
		Context: ctx,
		config:  parent.Config(),
		inst:    parent.Inst(),
		started: parent.StartedAt(),
	}
}

func WithCancel(ctx Context) (Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)

	return derive(ctx, c), cancel
}

func WithTimeout(ctx Context, timeout time.Duration) (Context, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, timeout)

	return derive(ctx, c), cancel
}
