package monitoring

import (
	"context"
	"testing"

	"github.com/socialsync/api/internal/configure"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/svc/prometheus"
	"github.com/socialsync/api/internal/testutil"
)

func TestRegistry(t *testing.T) {
	gCtx := global.New(context.Background(), &configure.Config{})
	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{})

	gCtx.Inst().Prometheus.SetConnections(3)

	families, err := Registry(gCtx).Gather()
	testutil.IsNil(t, err, "gather")

	found := false
	for _, f := range families {
		if f.GetName() == "socialsync_ws_connections" {
			found = true
			testutil.Assert(t, 3.0, f.GetMetric()[0].GetGauge().GetValue(), "connections gauge")
		}
	}

	testutil.Assert(t, true, found, "api metrics are registered")
}
