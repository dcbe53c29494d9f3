package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/google/uuid"
	"github.com/socialsync/api/data/events"
	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/api/eventbridge"
	"github.com/socialsync/api/internal/api/rest"
	"github.com/socialsync/api/internal/configure"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/health"
	"github.com/socialsync/api/internal/monitoring"
	"github.com/socialsync/api/internal/pprof"
	"github.com/socialsync/api/internal/svc/activity"
	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/prometheus"
	"github.com/socialsync/api/internal/svc/realtime"
	"go.uber.org/zap"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	debug.SetGCPercent(2000)
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Errorw("panic detected",
			"panic", s,
		)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("SocialSync API")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debugf("MaxProcs: %d", runtime.GOMAXPROCS(0))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
			Labels: config.Monitoring.Labels.ToPrometheus(),
		})
	}

	{
		ctx, cancel := context.WithTimeout(gCtx, time.Second*15)
		gCtx.Inst().Mongo, err = mongo.Setup(ctx, mongo.Options{
			URI:     config.Mongo.URI,
			DB:      config.Mongo.DB,
			Direct:  config.Mongo.Direct,
			Timeout: config.Mongo.Timeout,
		})
		cancel()
		if err != nil {
			zap.S().Fatalw("failed to connect to mongo",
				"error", err,
			)
		}
	}

	{
		gCtx.Inst().Broker, err = broker.New(gCtx, broker.Options{
			Mode: broker.Mode(config.Broker.Mode),
			Redis: broker.RedisOptions{
				Addresses: config.Redis.Addresses,
				Username:  config.Redis.Username,
				Password:  config.Redis.Password,
				Database:  config.Redis.Database,
			},
			NATS: broker.NATSOptions{
				URL:  config.NATS.URL,
				Name: config.NATS.Name,
			},
		})
		if err != nil {
			zap.S().Fatalw("failed to setup broker",
				"error", err,
			)
		}

		gCtx.Inst().Codec, err = events.NewCodec(config.Broker.Codec)
		if err != nil {
			zap.S().Fatalw("failed to setup event codec",
				"error", err,
			)
		}

		gCtx.Inst().Events = events.NewPublisher(gCtx, events.PublisherOptions{
			Broker:    gCtx.Inst().Broker,
			Codec:     gCtx.Inst().Codec,
			Origin:    instanceID(config),
			QueueSize: config.Broker.QueueSize,
			Timeout:   config.Broker.PublishTimeout,
			Metrics:   gCtx.Inst().Prometheus,
		})
	}

	{
		inst := gCtx.Inst()

		inst.Presence = presence.New()
		inst.Hub = realtime.NewHub()
		inst.Emitter = realtime.NewEmitter(inst.Presence, inst.Hub, inst.Prometheus)
		inst.Activity = activity.NewStream()

		inst.Query = query.New(inst.Mongo)
		inst.Mutate = mutate.New(mutate.InstanceOptions{
			Mongo:    inst.Mongo,
			Query:    inst.Query,
			Events:   inst.Events,
			Emitter:  inst.Emitter,
			Activity: inst.Activity,
		})
	}

	wg := sync.WaitGroup{}

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}

	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}

	if gCtx.Config().PProf.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pprof.New(gCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-eventbridge.New(gCtx)
	}()

	done := make(chan struct{})
	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		wg.Wait()

		shutdown(gCtx)

		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rest.New(gCtx); err != nil {
			zap.S().Fatalw("rest failed",
				"error", err,
			)
		}
	}()

	zap.S().Info("running")

	<-done

	zap.S().Info("shutdown")
	os.Exit(0)
}

// instanceID names this process on the broker so it can recognise its own messages
func instanceID(config *configure.Config) string {
	switch {
	case config.InstanceID != "":
		return config.InstanceID
	case config.K8S.PodName != "":
		return config.K8S.PodName
	default:
		return uuid.NewString()
	}
}

func shutdown(gCtx global.Context) {
	if err := gCtx.Inst().Broker.Close(); err != nil {
		zap.S().Warnw("failed to close broker",
			"error", err,
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := gCtx.Inst().Mongo.Close(ctx); err != nil {
		zap.S().Warnw("failed to close mongo",
			"error", err,
		)
	}
}
