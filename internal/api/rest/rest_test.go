package rest

import (
	"context"
	"testing"
	"time"

	"github.com/socialsync/api/data/mutate"
	"github.com/socialsync/api/data/query"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/socialsync/api/internal/configure"
	"github.com/socialsync/api/internal/global"
	"github.com/socialsync/api/internal/svc/activity"
	"github.com/socialsync/api/internal/svc/broker"
	"github.com/socialsync/api/internal/svc/mongo"
	"github.com/socialsync/api/internal/svc/presence"
	"github.com/socialsync/api/internal/svc/prometheus"
	"github.com/socialsync/api/internal/svc/realtime"
	"github.com/socialsync/api/internal/testutil"
	"github.com/valyala/fasthttp"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type mockStore struct {
	db *mongodriver.Database
}

func (s mockStore) Collection(name mongo.CollectionName) *mongodriver.Collection {
	return s.db.Collection(string(name))
}

func (s mockStore) Ping(ctx context.Context) error {
	return nil
}

func (s mockStore) Close(ctx context.Context) error {
	return nil
}

func newTestServer(t *testing.T) (global.Context, *fasthttp.Server) {
	t.Helper()

	config := &configure.Config{}
	config.Http.Cookie.Whitelist = []string{"https://app.example"}

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))
	t.Cleanup(cancel)

	inst := gCtx.Inst()
	inst.Prometheus = prometheus.New(prometheus.Options{})
	inst.Presence = presence.New()
	inst.Hub = realtime.NewHub()
	inst.Emitter = realtime.NewEmitter(inst.Presence, inst.Hub, inst.Prometheus)
	inst.Activity = activity.NewStream()
	inst.Broker = broker.NewMockNetwork().Instance()
	inst.Query = query.New(nil)
	inst.Mutate = mutate.New(mutate.InstanceOptions{
		Query:    inst.Query,
		Emitter:  inst.Emitter,
		Activity: inst.Activity,
	})

	return gCtx, NewServer(gCtx)
}

func do(srv *fasthttp.Server, method, uri, body string, headers ...string) *fasthttp.RequestCtx {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}

	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)

	srv.Handler(ctx)

	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()

	testutil.IsNil(t, json.Unmarshal(ctx.Response.Body(), v), "response is json")
}

func TestRoot(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "GET", "/api", "")
	testutil.Assert(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "status")

	var body struct {
		Online bool `json:"online"`
	}
	decode(t, ctx, &body)
	testutil.Assert(t, true, body.Online, "online")
}

func TestLivenessAlias(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "GET", "/api/health", "")
	testutil.Assert(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "status")

	var body struct {
		Message string `json:"message"`
		Online  bool   `json:"online"`
	}
	decode(t, ctx, &body)
	testutil.Assert(t, "Server is running", body.Message, "message")
	testutil.Assert(t, true, body.Online, "online")
}

func TestNotFound(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "GET", "/api/does-not-exist", "")
	testutil.Assert(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), "status")

	var body rest.APIErrorResponse
	decode(t, ctx, &body)
	testutil.Assert(t, rest.NotFound, body.StatusCode, "status code in body")
}

func TestPrefixOnlyRoutesAreNotServed(t *testing.T) {
	_, srv := newTestServer(t)

	for _, uri := range []string{"/api/auth", "/api/messages", "/api/monitoring"} {
		ctx := do(srv, "GET", uri, "")
		testutil.Assert(t, fasthttp.StatusNotFound, ctx.Response.StatusCode(), uri)
	}
}

func TestBadRequests(t *testing.T) {
	_, srv := newTestServer(t)

	cases := []struct {
		name   string
		method string
		uri    string
		body   string
	}{
		{"register without body", "POST", "/api/auth/register", ""},
		{"login with invalid json", "POST", "/api/auth/login", "{"},
		{"follow without body", "POST", "/api/auth/follow", ""},
		{"create post without body", "POST", "/api/posts", ""},
		{"send message without body", "POST", "/api/messages/send", ""},
		{"read all without body", "PATCH", "/api/notifications/read-all", ""},
		{"update profile without body", "POST", "/api/auth/update-profile", ""},
		{"update profile without user id", "POST", "/api/auth/update-profile", `{"username":"alice","email":"a@b.c"}`},
		{"conversations without user id", "GET", "/api/messages/conversations", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := do(srv, c.method, c.uri, c.body)
			testutil.Assert(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), "status")

			var body rest.APIErrorResponse
			decode(t, ctx, &body)
			testutil.Assert(t, rest.BadRequest, body.StatusCode, "status code in body")
			testutil.Assert(t, true, body.Error != "", "error message")
		})
	}
}

func TestBadObjectID(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "POST", "/api/posts/not-an-id/like", `{"userId":"1234567"}`)
	testutil.Assert(t, true, ctx.Response.StatusCode() >= 400, "rejected")

	var body rest.APIErrorResponse
	decode(t, ctx, &body)
	testutil.Assert(t, true, body.ErrorCode != 0, "error code")
}

func TestMonitoringHealth(t *testing.T) {
	gCtx, srv := newTestServer(t)

	ctx := do(srv, "GET", "/api/monitoring/health", "")
	testutil.Assert(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "status")

	var body struct {
		Status   string `json:"status"`
		Services struct {
			Mongo  string `json:"mongo"`
			Broker string `json:"broker"`
		} `json:"services"`
	}
	decode(t, ctx, &body)
	testutil.Assert(t, "healthy", body.Status, "status")
	testutil.Assert(t, "disabled", body.Services.Mongo, "mongo")
	testutil.Assert(t, "up", body.Services.Broker, "broker")

	gCtx.Inst().Broker.(*broker.MockInstance).SetConnected(false)

	ctx = do(srv, "GET", "/api/monitoring/health", "")
	testutil.Assert(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode(), "status")
	decode(t, ctx, &body)
	testutil.Assert(t, "degraded", body.Status, "status")
	testutil.Assert(t, "down", body.Services.Broker, "broker")
}

func TestMonitoringStatsListsOnlineUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stats", func(mt *mtest.T) {
		gCtx, srv := newTestServer(mt.T)
		inst := gCtx.Inst()
		inst.Query = query.New(mockStore{mt.DB})

		inst.Presence.Register("2222222", "h2")
		inst.Presence.Register("1111111", "h1")

		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".activity_logs", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "post_liked"}, {Key: "count", Value: int64(4)}},
		))

		ctx := do(srv, "GET", "/api/monitoring/stats", "")
		testutil.Assert(mt.T, fasthttp.StatusOK, ctx.Response.StatusCode(), "status")

		var body struct {
			OnlineUsers int `json:"onlineUsers"`
			Online      []struct {
				UserID      string    `json:"userId"`
				SocketID    string    `json:"socketId"`
				ConnectedAt time.Time `json:"connectedAt"`
			} `json:"online"`
			Events []struct {
				EventType string `json:"eventType"`
				Count     int64  `json:"count"`
			} `json:"events"`
		}
		decode(mt.T, ctx, &body)

		testutil.Assert(mt.T, 2, body.OnlineUsers, "online count")
		testutil.Assert(mt.T, 2, len(body.Online), "online records")
		testutil.Assert(mt.T, "1111111", body.Online[0].UserID, "ordered by user id")
		testutil.Assert(mt.T, "h1", body.Online[0].SocketID, "socket id")
		testutil.Assert(mt.T, false, body.Online[0].ConnectedAt.IsZero(), "connected at")
		testutil.Assert(mt.T, 1, len(body.Events), "event stats")
		testutil.Assert(mt.T, int64(4), body.Events[0].Count, "event count")
	})
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "OPTIONS", "/api/posts", "", "Origin", "https://app.example")
	testutil.Assert(t, fasthttp.StatusNoContent, ctx.Response.StatusCode(), "status")
	testutil.Assert(t, "https://app.example", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "allowed origin")

	ctx = do(srv, "OPTIONS", "/api/posts", "", "Origin", "https://evil.example")
	testutil.Assert(t, "", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "foreign origin")
}

func TestClientIPFromProxy(t *testing.T) {
	_, srv := newTestServer(t)

	ctx := do(srv, "GET", "/api", "", "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	testutil.Assert(t, "203.0.113.7", ctx.UserValue(string(rest.ClientIPKey)).(string), "client ip")
}
