package middleware

import (
	"testing"

	"github.com/socialsync/api/internal/testutil"
	"github.com/valyala/fasthttp"
)

func TestCORS(t *testing.T) {
	cases := []struct {
		name      string
		whitelist []string
		origin    string
		expected  string
	}{
		{"wildcard", []string{"*"}, "https://app.example", "https://app.example"},
		{"listed", []string{"https://app.example"}, "https://app.example", "https://app.example"},
		{"not listed", []string{"https://app.example"}, "https://evil.example", ""},
		{"no origin", []string{"*"}, "", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			if c.origin != "" {
				ctx.Request.Header.Set("Origin", c.origin)
			}

			err := CORS(c.whitelist)(ctx)
			testutil.IsNil(t, err, "cors never rejects")

			testutil.Assert(t, c.expected, string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")), "allowed origin")
		})
	}
}
