package middleware

import (
	"strconv"

	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/valyala/fasthttp"
)

type Middleware = func(ctx *fasthttp.RequestCtx) errors.APIError

// CORS reflects allowed origins back to the caller. A "*" entry allows any origin.
func CORS(whitelist []string) Middleware {
	anyOrigin := utils.Contains(whitelist, "*")

	return func(ctx *fasthttp.RequestCtx) errors.APIError {
		reqHost := utils.B2S(ctx.Request.Header.Peek("Origin"))
		if reqHost == "" {
			return nil
		}

		allowed := anyOrigin || utils.Contains(whitelist, reqHost)
		if !allowed {
			return nil
		}

		ctx.Response.Header.Set("Access-Control-Allow-Credentials", strconv.FormatBool(allowed))
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE")
		ctx.Response.Header.Set("Access-Control-Allow-Origin", reqHost)
		ctx.Response.Header.Set("Vary", "Origin")

		// cache cors
		ctx.Response.Header.Set("Access-Control-Max-Age", "7200")

		return nil
	}
}
