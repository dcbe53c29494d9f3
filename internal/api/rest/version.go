package rest

import (
	"runtime/debug"

	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/socialsync/api/internal/api/rest/rest"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *HttpServer) SetupHandlers() {
	s.router.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(ctx, rest.NotFound, errors.ErrUnknownRoute().SetFields(errors.Fields{
			"message": "The API endpoint requested does not exist",
		}))
	}

	s.router.PanicHandler = func(ctx *fasthttp.RequestCtx, i interface{}) {
		msg := "Uh oh. Something went horribly wrong"
		switch x := i.(type) {
		case error:
			msg += ": " + x.Error()
		case string:
			msg += ": " + x
		}

		zap.S().Errorw("panic occured",
			"panic", i,
			"stack", string(debug.Stack()),
		)

		writeError(ctx, rest.InternalServerError, errors.ErrInternalServerError().SetFields(errors.Fields{
			"panic": msg,
		}))
	}
}

// traverseRoutes registers r under prefix+URI, then its children below that path.
// A route without a method only contributes its URI to the children.
func (s *HttpServer) traverseRoutes(r rest.Route, prefix string) {
	c := r.Config()
	path := prefix + c.URI

	if c.Method != "" {
		chain := append(append([]rest.Middleware{}, c.Middleware...), r.Handler)

		s.router.Handle(string(c.Method), path, func(ctx *fasthttp.RequestCtx) {
			rctx := &rest.Ctx{RequestCtx: ctx}

			for _, h := range chain {
				err := h(rctx)
				if err == nil {
					continue
				}

				status := rctx.StatusCode()
				if status < rest.BadRequest {
					status = rest.HttpStatusCode(err.ExpectedHTTPStatus())
				}

				writeError(ctx, status, err)

				return
			}
		})

		zap.S().Debugw("route registered",
			"path", path,
			"method", c.Method,
		)
	}

	for _, child := range c.Children {
		s.traverseRoutes(child, path)
	}
}

// writeError replaces the response with the standard error body
func writeError(ctx *fasthttp.RequestCtx, status rest.HttpStatusCode, err rest.APIError) {
	b, _ := json.Marshal(&rest.APIErrorResponse{
		Status:     status.String(),
		StatusCode: status,
		Error:      err.Message(),
		ErrorCode:  err.Code(),
		Details:    err.GetFields(),
	})

	ctx.SetStatusCode(int(status))
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}
