package rest

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Ctx struct {
	*fasthttp.RequestCtx
}

type APIError = errors.APIError

func (c *Ctx) JSON(status HttpStatusCode, v interface{}) APIError {
	b, err := json.Marshal(v)
	if err != nil {
		c.SetStatusCode(InternalServerError)

		return errors.ErrInternalServerError().
			SetDetail("JSON Parsing Failed").
			SetFields(errors.Fields{"JSON_ERROR": err.Error()})
	}

	c.SetStatusCode(status)
	c.SetContentType("application/json")
	c.SetBody(b)

	return nil
}

// Bind decodes the JSON request body into v
func (c *Ctx) Bind(v interface{}) APIError {
	body := c.Request.Body()
	if len(body) == 0 {
		return errors.ErrInvalidRequest().SetDetail("Request body is empty")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.ErrInvalidRequest().SetDetail("Invalid JSON: %s", err.Error())
	}

	return nil
}

// Query returns a query string argument, empty when absent
func (c *Ctx) Query(key string) string {
	return utils.B2S(c.QueryArgs().Peek(key))
}

func (c *Ctx) SetStatusCode(code HttpStatusCode) {
	c.RequestCtx.SetStatusCode(int(code))
}

func (c *Ctx) StatusCode() HttpStatusCode {
	return HttpStatusCode(c.RequestCtx.Response.StatusCode())
}

// ClientIP is the address of the caller, preferring the proxy header when present
func (c *Ctx) ClientIP() string {
	if v, ok := c.RequestCtx.UserValue(string(ClientIPKey)).(string); ok && v != "" {
		return v
	}

	return c.RemoteIP().String()
}

// StartedAt is when the server began handling the request
func (c *Ctx) StartedAt() time.Time {
	if v, ok := c.RequestCtx.UserValue(string(StartedAtKey)).(time.Time); ok {
		return v
	}

	return c.Time()
}

func (c *Ctx) Log() *zap.SugaredLogger {
	return zap.S().Named("api/rest").With(
		"request_id", c.ID(),
		"route", utils.B2S(c.Path()),
	)
}
