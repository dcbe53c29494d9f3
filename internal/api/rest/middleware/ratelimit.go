package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/valyala/fasthttp"
)

// Limiter counts requests per client and bucket in fixed windows
type Limiter struct {
	c  *cache.Cache
	mx sync.Mutex
}

type window struct {
	count int64
	reset time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		c: cache.New(time.Minute, 5*time.Minute),
	}
}

// Take consumes one request from the bucket. It reports what is left in the window,
// when the window resets, and false if the bucket was already empty.
func (l *Limiter) Take(bucket, identifier string, limit int64, ex time.Duration) (int64, time.Duration, bool) {
	h := sha256.New()
	h.Write(utils.S2B(identifier))
	h.Write(utils.S2B(bucket))

	k := "rl:" + hex.EncodeToString(h.Sum(nil))
	now := time.Now()

	l.mx.Lock()
	defer l.mx.Unlock()

	var win *window
	if v, ok := l.c.Get(k); ok {
		win = v.(*window)
	}

	if win == nil || !now.Before(win.reset) {
		win = &window{reset: now.Add(ex)}
		l.c.Set(k, win, ex)
	}

	if win.count >= limit {
		return 0, win.reset.Sub(now), false
	}

	win.count++

	return limit - win.count, win.reset.Sub(now), true
}

// RateLimit rejects a client once it has used up the bucket for the current window
func RateLimit(l *Limiter, ipKey string, bucket string, limit int64, ex time.Duration) func(ctx *fasthttp.RequestCtx) errors.APIError {
	return func(ctx *fasthttp.RequestCtx) errors.APIError {
		identifier, _ := ctx.UserValue(ipKey).(string)
		if identifier == "" {
			return nil
		}

		remaining, ttl, ok := l.Take(bucket, identifier, limit, ex)

		ctx.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(int(limit)))
		ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(int(remaining)))
		ctx.Response.Header.Set("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if !ok {
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)

			return errors.ErrRateLimited()
		}

		return nil
	}
}
