package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 and logs it with the request
// fields the access logger uses. http.ErrAbortHandler is re-raised so the
// server can drop the connection.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				req := c.Request()
				rid, _ := c.Get(RequestIDKey).(string)
				evt := logger.Error().
					Str("request_id", rid).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Bytes("stack", debug.Stack())
				if perr, ok := r.(error); ok {
					evt = evt.Err(perr)
				} else {
					evt = evt.Interface("panic", r)
				}
				evt.Msg("panic recovered")

				if c.Response().Committed {
					// Status already sent; nothing left to report to the client.
					err = nil
					return
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}()
			return next(c)
		}
	}
}
