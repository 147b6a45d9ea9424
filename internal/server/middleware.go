package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"sentiment-trader/internal/logger"
)

// recoverPanics turns a handler panic into a 500 response.
func recoverPanics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					logger.ErrorWithErr(c.Request().Context(), "Panic in HTTP handler", err,
						"path", c.Request().URL.Path,
						"stack", string(debug.Stack()),
					)
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}

func requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			// commit the error response now so its status is logged
			if err := next(c); err != nil {
				c.Error(err)
			}
			req := c.Request()
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if c.Response().Status >= http.StatusInternalServerError {
				logger.Error(req.Context(), "HTTP request failed", fields...)
				return nil
			}
			logger.Debug(req.Context(), "HTTP request", fields...)
			return nil
		}
	}
}
