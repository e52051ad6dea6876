package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	applogger "NewsTrader/pkg/logger"
)

// RequestLogging logs each request at debug level.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogStatus:   true,
		LogLatency:  true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			l.Debug("http request",
				applogger.String("method", v.Method),
				applogger.String("uri", v.URI),
				applogger.String("remote", v.RemoteIP),
				applogger.Int("status", v.Status),
				applogger.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}

// Recover turns handler panics into a 500 envelope and logs the stack.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.Error("http handler panic",
				applogger.String("path", c.Path()),
				applogger.String("stack", string(stack)),
				applogger.Error(err),
			)
			return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("panic: %v", err))
		},
	})
}
