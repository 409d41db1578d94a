package echoutil

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs every request on arrival and again once its handler returns.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		started := time.Now()
		c.Logger().Infof("< %s %s (at %s)", req.Method, req.URL, started.Format(time.RFC3339Nano))

		err := next(c)

		elapsed := time.Since(started)
		if jobId := c.Param("jobId"); jobId != "" {
			c.Logger().Infof(
				"> %s %s -> %d, job = %s, took %v, error = %v",
				req.Method, req.URL, c.Response().Status, jobId, elapsed, err,
			)
		} else {
			c.Logger().Infof(
				"> %s %s -> %d, took %v, error = %v",
				req.Method, req.URL, c.Response().Status, elapsed, err,
			)
		}
		return err
	}
}

var levels = map[string]log.Lvl{
	"":      log.WARN,
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

// SetLevel applies loglevel (debug, info, warn, error or off) to e.Logger.
//
// Empty or unrecognized values mean warn.
func SetLevel(e *echo.Echo, loglevel string) {
	lvl, ok := levels[strings.ToLower(loglevel)]
	if !ok {
		e.Logger.SetLevel(log.WARN)
		e.Logger.Warnf("loglevel %q is not known; using warn", loglevel)
		return
	}
	e.Logger.SetLevel(lvl)
}
