package echomw

import (
	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		defer LogRouteAccess(c, tl.Info1, "Route accessed", palette.Green)
		LogRouteAccess(c, tl.Info, "Accessing route", palette.Blue)
		return next(c)
	}
}

// LogRouteAccess logs one line per request phase.
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	if c.Path() == "/" {
		// health checks
		logLevel = tl.Verbose
		colorizer = palette.CyanDim
	}
	tl.Log(
		logLevel, colorizer, "%s: Method='%s', Path='%s', Batch='%s', Status='%d', ClientIP='%s'",
		actionName, c.Request().Method, c.Path(), c.Param("batch"), c.Response().Status, c.RealIP(),
	)
}
