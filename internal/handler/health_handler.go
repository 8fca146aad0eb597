package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/badurubalaji/msls-sub015/prometheus"
)

// HealthCheck handles the health check endpoint
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "msls",
	})
}

// MetricsHandler serves the Prometheus metrics endpoint
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
