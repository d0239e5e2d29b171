package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics registers GET /metrics on app and returns the request-metrics middleware. Each app gets
// its own registry so several apps can live in one process.
func Metrics(app *fiber.App, service string) fiber.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := fiberprometheus.NewWithRegistry(registry, service, "http", "", nil)
	prom.RegisterAt(app, "/metrics")
	return prom.Middleware
}
