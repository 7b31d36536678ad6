package http

import "log/slog"

const serviceName = "Template-Delivery-Service"

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}
