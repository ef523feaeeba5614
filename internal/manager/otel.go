package manager

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/scferro/px4-agent/internal/manager"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
