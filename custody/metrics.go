package custody

import (
	"context"

	"github.com/0xPolygon/pegcore/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/0xPolygon/pegcore/custody"

type metrics struct {
	saved metric.Int64Counter
	spent metric.Int64Counter
	dust  metric.Int64Counter
}

func newMetrics(logger *log.Logger) *metrics {
	meter := otel.Meter(meterName)
	return &metrics{
		saved: newCounter(logger, meter, "custody_utxos_saved"),
		spent: newCounter(logger, meter, "custody_utxos_spent"),
		dust:  newCounter(logger, meter, "custody_dust_filtered"),
	}
}

func newCounter(logger *log.Logger, meter metric.Meter, name string) metric.Int64Counter {
	c, err := meter.Int64Counter(name)
	if err != nil {
		logger.Warnf("failed to create %s counter: %s", name, err)
		c, _ = noop.NewMeterProvider().Meter(meterName).Int64Counter(name)
	}
	return c
}

func add(ctx context.Context, c metric.Int64Counter, n int) {
	if n > 0 {
		c.Add(ctx, int64(n))
	}
}
