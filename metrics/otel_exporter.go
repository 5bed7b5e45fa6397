package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter          metric.Meter
	decisionGauge  metric.Int64ObservableGauge
	duplicateGauge metric.Int64ObservableGauge
	ledgerGauge    metric.Int64ObservableGauge
	findingGauge   metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"webhook-guard",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	// Decision counts per provider and outcome
	oe.decisionGauge, err = oe.meter.Int64ObservableGauge(
		"authz.decisions.count",
		metric.WithDescription("Number of authorization decisions by provider and outcome"),
		metric.WithUnit("{decisions}"),
		metric.WithInt64Callback(oe.observeDecisions),
	)
	if err != nil {
		return fmt.Errorf("creating decision gauge: %w", err)
	}

	// Duplicate deliveries flagged
	oe.duplicateGauge, err = oe.meter.Int64ObservableGauge(
		"authz.duplicates.count",
		metric.WithDescription("Number of duplicate webhook deliveries flagged"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeDuplicates),
	)
	if err != nil {
		return fmt.Errorf("creating duplicate gauge: %w", err)
	}

	// Live dedup ledger entries
	oe.ledgerGauge, err = oe.meter.Int64ObservableGauge(
		"dedup.ledger.size",
		metric.WithDescription("Number of live deduplication ledger entries"),
		metric.WithUnit("{entries}"),
		metric.WithInt64Callback(oe.observeLedgerSize),
	)
	if err != nil {
		return fmt.Errorf("creating ledger gauge: %w", err)
	}

	// Sweep findings per discrepancy kind
	oe.findingGauge, err = oe.meter.Int64ObservableGauge(
		"reconcile.findings.count",
		metric.WithDescription("Number of reconciliation findings by discrepancy kind"),
		metric.WithUnit("{findings}"),
		metric.WithInt64Callback(oe.observeFindings),
	)
	if err != nil {
		return fmt.Errorf("creating finding gauge: %w", err)
	}

	return nil
}

// observeDecisions is a callback that reports decision counts
func (oe *OTelExporter) observeDecisions(ctx context.Context, observer metric.Int64Observer) error {
	decisions, err := oe.collector.GetDecisionCounts(ctx)
	if err != nil {
		return err
	}

	for key, count := range decisions {
		provider, outcome := splitDecisionKey(key)
		observer.Observe(count, metric.WithAttributes(
			attribute.String("webhook.provider", provider),
			attribute.String("decision.outcome", outcome),
		))
	}

	return nil
}

// observeDuplicates is a callback that reports flagged duplicates
func (oe *OTelExporter) observeDuplicates(ctx context.Context, observer metric.Int64Observer) error {
	count, err := oe.collector.GetDuplicateCount(ctx)
	if err != nil {
		return err
	}

	observer.Observe(count)
	return nil
}

// observeLedgerSize is a callback that reports dedup ledger size
func (oe *OTelExporter) observeLedgerSize(ctx context.Context, observer metric.Int64Observer) error {
	size, err := oe.collector.GetLedgerSize(ctx)
	if err != nil {
		return err
	}

	observer.Observe(size)
	return nil
}

// observeFindings is a callback that reports finding counts
func (oe *OTelExporter) observeFindings(ctx context.Context, observer metric.Int64Observer) error {
	findings, err := oe.collector.GetFindingCounts(ctx)
	if err != nil {
		return err
	}

	for kind, count := range findings {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("finding.kind", kind),
		))
	}

	return nil
}

// splitDecisionKey splits a "provider:outcome" counter key
func splitDecisionKey(key string) (provider, outcome string) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return key, "unknown"
	}
	return parts[0], parts[1]
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
