package otel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	statelesscsrf "github.com/Ayesh/StatelessCSRF"
	"github.com/Ayesh/StatelessCSRF/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() statelesscsrf.MetricsSnapshot
	AuditDropped() uint64
}

type observedCounter struct {
	id         statelesscsrf.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.ObserveOption
}

type observedHistogram struct {
	id      statelesscsrf.MetricID
	buckets [internaldefs.BucketCount]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter observes a Signer's in-process metrics on every collection
// cycle of the supplied Meter.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	closeOnce    sync.Once
	closeErr     error
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, signer *statelesscsrf.Signer) (*OTelExporter, error) {
	if signer == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, signer)
}

// NewOTelExporterFromSource registers one observable counter per instrument,
// with one series per outcome, plus bucket and count gauges per histogram.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.InstrumentDefs)+len(internaldefs.HistogramDefs)*(internaldefs.BucketCount+1)+1)

	instruments := make(map[string]metric.Int64ObservableCounter, len(internaldefs.InstrumentDefs))
	for _, def := range internaldefs.InstrumentDefs {
		ins, err := meter.Int64ObservableCounter(def.Name,
			metric.WithDescription(def.Help),
			metric.WithUnit(def.Unit),
		)
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		instruments[def.Name] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.CounterDefs {
		ins, ok := instruments[def.Instrument]
		if !ok {
			return nil, fmt.Errorf("counter %s references unknown instrument %s", def.Name, def.Instrument)
		}
		var attrs []attribute.KeyValue
		if def.Outcome != "" {
			attrs = append(attrs, attribute.String(internaldefs.OutcomeAttribute, def.Outcome))
		}
		exporter.counters = append(exporter.counters, observedCounter{
			id:         def.ID,
			instrument: ins,
			attrs:      metric.WithAttributes(attrs...),
		})
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]), c.attrs)
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := 0; i < len(cumulative); i++ {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback. It is safe to call more than
// once and from several goroutines; every call returns the first result.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	e.closeOnce.Do(func() {
		e.closeErr = e.registration.Unregister()
	})
	return e.closeErr
}
