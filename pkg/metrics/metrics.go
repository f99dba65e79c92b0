// Package metrics exposes form store activity as Prometheus metrics.
package metrics

import (
	"context"
	"strings"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "formstate"

// Collector counts dispatched actions and emitted activity events. It
// implements formstate.ActionObserver, activity.ActivityHook and
// prometheus.Collector.
type Collector struct {
	actions *prometheus.CounterVec
	events  *prometheus.CounterVec
}

// Option configures a Collector.
type Option func(*options)

type options struct {
	namespace   string
	constLabels prometheus.Labels
}

// WithNamespace replaces the "formstate" metric namespace.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if ns := strings.TrimSpace(namespace); ns != "" {
			o.namespace = ns
		}
	}
}

// WithConstLabels attaches labels to every metric, e.g. the form name.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// NewCollector builds an unregistered collector.
func NewCollector(opts ...Option) *Collector {
	cfg := options{namespace: defaultNamespace}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Collector{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Name:        "actions_total",
				Help:        "Total number of actions processed by form stores.",
				ConstLabels: cfg.constLabels,
			},
			[]string{"kind", "action"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Name:        "activity_events_total",
				Help:        "Total number of activity events emitted by form stores.",
				ConstLabels: cfg.constLabels,
			},
			[]string{"verb", "object_type"},
		),
	}
}

// MustRegister builds a collector and registers it on registerer.
func MustRegister(registerer prometheus.Registerer, opts ...Option) *Collector {
	collector := NewCollector(opts...)
	registerer.MustRegister(collector)
	return collector
}

// ObserveAction counts one processed action. path is not used as a label to
// keep cardinality bounded.
func (c *Collector) ObserveAction(kind, _ string, action string) {
	c.actions.WithLabelValues(kind, action).Inc()
}

// Notify counts one activity event.
func (c *Collector) Notify(_ context.Context, event activity.Event) error {
	c.events.WithLabelValues(event.Verb, event.ObjectType).Inc()
	return nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.actions.Describe(ch)
	c.events.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.actions.Collect(ch)
	c.events.Collect(ch)
}

// ActionsCounter returns the action counter for one label pair.
func (c *Collector) ActionsCounter(kind, action string) prometheus.Counter {
	return c.actions.WithLabelValues(kind, action)
}

// EventsCounter returns the activity counter for one label pair.
func (c *Collector) EventsCounter(verb, objectType string) prometheus.Counter {
	return c.events.WithLabelValues(verb, objectType)
}
