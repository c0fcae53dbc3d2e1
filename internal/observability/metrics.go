// Package observability exposes the Prometheus counters of the donation flow.
// A nil *Metrics is valid and records nothing.
package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/frahmantamala/charity-reminder/internal"
)

const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonRejection        = "rejection"
	ReasonUniqueViolation  = "unique_violation"
	ReasonDBLockTimeout    = "db_lock_timeout"
	ReasonPanic            = "panic"
	ReasonUnknown          = "unknown"
)

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

type Metrics struct {
	registry          *prometheus.Registry
	triggerRuns       *prometheus.CounterVec
	triggerErrors     *prometheus.CounterVec
	deliveries        *prometheus.CounterVec
	paymentTransition *prometheus.CounterVec
	donorTransition   *prometheus.CounterVec
	rejections        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		triggerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_scheduler_trigger_runs_total",
			Help: "Scheduler trigger actions executed, by trigger kind.",
		}, []string{"trigger"}),
		triggerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_scheduler_trigger_errors_total",
			Help: "Scheduler trigger actions that failed and will be retried on the next poll.",
		}, []string{"trigger", "reason"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_notification_deliveries_total",
			Help: "Outbound chat messages by result.",
		}, []string{"result"}),
		paymentTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_payment_transitions_total",
			Help: "Payment period transitions by target status.",
		}, []string{"status"}),
		donorTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_donor_transitions_total",
			Help: "Donor verification transitions by target status.",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "charity_rejections_total",
			Help: "Business-rule rejections by error code.",
		}, []string{"code"}),
	}

	m.registry.MustRegister(
		m.triggerRuns,
		m.triggerErrors,
		m.deliveries,
		m.paymentTransition,
		m.donorTransition,
		m.rejections,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) TriggerRun(kind string) {
	if m == nil {
		return
	}
	m.triggerRuns.WithLabelValues(kind).Inc()
}

func (m *Metrics) TriggerError(kind string, err error) {
	if m == nil {
		return
	}
	m.triggerErrors.WithLabelValues(kind, ClassifyReason(err)).Inc()
}

func (m *Metrics) Delivery(result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) PaymentTransition(status string) {
	if m == nil {
		return
	}
	m.paymentTransition.WithLabelValues(status).Inc()
}

func (m *Metrics) DonorTransition(status string) {
	if m == nil {
		return
	}
	m.donorTransition.WithLabelValues(status).Inc()
}

// Rejection counts err by its error code when it is a business-rule rejection.
func (m *Metrics) Rejection(err error) {
	if m == nil {
		return
	}
	if appErr, ok := internal.IsAppError(err); ok && internal.IsRejection(err) {
		m.rejections.WithLabelValues(string(appErr.Code)).Inc()
	}
}

// ClassifyReason maps an error to a low-cardinality label.
func ClassifyReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonDeadlineExceeded
	}
	if internal.IsRejection(err) {
		return ReasonRejection
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ReasonUniqueViolation
		case "55P03":
			return ReasonDBLockTimeout
		}
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return ReasonPanic
	}
	return ReasonUnknown
}

// PanicError carries a recovered panic value as an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "panic: " + toString(e.Value)
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return "unexpected panic value"
	}
}
