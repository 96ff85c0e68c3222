package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/vidyasetu/vidyasetu/core"
)

// Registry holds the application's prometheus collectors.
type Registry struct {
	reg *prometheus.Registry

	paymentsTotal  *prometheus.CounterVec
	paymentsAmount *prometheus.CounterVec
	loginAttempts  *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		paymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fee_payments_total",
				Help: "Total number of fee payments collected",
			},
			[]string{"coaching_id"},
		),
		paymentsAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fee_payments_amount_total",
				Help: "Total amount of fees collected",
			},
			[]string{"coaching_id"},
		),
		loginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"role", "success"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Total number of notifications by channel and outcome",
			},
			[]string{"channel", "outcome"}, // outcome: sent, failed, dropped
		),
	}
}

// PaymentCollected implements fee.Recorder.
func (r *Registry) PaymentCollected(coachingID string, amount decimal.Decimal) {
	r.paymentsTotal.WithLabelValues(coachingID).Inc()
	r.paymentsAmount.WithLabelValues(coachingID).Add(amount.InexactFloat64())
}

// LoginAttempt implements auth.LoginRecorder.
func (r *Registry) LoginAttempt(role core.Role, success bool) {
	label := string(role)
	if label == "" {
		label = "unknown"
	}
	r.loginAttempts.WithLabelValues(label, strconv.FormatBool(success)).Inc()
}

func (r *Registry) Notification(channel, outcome string) {
	r.notifications.WithLabelValues(channel, outcome).Inc()
}

// Handler serves the registry in the prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
