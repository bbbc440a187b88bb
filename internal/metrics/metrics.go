package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registrations      *prometheus.CounterVec
	RegistrationErrors *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	EmailAttempts      *prometheus.CounterVec
	RateLimited        prometheus.Counter
	CheckInMessages    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_registrations_total",
			Help: "Tickets registered, by package type",
		}, []string{"package"}),
		RegistrationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_registration_rejections_total",
			Help: "Registrations rejected, by error kind",
		}, []string{"kind"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_status_transitions_total",
			Help: "Admin driven lifecycle transitions",
		}, []string{"action"}),
		EmailAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_email_attempts_total",
			Help: "Email delivery attempts, by template and outcome",
		}, []string{"template", "status"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "tickets_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		}),
		CheckInMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_checkin_messages_total",
			Help: "Door scanner messages consumed, by result",
		}, []string{"result"}),
	}
}
