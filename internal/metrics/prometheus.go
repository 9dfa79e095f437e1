package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Token kinds used as the "type" label.
const (
	TypeCode         = "code"
	TypeAccessToken  = "access_token"
	TypeRefreshToken = "refresh_token"
	TypeClientToken  = "client_token"
)

// Metrics holds the token lifecycle counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	TokensIssuedTotal    *prometheus.CounterVec
	TokensRefreshedTotal prometheus.Counter
	TokensRevokedTotal   prometheus.Counter
	PastTokensTotal      prometheus.Counter
	ValidationFailures   *prometheus.CounterVec
}

// New creates the lifecycle metrics and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TokensIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_tokens_issued_total",
			Help: "Total number of codes and tokens issued, by type.",
		}, []string{"type"}),
		TokensRefreshedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth2_tokens_refreshed_total",
			Help: "Total number of access tokens minted from a refresh token.",
		}),
		TokensRevokedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth2_tokens_revoked_total",
			Help: "Total number of access tokens revoked.",
		}),
		PastTokensTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth2_past_client_tokens_total",
			Help: "Total number of client tokens demoted to past tokens.",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_validation_failures_total",
			Help: "Total number of failed validation checks, by kind.",
		}, []string{"kind"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{
		m.TokensIssuedTotal,
		m.TokensRefreshedTotal,
		m.TokensRevokedTotal,
		m.PastTokensTotal,
		m.ValidationFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) Issued(tokenType string) {
	if m == nil {
		return
	}
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
}

func (m *Metrics) Refreshed() {
	if m == nil {
		return
	}
	m.TokensRefreshedTotal.Inc()
}

func (m *Metrics) Revoked() {
	if m == nil {
		return
	}
	m.TokensRevokedTotal.Inc()
}

func (m *Metrics) Demoted() {
	if m == nil {
		return
	}
	m.PastTokensTotal.Inc()
}

func (m *Metrics) ValidationFailed(kind string) {
	if m == nil || kind == "" {
		return
	}
	m.ValidationFailures.WithLabelValues(kind).Inc()
}
