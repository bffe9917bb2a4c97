// Package metrics defines and registers all custom Prometheus metrics for the
// auth-manager API. It is the single source of truth for metric names, labels,
// and help strings; HTTP-level request metrics come from the echoprometheus
// middleware and are not duplicated here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// LoginsTotal counts login outcomes.
// Label:
//   - result: "success", "invalid_credentials", "throttled", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts successfully created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts created.",
	},
)

// TokenRotationsTotal counts successful refresh-token rotations.
var TokenRotationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of successful refresh token rotations.",
	},
)

// TokenReuseDetectedTotal counts rejected refresh calls that presented an
// already-revoked token, i.e. suspected replays. Each one also revokes the
// user's whole session chain.
var TokenReuseDetectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_reuse_detected_total",
		Help:      "Total number of refresh calls rejected as token reuse.",
	},
)

// PasswordChangesTotal counts completed password changes.
var PasswordChangesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_changes_total",
		Help:      "Total number of completed password changes.",
	},
)
