package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics counts the settlement engine's core operations.
type EngineMetrics struct {
	transitions  *prometheus.CounterVec
	ledgerPosts  *prometheus.CounterVec
	settlements  *prometheus.CounterVec
	withdrawals  *prometheus.CounterVec
	idempReplays prometheus.Counter
}

// NewEngineMetrics registers the engine counters on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order state machine transitions by event and outcome.",
	}, []string{"event", "outcome"})
	ledgerPosts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_posts_total",
		Help: "Ledger postings by reason and outcome.",
	}, []string{"reason", "outcome"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Settlement runs by trigger and outcome.",
	}, []string{"trigger", "outcome"})
	withdrawals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "withdrawal_decisions_total",
		Help: "Withdrawal workflow decisions by action.",
	}, []string{"action"})
	idempReplays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "idempotency_replays_total",
		Help: "Requests answered from the idempotency cache.",
	})
	reg.MustRegister(transitions, ledgerPosts, settlements, withdrawals, idempReplays)
	return &EngineMetrics{
		transitions:  transitions,
		ledgerPosts:  ledgerPosts,
		settlements:  settlements,
		withdrawals:  withdrawals,
		idempReplays: idempReplays,
	}
}

// IncTransition counts one order transition attempt.
func (m *EngineMetrics) IncTransition(event, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// IncLedgerPost counts one ledger posting attempt.
func (m *EngineMetrics) IncLedgerPost(reason, outcome string) {
	if m == nil || m.ledgerPosts == nil {
		return
	}
	m.ledgerPosts.WithLabelValues(normalizeLabel(reason), normalizeLabel(outcome)).Inc()
}

// IncSettlement counts one settlement run.
func (m *EngineMetrics) IncSettlement(trigger, outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(trigger), normalizeLabel(outcome)).Inc()
}

// IncWithdrawal counts one withdrawal workflow action.
func (m *EngineMetrics) IncWithdrawal(action string) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncIdempotencyReplay counts one request served from the replay cache.
func (m *EngineMetrics) IncIdempotencyReplay() {
	if m == nil || m.idempReplays == nil {
		return
	}
	m.idempReplays.Inc()
}
