// Package policy computes commission and usage-counter updates from a
// product's rule set. It is pure: no I/O, no clock, no shared state.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/models"
)

// Defaults observed in production; both are overridable via config.
const (
	DefaultMonthlyMovementLimit = 4
	DefaultFeePerTransaction    = 2.5
)

// Result is the outcome of applying the policy to one transaction.
// BalanceDelta is the net change to apply to the bill balance; the
// transaction amount itself is settled by the bill service, so only the
// commission shows up here.
type Result struct {
	Commission   float64
	NewMovements int
	BalanceDelta float64
}

// Policy decides whether a movement carries a commission.
type Policy struct {
	movementLimit int
	fee           decimal.Decimal
}

// New builds a policy with the given monthly movement limit and fee.
// Non-positive arguments fall back to the defaults.
func New(movementLimit int, fee float64) *Policy {
	if movementLimit <= 0 {
		movementLimit = DefaultMonthlyMovementLimit
	}
	if fee <= 0 {
		fee = DefaultFeePerTransaction
	}
	return &Policy{movementLimit: movementLimit, fee: decimal.NewFromFloat(fee)}
}

// Apply evaluates the rule set for one transaction of the given amount.
// The movement counter increments on every call; the commission applies
// only once the counter has passed the limit.
func (p *Policy) Apply(rules models.Rules, amount float64) Result {
	res := Result{
		NewMovements: rules.MaximumLimitMonthlyMovementsQuantity + 1,
	}
	if rules.MaximumLimitMonthlyMovementsQuantity > p.movementLimit {
		res.Commission, _ = p.fee.Float64()
		res.BalanceDelta, _ = p.fee.Neg().Float64()
	}
	return res
}

// ApplyDelta adds a policy delta to a balance without accumulating
// float error.
func ApplyDelta(balance, delta float64) float64 {
	out, _ := decimal.NewFromFloat(balance).Add(decimal.NewFromFloat(delta)).Float64()
	return out
}
