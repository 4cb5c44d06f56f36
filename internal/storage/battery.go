package storage

import (
	"fmt"
	"sync"
)

// Battery meters the node's processing budget. Every admission debits one
// processing unit before any validation happens and the debit is never
// refunded, so repeated invalid submissions still drain the submitter's
// budget instead of granting free verification attempts.
type Battery struct {
	mu        sync.Mutex
	charge    uint64
	maxCharge uint64
	costPerOp uint64
}

func NewBattery(charge, maxCharge, costPerOp uint64) *Battery {
	if charge > maxCharge {
		charge = maxCharge
	}
	return &Battery{
		charge:    charge,
		maxCharge: maxCharge,
		costPerOp: costPerOp,
	}
}

// ChargeForProcessing debits one processing unit. The debit is final even
// if the operation it paid for is later rejected.
func (b *Battery) ChargeForProcessing() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.charge < b.costPerOp {
		return fmt.Errorf("%w: have %d, need %d", ErrBatteryExhausted, b.charge, b.costPerOp)
	}
	b.charge -= b.costPerOp
	return nil
}

// Recharge adds charge up to the battery's capacity.
func (b *Battery) Recharge(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.charge += amount
	if b.charge > b.maxCharge {
		b.charge = b.maxCharge
	}
}

// restore sets the charge directly when reloading saved state.
func (b *Battery) restore(charge uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if charge > b.maxCharge {
		charge = b.maxCharge
	}
	b.charge = charge
}

func (b *Battery) Level() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.charge
}
