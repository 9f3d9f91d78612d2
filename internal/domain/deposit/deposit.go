package deposit

import (
	"context"
	"fmt"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
)

// Proof is the deposit an actor presents alongside a state transition.
type Proof struct {
	ID       string
	ItemID   contest.ItemID
	Quantity uint64
}

// Gate verifies a presented deposit against a required item kind and quantity.
type Gate interface {
	Verify(ctx context.Context, proof Proof, requiredItem contest.ItemID, requiredQuantity uint64) (bool, error)
}

// Receipt is the outcome of one gate query.
type Receipt struct {
	Proof            Proof
	RequiredItem     contest.ItemID
	RequiredQuantity uint64
	Accepted         bool
}

// Satisfies reports whether the receipt was accepted for exactly this requirement.
func (r Receipt) Satisfies(requiredItem contest.ItemID, requiredQuantity uint64) bool {
	return r.Accepted && r.RequiredItem == requiredItem && r.RequiredQuantity == requiredQuantity
}

// Check queries the gate once and records the decision.
func Check(ctx context.Context, gate Gate, proof Proof, requiredItem contest.ItemID, requiredQuantity uint64) (Receipt, error) {
	if gate == nil {
		return Receipt{}, fmt.Errorf("deposit gate is required")
	}

	accepted, err := gate.Verify(ctx, proof, requiredItem, requiredQuantity)
	if err != nil {
		return Receipt{}, fmt.Errorf("verify deposit proof=%s: %w", proof.ID, err)
	}

	return Receipt{
		Proof:            proof,
		RequiredItem:     requiredItem,
		RequiredQuantity: requiredQuantity,
		Accepted:         accepted,
	}, nil
}

// ExactGate accepts a proof whose item and quantity equal the requirement.
type ExactGate struct{}

func (ExactGate) Verify(_ context.Context, proof Proof, requiredItem contest.ItemID, requiredQuantity uint64) (bool, error) {
	return proof.ItemID == requiredItem && proof.Quantity == requiredQuantity, nil
}
