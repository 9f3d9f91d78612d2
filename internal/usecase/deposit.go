package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
)

// DepositInput is the deposit proof an actor attaches to a request.
type DepositInput struct {
	ProofID  string
	ItemID   string
	Quantity uint64
}

func (in DepositInput) proof() deposit.Proof {
	return deposit.Proof{
		ID:       strings.TrimSpace(in.ProofID),
		ItemID:   contest.ItemID(strings.TrimSpace(in.ItemID)),
		Quantity: in.Quantity,
	}
}

func checkDeposit(ctx context.Context, gate deposit.Gate, in DepositInput, item contest.ItemID, quantity uint64) (deposit.Receipt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.checkDeposit")
	defer span.End()

	proof := in.proof()
	if proof.ID == "" {
		return deposit.Receipt{}, invalidInput("deposit proof id is required")
	}

	receipt, err := deposit.Check(ctx, gate, proof, item, quantity)
	if err != nil {
		return deposit.Receipt{}, fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
	}
	return receipt, nil
}
