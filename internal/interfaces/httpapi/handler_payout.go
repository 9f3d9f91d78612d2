package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/contested-territory/internal/usecase"
)

func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ListPayouts")
	defer span.End()

	intents, err := h.payoutService.ListByObject(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]payoutDTO, 0, len(intents))
	for _, intent := range intents {
		items = append(items, payoutToDTO(intent))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) RunSettlementSweep(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.RunSettlementSweep")
	defer span.End()

	if h.settlementService == nil {
		writeError(ctx, w, fmt.Errorf("%w: settlement is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.settlementService.Sweep(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "settlement sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
