package httpapi

import (
	"errors"
	"net/http"

	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

func (h *Handler) ConfigureHill(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ConfigureHill")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req configureHillRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	cfg, err := h.hillService.ConfigureHill(ctx, usecase.ConfigureHillInput{
		ObjectID:              objectID,
		Duration:              req.Duration,
		RequiredItemID:        req.RequiredItemID,
		RequiredItemIncrement: req.RequiredItemIncrement,
		EpochStart:            req.EpochStart,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "configure hill failed", "object_id", objectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hillConfigToDTO(cfg))
}

func (h *Handler) ClaimHill(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ClaimHill")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req hillClaimRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.hillService.AttemptClaim(ctx, usecase.HillClaimInput{
		ObjectID: objectID,
		Actor:    req.Actor,
		Deposit:  req.Deposit.input(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "claim hill failed", "object_id", objectID, "actor", req.Actor, "error", err)
		if errors.Is(err, contest.ErrAlreadyExpired) && result.Payout != nil {
			// The claim lost, but this call settled the hill to its holder.
			writeErrorDetails(ctx, w, err, hillResultToDTO(result))
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hillResultToDTO(result))
}

func (h *Handler) ResolveHill(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ResolveHill")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req actorRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.hillService.ResolveClaim(ctx, usecase.HillResolveInput{
		ObjectID: objectID,
		Actor:    req.Actor,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "resolve hill failed", "object_id", objectID, "actor", req.Actor, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hillResultToDTO(result))
}

func (h *Handler) GetHill(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetHill")
	defer span.End()

	view, err := h.hillService.GetStatus(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, hillViewDTO{
		Config:    hillConfigToDTO(view.Config),
		Status:    hillStatusToDTO(view.Status),
		State:     string(view.State),
		Now:       uint64(view.Now),
		ExpiresAt: uint64(view.ExpiresAt),
	})
}

func (h *Handler) ListHillEpochs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ListHillEpochs")
	defer span.End()

	statuses, err := h.hillService.ListHistory(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]hillStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, hillStatusToDTO(status))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
