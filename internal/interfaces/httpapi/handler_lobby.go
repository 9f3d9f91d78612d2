package httpapi

import (
	"net/http"

	"github.com/riskibarqy/contested-territory/internal/usecase"
)

func (h *Handler) ConfigureLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ConfigureLobby")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req configureLobbyRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	cfg, err := h.lobbyService.ConfigureLobby(ctx, usecase.ConfigureLobbyInput{
		ObjectID:                 objectID,
		Duration:                 req.Duration,
		RequiredPlayerCount:      req.RequiredPlayerCount,
		RequiredItemID:           req.RequiredItemID,
		RequiredItemQuantity:     req.RequiredItemQuantity,
		RequiredControlDepositID: req.RequiredControlDepositID,
		ControlPointIDs:          req.ControlPointIDs,
		EpochStart:               req.EpochStart,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "configure lobby failed", "object_id", objectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyConfigToDTO(cfg))
}

func (h *Handler) StartLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.StartLobby")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req startLobbyRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.lobbyService.Start(ctx, usecase.StartLobbyInput{
		ObjectID: objectID,
		Roster:   req.Roster,
		Deposit:  req.Deposit.input(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "start lobby failed", "object_id", objectID, "roster_size", len(req.Roster), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyResultToDTO(result))
}

func (h *Handler) ChangeControl(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ChangeControl")
	defer span.End()

	objectID := r.PathValue("objectID")
	pointID := r.PathValue("pointID")
	var req changeControlRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.lobbyService.ChangeControl(ctx, usecase.ChangeControlInput{
		ObjectID: objectID,
		PointID:  pointID,
		Team:     req.Team,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "change control failed", "object_id", objectID, "point_id", pointID, "team", req.Team, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pointStatusToDTO(status))
}

func (h *Handler) AggregateLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.AggregateLobby")
	defer span.End()

	result, err := h.lobbyService.Aggregate(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyResultToDTO(result))
}

func (h *Handler) CloseLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.CloseLobby")
	defer span.End()

	objectID := r.PathValue("objectID")
	result, err := h.lobbyService.Close(ctx, objectID)
	if err != nil {
		h.logger.WarnContext(ctx, "close lobby failed", "object_id", objectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyResultToDTO(result))
}

func (h *Handler) ClaimLobbyReward(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ClaimLobbyReward")
	defer span.End()

	objectID := r.PathValue("objectID")
	var req actorRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.lobbyService.ClaimReward(ctx, usecase.ClaimRewardInput{
		ObjectID: objectID,
		Actor:    req.Actor,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "claim lobby reward failed", "object_id", objectID, "actor", req.Actor, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyResultToDTO(result))
}

func (h *Handler) GetLobby(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetLobby")
	defer span.End()

	view, err := h.lobbyService.GetStatus(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lobbyViewDTO{
		Config:       lobbyConfigToDTO(view.Config),
		Status:       lobbyStatusToDTO(view.Status),
		Now:          uint64(view.Now),
		LiveTeamA:    uint64(view.LiveTeamA),
		LiveTeamB:    uint64(view.LiveTeamB),
		MatchEndTime: uint64(view.MatchEndTime),
	})
}

func (h *Handler) ListLobbyEpochs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ListLobbyEpochs")
	defer span.End()

	statuses, err := h.lobbyService.ListHistory(ctx, r.PathValue("objectID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]lobbyStatusDTO, 0, len(statuses))
	for _, status := range statuses {
		items = append(items, lobbyStatusToDTO(status))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetControlPoint(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetControlPoint")
	defer span.End()

	view, err := h.lobbyService.GetPoint(ctx, r.PathValue("objectID"), r.PathValue("pointID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pointViewDTO{
		Status: pointStatusToDTO(view.Status),
		Totals: pointTotalsToDTO(view.Totals),
	})
}
