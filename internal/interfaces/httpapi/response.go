package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "contested-territory"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
	Details []any             `json:"details,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{APIVersion: googleAPIVersion, Data: data})
}

// writeError renders err with the status its class maps to. Unmapped
// errors become a bare 500 so storage and codec details stay in the logs.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeErrorDetails(ctx, w, err)
}

// writeErrorDetails is writeError with state the failed call still changed,
// such as a settlement, attached under error.details.
func writeErrorDetails(_ context.Context, w http.ResponseWriter, err error, details ...any) {
	mapped := mapError(err)
	msg := err.Error()
	if mapped.HTTPStatus == http.StatusInternalServerError {
		msg = internalErrorMessage
		details = nil
	}
	writeErrorBody(w, mapped, msg, details)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeErrorBody(w, internalError, internalErrorMessage, nil)
}

func writeErrorBody(w http.ResponseWriter, mapped mappedError, msg string, details []any) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: msg,
			Status:  mapped.Status,
			Errors:  []googleErrorItem{{Domain: errorDomain, Reason: mapped.Reason, Message: msg}},
			Details: details,
		},
	})
}

const internalErrorMessage = "internal server error"

var internalError = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL"}

// errorRules is matched in order, so refinements precede the class they wrap.
var errorRules = []struct {
	err    error
	mapped mappedError
}{
	{usecase.ErrInvalidInput, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{contest.ErrInvalidRecord, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{usecase.ErrNotFound, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{usecase.ErrUnauthorized, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{usecase.ErrDependencyUnavailable, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
	{contest.ErrNoWinner, mappedError{http.StatusForbidden, "noWinner", "PERMISSION_DENIED"}},
	{contest.ErrNotWinner, mappedError{http.StatusForbidden, "notWinner", "PERMISSION_DENIED"}},
	{contest.ErrDepositMismatch, mappedError{http.StatusUnprocessableEntity, "depositMismatch", "FAILED_PRECONDITION"}},
	{contest.ErrAlreadyClaimed, mappedError{http.StatusConflict, "alreadyClaimed", "ALREADY_EXISTS"}},
	{contest.ErrStaleEvent, mappedError{http.StatusConflict, "staleEvent", "ABORTED"}},
	{contest.ErrEpochNotCurrent, mappedError{http.StatusConflict, "epochNotCurrent", "ABORTED"}},
	{contest.ErrConflict, mappedError{http.StatusConflict, "conflict", "ABORTED"}},
	{contest.ErrOverflow, mappedError{http.StatusUnprocessableEntity, "overflow", "OUT_OF_RANGE"}},
	{contest.ErrHillOccupied, precondition("hillOccupied")},
	{contest.ErrHillVacant, precondition("hillVacant")},
	{contest.ErrNotExpiredYet, precondition("notExpiredYet")},
	{contest.ErrAlreadyExpired, precondition("alreadyExpired")},
	{contest.ErrInsufficientPlayers, precondition("insufficientPlayers")},
	{contest.ErrLobbyNotForming, precondition("lobbyNotForming")},
	{contest.ErrLobbyNotActive, precondition("lobbyNotActive")},
	{contest.ErrLobbyNotClosed, precondition("lobbyNotClosed")},
	{contest.ErrMatchOver, precondition("matchOver")},
	{contest.ErrUnknownControlPoint, precondition("unknownControlPoint")},
	{contest.ErrPreconditionFailed, precondition("preconditionFailed")},
}

func precondition(reason string) mappedError {
	return mappedError{http.StatusConflict, reason, "FAILED_PRECONDITION"}
}

func mapError(err error) mappedError {
	for _, rule := range errorRules {
		if errors.Is(err, rule.err) {
			return rule.mapped
		}
	}
	return internalError
}
