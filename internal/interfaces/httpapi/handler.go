package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	hillService       *usecase.HillService
	lobbyService      *usecase.LobbyService
	payoutService     *usecase.PayoutService
	settlementService *usecase.SettlementService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	hillService *usecase.HillService,
	lobbyService *usecase.LobbyService,
	payoutService *usecase.PayoutService,
	settlementService *usecase.SettlementService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		hillService:       hillService,
		lobbyService:      lobbyService,
		payoutService:     payoutService,
		settlementService: settlementService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeRequest reads a JSON body into dst and validates it. Unknown fields
// and trailing garbage are rejected.
func (h *Handler) decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", usecase.ErrInvalidInput)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: invalid JSON payload: unexpected data after object", usecase.ErrInvalidInput)
	}

	return h.validateRequest(ctx, dst)
}
