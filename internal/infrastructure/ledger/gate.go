package ledger

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/contested-territory/internal/domain/contest"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const verifyPath = "/v1/deposits/verify"

var errLedgerTransient = crerr.New("ledger transient failure")

type GateConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	// Client overrides the fasthttp client, mainly for tests.
	Client *fasthttp.Client
}

// Gate asks the external item ledger whether a deposit proof covers a
// requirement. It never moves items.
type Gate struct {
	client         *fasthttp.Client
	verifyURL      string
	token          string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewGate(cfg GateConfig, logger *logging.Logger) (*Gate, error) {
	baseURL, err := validateHTTPBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid LEDGER_BASE_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			Name:                "contested-territory-ledger",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		}
	}
	breaker := resilience.NewCircuitBreaker(cfg.CircuitBreaker, func(from, to resilience.CircuitState) {
		logger.Warn("ledger circuit breaker state changed", "from", string(from), "to", string(to))
	})

	return &Gate{
		client:         client,
		verifyURL:      baseURL + verifyPath,
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}, nil
}

type verifyRequest struct {
	ProofID          string `json:"proof_id"`
	ItemID           string `json:"item_id"`
	Quantity         uint64 `json:"quantity"`
	RequiredItemID   string `json:"required_item_id"`
	RequiredQuantity uint64 `json:"required_quantity"`
}

type verifyResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Verify reports the ledger decision. A proof the ledger does not know or
// refuses is a rejection, not an error.
func (g *Gate) Verify(ctx context.Context, proof deposit.Proof, requiredItem contest.ItemID, requiredQuantity uint64) (bool, error) {
	if g.circuitEnabled {
		if err := g.breaker.Allow(); err != nil {
			g.logger.WarnContext(ctx, "ledger circuit breaker rejected request", "state", string(g.breaker.State()))
			return false, crerr.Wrap(err, "ledger is temporarily unavailable")
		}
	}

	body, err := sonic.Marshal(verifyRequest{
		ProofID:          proof.ID,
		ItemID:           string(proof.ItemID),
		Quantity:         proof.Quantity,
		RequiredItemID:   string(requiredItem),
		RequiredQuantity: requiredQuantity,
	})
	if err != nil {
		return false, crerr.Wrap(err, "marshal verify request")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("ledger.verify_url", g.verifyURL),
			attribute.String("ledger.proof_id", proof.ID),
			attribute.String("ledger.required_item_id", string(requiredItem)),
		)
	}
	g.logger.DebugContext(ctx, "ledger verify request", "proof_id", proof.ID, "curl_preview", buildCurlPreview(g.verifyURL, string(body)))

	accepted, err := g.do(ctx, body)
	g.recordCircuitResult(err)
	if err != nil {
		return false, err
	}

	g.logger.InfoContext(ctx, "ledger verify decision", "proof_id", proof.ID, "accepted", accepted)
	return accepted, nil
}

func (g *Gate) do(ctx context.Context, body []byte) (bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.verifyURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	req.SetBody(body)

	deadline := time.Now().Add(g.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := ctx.Err(); err != nil {
		return false, crerr.Wrap(err, "ledger verify canceled")
	}

	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return false, crerr.Wrapf(errLedgerTransient, "send verify request: %v", err)
	}

	status := resp.StatusCode()
	raw := resp.Body()
	switch {
	case status/100 == 2:
	case status == fasthttp.StatusNotFound || status == fasthttp.StatusConflict || status == fasthttp.StatusUnprocessableEntity:
		return false, nil
	case isRetryableStatus(status):
		return false, crerr.Wrapf(errLedgerTransient, "ledger status=%d body=%s", status, truncateForLog(string(raw), 512))
	default:
		return false, crerr.Newf("ledger status=%d body=%s", status, truncateForLog(string(raw), 512))
	}

	var decoded verifyResponse
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		return false, crerr.Wrap(err, "decode verify response")
	}
	return decoded.Accepted, nil
}

func (g *Gate) recordCircuitResult(err error) {
	if !g.circuitEnabled || g.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errLedgerTransient) {
		g.breaker.RecordFailure()
		return
	}
	g.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(verifyURL, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, part := range []string{
		"curl", "-X", "POST", shellQuote(verifyURL),
		"-H", shellQuote("Authorization: Bearer ***"),
		"-H", shellQuote("Content-Type: application/json"),
		"-d", shellQuote(truncateForLog(body, 2048)),
	} {
		if i > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

var _ deposit.Gate = (*Gate)(nil)
