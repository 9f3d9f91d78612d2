package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/contested-territory/internal/domain/deposit"
	"github.com/riskibarqy/contested-territory/internal/domain/lobby"
	"github.com/riskibarqy/contested-territory/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/contested-territory/internal/platform/clock"
	idgen "github.com/riskibarqy/contested-territory/internal/platform/id"
	"github.com/riskibarqy/contested-territory/internal/platform/logging"
	"github.com/riskibarqy/contested-territory/internal/usecase"
)

const testAdminToken = "admin-secret"

type apiFixture struct {
	router http.Handler
	clock  *clock.Manual
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()

	logger := logging.NewNop()
	clk := clock.NewManual(1000)
	lobbies := memory.NewLobbyRepository()
	payouts := usecase.NewPayoutService(memory.NewPayoutRepository(), &idgen.Sequence{Prefix: "payout"}, logger)
	hillService := usecase.NewHillService(memory.NewHillRepository(), payouts, deposit.ExactGate{}, clk, logger)
	lobbyService := usecase.NewLobbyService(lobbies, memory.NewControlPointRepository(), payouts, deposit.ExactGate{}, lobby.AlternatingAssigner{}, clk, logger)
	settlement := usecase.NewSettlementService(lobbyService, lobbies, clk, 2, logger)

	handler := NewHandler(hillService, lobbyService, payouts, settlement, logger)
	router := NewRouter(handler, RouterConfig{AdminToken: testAdminToken, CORSAllowedOrigins: []string{"*"}}, logger)
	return apiFixture{router: router, clock: clk}
}

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       map[string]any `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
		Details []map[string]any `json:"details"`
	} `json:"error"`
}

func (f apiFixture) do(t *testing.T, method, path, body string, admin bool) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(adminTokenHeader, testAdminToken)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var out envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, out
}

func errorReason(t *testing.T, env envelope) string {
	t.Helper()
	if env.Error == nil || len(env.Error.Errors) == 0 {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	return env.Error.Errors[0].Reason
}

const hillConfigBody = `{"duration":100,"required_item_id":"gold","required_item_increment":5}`

func TestHillRoutes_ClaimResolveFlow(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(t, http.MethodPut, "/v1/hills/hill-1/config", hillConfigBody, true)
	if code != http.StatusOK {
		t.Fatalf("configure hill: expected 200, got %d", code)
	}

	f.clock.Set(1000)
	code, env := f.do(t, http.MethodPost, "/v1/hills/hill-1/claims",
		`{"actor":"alice","deposit":{"proof_id":"p-1","item_id":"gold","quantity":5}}`, false)
	if code != http.StatusOK {
		t.Fatalf("claim hill: expected 200, got %d (%+v)", code, env.Error)
	}
	if env.Data["state"] != "held" {
		t.Fatalf("expected held state, got %v", env.Data["state"])
	}

	f.clock.Set(1099)
	code, env = f.do(t, http.MethodPost, "/v1/hills/hill-1/resolve", `{"actor":"bob"}`, false)
	if code != http.StatusConflict || errorReason(t, env) != "notExpiredYet" {
		t.Fatalf("early resolve: expected 409 notExpiredYet, got %d", code)
	}

	f.clock.Set(1100)
	code, env = f.do(t, http.MethodPost, "/v1/hills/hill-1/resolve", `{"actor":"bob"}`, false)
	if code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d (%+v)", code, env.Error)
	}
	payout, ok := env.Data["payout"].(map[string]any)
	if !ok {
		t.Fatalf("expected payout in resolve response, got %v", env.Data)
	}
	if payout["recipient"] != "alice" || payout["triggered_by"] != "bob" {
		t.Fatalf("unexpected payout: %v", payout)
	}

	code, env = f.do(t, http.MethodPost, "/v1/hills/hill-1/resolve", `{"actor":"bob"}`, false)
	if code != http.StatusConflict || errorReason(t, env) != "alreadyClaimed" {
		t.Fatalf("second resolve: expected 409 alreadyClaimed, got %d", code)
	}

	code, env = f.do(t, http.MethodGet, "/v1/hills/hill-1", "", false)
	if code != http.StatusOK || env.Data["state"] != "claimed" {
		t.Fatalf("get hill: expected claimed state, got %d %v", code, env.Data["state"])
	}
}

func TestHillRoutes_ExpiredClaimReturnsSettlement(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPut, "/v1/hills/hill-1/config", hillConfigBody, true)

	code, _ := f.do(t, http.MethodPost, "/v1/hills/hill-1/claims",
		`{"actor":"alice","deposit":{"proof_id":"p-1","item_id":"gold","quantity":5}}`, false)
	if code != http.StatusOK {
		t.Fatalf("claim hill: expected 200, got %d", code)
	}

	f.clock.Set(1150)
	code, env := f.do(t, http.MethodPost, "/v1/hills/hill-1/claims",
		`{"actor":"bob","deposit":{"proof_id":"p-2","item_id":"gold","quantity":5}}`, false)
	if code != http.StatusConflict || errorReason(t, env) != "alreadyExpired" {
		t.Fatalf("late claim: expected 409 alreadyExpired, got %d", code)
	}
	if len(env.Error.Details) != 1 {
		t.Fatalf("expected the settlement in error details, got %+v", env.Error.Details)
	}
	settled := env.Error.Details[0]
	if settled["state"] != "claimed" {
		t.Fatalf("expected claimed state in details, got %v", settled["state"])
	}
	payout, ok := settled["payout"].(map[string]any)
	if !ok || payout["recipient"] != "alice" || payout["triggered_by"] != "bob" {
		t.Fatalf("unexpected settlement payout: %v", settled["payout"])
	}

	code, env = f.do(t, http.MethodPost, "/v1/hills/hill-1/claims",
		`{"actor":"carol","deposit":{"proof_id":"p-3","item_id":"gold","quantity":5}}`, false)
	if code != http.StatusConflict || len(env.Error.Details) != 0 {
		t.Fatalf("claim on a settled hill must not carry details, got %d %+v", code, env.Error.Details)
	}
}

func TestHillRoutes_RequestValidation(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPut, "/v1/hills/hill-1/config", hillConfigBody, true)

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "unknown field", body: `{"actor":"alice","bonus":1}`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "missing deposit proof", body: `{"actor":"alice","deposit":{"item_id":"gold","quantity":5}}`, status: http.StatusBadRequest, reason: "invalidInput"},
		{name: "wrong item", body: `{"actor":"alice","deposit":{"proof_id":"p","item_id":"silver","quantity":5}}`, status: http.StatusUnprocessableEntity, reason: "depositMismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := f.do(t, http.MethodPost, "/v1/hills/hill-1/claims", tt.body, false)
			if code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, code)
			}
			if got := errorReason(t, env); got != tt.reason {
				t.Fatalf("expected reason %q, got %q", tt.reason, got)
			}
		})
	}
}

func TestHillRoutes_UnknownHill(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/v1/hills/missing", "", false)
	if code != http.StatusNotFound || errorReason(t, env) != "notFound" {
		t.Fatalf("expected 404 notFound, got %d", code)
	}
}

func TestConfigRoutes_RequireAdminToken(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodPut, "/v1/hills/hill-1/config", hillConfigBody, false)
	if code != http.StatusUnauthorized || errorReason(t, env) != "unauthorized" {
		t.Fatalf("expected 401 without admin token, got %d", code)
	}

	code, _ = f.do(t, http.MethodPost, "/v1/admin/settlement/sweep", "", false)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for sweep without admin token, got %d", code)
	}
}

func TestLobbyRoutes_MatchFlow(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodPut, "/v1/lobbies/lobby-1/config",
		`{"duration":1000,"required_player_count":2,"required_item_id":"gold","required_item_quantity":5,"required_control_deposit_id":"token","control_point_ids":["p1"]}`, true)
	if code != http.StatusOK {
		t.Fatalf("configure lobby: expected 200, got %d (%+v)", code, env.Error)
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/start",
		`{"roster":["alice","bob"],"deposit":{"proof_id":"c-1","item_id":"token","quantity":1}}`, false)
	if code != http.StatusOK {
		t.Fatalf("start lobby: expected 200, got %d (%+v)", code, env.Error)
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/points/p1/control", `{"team":"purple"}`, false)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown team: expected 400, got %d", code)
	}

	f.clock.Set(1300)
	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/points/p1/control", `{"team":"a"}`, false)
	if code != http.StatusOK || env.Data["controlling_team"] != "a" {
		t.Fatalf("change control: expected team a, got %d %v", code, env.Data)
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/points/other/control", `{"team":"b"}`, false)
	if code != http.StatusConflict || errorReason(t, env) != "unknownControlPoint" {
		t.Fatalf("foreign point: expected 409 unknownControlPoint, got %d", code)
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/close", "", false)
	if code != http.StatusConflict || errorReason(t, env) != "notExpiredYet" {
		t.Fatalf("early close: expected 409 notExpiredYet, got %d", code)
	}

	f.clock.Set(2000)
	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/close", "", false)
	if code != http.StatusOK {
		t.Fatalf("close lobby: expected 200, got %d (%+v)", code, env.Error)
	}
	status, _ := env.Data["status"].(map[string]any)
	if status["outcome"] != string(lobby.OutcomeTeamA) {
		t.Fatalf("expected team_a outcome, got %v", status["outcome"])
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/claims", `{"actor":"bob"}`, false)
	if code != http.StatusForbidden || errorReason(t, env) != "notWinner" {
		t.Fatalf("loser claim: expected 403 notWinner, got %d", code)
	}

	code, env = f.do(t, http.MethodPost, "/v1/lobbies/lobby-1/claims", `{"actor":"alice"}`, false)
	if code != http.StatusOK || env.Data["payout"] == nil {
		t.Fatalf("winner claim: expected payout, got %d %v", code, env.Data)
	}

	code, env = f.do(t, http.MethodGet, "/v1/lobbies/lobby-1/points/p1", "", false)
	if code != http.StatusOK {
		t.Fatalf("get point: expected 200, got %d", code)
	}
	totals, _ := env.Data["totals"].(map[string]any)
	if totals["team_a_time"] != float64(700) || totals["neutral_time"] != float64(300) {
		t.Fatalf("unexpected point totals: %v", totals)
	}
}

func TestPayoutRoutes_ListAfterClaim(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPut, "/v1/hills/hill-1/config", hillConfigBody, true)
	f.do(t, http.MethodPost, "/v1/hills/hill-1/claims", `{"actor":"alice","deposit":{"proof_id":"p-1","item_id":"gold","quantity":5}}`, false)
	f.clock.Set(1100)
	f.do(t, http.MethodPost, "/v1/hills/hill-1/resolve", `{"actor":"alice"}`, false)

	req := httptest.NewRequest(http.MethodGet, "/v1/payouts/hill-1", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list payouts: expected 200, got %d", rec.Code)
	}

	var body struct {
		Data []payoutDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal payouts: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Recipient != "alice" || body.Data[0].Amount != 5 {
		t.Fatalf("unexpected payouts: %+v", body.Data)
	}
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	code, env := f.do(t, http.MethodGet, "/healthz", "", false)
	if code != http.StatusOK || env.Data["status"] != "ok" {
		t.Fatalf("unexpected healthz response: %d %v", code, env.Data)
	}
}
