package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerHillRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("PUT /v1/hills/{objectID}/config", RequireAdminToken(adminToken, http.HandlerFunc(handler.ConfigureHill)))
	mux.HandleFunc("POST /v1/hills/{objectID}/claims", handler.ClaimHill)
	mux.HandleFunc("POST /v1/hills/{objectID}/resolve", handler.ResolveHill)
	mux.HandleFunc("GET /v1/hills/{objectID}", handler.GetHill)
	mux.HandleFunc("GET /v1/hills/{objectID}/epochs", handler.ListHillEpochs)
}

func registerLobbyRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("PUT /v1/lobbies/{objectID}/config", RequireAdminToken(adminToken, http.HandlerFunc(handler.ConfigureLobby)))
	mux.HandleFunc("POST /v1/lobbies/{objectID}/start", handler.StartLobby)
	mux.HandleFunc("POST /v1/lobbies/{objectID}/points/{pointID}/control", handler.ChangeControl)
	mux.HandleFunc("POST /v1/lobbies/{objectID}/aggregate", handler.AggregateLobby)
	mux.HandleFunc("POST /v1/lobbies/{objectID}/close", handler.CloseLobby)
	mux.HandleFunc("POST /v1/lobbies/{objectID}/claims", handler.ClaimLobbyReward)
	mux.HandleFunc("GET /v1/lobbies/{objectID}", handler.GetLobby)
	mux.HandleFunc("GET /v1/lobbies/{objectID}/epochs", handler.ListLobbyEpochs)
	mux.HandleFunc("GET /v1/lobbies/{objectID}/points/{pointID}", handler.GetControlPoint)
}

func registerPayoutRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.HandleFunc("GET /v1/payouts/{objectID}", handler.ListPayouts)
	mux.Handle("POST /v1/admin/settlement/sweep", RequireAdminToken(adminToken, http.HandlerFunc(handler.RunSettlementSweep)))
}
