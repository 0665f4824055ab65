package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/cardroom/tabled/internal/game"
	"github.com/cardroom/tabled/internal/history"
)

// API exposes the service over HTTP and WebSocket.
type API struct {
	svc    *Service
	hub    *Hub
	logger *log.Logger
}

// NewAPI builds the HTTP layer. hub may be nil when WebSocket streaming is
// not wanted.
func NewAPI(svc *Service, hub *Hub, logger *log.Logger) *API {
	return &API{svc: svc, hub: hub, logger: logger.WithPrefix("api")}
}

// Routes returns the request mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("POST /api/tables/create", a.handleCreateTable)
	mux.HandleFunc("GET /api/tables/{table_id}/state", a.handleTableState)
	mux.HandleFunc("POST /api/tables/{table_id}/join", a.handleJoin)
	mux.HandleFunc("POST /api/tables/{table_id}/bots", a.handleAddBot)
	mux.HandleFunc("POST /api/tables/{table_id}/start", a.handleStart)
	mux.HandleFunc("POST /api/tables/{table_id}/action", a.handleAction)
	mux.HandleFunc("GET /api/tables/{table_id}/hands", a.handleHands)
	mux.HandleFunc("DELETE /api/tables/{table_id}", a.handleDeleteTable)
	if a.hub != nil {
		mux.HandleFunc("GET /ws/{table_id}", a.handleWS)
	}
	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createTableRequest struct {
	SmallBlind    int `json:"small_blind"`
	BigBlind      int `json:"big_blind"`
	StartingStack int `json:"starting_stack"`
}

func (a *API) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if !a.decode(w, r, &req) {
		return
	}

	tableID, err := a.svc.CreateTable(req.SmallBlind, req.BigBlind, req.StartingStack)
	if err != nil {
		a.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"table_id": tableID,
		"status":   "created",
		"config": map[string]int{
			"max_players":    game.MaxSeats,
			"small_blind":    req.SmallBlind,
			"big_blind":      req.BigBlind,
			"starting_stack": req.StartingStack,
		},
	})
}

func (a *API) handleTableState(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.GetSnapshot(r.PathValue("table_id"), r.URL.Query().Get("seat_id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type joinRequest struct {
	Name string `json:"name"`
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table_id")
	var req joinRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		a.writeError(w, errors.New("name is required"))
		return
	}

	seatID, err := a.svc.JoinTable(tableID, req.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"seat_id": seatID, "table_id": tableID})
}

type addBotRequest struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
}

func (a *API) handleAddBot(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table_id")
	var req addBotRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "bot"
	}

	seatID, err := a.svc.AddBot(tableID, req.Name, req.Strategy)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"seat_id": seatID, "table_id": tableID})
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.StartHand(r.PathValue("table_id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "hand_started", "state": snap})
}

type actionRequest struct {
	SeatID string `json:"seat_id"`
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

func (a *API) handleAction(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table_id")
	var req actionRequest
	if !a.decode(w, r, &req) {
		return
	}

	action, err := game.ParseAction(req.Action)
	if err != nil {
		a.writeError(w, err)
		return
	}

	snap, err := a.svc.ApplyAction(tableID, req.SeatID, action, req.Amount)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "action_processed", "state": snap})
}

func (a *API) handleHands(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.writeError(w, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	recs, err := a.svc.HandHistory(r.Context(), r.PathValue("table_id"), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hands": recs})
}

func (a *API) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteTable(r.PathValue("table_id")); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleWS(w http.ResponseWriter, r *http.Request) {
	tableID := r.PathValue("table_id")
	if _, err := a.svc.GetSnapshot(tableID, ""); err != nil {
		a.writeError(w, err)
		return
	}
	a.hub.ServeWS(w, r, tableID)
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.writeError(w, errors.New("invalid JSON body"))
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP statuses: unknown
// tables/seats/history are 404, capacity and sequencing conflicts are
// 409, everything else a plain 400.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrTableNotFound),
		errors.Is(err, game.ErrSeatNotFound),
		errors.Is(err, history.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrTableFull),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrOutOfTurn):
		status = http.StatusConflict
	}

	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
