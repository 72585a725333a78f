// Package server exposes the room broker over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"kadi/internal/room"
	"kadi/internal/storage"
)

const resultsLimit = 20

// Server is the HTTP server.
type Server struct {
	mux    *http.ServeMux
	broker *room.Broker
	store  *storage.Store
}

// New creates a server with all routes.
func New(broker *room.Broker, store *storage.Store) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		broker: broker,
		store:  store,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}", s.handleGetRoom)
	s.mux.HandleFunc("GET /api/rooms/{code}/ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/results", s.handleListResults)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type createRoomRequest struct {
	PlayerID string `json:"playerId"`
}

type createRoomResponse struct {
	Code string `json:"code"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "playerId required"})
		return
	}
	rm, err := s.broker.Create(req.PlayerID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, createRoomResponse{Code: rm.Code})
}

type roomInfo struct {
	Code    string   `json:"code"`
	Players []string `json:"players"`
	Status  string   `json:"status"`
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	rm, ok := s.broker.Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
		return
	}
	writeJSON(w, http.StatusOK, roomInfo{
		Code:    rm.Code,
		Players: rm.ParticipantIDs(),
		Status:  string(rm.Status()),
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.store.ListResults(resultsLimit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if results == nil {
		results = []storage.ResultRow{}
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
