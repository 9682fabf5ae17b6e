package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"deepmine/messages"
	"deepmine/models"
	"deepmine/persistence"
)

// maxBodyBytes bounds request bodies accepted by the REST API
const maxBodyBytes = 1 << 20

// APIHandler serves the storage backend over REST
type APIHandler struct {
	store persistence.Storage
}

// NewAPIHandler creates a REST handler backed by store
func NewAPIHandler(store persistence.Storage) *APIHandler {
	return &APIHandler{store: store}
}

// Routes registers the API endpoints on mux
func (a *APIHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/baseMap", a.handleRandomBaseMap)
	mux.HandleFunc("POST /api/baseMap", a.handleSaveBaseMap)
	mux.HandleFunc("GET /api/player/{code}", a.handleLoadPlayer)
	mux.HandleFunc("POST /api/player", a.handleCreatePlayer)
	mux.HandleFunc("PUT /api/player", a.handleSavePlayer)
	mux.HandleFunc("GET /schema", a.handleSchema)
}

func (a *APIHandler) handleRandomBaseMap(w http.ResponseWriter, r *http.Request) {
	form, err := models.ParseExitForm(r.URL.Query().Get("exitForm"))
	if err != nil || !form.Valid() {
		http.Error(w, "exitForm must name at least one of N, E, S, W", http.StatusBadRequest)
		return
	}

	baseMap, err := a.store.RandomBaseMap(r.Context(), form)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, baseMap)
}

func (a *APIHandler) handleSaveBaseMap(w http.ResponseWriter, r *http.Request) {
	var baseMap models.BaseMap
	if !readJSON(w, r, &baseMap) {
		return
	}

	if err := a.store.SaveBaseMap(r.Context(), &baseMap); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, baseMap)
}

func (a *APIHandler) handleLoadPlayer(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil {
		http.Error(w, "recovery code must be a number", http.StatusBadRequest)
		return
	}

	player, err := a.store.LoadPlayer(r.Context(), code)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (a *APIHandler) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var player models.Player
	if !readJSON(w, r, &player) {
		return
	}

	if err := a.store.CreatePlayer(r.Context(), &player); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (a *APIHandler) handleSavePlayer(w http.ResponseWriter, r *http.Request) {
	var player models.Player
	if !readJSON(w, r, &player) {
		return
	}

	if err := a.store.SavePlayer(r.Context(), &player); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSchema publishes the JSON schema of client websocket messages
func (a *APIHandler) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messages.Schema())
}

// writeError maps storage errors to status codes
func (a *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrNoBaseMap):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, persistence.ErrPlayerExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, persistence.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("API storage error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
