package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mediashelf/internal/clients/metadata"
	"mediashelf/internal/core"
	"mediashelf/internal/media"
	"mediashelf/internal/utils"
)

const maxBodyBytes = 1 << 20

type APIHandler struct {
	manager *core.Manager
	logger  *utils.Logger
}

func NewAPIHandler(manager *core.Manager, logger *utils.Logger) *APIHandler {
	return &APIHandler{manager: manager, logger: logger}
}

// respondJSON writes payload as JSON with status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError writes {"error", "requestId"} with code.
func respondError(w http.ResponseWriter, r *http.Request, code int, message string) {
	respondJSON(w, code, map[string]string{
		"error":     message,
		"requestId": utils.RequestIDFromContext(r.Context()),
	})
}

// respondFailure maps a manager error to its HTTP status and client message.
// Upstream details are logged, never forwarded.
func (h *APIHandler) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	log := h.logger.Ctx(r.Context())

	var cfgErr *metadata.ConfigurationError
	var upErr *metadata.UpstreamError
	switch {
	case errors.Is(err, media.ErrInvalidMediaType):
		respondError(w, r, http.StatusBadRequest, "Invalid media type")
	case errors.Is(err, core.ErrEmptyQuery):
		respondError(w, r, http.StatusBadRequest, "Query parameter is required")
	case errors.Is(err, core.ErrInvalidPage):
		respondError(w, r, http.StatusBadRequest, "Page must be a positive integer")
	case errors.Is(err, core.ErrInvalidReview):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "Library item not found")
	case errors.Is(err, core.ErrAlreadyInLibrary):
		respondError(w, r, http.StatusConflict, "Media already exists in library")
	case errors.As(err, &cfgErr):
		log.Error().Err(err).Msg("provider not configured")
		respondError(w, r, http.StatusInternalServerError, cfgErr.Error())
	case errors.As(err, &upErr):
		log.Error().Err(err).Str("provider", upErr.Provider).Int("upstream_status", upErr.Status).Msg("upstream call failed")
		if errors.Is(err, metadata.ErrUpstreamUnreachable) {
			respondError(w, r, http.StatusInternalServerError, upErr.Provider+" API unreachable")
			return
		}
		respondError(w, r, http.StatusInternalServerError, upErr.Provider+" API error")
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// Search handles GET /api/search/{mediaType}?query=&page=
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "Page must be a positive integer")
			return
		}
		page = p
	}

	result, err := h.manager.Search(r.Context(), mux.Vars(r)["mediaType"], r.URL.Query().Get("query"), page)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetDetails handles GET /api/media/{mediaType}/{id}
func (h *APIHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	item, err := h.manager.GetDetails(r.Context(), vars["mediaType"], vars["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *APIHandler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.manager.ListLibrary(r.Context(), core.LibraryFilter{Type: q.Get("type"), Tag: q.Get("tag")})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *APIHandler) AddToLibrary(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := h.manager.AddToLibrary(r.Context(), vars["mediaType"], vars["id"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (h *APIHandler) GetLibraryItem(w http.ResponseWriter, r *http.Request) {
	record, err := h.manager.GetLibraryItem(r.Context(), mux.Vars(r)["libraryId"])
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *APIHandler) RemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.RemoveFromLibrary(r.Context(), mux.Vars(r)["libraryId"]); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveReview handles POST /api/reviews/{libraryId} with a
// {rating, reviewText, tags} body.
func (h *APIHandler) SaveReview(w http.ResponseWriter, r *http.Request) {
	var review core.Review
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&review); err != nil {
		h.logger.Ctx(r.Context()).Debug().Err(err).Msg("bad review body")
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.manager.SaveReview(r.Context(), mux.Vars(r)["libraryId"], review)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *APIHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.manager.ListTags(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

func (h *APIHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.manager.Status(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
