package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/punchcard-services/internal/decodesvc/archive"
	"github.com/avvvet/punchcard-services/internal/decodesvc/service"
	"github.com/avvvet/punchcard-services/internal/decodesvc/store"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Handler struct {
	tokenAuth      *jwtauth.JWTAuth
	decodeService  *service.DecodeService
	table          *cipher.Table
	port           string
	maxUploadBytes int64
}

func NewHandler(decodeService *service.DecodeService, table *cipher.Table, port string, maxUploadBytes int64) *Handler {
	return &Handler{
		decodeService:  decodeService,
		table:          table,
		port:           port,
		maxUploadBytes: maxUploadBytes,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

type CipherEntry struct {
	Pattern string `json:"pattern"` // row 0 first
	Rows    []int  `json:"rows"`
	Char    string `json:"char"`
	Region  string `json:"region"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "decode service is running at port " + h.port,
		Code:    http.StatusOK,
	})
}

// DecodeHandler takes the raw deck as the request body.
func (h *Handler) DecodeHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.CreateResponse(w, Response{Code: http.StatusRequestEntityTooLarge, Error: "deck is too large"})
			return
		}
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "unable to read deck"})
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	b, err := h.decodeService.DecodeAndStore(r.Context(), source, string(body))
	if err != nil {
		log.Errorf("Error [DecodeService.DecodeAndStore] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "unable to store batch"})
		return
	}

	h.CreateResponse(w, Response{Message: "batch decoded", Code: http.StatusCreated, Data: b})
}

func (h *Handler) GetBatchHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := h.decodeService.GetBatch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrBatchNotFound) {
			h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "batch not found"})
			return
		}
		log.Errorf("Error [DecodeService.GetBatch] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "unable to load batch"})
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: b})
}

func (h *Handler) ListBatchesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid limit"})
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	batches, err := h.decodeService.ListBatches(r.Context(), limit)
	if err != nil {
		log.Errorf("Error [DecodeService.ListBatches] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "unable to list batches"})
		return
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: batches})
}

// GetDeckHandler returns the archived raw deck as plain text.
func (h *Handler) GetDeckHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deck, err := h.decodeService.GetDeck(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNoArchive):
		h.CreateResponse(w, Response{Code: http.StatusNotImplemented, Error: err.Error()})
		return
	case errors.Is(err, archive.ErrDeckNotFound):
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: "deck not found or expired"})
		return
	case err != nil:
		log.Errorf("Error [DecodeService.GetDeck] %s", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: "unable to load deck"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, deck.Raw)
}

func (h *Handler) CipherHandler(w http.ResponseWriter, r *http.Request) {
	entries := h.table.Entries()
	out := make([]CipherEntry, 0, len(entries))
	for _, e := range entries {
		char := string(e.Char)
		if e.Char == cipher.Blank {
			char = ""
		}
		out = append(out, CipherEntry{
			Pattern: e.Pattern.String(),
			Rows:    e.Pattern.Punched(),
			Char:    char,
			Region:  e.Region.String(),
		})
	}

	h.CreateResponse(w, Response{Code: http.StatusOK, Data: out})
}
