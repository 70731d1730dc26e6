package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mollie-gateway/internal/application"
	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/infra/logging"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCallback answers the provider webhook. Any status other than 200
// makes the provider redeliver.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	// the gateway log keeps what the provider posted; the webhook URL's own
	// query (invoiceId) only stands in when there is no body
	src := r.PostForm
	if len(src) == 0 {
		src = r.URL.Query()
	}
	raw := make(map[string]string, len(src))
	for k, v := range src {
		if len(v) > 0 {
			raw[k] = v[0]
		}
	}

	ctx := logging.WithModule(r.Context(), gw.Name())
	_, err := gw.Callback(ctx, r.Form.Get("id"), raw)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, domain.ErrModuleNotActive):
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Module Not Activated"))
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrCallbackInProgress):
		w.Header().Set("Retry-After", "5")
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type configResponse struct {
	Module string              `json:"module"`
	Fields []model.ConfigField `json:"fields"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, configResponse{Module: gw.Name(), Fields: gw.Config()})
}

// handleLink returns the checkout markup exactly as the host embeds it.
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p model.LinkParams
	if !s.bind(w, r, &p) {
		return
	}
	ctx := logging.WithModule(r.Context(), gw.Name())
	out := gw.Link(ctx, p)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p model.RefundParams
	if !s.bind(w, r, &p) {
		return
	}
	ctx := logging.WithModule(r.Context(), gw.Name())
	writeJSON(w, http.StatusOK, gw.Refund(ctx, p))
}

type gatewayLogView struct {
	ID        string            `json:"id"`
	Gateway   string            `json:"gateway"`
	Status    string            `json:"status"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// handleLog lists recent callback outcomes, newest first. ?limit caps the page.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	gw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.logs == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": FieldErrors{"limit": "must be between 1 and 500"}})
			return
		}
		limit = n
	}
	gateway := r.URL.Query().Get("gateway")
	if gateway == "" {
		gateway = gw.Name()
	}
	entries, err := s.logs.ListByGateway(r.Context(), nil, gateway, limit)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list gateway log failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	out := make([]gatewayLogView, 0, len(entries))
	for _, e := range entries {
		out = append(out, gatewayLogView{
			ID:        e.ID,
			Gateway:   e.Gateway,
			Status:    string(e.Status),
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (application.Gateway, bool) {
	gw, err := s.registry.Lookup(chi.URLParam(r, "module"))
	if err != nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	return gw, true
}

// bind decodes a JSON body into dst and validates it. On failure the
// response is already written.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fromValidation(err)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func addr(port int) string { return fmt.Sprintf(":%d", port) }
