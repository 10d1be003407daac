package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/xavierca1/lead-sync/internal/infra/http/middleware"
	"github.com/xavierca1/lead-sync/internal/infra/ratelimit"
	"github.com/xavierca1/lead-sync/internal/usecase"
)

type LeadHandler struct {
	SyncUC  *usecase.SyncLeadUseCase
	Limiter ratelimit.Limiter
}

func NewLeadHandler(uc *usecase.SyncLeadUseCase, limiter ratelimit.Limiter) *LeadHandler {
	return &LeadHandler{
		SyncUC:  uc,
		Limiter: limiter,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Handle (POST /api/v1/landing_leads)
// Ordem importa: limite por IP antes de ler o corpo, validação antes do
// limite por email (request sem email válido nem tem chave de contagem),
// e qualquer limite estourado responde 429 ANTES de gastar quota do CRM.
func (h *LeadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.Limiter.AllowIP(ctx, clientIP) {
		middleware.RecordRateLimited("ip")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Success: false,
			Error:   "Too many requests. Please try again later.",
		})
		return
	}

	var input usecase.SyncLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Success: false,
			Error:   "Valid email is required",
		})
		return
	}

	if errs := usecase.ValidateSyncLeadInput(input); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Success: false,
			Error:   "Valid email is required",
		})
		return
	}

	email := usecase.NormalizeEmail(input.Email)
	if !h.Limiter.AllowEmail(ctx, email) {
		middleware.RecordRateLimited("email")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Success: false,
			Error:   "Too many requests. Please try again later.",
		})
		return
	}

	output, err := h.SyncUC.Execute(ctx, input)
	if err != nil {
		if usecase.IsDomainError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}

		// O detalhe fica no log do servidor; pro cliente vai mensagem
		// genérica — erro do CRM não vaza pra fora.
		log.Printf("❌ Sync de lead falhou (%s): %s", email, err)
		middleware.RecordIntegrationError("highlevel")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Success: false,
			Error:   "Failed to process lead. Please try again.",
		})
		return
	}

	middleware.RecordLeadSynced(output.Action)

	// 201 pra contato novo, 200 pra update de existente.
	status := http.StatusOK
	if output.Action == "created" {
		status = http.StatusCreated
	}
	writeJSON(w, status, output)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Primeiro hop da lista: o IP do cliente original.
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
