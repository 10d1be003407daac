package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/lead-sync/internal/infra/cache"
)

// AdminHandler expõe a invalidação manual do cache de pipelines. Protegido
// por token estático — é ferramenta de operador, não API pública.
type AdminHandler struct {
	Cache *cache.PipelineCache
	Token string
}

func NewAdminHandler(pipelineCache *cache.PipelineCache, token string) *AdminHandler {
	return &AdminHandler{
		Cache: pipelineCache,
		Token: token,
	}
}

// ClearCache (POST /api/v1/admin/cache/clear)
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Error: "Unauthorized"})
		return
	}

	h.Cache.ClearAll()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ClearPipelineStages (POST /api/v1/admin/cache/pipelines/{name}/stages/clear)
func (h *AdminHandler) ClearPipelineStages(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Success: false, Error: "Unauthorized"})
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Error: "Pipeline name is required"})
		return
	}

	if !h.Cache.ClearStages(name) {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: "Unknown pipeline"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	return h.Token != "" && r.Header.Get("X-Admin-Token") == h.Token
}
