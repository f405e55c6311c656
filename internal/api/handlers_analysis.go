package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"tradeops/internal/analysis"
	"tradeops/internal/models"
	"tradeops/internal/ratelimit"
	"tradeops/internal/session"
)

const sessionExpiredMessage = "Session expired. Please login again."

// Analyze generates a trade opportunities report for a sector.
// GET /api/v1/analyze/{sector}
//
// The sector is validated before the session gate so malformed requests do
// not spend the caller's quota.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	sector, err := analysis.ValidateSector(mux.Vars(r)["sector"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	decision, info := h.gate.Admit(identity)
	switch decision {
	case session.SessionExpired:
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeErrorResponse(w, r, http.StatusUnauthorized, models.ErrorCodeSessionExpired, sessionExpiredMessage)
		return
	case session.RateLimited:
		ratelimit.SetHeaders(w, info)
		ratelimit.WriteRateLimited(w, info)
		return
	}
	ratelimit.SetHeaders(w, info)

	h.logger.Info("Analysis requested", "username", identity, "sector", sector)

	response, err := h.analysis.Analyze(r.Context(), identity, sector)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// ListReports lists the caller's archived reports, newest first.
// GET /api/v1/reports
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	response, err := h.analysis.Reports(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// GetReport returns one of the caller's archived reports.
// GET /api/v1/reports/{id}
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.analysis.Report(r.Context(), IdentityFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, report)
}
