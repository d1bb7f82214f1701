package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forensys/evidence-custody/internal/report"
)

func (h *ServiceHandler) GetJobReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed job id")
		return
	}

	format := report.FormatHTML
	if raw := r.URL.Query().Get("format"); raw != "" {
		format = report.Format(raw)
	}

	path, contentType, err := h.reportSrv.GetReportPath(r.Context(), id, format)
	if err != nil {
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}
