package v1alpha1

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type verifyRequest struct {
	VerifiedBy string `json:"verified_by"`
}

func (h *ServiceHandler) VerifyJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed job id")
		return
	}

	// the body is optional; a bare POST attributes the check to the
	// job's own investigator
	var request verifyRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return
	}

	reply, err := h.verifySrv.Verify(r.Context(), id, request.VerifiedBy)
	if err != nil {
		zap.S().Named("verification_handler").Errorw("verification failed", "job_id", id, "error", err)
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}
