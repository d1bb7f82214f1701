package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	api "github.com/forensys/evidence-custody/api/v1alpha1"
)

const defaultAnalyticsWindow = 24 * time.Hour

func (h *ServiceHandler) SubmitURLJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("job_handler")

	var request api.URLJobCreate
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
		return
	}

	reply, err := h.jobSrv.SubmitURL(r.Context(), request)
	if err != nil {
		logger.Errorw("url submission failed", "error", err)
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reply)
}

func (h *ServiceHandler) SubmitUploadJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("job_handler")

	reader, err := r.MultipartReader()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("expected multipart form: %v", err))
		return
	}

	form, err := reader.ReadForm(32 << 20)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read multipart form: %v", err))
		return
	}
	defer func() { _ = form.RemoveAll() }()

	files := form.File["file"]
	if len(files) == 0 {
		respondError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	fileHeader := files[0]

	file, err := fileHeader.Open()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to open uploaded file: %v", err))
		return
	}
	defer file.Close()

	formValue := func(key string) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	var notes *string
	if n := formValue("notes"); n != "" {
		notes = &n
	}

	reply, err := h.jobSrv.SubmitUpload(
		r.Context(),
		file,
		fileHeader.Filename,
		fileHeader.Size,
		formValue("investigator_id"),
		formValue("case_number"),
		notes,
	)
	if err != nil {
		logger.Errorw("upload submission failed", "error", err)
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, reply)
}

func (h *ServiceHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed job id")
		return
	}

	reply, err := h.jobSrv.GetStatus(r.Context(), id)
	if err != nil {
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}

func (h *ServiceHandler) GetJobDetails(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed job id")
		return
	}

	reply, err := h.jobSrv.GetDetails(r.Context(), id)
	if err != nil {
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reply, err := h.jobSrv.List(r.Context(), offset, limit)
	if err != nil {
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}

func (h *ServiceHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	window := defaultAnalyticsWindow
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			respondError(w, r, http.StatusBadRequest, "window_hours must be a non-negative integer")
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	reply, err := h.jobSrv.Analytics(r.Context(), window)
	if err != nil {
		respondError(w, r, serviceErrorStatus(err), err.Error())
		return
	}

	render.JSON(w, r, reply)
}
