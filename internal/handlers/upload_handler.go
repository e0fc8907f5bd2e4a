package handlers

import (
	"context"
	"io"
	"net/http"
)

// maxUploadSize caps attachment uploads at 10 MiB
const maxUploadSize = 10 << 20

// AttachmentStore stores uploaded report attachments
type AttachmentStore interface {
	Upload(ctx context.Context, filename, contentType string, data io.ReadSeeker) (string, error)
}

// UploadHandler handles report attachment uploads
type UploadHandler struct {
	store AttachmentStore
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store AttachmentStore) *UploadHandler {
	return &UploadHandler{
		store: store,
	}
}

// Upload stores an attachment and returns its public URL
// @Summary Upload a report attachment
// @Description Upload evidence (image or document) to attach to a report submission. Returns the URL to reference in fileUrls.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Attachment (max 10 MiB)"
// @Success 201 {object} map[string]string "Public URL of the stored attachment"
// @Failure 400 {object} map[string]string "Missing or oversized file"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /uploads [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "File is missing or too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	url, err := h.store.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store attachment")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"url": url,
	})
}
