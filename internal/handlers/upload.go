package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"logsift"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

const (
	// maxUploadBytes bounds the decompressed size of one uploaded file.
	maxUploadBytes = 50 << 20 // 50 MB
)

// @Summary      Upload a log file
// @Description  Accepts a multipart file (.log, .txt, or .gz) and queues it for async parsing and anomaly scoring. Poll /api/v1/jobs/{id} for progress.
// @Tags         logs
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Log file to ingest"
// @Success      202   {object}  logsift.UploadResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/v1/logs/upload [post]
// @Security     BearerAuth
func (h *Handler) uploadLogs(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	content, err := readUpload(fileHeader)
	if err != nil {
		if h.log != nil {
			h.log.Infow("upload_read_failed", "filename", fileHeader.Filename, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.services.Jobs.Upload(c.Request.Context(), fileHeader.Filename, content)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("upload_enqueue_failed", "filename", fileHeader.Filename, "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, logsift.UploadResponse{
		JobID:    job.ID,
		Filename: job.Filename,
		Status:   job.Status,
		Message:  "file accepted for processing",
	})
}

// readUpload reads the file contents, transparently gunzipping *.gz uploads,
// and enforces the size cap on the decompressed bytes.
func readUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(fh.Filename), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("invalid gzip file: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("file exceeds %d byte limit", maxUploadBytes)
	}
	return string(data), nil
}
