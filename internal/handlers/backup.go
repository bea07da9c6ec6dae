package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ilker/ledger-server/internal/backup"
	"github.com/ilker/ledger-server/internal/importjob"
	"github.com/ilker/ledger-server/internal/logging"
	"github.com/ilker/ledger-server/internal/models"
	"github.com/ilker/ledger-server/internal/snapshot"
)

// BackupOptions are the intake limits and history windows of the backup API.
type BackupOptions struct {
	MaxUploadBytes int64
	HistoryWindow  time.Duration
	Retention      time.Duration
}

type BackupHandler struct {
	exporter *backup.Exporter
	queue    *importjob.Queue
	tracker  *importjob.Tracker
	opts     BackupOptions
}

func NewBackupHandler(exporter *backup.Exporter, queue *importjob.Queue, tracker *importjob.Tracker, opts BackupOptions) *BackupHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 24 * time.Hour
	}
	if opts.Retention <= 0 {
		opts.Retention = 7 * 24 * time.Hour
	}
	return &BackupHandler{
		exporter: exporter,
		queue:    queue,
		tracker:  tracker,
		opts:     opts,
	}
}

type ImportAcceptedResponse struct {
	RequestID string             `json:"request_id"`
	Status    models.ImportState `json:"status"`
	StatusURL string             `json:"status_url"`
}

type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// GET /api/v1/backup/export
func (h *BackupHandler) Export(c *gin.Context) {
	snap, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		logging.Error().Err(err).Msg("export failed")
		InternalError(c, "Failed to export ledger")
		return
	}

	data, err := snapshot.Encode(snap)
	if err != nil {
		logging.Error().Err(err).Msg("encode snapshot failed")
		InternalError(c, "Failed to encode snapshot")
		return
	}

	fileName := fmt.Sprintf("ledger-backup-%s.json", snap.GeneratedAt.Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, "application/json", data)
}

// POST /api/v1/backup/import
func (h *BackupHandler) Import(c *gin.Context) {
	// Multipart framing needs some room on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+1<<20)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			PayloadTooLarge(c, fmt.Sprintf("File exceeds %d bytes", h.opts.MaxUploadBytes))
			return
		}
		BadRequest(c, "No file uploaded")
		return
	}

	if !strings.EqualFold(filepath.Ext(file.Filename), ".json") {
		BadRequest(c, "Backup file must be a .json file")
		return
	}
	if file.Size == 0 {
		BadRequest(c, "Backup file is empty")
		return
	}
	if file.Size > h.opts.MaxUploadBytes {
		PayloadTooLarge(c, fmt.Sprintf("File exceeds %d bytes", h.opts.MaxUploadBytes))
		return
	}

	f, err := file.Open()
	if err != nil {
		InternalError(c, "Failed to read uploaded file")
		return
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		InternalError(c, "Failed to read uploaded file")
		return
	}

	requestID := strings.TrimSpace(c.PostForm("request_id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if len(requestID) > 64 {
		BadRequest(c, "request_id must be at most 64 characters")
		return
	}

	err = h.queue.Submit(c.Request.Context(), requestID, payload, file.Filename)
	switch {
	case err == nil:
	case errors.Is(err, importjob.ErrDuplicateRequest):
		Conflict(c, "request_id already used")
		return
	case errors.Is(err, importjob.ErrImportInProgress):
		Conflict(c, "Another import is still running")
		return
	case errors.Is(err, importjob.ErrQueueFull), errors.Is(err, importjob.ErrQueueClosed):
		ServiceUnavailable(c, "Import queue is not accepting work, try again later")
		return
	default:
		logging.Error().Err(err).Str("request_id", requestID).Msg("submit import failed")
		InternalError(c, "Failed to accept import")
		return
	}

	logging.Info().Str("request_id", requestID).Str("file", file.Filename).Int64("bytes", file.Size).Msg("import accepted")
	Accepted(c, ImportAcceptedResponse{
		RequestID: requestID,
		Status:    models.ImportStarted,
		StatusURL: "/api/v1/backup/import/" + requestID,
	})
}

// GET /api/v1/backup/import/:requestId
func (h *BackupHandler) Status(c *gin.Context) {
	status, err := h.tracker.Get(c.Request.Context(), c.Param("requestId"))
	if err != nil {
		if errors.Is(err, importjob.ErrStatusNotFound) {
			NotFound(c, "Import not found")
			return
		}
		InternalError(c, "Failed to fetch import status")
		return
	}
	Success(c, status)
}

// GET /api/v1/backup/import/history
func (h *BackupHandler) History(c *gin.Context) {
	records, err := h.tracker.Recent(c.Request.Context(), h.opts.HistoryWindow)
	if err != nil {
		InternalError(c, "Failed to fetch import history")
		return
	}
	Success(c, nonNil(records))
}

// GET /api/v1/backup/import/history/all
func (h *BackupHandler) HistoryAll(c *gin.Context) {
	records, err := h.tracker.All(c.Request.Context())
	if err != nil {
		InternalError(c, "Failed to fetch import history")
		return
	}
	Success(c, nonNil(records))
}

// DELETE /api/v1/backup/import/history
func (h *BackupHandler) Cleanup(c *gin.Context) {
	deleted, err := h.tracker.Cleanup(c.Request.Context(), h.opts.Retention)
	if err != nil {
		InternalError(c, "Failed to clean up import history")
		return
	}
	Success(c, CleanupResponse{Deleted: deleted})
}

func nonNil(records []models.ImportStatus) []models.ImportStatus {
	if records == nil {
		return []models.ImportStatus{}
	}
	return records
}
