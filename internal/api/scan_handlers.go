package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/scanner"
)

const defaultMaxBodyBytes = 32 << 20

// RunLister lists recent scan runs.
type RunLister interface {
	List(ctx context.Context, limit int) ([]models.ScanRun, error)
}

// ScanHandler runs scans over submitted pages or record lists.
type ScanHandler struct {
	service *scanner.Service
	runs    RunLister
	maxBody int64
	logger  *slog.Logger
}

// NewScanHandler creates a scan handler. runs may be nil.
func NewScanHandler(service *scanner.Service, runs RunLister, maxBody int64, logger *slog.Logger) *ScanHandler {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &ScanHandler{service: service, runs: runs, maxBody: maxBody, logger: logger}
}

// RecordInput is one record of a JSON scan request.
type RecordInput struct {
	ImageRef        string `json:"image_ref"`
	Tooltip         string `json:"tooltip"`
	HasExistingNote bool   `json:"has_existing_note"`
}

// ScanRequest is the JSON body of POST /api/scans.
type ScanRequest struct {
	Records []*RecordInput `json:"records"`
}

// ScanResponse is the body of a completed scan.
type ScanResponse struct {
	ScanID       string                     `json:"scan_id"`
	FlaggedCount int                        `json:"flagged_count"`
	Records      []*models.ScreenshotRecord `json:"records"`
	Config       models.ScanConfig          `json:"config"`
	HTML         string                     `json:"html,omitempty"`
	Message      string                     `json:"message"`
}

// CreateScan handles POST /api/scans. The body is either a timeline page
// (text/html, with an optional base_url query parameter) or a JSON record list.
func (h *ScanHandler) CreateScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mediaType := "text/html"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			http.Error(w, "Invalid Content-Type", http.StatusBadRequest)
			return
		}
		mediaType = parsed
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	switch mediaType {
	case "text/html":
		result, err := h.service.ScanPage(r.Context(), bytes.NewReader(body), r.URL.Query().Get("base_url"))
		h.respond(w, result.ScanResult, result.HTML, err)
	case "application/json":
		records, err := decodeRecords(body)
		if err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		result, err := h.service.ScanRecords(r.Context(), records)
		h.respond(w, result, "", err)
	default:
		http.Error(w, "Unsupported Content-Type: use text/html or application/json", http.StatusUnsupportedMediaType)
	}
}

func decodeRecords(body []byte) ([]*models.ScreenshotRecord, error) {
	var req ScanRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}

	records := make([]*models.ScreenshotRecord, len(req.Records))
	for i, in := range req.Records {
		if in == nil {
			// Left nil so the scan reports an unreadable source.
			continue
		}
		records[i] = &models.ScreenshotRecord{
			Index:           i,
			ImageRef:        in.ImageRef,
			TooltipText:     in.Tooltip,
			HasExistingNote: in.HasExistingNote,
		}
	}
	return records, nil
}

func (h *ScanHandler) respond(w http.ResponseWriter, result models.ScanResult, html string, err error) {
	if err != nil {
		h.logger.Error("scan failed", "scan_id", result.ScanID, "error", err)
		writeJSON(w, h.logger, http.StatusInternalServerError, ErrorResponse{
			Error:   models.FailureNotice,
			Message: models.FailureNotice,
			ScanID:  result.ScanID,
		})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ScanResponse{
		ScanID:       result.ScanID,
		FlaggedCount: result.FlaggedCount,
		Records:      result.Records,
		Config:       result.Config,
		HTML:         html,
		Message:      result.Summary(),
	})
}

// ListScans handles GET /api/scans
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runs == nil {
		http.Error(w, "Scan history requires a database", http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list scan runs", "error", err)
		http.Error(w, "Failed to list scans", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.ScanRun{}
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
