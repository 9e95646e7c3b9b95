package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/service"
)

// ReportHandler serves exports
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// UsersCSV handles GET /api/reports/users-csv
func (h *ReportHandler) UsersCSV(w http.ResponseWriter, r *http.Request) {
	// Render fully before writing so a failure can still produce a JSON error
	var buf bytes.Buffer
	if err := h.reports.UsersCSV(r.Context(), &buf); err != nil {
		respondWithServiceError(w, "Failed to build users report", err)
		return
	}

	filename := fmt.Sprintf("users-report-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
