package http

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"watersense-cloud/internal/eventlog/application"
	eventlog "watersense-cloud/internal/eventlog/domain"
	"watersense-cloud/internal/observability/metrics"
)

const timeLayout = time.RFC3339

// ExportHandler renders the filtered event log as CSV, XLSX or PDF.
type ExportHandler struct {
	service *application.Service
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service *application.Service) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("eventlog export: nil service")
	}
	return &ExportHandler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/exports/events.{csv,xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	dot := strings.LastIndex(r.URL.Path, ".")
	if dot < 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	format := r.URL.Path[dot+1:]
	switch format {
	case "csv", "xlsx", "pdf":
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := time.Now()
	categories, err := filterCategories(r)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "invalid filters", http.StatusBadRequest)
		return
	}

	entries, err := h.service.ListAll(r.Context(), categories)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "query events error", http.StatusInternalServerError)
		return
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		writer := csv.NewWriter(w)
		_ = writer.Write([]string{"timestamp", "sensor_type", "message"})
		for _, entry := range entries {
			_ = writer.Write([]string{
				entry.Timestamp.Format(timeLayout),
				string(entry.Category),
				entry.Message,
			})
		}
		writer.Flush()
	case "xlsx":
		data, err := BuildEventLogXLSX(entries)
		if err != nil {
			metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, "render xlsx error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="events.xlsx"`)
		_, _ = w.Write(data)
	case "pdf":
		data, err := BuildEventLogPDF(entries)
		if err != nil {
			metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, "render pdf error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="events.pdf"`)
		_, _ = w.Write(data)
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
}

// BuildEventLogXLSX renders the event log as a single-sheet workbook.
func BuildEventLogXLSX(entries []eventlog.Entry) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "events"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Timestamp")
	_ = f.SetCellValue(sheet, "B1", "Sensor")
	_ = f.SetCellValue(sheet, "C1", "Message")
	for i, entry := range entries {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Timestamp.Format(timeLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(entry.Category))
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.Message)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildEventLogPDF renders a minimal PDF listing of the event log.
func BuildEventLogPDF(entries []eventlog.Entry) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Sensor Event Log")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(timeLayout)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Sensor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(110, 6, "Message", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, entry := range entries {
		pdf.CellFormat(50, 6, entry.Timestamp.Format("2006-01-02 15:04:05"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, string(entry.Category), "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 6, entry.Message, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
