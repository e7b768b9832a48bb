package diag

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// Handler accepts client error reports.
type Handler struct {
	sink   Sink
	logger *log.Logger
}

// NewHandler constructs a diag handler.
func NewHandler(sink Sink, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{sink: sink, logger: logger}
}

type clientErrorRequest struct {
	Message string `json:"message"`
	URL     string `json:"url"`
	Line    any    `json:"line"`
}

// ServeHTTP handles POST /api/v1/client-errors. The report is best-effort:
// sink failures are logged server-side and the caller still gets an ok.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req clientErrorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	entry := Entry{
		Message:    req.Message,
		URL:        req.URL,
		Line:       lineString(req.Line),
		ReportedAt: time.Now().UTC(),
	}
	if h.sink != nil {
		if err := h.sink.Append(r.Context(), entry); err != nil {
			h.logger.Printf("diag: append error: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// lineString tolerates reports sending the line number as either a JSON
// number or a string.
func lineString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
