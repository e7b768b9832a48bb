package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"watersense-cloud/internal/eventlog/application"
	eventlog "watersense-cloud/internal/eventlog/domain"
)

// Handler serves the paginated event log.
type Handler struct {
	service *application.Service
}

// NewHandler constructs a handler.
func NewHandler(service *application.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("eventlog handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP handles GET /api/v1/events.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	categories, err := filterCategories(r)
	if err != nil {
		http.Error(w, "invalid filters", http.StatusBadRequest)
		return
	}
	page := intQuery(r, "page", 1)
	perPage := intQuery(r, "per_page", 10)

	result, err := h.service.List(r.Context(), categories, page, perPage)
	if err != nil {
		if errors.Is(err, eventlog.ErrInvalidFilter) {
			http.Error(w, "invalid filters", http.StatusBadRequest)
			return
		}
		http.Error(w, "query events error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// filterCategories parses the filters query parameter. An absent parameter
// selects all categories; a present but empty or unknown one is a client
// error.
func filterCategories(r *http.Request) ([]eventlog.Category, error) {
	if !r.URL.Query().Has("filters") {
		return eventlog.AllCategories(), nil
	}
	return eventlog.ParseCategories(r.URL.Query().Get("filters"))
}

func intQuery(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
