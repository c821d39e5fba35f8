package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

//go:embed templates/*
var templatesFS embed.FS

// StatusSource reports capability availability by name.
type StatusSource interface {
	Status() map[string]string
}

// Health is the /health response body.
type Health struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Handler serves the health endpoint and the status page.
type Handler struct {
	status    StatusSource
	methods   []string
	templates *template.Template
	now       func() time.Time
}

// NewHandler creates a web handler. methods is listed on the status page.
func NewHandler(status StatusSource, methods []string) (*Handler, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"statusColor": statusColor,
		"statusIcon":  statusIcon,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		status:    status,
		methods:   methods,
		templates: tmpl,
		now:       time.Now,
	}, nil
}

// RegisterRoutes registers web routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", h.handleStatusPage).Methods(http.MethodGet)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Health{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Services:  h.status.Status(),
	})
}

type serviceRow struct {
	Name   string
	Status string
}

func (h *Handler) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	status := h.status.Status()
	rows := make([]serviceRow, 0, len(status))
	for name, s := range status {
		rows = append(rows, serviceRow{Name: name, Status: s})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	data := struct {
		Services []serviceRow
		Methods  []string
	}{
		Services: rows,
		Methods:  h.methods,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "status.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func statusColor(status string) string {
	if status == "available" {
		return "#198754"
	}
	if strings.HasPrefix(status, "unavailable") {
		return "#dc3545"
	}
	return "#6c757d"
}

func statusIcon(status string) string {
	if status == "available" {
		return "✓"
	}
	return "✗"
}
