package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/export"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/todo"
	"github.com/charmbracelet/log"
	"github.com/rs/cors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

type Server struct {
	store          *todo.Store
	logger         *log.Logger
	allowedOrigins []string
	tokenSecret    []byte
}

type Option func(*Server)

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithTokenSecret enables the bearer-token guard on every route.
func WithTokenSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.tokenSecret = []byte(secret)
		}
	}
}

type filterLink struct {
	Label  string
	Value  model.Filter
	Count  int
	Active bool
}

type priorityOption struct {
	Label   string
	Value   model.Priority
	Default bool
}

type taskRow struct {
	Task     model.Task
	Selected bool
}

type taskInput struct {
	Text     string `json:"text"`
	Priority string `json:"priority"`
}

type listPayload struct {
	Tasks    []model.Task `json:"tasks"`
	Counts   model.Counts `json:"counts"`
	Selected []int64      `json:"selected"`
}

func NewServer(store *todo.Store, opts ...Option) *Server {
	s := &Server{store: store, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.indexHandler)
	mux.HandleFunc("/tasks", s.addFormHandler)
	mux.HandleFunc("/tasks/", s.taskFormHandler)
	mux.HandleFunc("/selection/complete", s.completeFormHandler)
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/tasks/", s.apiTaskHandler)
	mux.HandleFunc("/api/selection", s.apiSelectionHandler)
	mux.HandleFunc("/api/selection/complete", s.apiCompleteHandler)
	mux.HandleFunc("/api/export", s.apiExportHandler)

	var handler http.Handler = mux
	if len(s.tokenSecret) > 0 {
		handler = requireToken(s.tokenSecret, handler)
	}

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(handler)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	filter, err := filterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	counts := s.store.Counts()
	filters := make([]filterLink, 0, 4)
	for _, f := range model.Filters() {
		filters = append(filters, filterLink{Label: f.Label(), Value: f, Count: counts.For(f), Active: f == filter})
	}

	draft := s.store.Draft()
	priorities := make([]priorityOption, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		priorities = append(priorities, priorityOption{Label: p.Label(), Value: p, Default: p == draft.Priority})
	}

	tasks := s.store.FilteredView(filter)
	rows := make([]taskRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, taskRow{Task: task, Selected: s.store.IsSelected(task.ID)})
	}

	data := struct {
		Filter      model.Filter
		Filters     []filterLink
		Priorities  []priorityOption
		Rows        []taskRow
		CanComplete bool
	}{Filter: filter, Filters: filters, Priorities: priorities, Rows: rows, CanComplete: s.store.CanComplete()}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("render index", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
}

func (s *Server) addFormHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	priority := parsePriorityOrDefault(r.PostForm.Get("priority"))
	if _, _, err := s.store.Add(r.Context(), r.PostForm.Get("text"), priority); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	redirectToIndex(w, r)
}

func (s *Server) taskFormHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	id, action, err := parseTaskPath(r.URL.Path, "/tasks/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch action {
	case "delete":
		if err := s.store.Remove(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case "toggle":
		s.store.Toggle(id)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
		return
	}
	redirectToIndex(w, r)
}

func (s *Server) completeFormHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	if _, err := s.store.CompleteSelected(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	redirectToIndex(w, r)
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := filterFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, listPayload{
			Tasks:    s.store.FilteredView(filter),
			Counts:   s.store.Counts(),
			Selected: s.store.SelectedIDs(),
		})
	case http.MethodPost:
		var input taskInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode task: %w", err))
			return
		}
		priority := model.PriorityMedium
		if strings.TrimSpace(input.Priority) != "" {
			parsed, err := model.ParsePriority(input.Priority)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			priority = parsed
		}

		task, ok, err := s.store.Add(r.Context(), input.Text, priority)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.logger.Info("task added", "id", task.ID, "priority", task.Priority)
		writeJSON(w, http.StatusCreated, task)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseTaskPath(r.URL.Path, "/api/tasks/")
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodDelete {
			writeMethodNotAllowed(w, http.MethodDelete)
			return
		}
		if err := s.store.Remove(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		s.store.Toggle(id)
		writeJSON(w, http.StatusOK, map[string][]int64{"selected": s.store.SelectedIDs()})
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown action %q", action))
	}
}

func (s *Server) apiSelectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"selected": s.store.SelectedIDs()})
}

func (s *Server) apiCompleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	removed, err := s.store.CompleteSelected(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("selection completed", "removed", removed)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) apiExportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	filter, err := filterFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}

	data, err := export.Render(s.store.FilteredView(filter), format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "tasks."+format))
	_, _ = w.Write(data)
}

func filterFromRequest(r *http.Request) (model.Filter, error) {
	return model.ParseFilter(r.URL.Query().Get("filter"))
}

func parsePriorityOrDefault(value string) model.Priority {
	priority, err := model.ParsePriority(value)
	if err != nil {
		return model.PriorityMedium
	}
	return priority
}

// parseTaskPath splits "<prefix><id>[/<action>]".
func parseTaskPath(path, prefix string) (int64, string, error) {
	if !strings.HasPrefix(path, prefix) {
		return 0, "", fmt.Errorf("invalid path")
	}
	value := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if value == "" {
		return 0, "", fmt.Errorf("missing id")
	}
	idPart, action, _ := strings.Cut(value, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid id %q", idPart)
	}
	return id, action, nil
}

func redirectToIndex(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if filter := r.FormValue("filter"); filter != "" && filter != string(model.FilterAll) {
		target = "/?filter=" + url.QueryEscape(filter)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
}
