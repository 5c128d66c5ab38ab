package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/LeonardoBeccarini/smartfarm/internal/model/entities"
	sensor_simulator "github.com/LeonardoBeccarini/smartfarm/internal/sensor-simulator"
)

type API struct {
	svc     *Service
	metrics *Metrics
	logger  *slog.Logger
}

func NewAPI(svc *Service, metrics *Metrics, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{svc: svc, metrics: metrics, logger: logger}
}

// NewRouter wires every route. Specific routes come first: "/{page}" would
// otherwise swallow them.
func (a *API) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.metrics.Middleware)

	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pages", a.listPages).Methods(http.MethodGet)
	api.HandleFunc("/pages/{page}/series", a.getSeries).Methods(http.MethodGet)
	api.HandleFunc("/pages/{page}/status", a.getStatus).Methods(http.MethodGet)
	api.HandleFunc("/pages/{page}/refresh", a.postRefresh).Methods(http.MethodPost)

	r.HandleFunc("/charts/{page}/{chart}.svg", a.getChart).Methods(http.MethodGet)

	r.HandleFunc("/", a.renderPage(PageHome)).Methods(http.MethodGet)
	r.HandleFunc("/{page}", a.getPage).Methods(http.MethodGet)
	r.HandleFunc("/{page}/refresh", a.postPageRefresh).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, errors.New("route not found"))
	})
	return r
}

// Handler decorates the router with access logging and panic recovery.
func (a *API) Handler(accessLog io.Writer) http.Handler {
	var h http.Handler = a.NewRouter()
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError)),
	)(h)
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return h
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pageJSON struct {
	Name     string             `json:"name"`
	Path     string             `json:"path"`
	Title    string             `json:"title"`
	Channels []entities.Channel `json:"channels"`
	Policy   string             `json:"policy,omitempty"`
	Charts   []string           `json:"charts"`
}

func (a *API) listPages(w http.ResponseWriter, _ *http.Request) {
	out := make([]pageJSON, 0, len(pages))
	for _, p := range Pages() {
		pj := pageJSON{
			Name:     p.Name,
			Path:     p.Path,
			Title:    p.Title,
			Channels: p.Channels.List(),
			Charts:   Charts(p),
		}
		if p.HasSeries() {
			pj.Policy = p.Policy.String()
		}
		if pj.Charts == nil {
			pj.Charts = []string{}
		}
		out = append(out, pj)
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *API) getSeries(w http.ResponseWriter, r *http.Request) {
	page := mux.Vars(r)["page"]
	s, err := a.svc.Series(page)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		WriteJSON(w, http.StatusOK, s)
	case "line":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, LineProtocol(page, s))
	default:
		WriteError(w, http.StatusBadRequest, errors.New("format must be json or line"))
	}
}

func (a *API) getStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := a.svc.Snapshot(mux.Vars(r)["page"])
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

type refreshResponse struct {
	Page   string `json:"page"`
	Ticket string `json:"ticket"`
}

func (a *API) postRefresh(w http.ResponseWriter, r *http.Request) {
	page := mux.Vars(r)["page"]
	p, err := a.svc.Refresh(page)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, refreshResponse{Page: page, Ticket: p.Ticket()})
}

func (a *API) getChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var buf bytes.Buffer
	if err := a.svc.RenderChart(&buf, vars["page"], vars["chart"]); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (a *API) getPage(w http.ResponseWriter, r *http.Request) {
	a.renderPage(mux.Vars(r)["page"])(w, r)
}

func (a *API) renderPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		a.writePage(w, http.StatusOK, name, "")
	}
}

// postPageRefresh is the form target of the refresh button.
func (a *API) postPageRefresh(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["page"]
	_, err := a.svc.Refresh(name)
	switch {
	case err == nil:
		p, _ := LookupPage(name)
		http.Redirect(w, r, p.Path, http.StatusSeeOther)
	case errors.Is(err, sensor_simulator.ErrRefreshInProgress):
		a.writePage(w, http.StatusConflict, name, "A refresh is already in progress.")
	default:
		a.writeServiceError(w, err)
	}
}

func (a *API) writePage(w http.ResponseWriter, code int, name, flash string) {
	p, err := LookupPage(name)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	snap, err := a.svc.Snapshot(name)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	v := NewPageView(p, snap, a.svc.Summaries())
	v.Flash = flash

	var buf bytes.Buffer
	if err := RenderPage(&buf, v); err != nil {
		a.logger.Error("render page", "page", name, "err", err)
		WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		a.logger.Error("request failed", "err", err)
	}
	WriteError(w, code, err)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownPage),
		errors.Is(err, ErrNoSeries),
		errors.Is(err, ErrUnknownChart):
		return http.StatusNotFound
	case errors.Is(err, sensor_simulator.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, sensor_simulator.ErrRefresherClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, entities.ErrUnknownChannel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, code int, err error) {
	WriteJSON(w, code, errorBody{Error: http.StatusText(code), Message: err.Error()})
}
