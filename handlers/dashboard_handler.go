package handlers

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"temperature-dashboard/models"
	"temperature-dashboard/period"
	"temperature-dashboard/pipeline"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
)

const writeWait = 10 * time.Second

type DashboardHandler struct {
	engine        *pipeline.Engine
	defaultPeriod period.Period
	upgrader      websocket.Upgrader

	quit     chan struct{}
	quitOnce sync.Once
}

// NewDashboardHandler serves dashboards from engine. WebSocket upgrades are
// accepted from the origins c allows; with a nil c only same-origin
// upgrades are accepted.
func NewDashboardHandler(engine *pipeline.Engine, defaultPeriod period.Period, c *cors.Cors) *DashboardHandler {
	h := &DashboardHandler{
		engine:        engine,
		defaultPeriod: defaultPeriod,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		quit: make(chan struct{}),
	}
	if c != nil {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			// Browsers always send Origin; other clients are not subject to CORS.
			return r.Header.Get("Origin") == "" || c.OriginAllowed(r)
		}
	}
	return h
}

// Shutdown ends open WebSocket sessions.
func (h *DashboardHandler) Shutdown() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// selection reads period and comparison from the query string.
func (h *DashboardHandler) selection(r *http.Request) (pipeline.Selection, error) {
	q := r.URL.Query()
	sel := pipeline.Selection{Period: h.defaultPeriod, Comparison: period.NoComparison()}

	if q.Get("period") != "" {
		p, err := period.Parse(q.Get("period"), q.Get("from"), q.Get("to"))
		if err != nil {
			return sel, err
		}
		sel.Period = p
	}
	c, err := period.ParseComparison(q.Get("compare"), q.Get("compare_from"), q.Get("compare_to"))
	if err != nil {
		return sel, err
	}
	sel.Comparison = c
	return sel, nil
}

func selectionError(err error) APIError {
	code := ErrorCodeBadRequest
	switch {
	case errors.Is(err, period.ErrInvalidPeriod):
		code = ErrorCodeInvalidPeriod
	case errors.Is(err, period.ErrInvalidComparison):
		code = ErrorCodeInvalidComparison
	}
	return NewAPIError(code, err.Error(), nil, http.StatusBadRequest)
}

func unavailable(st pipeline.State) APIError {
	return NewAPIError(ErrorCodeDataUnavailable, "data unavailable", st.Err.Error(), http.StatusServiceUnavailable)
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		respondWithError(w, selectionError(err))
		return
	}
	d := h.engine.Dashboard(sel)
	status := http.StatusOK
	if d.Status == pipeline.StatusUnavailable {
		status = http.StatusServiceUnavailable
	}
	respondWithJSON(w, status, d)
}

func (h *DashboardHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	st := h.engine.State()
	if st.Status == pipeline.StatusUnavailable {
		respondWithError(w, unavailable(st))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status": st.Status,
		"latest": pipeline.Latest(st.Readings, time.Now(), h.engine.Location()),
	})
}

func (h *DashboardHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	st := h.engine.State()
	if st.Status == pipeline.StatusUnavailable {
		respondWithError(w, unavailable(st))
		return
	}
	readings := st.Readings
	if readings == nil {
		readings = []models.Reading{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":     st.Status,
		"updated_at": st.UpdatedAt,
		"readings":   readings,
	})
}

func (h *DashboardHandler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"default": h.defaultPeriod.String(),
		"periods": period.Catalogue(),
	})
}

// HandleWebSocket pushes the dashboard on connect and after every feed
// update until either side closes.
func (h *DashboardHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		respondWithError(w, selectionError(err))
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	websocketSessionsActive.Inc()
	defer websocketSessionsActive.Dec()

	changed := make(chan struct{}, 1)
	id, cancel := h.engine.Observe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()
	log.Printf("WebSocket session %s opened (period=%s, compare=%s)", id, sel.Period, sel.Comparison.Mode)
	defer log.Printf("WebSocket session %s closed", id)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func() bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(h.engine.Dashboard(sel)); err != nil {
			log.Printf("WebSocket session %s write failed: %v", id, err)
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-h.quit:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-changed:
			if !send() {
				return
			}
		}
	}
}

func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	st := h.engine.State()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"feed":      string(st.Status),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
