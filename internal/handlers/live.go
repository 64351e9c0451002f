package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// Views a live client can select
const (
	ViewStrip      = "strip"
	ViewGraph      = "graph"
	ViewStatistics = "statistics"
)

// Message types pushed to live clients
const (
	MessageForecastStrip = "forecast_strip"
	MessageForecastGraph = "forecast_graph"
	MessageStatistics    = "statistics"
	MessagePreferences   = "preferences"
	MessageError         = "error"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

// LiveRequest is a client command on the live channel
type LiveRequest struct {
	Action string `json:"action"`
	View   string `json:"view"`
	City   string `json:"city"`
	Unit   string `json:"unit,omitempty"`
}

// LiveMessage is a server push on the live channel
type LiveMessage struct {
	Type string      `json:"type"`
	View string      `json:"view,omitempty"`
	City string      `json:"city,omitempty"`
	Data interface{} `json:"data"`
}

// LiveHandler streams dashboard views over a websocket. When a client
// switches city quickly only the response for its last selection per view is
// pushed; earlier in-flight responses are discarded.
type LiveHandler struct {
	weather  *services.WeatherService
	stats    *services.StatisticsService
	prefs    *services.PreferenceStore
	upgrader websocket.Upgrader
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewLiveHandler creates a new live channel handler
func NewLiveHandler(weather *services.WeatherService, stats *services.StatisticsService, prefs *services.PreferenceStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *LiveHandler {
	return &LiveHandler{
		weather: weather,
		stats:   stats,
		prefs:   prefs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RegisterRoutes registers the live endpoint
func (h *LiveHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/live", h.Serve).Methods("GET")
}

// Serve handles GET /api/live
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnErr(r.Context(), "[LIVE_UPGRADE_ERROR] Websocket upgrade failed", logging.Fields{}, err)
		return
	}

	ctx, cancel := context.WithCancel(logging.WithSessionID(context.Background(), newID()))
	if id := logging.RequestID(r.Context()); id != "" {
		ctx = logging.WithRequestID(ctx, id)
	}

	s := &liveSession{
		handler: h,
		conn:    conn,
		tracker: services.NewFetchTracker(),
		log:     h.logger.WithFields(logging.Fields{"remote_addr": r.RemoteAddr}),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.run()
}

type liveSession struct {
	handler *LiveHandler
	conn    *websocket.Conn
	tracker *services.FetchTracker
	log     *logging.ContextLogger
	ctx     context.Context
	cancel  context.CancelFunc

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (s *liveSession) run() {
	h := s.handler
	h.metrics.LiveSessions.Inc()
	s.log.Info(s.ctx, "[LIVE_CONNECT] Live session started", logging.Fields{})

	updates, unsubscribe := h.prefs.Subscribe()

	defer func() {
		s.cancel()
		unsubscribe()
		s.wg.Wait()
		s.conn.Close()
		h.metrics.LiveSessions.Dec()
		s.log.Info(s.ctx, "[LIVE_DISCONNECT] Live session ended", logging.Fields{})
	}()

	s.wg.Add(1)
	go s.pushLoop(updates)

	s.send(LiveMessage{Type: MessagePreferences, Data: h.prefs.Preferences()})
	s.readLoop()
}

// pushLoop forwards preference changes and keeps the connection alive
func (s *liveSession) pushLoop(updates <-chan models.Preferences) {
	defer s.wg.Done()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case prefs, ok := <-updates:
			if !ok {
				return
			}
			s.send(LiveMessage{Type: MessagePreferences, Data: prefs})
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *liveSession) readLoop() {
	h := s.handler
	s.conn.SetReadLimit(4096)
	s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WarnErr(s.ctx, "[LIVE_READ_ERROR] Live session read failed", logging.Fields{}, err)
			}
			return
		}

		var req LiveRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			s.sendError("invalid message: " + err.Error())
			continue
		}
		if req.Action != "select" {
			h.metrics.LiveMessagesTotal.WithLabelValues("in", "unknown").Inc()
			s.sendError("unknown action: " + req.Action)
			continue
		}
		h.metrics.LiveMessagesTotal.WithLabelValues("in", req.Action).Inc()
		s.selectView(req)
	}
}

// selectView starts a fetch for the requested view and pushes the result
// only if no newer selection for the same view arrived meanwhile
func (s *liveSession) selectView(req LiveRequest) {
	h := s.handler

	unit := h.prefs.Unit()
	if req.Unit != "" {
		u, err := models.ParseUnit(req.Unit)
		if err != nil {
			s.sendError(err.Error())
			return
		}
		unit = u
	}

	switch req.View {
	case ViewStrip, ViewGraph, ViewStatistics:
	default:
		s.sendError("unknown view: " + req.View)
		return
	}
	if req.City == "" {
		s.sendError("city is required")
		return
	}

	token := s.tracker.Begin(req.View)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		msg, err := s.fetch(req.View, req.City, unit)
		if s.ctx.Err() != nil {
			return
		}
		if !s.tracker.IsCurrent(req.View, token) {
			h.metrics.RecordStaleFetch(req.View)
			s.log.Debug(s.ctx, "[LIVE_STALE] Dropping superseded response", logging.Fields{
				"view": req.View,
				"city": req.City,
			})
			return
		}
		if err != nil {
			s.sendError(err.Error())
			return
		}
		s.send(msg)
	}()
}

func (s *liveSession) fetch(view, city string, unit models.Unit) (LiveMessage, error) {
	h := s.handler
	msg := LiveMessage{View: view, City: city}

	switch view {
	case ViewStrip:
		msg.Type = MessageForecastStrip
		msg.Data = h.weather.ForecastStrip(s.ctx, city, unit)
	case ViewGraph:
		msg.Type = MessageForecastGraph
		msg.Data = h.weather.ForecastGraph(s.ctx, city, unit)
	case ViewStatistics:
		report, err := h.stats.Report(s.ctx, city, unit)
		if err != nil {
			return msg, err
		}
		msg.Type = MessageStatistics
		msg.Data = report
	}
	return msg, nil
}

func (s *liveSession) sendError(message string) {
	s.send(LiveMessage{Type: MessageError, Data: map[string]string{"message": message}})
}

func (s *liveSession) send(msg LiveMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.WarnErr(s.ctx, "[LIVE_WRITE_ERROR] Failed to push message", logging.Fields{
			"type": msg.Type,
		}, err)
		s.close()
		return
	}
	s.handler.metrics.LiveMessagesTotal.WithLabelValues("out", msg.Type).Inc()
}

// close cancels in-flight fetches and unblocks the read loop
func (s *liveSession) close() {
	s.cancel()
	s.conn.Close()
}
