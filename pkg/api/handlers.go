package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nav_tracker/pkg/cache"
	"nav_tracker/pkg/route"
	"nav_tracker/pkg/session"
	"nav_tracker/pkg/trace"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

const (
	maxPlanBytes    = 8 << 20
	maxFixBytes     = 1024
	maxTraceSamples = 20000
)

// entry is one live session. The mutex serializes commands because
// session.Session is not safe for concurrent use.
type entry struct {
	mu  sync.Mutex
	s   *session.Session
	rec *trace.Recorder
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	sessions *cache.Cache[*entry]
	opts     []session.Option
	log      *zap.Logger
	started  time.Time

	sessionsStarted atomic.Int64
	sessionsExpired atomic.Int64
	fixesApplied    atomic.Int64
	fixesDiscarded  atomic.Int64
	fixesIgnored    atomic.Int64
	arrivals        atomic.Int64
}

// NewHandlers creates handlers whose sessions expire after ttl without
// requests. opts are applied to every new session. Call Close when done.
func NewHandlers(ttl time.Duration, log *zap.Logger, opts ...session.Option) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handlers{
		sessions: cache.New[*entry](ttl),
		log:      log,
		opts:     opts,
		started:  time.Now(),
	}
	h.sessions.OnEvict(func(id string, e *entry) {
		e.mu.Lock()
		e.s.Exit()
		e.mu.Unlock()
		h.sessionsExpired.Add(1)
		h.log.Info("session expired", zap.String("session", id))
	})
	return h
}

// Close stops session expiry.
func (h *Handlers) Close() {
	h.sessions.Close()
}

// HandleStart handles POST /api/v1/sessions. The body is a route plan.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}

	rt, err := route.DecodePlan(http.MaxBytesReader(w, r.Body, maxPlanBytes))
	if err != nil {
		h.log.Debug("rejected route plan", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid_route_plan", "")
		return
	}

	id := uuid.NewString()
	opts := make([]session.Option, 0, len(h.opts)+1)
	opts = append(opts, session.WithLogger(h.log.With(zap.String("session", id))))
	opts = append(opts, h.opts...)
	s := session.New(opts...)
	s.Start(rt)
	e := &entry{s: s, rec: trace.NewRecorder(rt)}
	h.sessions.Set(id, e)
	h.sessionsStarted.Add(1)

	writeJSON(w, http.StatusCreated, toStateJSON(id, s.State()))
}

// HandleGet handles GET /api/v1/sessions/{id}.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	st := e.s.State()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, toStateJSON(id, st))
}

// HandleFix handles POST /api/v1/sessions/{id}/fixes.
func (h *Handlers) HandleFix(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	_, e, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req FixRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFixBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if req.Lat == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "lat")
		return
	}
	if req.Lng == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "lng")
		return
	}
	fix := route.Point{Lat: *req.Lat, Lng: *req.Lng}

	e.mu.Lock()
	u := e.s.ProcessFix(fix)
	mode := e.s.Mode()
	if len(e.rec.Samples()) < maxTraceSamples {
		e.rec.Add(fix, u)
	}
	e.mu.Unlock()

	switch u.Outcome {
	case session.Applied:
		h.fixesApplied.Add(1)
		if u.Progress.Arrived {
			h.arrivals.Add(1)
		}
	case session.Discarded:
		h.fixesDiscarded.Add(1)
	case session.Ignored:
		h.fixesIgnored.Add(1)
	}

	writeJSON(w, http.StatusOK, UpdateJSON{
		Outcome:  u.Outcome.String(),
		Matched:  u.Matched,
		Progress: toProgressJSON(u.Progress),
		Camera:   toCameraJSON(u.Camera),
		Mode:     mode.String(),
	})
}

// HandlePause handles POST /api/v1/sessions/{id}/pause.
func (h *Handlers) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, (*session.Session).Pause)
}

// HandleResume handles POST /api/v1/sessions/{id}/resume.
func (h *Handlers) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, (*session.Session).Resume)
}

// HandleFollowing handles PUT /api/v1/sessions/{id}/following.
func (h *Handlers) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req FollowingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFixBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if req.Following == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "following")
		return
	}
	h.command(w, r, func(s *session.Session) bool {
		return s.SetFollowing(*req.Following)
	})
}

// HandleOverview handles GET /api/v1/sessions/{id}/overview.
func (h *Handlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	_, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	d := e.s.Overview()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, toCameraJSON(d))
}

// HandleRoute handles GET /api/v1/sessions/{id}/route, echoing the loaded
// plan with geometry expanded to point arrays.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	_, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	rt, loaded := e.s.Route()
	e.mu.Unlock()
	// Expiry or a concurrent DELETE can exit the session between lookup
	// and the lock above.
	if !loaded {
		writeError(w, http.StatusConflict, "no_active_route", "")
		return
	}
	writeJSON(w, http.StatusOK, route.PlanFromRoute(rt))
}

// HandleTrace handles GET /api/v1/sessions/{id}/trace.
func (h *Handlers) HandleTrace(w http.ResponseWriter, r *http.Request) {
	_, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	data, err := e.rec.GeoJSON()
	e.mu.Unlock()
	if err != nil {
		h.log.Error("encoding trace", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

// HandleExit handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) HandleExit(w http.ResponseWriter, r *http.Request) {
	id, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	e.s.Exit()
	e.mu.Unlock()
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		ActiveSessions:  h.sessions.Size(),
		SessionsStarted: h.sessionsStarted.Load(),
		SessionsExpired: h.sessionsExpired.Load(),
		FixesApplied:    h.fixesApplied.Load(),
		FixesDiscarded:  h.fixesDiscarded.Load(),
		FixesIgnored:    h.fixesIgnored.Load(),
		Arrivals:        h.arrivals.Load(),
		UptimeSeconds:   time.Since(h.started).Seconds(),
	})
}

// command runs a state command and reports whether it was accepted.
// Rejected commands leave the session unchanged and still answer 200.
func (h *Handlers) command(w http.ResponseWriter, r *http.Request, fn func(*session.Session) bool) {
	id, e, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	accepted := fn(e.s)
	st := e.s.State()
	e.mu.Unlock()
	writeJSON(w, http.StatusOK, CommandResponse{Accepted: accepted, State: toStateJSON(id, st)})
}

// lookup resolves the {id} path value, writing a 404 on failure.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (string, *entry, bool) {
	id := r.PathValue("id")
	e, err := h.find(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", "id")
		return "", nil, false
	}
	return id, e, true
}

func (h *Handlers) find(id string) (*entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	e, ok := h.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	writeJSON(w, status, ErrorResponse{Error: code, Field: field})
}
