// Package api serves a read-only JSON view of the life being played.
//
// The session is single-threaded, so handlers never touch it. The game loop
// calls Observer.Publish after each turn; Publish encodes the views on the
// caller's goroutine and the handlers only ever see those bytes. Each turn
// is also pushed to websocket subscribers of /api/v1/stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/talgya/lifesim/internal/character"
	"github.com/talgya/lifesim/internal/engine"
	"github.com/talgya/lifesim/internal/family"
)

const recentEvents = 50

type statusView struct {
	ID           character.ID         `json:"id"`
	Name         string               `json:"name"`
	Gender       character.Gender     `json:"gender"`
	FamilyType   character.FamilyType `json:"family_type"`
	Age          int                  `json:"age"`
	Stage        character.Stage      `json:"stage"`
	Attributes   character.Attributes `json:"attributes"`
	MoneyRate    float64              `json:"money_rate"`
	Occupation   string               `json:"occupation"`
	Education    string               `json:"education"`
	Assets       map[string]string    `json:"assets"`
	Spouse       *character.Spouse    `json:"spouse,omitempty"`
	Children     int                  `json:"children"`
	Talents      []string             `json:"talents"`
	Achievements []string             `json:"achievements"`
	Generation   int                  `json:"generation"`
	Deceased     bool                 `json:"deceased"`
	LastTurn     *engine.Presentation `json:"last_turn,omitempty"`
	Changes      map[string]int       `json:"changes,omitempty"`
	Summary      *engine.Summary      `json:"summary,omitempty"`
	Turns        uint64               `json:"turns"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type memberView struct {
	ID       character.ID     `json:"id"`
	Name     string           `json:"name"`
	Gender   character.Gender `json:"gender"`
	Depth    int              `json:"depth"`
	ParentID character.ID     `json:"parent_id,omitempty"`
	Spouse   string           `json:"spouse,omitempty"`
	Lifespan *int             `json:"lifespan,omitempty"`
	Current  bool             `json:"current,omitempty"`
}

type turnFrame struct {
	Age      int                  `json:"age"`
	Present  *engine.Presentation `json:"present,omitempty"`
	Changes  map[string]int       `json:"changes,omitempty"`
	Messages []engine.Event       `json:"messages,omitempty"`
	Died     bool                 `json:"died,omitempty"`
}

type lifeLogView struct {
	LifePath  []character.LifeEvent `json:"life_path"`
	Decisions []character.Decision  `json:"decisions"`
}

// Observer holds the most recently published views.
type Observer struct {
	mu      sync.RWMutex
	status  []byte
	family  []byte
	lifelog []byte
	events  []byte
	turns   uint64

	Hub   *Hub
	Clock func() time.Time
}

// NewObserver returns an observer with nothing published yet.
func NewObserver() *Observer {
	return &Observer{Hub: NewHub(), Clock: time.Now}
}

// Publish encodes the session state after turn. It must be called from the
// goroutine that drives the session.
func (o *Observer) Publish(s *engine.Session, turn engine.Turn) error {
	c := s.Character
	if c == nil {
		return engine.ErrNoCharacter
	}

	o.mu.RLock()
	turns := o.turns + 1
	o.mu.RUnlock()

	talents := make([]string, len(c.Talents))
	for i, t := range c.Talents {
		talents[i] = t.Name
	}
	status := statusView{
		ID:           c.ID,
		Name:         c.Name,
		Gender:       c.Gender,
		FamilyType:   c.FamilyType,
		Age:          c.Age,
		Stage:        c.Stage(),
		Attributes:   c.Attributes,
		MoneyRate:    c.MoneyRate,
		Occupation:   c.Occupation,
		Education:    c.Education,
		Assets:       c.Assets,
		Spouse:       c.Spouse,
		Children:     len(c.Children),
		Talents:      talents,
		Achievements: c.Achievements,
		Generation:   len(s.Family.Ancestors(c.ID)) + 1,
		Deceased:     c.Deceased,
		LastTurn:     turn.Present,
		Changes:      turn.Changes(),
		Summary:      turn.Summary,
		Turns:        turns,
		UpdatedAt:    o.Clock(),
	}

	var tree []memberView
	s.Family.Walk(func(m *family.Member, depth int) {
		tree = append(tree, memberView{
			ID:       m.ID,
			Name:     m.Name,
			Gender:   m.Gender,
			Depth:    depth,
			ParentID: m.ParentID,
			Spouse:   m.Spouse,
			Lifespan: m.Lifespan,
			Current:  m.ID == c.ID,
		})
	})

	events := s.Events
	if len(events) > recentEvents {
		events = events[len(events)-recentEvents:]
	}

	statusJSON, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	familyJSON, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encode family: %w", err)
	}
	lifelogJSON, err := json.Marshal(lifeLogView{LifePath: c.LifePath, Decisions: c.Decisions})
	if err != nil {
		return fmt.Errorf("encode life log: %w", err)
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	frame, err := json.Marshal(turnFrame{
		Age:      turn.Age,
		Present:  turn.Present,
		Changes:  status.Changes,
		Messages: turn.Messages,
		Died:     turn.Died,
	})
	if err != nil {
		return fmt.Errorf("encode turn: %w", err)
	}

	o.mu.Lock()
	o.status, o.family, o.lifelog, o.events = statusJSON, familyJSON, lifelogJSON, eventsJSON
	o.turns = turns
	o.mu.Unlock()

	if o.Hub != nil {
		o.Hub.Broadcast(frame)
	}
	return nil
}

func (o *Observer) view(pick func(*Observer) []byte) []byte {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return pick(o)
}

// Server exposes an Observer over HTTP.
type Server struct {
	Observer       *Observer
	Addr           string
	Limiter        *RateLimiter
	TrustedProxies []string // Peers whose X-Forwarded-For is honoured
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	limiter := s.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(120, time.Minute)
	}
	limiter.Trust(s.TrustedProxies...)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", RateLimitMiddleware(limiter, s.serve(func(o *Observer) []byte { return o.status })))
	mux.HandleFunc("/api/v1/family", RateLimitMiddleware(limiter, s.serve(func(o *Observer) []byte { return o.family })))
	mux.HandleFunc("/api/v1/lifelog", RateLimitMiddleware(limiter, s.serve(func(o *Observer) []byte { return o.lifelog })))
	mux.HandleFunc("/api/v1/events", RateLimitMiddleware(limiter, s.serve(func(o *Observer) []byte { return o.events })))
	mux.HandleFunc("/api/v1/stream", RateLimitMiddleware(limiter, s.serveStream))
	return mux
}

// Start listens on Addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP server shutdown", "error", err)
		}
		if s.Observer.Hub != nil {
			s.Observer.Hub.Close()
		}
	}()
}

func (s *Server) serve(pick func(*Observer) []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body := s.Observer.view(pick)
		if body == nil {
			http.Error(w, "no life in progress", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, body)
	}
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
