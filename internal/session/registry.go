package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns the live sessions of a process.
//
// A Registry should be created using NewRegistry.
type Registry struct {
	api          Backend
	publisher    Publisher
	builder      *graph.Builder
	pollInterval time.Duration
	parallel     int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistryParams defines what every session of a Registry is created with.
type NewRegistryParams struct {
	API                Backend
	Publisher          Publisher
	PollInterval       time.Duration
	RefreshParallelism int
}

// NewRegistry creates a Registry.
func NewRegistry(params NewRegistryParams) *Registry {
	return &Registry{
		api:          params.API,
		publisher:    params.Publisher,
		builder:      graph.NewBuilder(graph.NewBuilderParams{}),
		pollInterval: params.PollInterval,
		parallel:     params.RefreshParallelism,
		sessions:     make(map[string]*Session),
	}
}

// Create starts a new session.
func (r *Registry) Create() (*Session, error) {
	s, err := New(NewParams{
		API:                r.api,
		Publisher:          r.publisher,
		Builder:            r.builder,
		PollInterval:       r.pollInterval,
		RefreshParallelism: r.parallel,
	})
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	logger.Info("[Session] Created", "session_id", s.ID())
	return s, nil
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// List returns all sessions, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Delete closes and removes the session with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	logger.Info("[Session] Deleted", "session_id", id)
	return nil
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
}
