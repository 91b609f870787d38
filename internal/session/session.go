// Package session holds the state one console user works on and wires the
// controllers together: upload results are merged into the entity
// collection, the browser's selection intents become the selection, the
// selection feeds the conversation and the graph, and the relationships a
// conversation discovers flow back into the graph.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/browser"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/conversation"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/upload"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/util"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// View names the panel the console shows.
type View string

const (
	ViewUpload       View = "upload"
	ViewEntities     View = "entities"
	ViewGraph        View = "graph"
	ViewConversation View = "conversation"
)

// ErrInvalidView is returned for an unknown view name.
var ErrInvalidView = errors.New("invalid view")

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewUpload, ViewEntities, ViewGraph, ViewConversation:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
}

// Backend is the backend API a session talks to. *api.Client implements it.
type Backend interface {
	upload.FileAPI
	conversation.API
	browser.EntitySearcher
	GetEntityRelationships(ctx context.Context, entityID string) ([]common.Relationship, error)
}

const maxNotices = 20

// Session is the state of one console. It is safe for concurrent use.
//
// A Session should be created using New.
type Session struct {
	id        string
	createdAt time.Time
	api       Backend
	publisher Publisher
	builder   *graph.Builder
	parallel  int

	upload       *upload.Controller
	browser      *browser.Browser
	conversation *conversation.Controller

	// selMu serializes read-modify-write cycles of the selection.
	selMu sync.Mutex

	mu            sync.RWMutex
	entities      []common.Entity
	selection     browser.SelectionIntent
	relationships []common.DiscoveredRelationship
	toggles       graph.Toggles
	view          View
	notices       []common.Notice
	closed        bool
}

// NewParams defines the collaborators of a Session.
//
// API is required. ID defaults to a fresh nanoid. Publisher defaults to a
// no-op. PollInterval is passed to the upload and conversation controllers.
// RefreshParallelism bounds RefreshSelectedRelationships and defaults to 4.
type NewParams struct {
	ID                 string
	API                Backend
	Publisher          Publisher
	Builder            *graph.Builder
	PollInterval       time.Duration
	RefreshParallelism int
}

// New creates a Session.
func New(params NewParams) (*Session, error) {
	if params.API == nil {
		return nil, errors.New("session needs a backend api")
	}
	id := params.ID
	if id == "" {
		var err error
		id, err = util.NewID()
		if err != nil {
			return nil, fmt.Errorf("failed to create session id: %w", err)
		}
	}

	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		api:       params.API,
		publisher: params.Publisher,
		builder:   params.Builder,
		parallel:  params.RefreshParallelism,
		browser:   browser.New(params.API),
		toggles:   graph.DefaultToggles(),
		view:      ViewUpload,
		selection: browser.SelectionIntent{IDs: []string{}, Entities: []common.Entity{}},
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.builder == nil {
		s.builder = graph.NewBuilder(graph.NewBuilderParams{})
	}
	if s.parallel <= 0 {
		s.parallel = 4
	}

	s.upload = upload.NewController(upload.NewControllerParams{
		API:        params.API,
		Interval:   params.PollInterval,
		OnEntities: s.LoadEntities,
		OnNotice:   s.notice,
		OnChange: func(st upload.State) {
			s.publish(EventUpload, st)
		},
	})
	s.conversation = conversation.NewController(conversation.NewControllerParams{
		API:             params.API,
		Interval:        params.PollInterval,
		OnRelationships: s.setRelationships,
		OnChange: func(st conversation.State) {
			s.publish(EventConversation, ConversationView(st))
		},
	})

	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Upload returns the upload controller.
func (s *Session) Upload() *upload.Controller {
	return s.upload
}

// Browser returns the entity browser.
func (s *Session) Browser() *browser.Browser {
	return s.browser
}

// Conversation returns the conversation controller.
func (s *Session) Conversation() *conversation.Controller {
	return s.conversation
}

// LoadEntities merges a batch into the collection: entities with a known id
// are skipped, new ones are appended in batch order. Nothing is ever removed.
// The console then switches to the entity list.
func (s *Session) LoadEntities(batch []common.Entity) {
	s.mu.Lock()
	s.entities = MergeEntities(s.entities, batch)
	merged := append([]common.Entity(nil), s.entities...)
	s.view = ViewEntities
	s.mu.Unlock()

	s.browser.SetEntities(merged)
	logger.Info("[Session] Loaded entities", "session_id", s.id, "batch", len(batch), "total", len(merged))
	s.publish(EventEntities, s.browser.View())
	s.publish(EventView, ViewEntities)
}

// MergeEntities appends the entities of batch whose id is not in current.
func MergeEntities(current []common.Entity, batch []common.Entity) []common.Entity {
	seen := make(map[string]struct{}, len(current)+len(batch))
	out := make([]common.Entity, 0, len(current)+len(batch))
	for _, e := range current {
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range batch {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Filter applies the client side filters and publishes the new list.
func (s *Session) Filter(searchText string, domain string) browser.View {
	s.browser.SetSearchText(searchText)
	s.browser.SetDomain(domain)
	v := s.browser.ApplyFilters()
	s.publish(EventEntities, v)
	return v
}

// Search runs the server side search with the given filter inputs. On
// failure an error notice is raised and the list is left as it was.
func (s *Session) Search(ctx context.Context, searchText string, domain string) (browser.View, error) {
	s.browser.SetSearchText(searchText)
	s.browser.SetDomain(domain)
	v, err := s.browser.ServerSearch(ctx)
	if err != nil {
		s.notice(common.Notice{Level: common.NoticeError, Text: browser.NoticeSearchFailed})
		return v, err
	}
	s.publish(EventEntities, v)
	return v, nil
}

// Entities returns the merged collection.
func (s *Session) Entities() []common.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.Entity(nil), s.entities...)
}

// ToggleEntity checks or unchecks an entity of the browser list and adopts
// the resulting selection.
func (s *Session) ToggleEntity(id string, checked bool) browser.SelectionIntent {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	next := s.browser.Toggle(id, checked, s.Selection())
	s.SetSelection(next)
	return next
}

// SelectIDs replaces the selection with ids, in order. Unknown and repeated
// ids are skipped.
func (s *Session) SelectIDs(ids []string) browser.SelectionIntent {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	next := browser.SelectionIntent{IDs: []string{}, Entities: []common.Entity{}}
	for _, id := range ids {
		next = s.browser.Toggle(id, true, next)
	}
	s.SetSelection(next)
	return next
}

// SetSelection adopts a selection intent.
func (s *Session) SetSelection(sel browser.SelectionIntent) {
	s.mu.Lock()
	s.selection = browser.SelectionIntent{
		IDs:      append([]string{}, sel.IDs...),
		Entities: append([]common.Entity{}, sel.Entities...),
	}
	s.mu.Unlock()

	s.publish(EventSelection, s.SelectionView())
	s.publishGraph()
}

// Selection returns the current selection.
func (s *Session) Selection() browser.SelectionIntent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return browser.SelectionIntent{
		IDs:      append([]string{}, s.selection.IDs...),
		Entities: append([]common.Entity{}, s.selection.Entities...),
	}
}

// SelectionView is the selection with its summary line.
type SelectionView struct {
	browser.SelectionIntent
	Count int    `json:"count"`
	Text  string `json:"text"`
}

func (s *Session) SelectionView() SelectionView {
	sel := s.Selection()
	return SelectionView{
		SelectionIntent: sel,
		Count:           len(sel.IDs),
		Text:            browser.SelectedCountText(len(sel.IDs)),
	}
}

// Send posts a message to the conversation about the selected entities.
func (s *Session) Send(ctx context.Context, text string) error {
	return s.conversation.Send(ctx, text, s.Selection().Entities)
}

func (s *Session) setRelationships(rels []common.DiscoveredRelationship) {
	s.mu.Lock()
	s.relationships = append([]common.DiscoveredRelationship(nil), rels...)
	s.mu.Unlock()
	s.publishGraph()
}

// Relationships returns the relationships the conversation discovered last.
func (s *Session) Relationships() []common.DiscoveredRelationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.DiscoveredRelationship(nil), s.relationships...)
}

// Graph derives the graph of the selected entities.
func (s *Session) Graph() graph.Graph {
	s.mu.RLock()
	entities := append([]common.Entity(nil), s.selection.Entities...)
	rels := append([]common.DiscoveredRelationship(nil), s.relationships...)
	s.mu.RUnlock()
	return s.builder.Build(entities, rels)
}

// Render returns the graph as the force graph view draws it.
func (s *Session) Render() graph.Render {
	return graph.NewRender(s.Graph(), s.Toggles())
}

func (s *Session) Toggles() graph.Toggles {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toggles
}

// SetToggles changes which discovered edge types the graph view shows.
func (s *Session) SetToggles(t graph.Toggles) {
	s.mu.Lock()
	s.toggles = t
	s.mu.Unlock()
	s.publishGraph()
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Session) SetView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.publish(EventView, v)
}

// Notices returns the most recent notices, oldest first.
func (s *Session) Notices() []common.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]common.Notice(nil), s.notices...)
}

func (s *Session) notice(n common.Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = append([]common.Notice(nil), s.notices[len(s.notices)-maxNotices:]...)
	}
	s.mu.Unlock()
	s.publish(EventNotice, n)
}

// State is everything a console needs to render a session.
type State struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	View         View              `json:"view"`
	Upload       upload.State      `json:"upload"`
	Entities     browser.View      `json:"entities"`
	Selection    SelectionView     `json:"selection"`
	Conversation ConversationState `json:"conversation"`
	Graph        graph.Render      `json:"graph"`
	Notices      []common.Notice   `json:"notices"`
}

// ConversationState is the conversation with speaker displays attached.
type ConversationState struct {
	conversation.State
	Messages  []conversation.MessageView `json:"messages"`
	EmptyText string                     `json:"empty_text,omitempty"`
}

// ConversationView decorates a conversation state for display.
func ConversationView(st conversation.State) ConversationState {
	v := ConversationState{State: st, Messages: conversation.Decorate(st.Messages)}
	if len(st.Messages) == 0 {
		v.EmptyText = conversation.EmptyText
	}
	return v
}

// State returns a snapshot of the whole session.
func (s *Session) State() State {
	notices := s.Notices()
	if notices == nil {
		notices = []common.Notice{}
	}
	return State{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		View:         s.View(),
		Upload:       s.upload.State(),
		Entities:     s.browser.View(),
		Selection:    s.SelectionView(),
		Conversation: ConversationView(s.conversation.State()),
		Graph:        s.Render(),
		Notices:      notices,
	}
}

func (s *Session) publishGraph() {
	s.publish(EventGraph, s.Render())
}

func (s *Session) publish(kind string, payload any) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed && kind != EventClosed {
		return
	}

	e := Event{Type: kind, SessionID: s.id, Payload: payload, Time: time.Now().UTC()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.publisher.Publish(ctx, e)
	metrics.Default().IncEventTotal(kind, err == nil)
	if err != nil {
		logger.Warn("[Session] Failed to publish event", "session_id", s.id, "type", kind, "err", err)
	}
}

// Close stops the controllers. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.upload.Close()
	s.conversation.Close()
	s.publish(EventClosed, nil)
	logger.Debug("[Session] Closed", "session_id", s.id)
}

// SubmitFile uploads a file through the upload controller.
func (s *Session) SubmitFile(ctx context.Context, fileName string, contentType string, file io.Reader) error {
	return s.upload.Submit(ctx, fileName, contentType, file)
}
