// Package conversation runs a chat with the backend's agents about a set of
// selected entities.
//
// The server owns the message list: after a message is sent the controller
// polls the conversation and replaces its local messages with the server's
// list. When the conversation completes, the relationships it discovered are
// fetched once and forwarded.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/poll"
)

var (
	// ErrNoEntities is returned when a conversation would start without any
	// selected entity. A system message is appended instead.
	ErrNoEntities = errors.New("no entities selected")
	// ErrNoConversation is returned by calls that need a started conversation.
	ErrNoConversation = errors.New("no conversation started")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("conversation controller closed")
)

// User visible texts.
const (
	MsgSelectEntities = "请先上传人物数据或选择人物实体"
	MsgSendFailed     = "发送消息失败，请重试"
	EmptyText         = "开始对话以分析人物关系"
)

// API is the part of the backend API the controller needs.
type API interface {
	StartConversation(ctx context.Context, entityIDs []string, query string) (api.StartConversationResponse, error)
	GetConversation(ctx context.Context, conversationID string) (common.Conversation, error)
	AddMessage(ctx context.Context, conversationID string, message string) error
	GetConversationRelationships(ctx context.Context, conversationID string) ([]common.DiscoveredRelationship, error)
	GetConversationSummary(ctx context.Context, conversationID string) (string, error)
	GetConversationVisualization(ctx context.Context, conversationID string) (map[string]any, error)
}

// State is a snapshot of the controller.
type State struct {
	ConversationID string                          `json:"conversation_id,omitempty"`
	Status         string                          `json:"status"`
	Messages       []common.Message                `json:"messages"`
	Summary        string                          `json:"summary,omitempty"`
	Relationships  []common.DiscoveredRelationship `json:"relationships,omitempty"`
	// Loading is set while a message is being sent or the conversation is
	// polled.
	Loading bool `json:"loading"`
}

// Controller runs one conversation at a time. Send calls are serialized.
// Callbacks are invoked without internal locks held and must not call Close.
//
// A Controller should be created using NewController.
type Controller struct {
	api             API
	interval        time.Duration
	onRelationships func([]common.DiscoveredRelationship)
	onChange        func(State)
	onSettled       func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sendMu sync.Mutex

	mu      sync.Mutex
	state   State
	sending bool
	gen     uint64
	lastSeq uint64
	loop    *poll.Loop[common.Conversation]
	closed  bool

	// settling is the loop whose terminal tick arrived but whose follow-up
	// fetches are still running.
	settling *poll.Loop[common.Conversation]
}

// NewControllerParams defines the collaborators of a Controller.
//
// API is required. Interval defaults to poll.DefaultInterval.
// OnRelationships receives the non empty relationship list of every
// completed poll sequence. OnChange receives every state change. OnSettled
// receives the final state of every poll sequence that was not stopped,
// after its relationships were forwarded.
type NewControllerParams struct {
	API             API
	Interval        time.Duration
	OnRelationships func([]common.DiscoveredRelationship)
	OnChange        func(State)
	OnSettled       func(State)
}

// NewController creates a Controller.
func NewController(params NewControllerParams) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:             params.API,
		interval:        params.Interval,
		onRelationships: params.OnRelationships,
		onChange:        params.OnChange,
		onSettled:       params.OnSettled,
		ctx:             ctx,
		cancel:          cancel,
	}
	if c.interval <= 0 {
		c.interval = poll.DefaultInterval
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() State {
	s := c.state
	s.Messages = append([]common.Message(nil), c.state.Messages...)
	s.Relationships = append([]common.DiscoveredRelationship(nil), c.state.Relationships...)
	s.Loading = c.sending || c.loop != nil || c.settling != nil
	return s
}

// Send posts a user message. The first message starts a conversation about
// entities; later ones are added to it. Blank text is ignored.
//
// Without a conversation and without entities no request is made: a system
// message asks for entities and ErrNoEntities is returned. When the request
// fails a system message is appended and the error returned.
func (c *Controller) Send(ctx context.Context, text string, entities []common.Entity) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.state.Messages = append(c.state.Messages, common.Message{Role: common.RoleUser, Content: text})
	conversationID := c.state.ConversationID
	gen := c.gen
	if conversationID == "" && len(entities) == 0 {
		c.state.Messages = append(c.state.Messages, common.Message{Role: common.RoleSystem, Content: MsgSelectEntities})
		c.mu.Unlock()
		c.changed()
		return ErrNoEntities
	}
	c.sending = true
	c.mu.Unlock()
	c.changed()

	var err error
	if conversationID == "" {
		err = c.start(ctx, gen, text, entities)
	} else {
		err = c.add(ctx, gen, conversationID, text)
	}

	c.mu.Lock()
	c.sending = false
	if err != nil && !c.closed && gen == c.gen {
		c.state.Messages = append(c.state.Messages, common.Message{Role: common.RoleSystem, Content: MsgSendFailed})
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (c *Controller) start(ctx context.Context, gen uint64, text string, entities []common.Entity) error {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}

	res, err := c.api.StartConversation(ctx, ids, text)
	if err != nil {
		logger.Error("[Conversation] Failed to start conversation", "entities", len(ids), "err", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return nil
	}
	c.state.ConversationID = res.ConversationID
	c.state.Status = common.StatusInitializing
	c.startLoopLocked(gen, res.ConversationID)
	logger.Info("[Conversation] Started conversation", "conversation_id", res.ConversationID, "entities", len(ids))
	return nil
}

func (c *Controller) add(ctx context.Context, gen uint64, conversationID string, text string) error {
	if err := c.api.AddMessage(ctx, conversationID, text); err != nil {
		logger.Error("[Conversation] Failed to add message", "conversation_id", conversationID, "err", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.gen {
		return nil
	}
	c.state.Status = common.StatusProcessing
	if c.loop == nil {
		c.startLoopLocked(gen, conversationID)
	}
	return nil
}

// startLoopLocked starts polling a conversation. c.mu must be held.
func (c *Controller) startLoopLocked(gen uint64, conversationID string) {
	c.lastSeq = 0
	loop := poll.Start(c.ctx, poll.Options[common.Conversation]{
		Interval: c.interval,
		Fetch: func(ctx context.Context) (common.Conversation, error) {
			return c.api.GetConversation(ctx, conversationID)
		},
		Done: func(conv common.Conversation) bool {
			return common.IsTerminal(conv.Status)
		},
		OnTick: func(seq uint64, conv common.Conversation) {
			c.onTick(gen, seq, conv)
		},
	})
	c.loop = loop

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.watch(gen, conversationID, loop)
	}()
}

func (c *Controller) onTick(gen uint64, seq uint64, conv common.Conversation) {
	c.mu.Lock()
	if c.closed || gen != c.gen || seq <= c.lastSeq {
		c.mu.Unlock()
		metrics.Default().IncPollTickTotal("conversation", "stale")
		return
	}
	c.lastSeq = seq
	if len(conv.Messages) > 0 {
		c.state.Messages = append([]common.Message(nil), conv.Messages...)
	}
	c.state.Status = conv.Status
	if conv.Summary != "" {
		c.state.Summary = conv.Summary
	}
	if common.IsTerminal(conv.Status) {
		// the loop ends with this tick; a message sent from now on needs a
		// new one
		c.settling = c.loop
		c.loop = nil
	}
	c.mu.Unlock()

	metrics.Default().IncPollTickTotal("conversation", conv.Status)
	c.changed()
}

// watch waits for one loop to end and finishes its poll sequence.
func (c *Controller) watch(gen uint64, conversationID string, loop *poll.Loop[common.Conversation]) {
	last, err := loop.Wait()

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.loop == loop {
		c.loop = nil
	}
	c.mu.Unlock()

	switch {
	case errors.Is(err, poll.ErrStopped):
		return
	case err != nil:
		logger.Error("[Conversation] Failed to poll conversation", "conversation_id", conversationID, "err", err)
		metrics.Default().IncPollTickTotal("conversation", "error")
	case last.Status == common.StatusCompleted:
		c.forwardRelationships(gen, conversationID)
	case last.Status == common.StatusFailed:
		logger.Warn("[Conversation] Conversation failed", "conversation_id", conversationID, "error", last.Error)
	}

	c.mu.Lock()
	if c.settling == loop {
		c.settling = nil
	}
	c.mu.Unlock()
	c.changed()
	if c.onSettled != nil {
		c.onSettled(c.State())
	}
}

func (c *Controller) forwardRelationships(gen uint64, conversationID string) {
	rels, err := c.api.GetConversationRelationships(c.ctx, conversationID)
	if err != nil {
		logger.Error("[Conversation] Failed to fetch relationships", "conversation_id", conversationID, "err", err)
		return
	}
	if len(rels) == 0 {
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state.Relationships = rels
	c.mu.Unlock()

	logger.Info("[Conversation] Discovered relationships", "conversation_id", conversationID, "count", len(rels))
	if c.onRelationships != nil {
		c.onRelationships(append([]common.DiscoveredRelationship(nil), rels...))
	}
}

// Summary fetches the conversation summary and keeps it when non empty.
func (c *Controller) Summary(ctx context.Context) (string, error) {
	c.mu.Lock()
	conversationID, gen := c.state.ConversationID, c.gen
	c.mu.Unlock()
	if conversationID == "" {
		return "", ErrNoConversation
	}

	summary, err := c.api.GetConversationSummary(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch summary: %w", err)
	}
	if summary != "" {
		c.mu.Lock()
		stored := !c.closed && gen == c.gen
		if stored {
			c.state.Summary = summary
		}
		c.mu.Unlock()
		if stored {
			c.changed()
		}
	}
	return summary, nil
}

// Visualization fetches the visualizer agent's layout suggestions.
func (c *Controller) Visualization(ctx context.Context) (map[string]any, error) {
	c.mu.Lock()
	conversationID := c.state.ConversationID
	c.mu.Unlock()
	if conversationID == "" {
		return nil, ErrNoConversation
	}

	vis, err := c.api.GetConversationVisualization(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch visualization: %w", err)
	}
	return vis, nil
}

// Reset drops the current conversation; the next message starts a new one.
// Late responses of the old conversation are ignored.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.loop != nil {
		c.loop.Cancel()
		c.loop = nil
	}
	c.settling = nil
	c.gen++
	c.lastSeq = 0
	c.state = State{}
	c.mu.Unlock()
	c.changed()
}

// Close stops polling and waits for background work to end. No tick acts
// after Close returns. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	loop := c.loop
	c.loop = nil
	c.mu.Unlock()

	c.cancel()
	if loop != nil {
		loop.Stop()
	}
	c.wg.Wait()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
