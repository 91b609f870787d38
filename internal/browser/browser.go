// Package browser filters and searches an entity collection and turns
// checkbox toggles into selection intents. It never owns the selection.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// EmptyText is shown instead of an empty list.
const EmptyText = "暂无实体数据"

// NoticeSearchFailed is raised when the server side search fails.
const NoticeSearchFailed = "搜索实体失败"

// EntitySearcher runs the server side search.
type EntitySearcher interface {
	ListEntities(ctx context.Context, searchText string, domain string) ([]common.Entity, error)
}

// View is what the entity list renders.
type View struct {
	Entities   []common.Entity `json:"entities"`
	Domains    []string        `json:"domains"`
	SearchText string          `json:"search_text"`
	Domain     string          `json:"domain"`
	Total      int             `json:"total"`
	Empty      bool            `json:"empty"`
	EmptyText  string          `json:"empty_text,omitempty"`
}

// Browser holds the local collection and the filter inputs. It is safe for
// concurrent use.
type Browser struct {
	api EntitySearcher

	mu         sync.RWMutex
	all        []common.Entity
	filtered   []common.Entity
	domains    []string
	searchText string
	domain     string
}

// New creates a Browser. api may be nil when server side search is not
// needed.
func New(api EntitySearcher) *Browser {
	return &Browser{api: api}
}

// SetEntities replaces the local collection with the owner's collection and
// re-applies the current filters. An empty collection is ignored; the owner
// only pushes non empty batches.
func (b *Browser) SetEntities(entities []common.Entity) {
	if len(entities) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append([]common.Entity(nil), entities...)
	b.domains = DistinctDomains(b.all)
	b.filtered = FilterEntities(b.all, b.searchText, b.domain)
}

// SetSearchText sets the free text filter. It takes effect on ApplyFilters.
func (b *Browser) SetSearchText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searchText = text
}

// SetDomain sets the exact match domain filter; "" clears it. It takes
// effect on ApplyFilters.
func (b *Browser) SetDomain(domain string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.domain = domain
}

// ApplyFilters filters the local collection with the current inputs.
func (b *Browser) ApplyFilters() View {
	b.mu.Lock()
	b.filtered = FilterEntities(b.all, b.searchText, b.domain)
	b.mu.Unlock()
	return b.View()
}

// ServerSearch asks the backend for entities matching the current inputs and
// replaces the local collection with the result. On error the collection is
// left untouched.
func (b *Browser) ServerSearch(ctx context.Context) (View, error) {
	if b.api == nil {
		return b.View(), fmt.Errorf("server search is not available")
	}

	b.mu.RLock()
	text, domain := b.searchText, b.domain
	b.mu.RUnlock()

	entities, err := b.api.ListEntities(ctx, text, domain)
	if err != nil {
		logger.Error("[Browser] Failed to search entities", "search_text", text, "domain", domain, "err", err)
		return b.View(), err
	}

	b.mu.Lock()
	b.all = append([]common.Entity(nil), entities...)
	b.filtered = append([]common.Entity(nil), entities...)
	b.domains = DistinctDomains(b.all)
	b.mu.Unlock()

	logger.Debug("[Browser] Server search", "search_text", text, "domain", domain, "results", len(entities))
	return b.View(), nil
}

// View returns the filtered list and the filter inputs.
func (b *Browser) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{
		Entities:   append([]common.Entity{}, b.filtered...),
		Domains:    append([]string{}, b.domains...),
		SearchText: b.searchText,
		Domain:     b.domain,
		Total:      len(b.all),
		Empty:      len(b.filtered) == 0,
	}
	if v.Empty {
		v.EmptyText = EmptyText
	}
	return v
}

// Entities returns the local collection.
func (b *Browser) Entities() []common.Entity {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]common.Entity(nil), b.all...)
}

// Find returns the entity with id from the local collection.
func (b *Browser) Find(id string) (common.Entity, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.all {
		if e.ID == id {
			return e, true
		}
	}
	return common.Entity{}, false
}

// FilterEntities keeps the entities whose name, position or domain contains
// text (case insensitive) and, when domain is set, whose domain equals it.
func FilterEntities(entities []common.Entity, text string, domain string) []common.Entity {
	needle := strings.ToLower(text)
	out := make([]common.Entity, 0, len(entities))
	for _, e := range entities {
		if needle != "" && !matchesText(e, needle) {
			continue
		}
		if domain != "" && e.Domain != domain {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesText(e common.Entity, needle string) bool {
	return strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.Position), needle) ||
		strings.Contains(strings.ToLower(e.Domain), needle)
}

// DistinctDomains returns the non empty domains in first seen order.
func DistinctDomains(entities []common.Entity) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range entities {
		if e.Domain == "" {
			continue
		}
		if _, ok := seen[e.Domain]; ok {
			continue
		}
		seen[e.Domain] = struct{}{}
		out = append(out, e.Domain)
	}
	return out
}
