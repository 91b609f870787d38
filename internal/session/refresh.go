package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// RefreshSelectedRelationships reloads the embedded relationships of every
// selected entity from the backend, a few entities at a time. The selection
// and the merged collection are only updated when every request succeeded.
func (s *Session) RefreshSelectedRelationships(ctx context.Context) error {
	s.selMu.Lock()
	defer s.selMu.Unlock()

	sel := s.Selection()
	if len(sel.IDs) == 0 {
		return nil
	}

	results := make([][]common.Relationship, len(sel.Entities))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, e := range sel.Entities {
		g.Go(func() error {
			rels, err := s.api.GetEntityRelationships(gCtx, e.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch relationships of %s: %w", e.ID, err)
			}
			results[i] = rels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("[Session] Failed to refresh relationships", "session_id", s.id, "err", err)
		return err
	}

	byID := make(map[string][]common.Relationship, len(sel.Entities))
	for i, e := range sel.Entities {
		sel.Entities[i].Relationships = results[i]
		byID[e.ID] = results[i]
	}

	s.mu.Lock()
	for i, e := range s.entities {
		if rels, ok := byID[e.ID]; ok {
			s.entities[i].Relationships = rels
		}
	}
	s.mu.Unlock()

	logger.Info("[Session] Refreshed relationships", "session_id", s.id, "entities", len(sel.Entities))
	s.SetSelection(sel)
	return nil
}
