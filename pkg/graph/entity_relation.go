package graph

import "github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"

// DefaultConfidence is the edge value of an embedded relationship without a
// (non zero) confidence.
const DefaultConfidence = 0.5

// embeddedLinks turns the relationships carried by each entity into links.
// Relationships pointing outside the entity set are dropped.
func embeddedLinks(entities []common.Entity) []Link {
	ids := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		ids[e.ID] = struct{}{}
	}

	var links []Link
	for _, e := range entities {
		for _, rel := range e.Relationships {
			if _, ok := ids[rel.TargetID]; !ok {
				continue
			}
			links = append(links, Link{
				Source:      e.ID,
				Target:      rel.TargetID,
				Type:        rel.Type,
				Description: rel.Description,
				Value:       confidenceValue(rel.Confidence),
			})
		}
	}
	return links
}

func confidenceValue(c *float64) float64 {
	if c == nil || *c == 0 {
		return DefaultConfidence
	}
	return *c
}

// discoveredLinks links the entity named by rel.Source to every other entity
// the description mentions. An unknown source yields nothing.
func (b *Builder) discoveredLinks(entities []common.Entity, rel common.DiscoveredRelationship) []Link {
	if rel.Description == "" {
		return nil
	}
	source, ok := findByName(entities, rel.Source)
	if !ok {
		return nil
	}

	targets := b.resolver.Mentions(rel.Description, source, entities)
	if len(targets) == 0 {
		return nil
	}

	kind, value := b.classifier.Classify(rel.Description)
	links := make([]Link, 0, len(targets))
	for _, t := range targets {
		links = append(links, Link{
			Source:      source.ID,
			Target:      t.ID,
			Type:        kind,
			Description: rel.Description,
			Value:       value,
		})
	}
	return links
}

// findByName returns the first entity whose name equals name exactly.
func findByName(entities []common.Entity, name string) (common.Entity, bool) {
	if name == "" {
		return common.Entity{}, false
	}
	for _, e := range entities {
		if e.Name == name {
			return e, true
		}
	}
	return common.Entity{}, false
}
