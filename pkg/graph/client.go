package graph

import "github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"

// Builder derives graphs. It holds no state besides its strategies, so one
// Builder can be shared by every session.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	resolver   MentionResolver
	classifier Classifier
}

// NewBuilderParams defines the strategies a Builder uses.
//
// Resolver finds the entities a discovered relationship mentions; nil means
// SubstringResolver. Classifier decides STRONG or WEAK; nil means the default
// KeywordClassifier.
type NewBuilderParams struct {
	Resolver   MentionResolver
	Classifier Classifier
}

// NewBuilder creates a Builder.
//
// Example:
//
//	b := graph.NewBuilder(graph.NewBuilderParams{})
//	g := b.Build(entities, discovered)
//	view := g.Visible(graph.Toggles{ShowStrong: true})
func NewBuilder(params NewBuilderParams) *Builder {
	b := &Builder{
		resolver:   params.Resolver,
		classifier: params.Classifier,
	}
	if b.resolver == nil {
		b.resolver = SubstringResolver{}
	}
	if b.classifier == nil {
		b.classifier = NewKeywordClassifier()
	}
	return b
}

// Build derives the graph of entities and discovered relationships. Inputs
// are not modified.
func (b *Builder) Build(entities []common.Entity, discovered []common.DiscoveredRelationship) Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(entities)),
		Links: []Link{},
	}
	if len(entities) == 0 {
		return g
	}

	for _, e := range entities {
		g.Nodes = append(g.Nodes, nodeFromEntity(e))
	}

	g.Links = append(g.Links, embeddedLinks(entities)...)
	for _, rel := range discovered {
		g.Links = append(g.Links, b.discoveredLinks(entities, rel)...)
	}
	return g
}

// Build derives a graph with the default strategies.
func Build(entities []common.Entity, discovered []common.DiscoveredRelationship) Graph {
	return defaultBuilder.Build(entities, discovered)
}

var defaultBuilder = NewBuilder(NewBuilderParams{})
