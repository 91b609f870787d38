package graph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

func conf(v float64) *float64 { return &v }

func testEntities() []common.Entity {
	return []common.Entity{
		{ID: "a", Name: "张三", Gender: "男", Domain: "物理", Position: "教授", Relationships: []common.Relationship{
			{TargetID: "b", Type: "同事", Description: "同一实验室", Confidence: conf(0.9)},
			{TargetID: "missing", Type: "朋友"},
		}},
		{ID: "b", Name: "李四", Gender: "女", Relationships: []common.Relationship{
			{TargetID: "a", Type: "同事", Confidence: conf(0)},
		}},
		{ID: "c", Name: "王五"},
	}
}

func TestBuildNodesUseDefaults(t *testing.T) {
	g := Build(testEntities(), nil)

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, Node{ID: "a", Name: "张三", Domain: "物理", Position: "教授", Gender: "男", Country: UnknownCountry, Val: 1}, g.Nodes[0])
	assert.Equal(t, Node{ID: "c", Name: "王五", Domain: UnknownDomain, Position: UnknownPosition, Gender: UnknownGender, Country: UnknownCountry, Val: 1}, g.Nodes[2])
}

func TestBuildEmbeddedLinks(t *testing.T) {
	g := Build(testEntities(), nil)

	want := []Link{
		{Source: "a", Target: "b", Type: "同事", Description: "同一实验室", Value: 0.9},
		{Source: "b", Target: "a", Type: "同事", Value: DefaultConfidence},
	}
	if diff := cmp.Diff(want, g.Links); diff != "" {
		t.Fatalf("links mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDiscoveredLinks(t *testing.T) {
	tests := []struct {
		name string
		rel  common.DiscoveredRelationship
		want []Link
	}{
		{
			name: "strong keyword",
			rel:  common.DiscoveredRelationship{Source: "张三", Description: "张三和李四是大学同学"},
			want: []Link{{Source: "a", Target: "b", Type: LinkStrong, Description: "张三和李四是大学同学", Value: StrongValue}},
		},
		{
			name: "weak without keyword, several targets",
			rel:  common.DiscoveredRelationship{Source: "李四", Description: "李四曾与张三、王五合作发表论文"},
			want: []Link{
				{Source: "b", Target: "a", Type: LinkWeak, Description: "李四曾与张三、王五合作发表论文", Value: WeakValue},
				{Source: "b", Target: "c", Type: LinkWeak, Description: "李四曾与张三、王五合作发表论文", Value: WeakValue},
			},
		},
		{
			name: "unknown source",
			rel:  common.DiscoveredRelationship{Source: "赵六", Description: "赵六认识张三"},
		},
		{
			name: "no mention",
			rel:  common.DiscoveredRelationship{Source: "张三", Description: "张三是物理学家"},
		},
		{
			name: "empty description",
			rel:  common.DiscoveredRelationship{Source: "张三"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := testEntities()
			for i := range entities {
				entities[i].Relationships = nil
			}

			g := Build(entities, []common.DiscoveredRelationship{tt.rel})
			if diff := cmp.Diff(tt.want, g.Links, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("links mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildEmptyEntities(t *testing.T) {
	g := Build(nil, []common.DiscoveredRelationship{{Source: "张三", Description: "张三认识李四"}})
	assert.True(t, g.IsEmpty())
	assert.Empty(t, g.Links)
	assert.NotNil(t, g.Nodes)
}

func TestBuildIsPure(t *testing.T) {
	entities := testEntities()
	discovered := []common.DiscoveredRelationship{{Source: "张三", Description: "张三和王五是朋友"}}

	first := Build(entities, discovered)
	second := Build(entities, discovered)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("build is not deterministic:\n%s", diff)
	}
	if diff := cmp.Diff(testEntities(), entities); diff != "" {
		t.Fatalf("inputs were modified:\n%s", diff)
	}
}

func TestVisible(t *testing.T) {
	entities := testEntities()
	discovered := []common.DiscoveredRelationship{
		{Source: "张三", Description: "张三和王五是朋友"},
		{Source: "王五", Description: "王五听说过李四"},
	}
	g := Build(entities, discovered)
	require.Len(t, g.Links, 4)

	tests := []struct {
		name      string
		toggles   Toggles
		wantTypes []string
	}{
		{name: "all", toggles: DefaultToggles(), wantTypes: []string{"同事", "同事", LinkStrong, LinkWeak}},
		{name: "strong only", toggles: Toggles{ShowStrong: true}, wantTypes: []string{"同事", "同事", LinkStrong}},
		{name: "weak only", toggles: Toggles{ShowWeak: true}, wantTypes: []string{"同事", "同事", LinkWeak}},
		{name: "none", toggles: Toggles{}, wantTypes: []string{"同事", "同事"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := g.Visible(tt.toggles)
			var types []string
			for _, l := range view.Links {
				types = append(types, l.Type)
			}
			assert.Equal(t, tt.wantTypes, types)
			assert.Len(t, view.Nodes, 3)
			assert.Len(t, g.Links, 4, "visible must not change the built graph")
		})
	}
}

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	for _, kw := range StrongKeywords {
		kind, value := c.Classify("他们是" + kw)
		assert.Equal(t, LinkStrong, kind, kw)
		assert.Equal(t, StrongValue, value, kw)
	}
	kind, value := c.Classify("两人共同参与了一个项目")
	assert.Equal(t, LinkWeak, kind)
	assert.Equal(t, WeakValue, value)
}

type fixedResolver struct{ ids []string }

func (f fixedResolver) Mentions(_ string, _ common.Entity, entities []common.Entity) []common.Entity {
	var out []common.Entity
	for _, e := range entities {
		for _, id := range f.ids {
			if e.ID == id {
				out = append(out, e)
			}
		}
	}
	return out
}

func TestBuilderCustomResolver(t *testing.T) {
	b := NewBuilder(NewBuilderParams{Resolver: fixedResolver{ids: []string{"c"}}})
	entities := testEntities()[:3]
	for i := range entities {
		entities[i].Relationships = nil
	}

	g := b.Build(entities, []common.DiscoveredRelationship{{Source: "张三", Description: "某位老朋友"}})
	require.Len(t, g.Links, 1)
	assert.Equal(t, "c", g.Links[0].Target)
	assert.Equal(t, LinkStrong, g.Links[0].Type)
}

func TestNewRender(t *testing.T) {
	g := Build(testEntities(), []common.DiscoveredRelationship{{Source: "张三", Description: "张三和王五是朋友"}})
	r := NewRender(g, DefaultToggles())

	require.Len(t, r.Nodes, 3)
	assert.Equal(t, ColorOther, r.Nodes[0].Color)
	assert.Equal(t, ColorFemale, r.Nodes[1].Color)
	assert.Equal(t, "张三 (教授, 物理)", r.Nodes[0].Label)
	assert.Equal(t, "王五 (未知职位, 未知领域)", r.Nodes[2].Label)

	require.Len(t, r.Links, 3)
	strong := r.Links[2]
	assert.Equal(t, ColorStrong, strong.Color)
	assert.InDelta(t, 2.4, strong.Width, 1e-9)
	assert.InDelta(t, 1.6, strong.ParticleWidth, 1e-9)
	assert.Equal(t, 2, strong.Particles)
	assert.Equal(t, "张三和王五是朋友", strong.Label)
	assert.Equal(t, ColorWeak, r.Links[1].Color)
	assert.Equal(t, "同事", r.Links[1].Type)

	assert.Equal(t, 400, r.Layout.ZoomToFitMs)
	assert.Equal(t, 100, r.Layout.CooldownTicks)
	assert.False(t, r.Empty)
}

func TestNewRenderEmpty(t *testing.T) {
	r := NewRender(Build(nil, nil), DefaultToggles())
	assert.True(t, r.Empty)
	assert.Equal(t, EmptyText, r.EmptyText)
	assert.NotNil(t, r.Nodes)
	assert.NotNil(t, r.Links)
}

func TestRenderGraph(t *testing.T) {
	g := Build(testEntities(), []common.DiscoveredRelationship{{Source: "张三", Description: "张三和王五是朋友"}})

	got := NewRender(g, DefaultToggles()).Graph()
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("Render.Graph() mismatch (-want +got):\n%s", diff)
	}

	hidden := NewRender(g, Toggles{ShowStrong: false, ShowWeak: true}).Graph()
	assert.Equal(t, g.Visible(Toggles{ShowWeak: true}), hidden)
}

func TestLinkLabelFallback(t *testing.T) {
	assert.Equal(t, "强关系", LinkLabel(Link{Type: LinkStrong}))
	assert.Equal(t, "弱关系", LinkLabel(Link{Type: LinkWeak}))
	assert.Equal(t, "弱关系", LinkLabel(Link{Type: "同事"}))
}

func TestToDOT(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "a", Name: `张"三`, Position: "教授", Domain: "物理", Gender: "女"},
			{ID: "b", Name: "李四", Position: UnknownPosition, Domain: UnknownDomain},
		},
		Links: []Link{{Source: "a", Target: "b", Type: LinkStrong, Value: 0.8}},
	}

	dot := g.ToDOT()
	assert.True(t, strings.HasPrefix(dot, "digraph Relationships {\n"))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	assert.Contains(t, dot, `"a" [label="张\"三\n教授\n物理", fillcolor="#ff6b81"];`)
	assert.Contains(t, dot, `"a" -> "b" [label="STRONG", color="red", penwidth=2.40];`)
}
