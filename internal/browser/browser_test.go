package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

func sampleEntities() []common.Entity {
	return []common.Entity{
		{ID: "e1", Name: "Alice", Domain: "Physics", Position: "Professor"},
		{ID: "e2", Name: "Bob", Domain: "Chemistry", Position: "Lecturer"},
		{ID: "e3", Name: "张三", Domain: "Physics", Position: "研究员"},
		{ID: "e4", Name: "Carol"},
	}
}

func ids(entities []common.Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}

func TestFilterEntities(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		domain string
		want   []string
	}{
		{name: "no filters", want: []string{"e1", "e2", "e3", "e4"}},
		{name: "name case insensitive", text: "aLiCe", want: []string{"e1"}},
		{name: "position", text: "lect", want: []string{"e2"}},
		{name: "domain substring", text: "phys", want: []string{"e1", "e3"}},
		{name: "chinese", text: "研究", want: []string{"e3"}},
		{name: "domain exact", domain: "Physics", want: []string{"e1", "e3"}},
		{name: "domain is exact not substring", domain: "Phys", want: []string{}},
		{name: "text and domain", text: "张", domain: "Physics", want: []string{"e3"}},
		{name: "no match", text: "zzz", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterEntities(sampleEntities(), tt.text, tt.domain)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestDistinctDomains(t *testing.T) {
	assert.Equal(t, []string{"Physics", "Chemistry"}, DistinctDomains(sampleEntities()))
	assert.Nil(t, DistinctDomains(nil))
}

func TestSetEntitiesIgnoresEmpty(t *testing.T) {
	b := New(nil)
	b.SetEntities(sampleEntities())
	b.SetEntities(nil)
	b.SetEntities([]common.Entity{})

	v := b.View()
	assert.Len(t, v.Entities, 4)
	assert.Equal(t, 4, v.Total)
	assert.False(t, v.Empty)
	assert.Equal(t, []string{"Physics", "Chemistry"}, v.Domains)
}

func TestApplyFilters(t *testing.T) {
	b := New(nil)
	b.SetEntities(sampleEntities())

	b.SetSearchText("zzz")
	assert.Len(t, b.View().Entities, 4, "filters apply on demand")

	v := b.ApplyFilters()
	assert.True(t, v.Empty)
	assert.Equal(t, EmptyText, v.EmptyText)
	assert.NotNil(t, v.Entities)

	b.SetSearchText("")
	b.SetDomain("Chemistry")
	v = b.ApplyFilters()
	assert.Equal(t, []string{"e2"}, ids(v.Entities))
	assert.Equal(t, 4, v.Total)

	// a new batch keeps the active filters
	b.SetEntities(append(sampleEntities(), common.Entity{ID: "e5", Name: "Dave", Domain: "Chemistry"}))
	assert.Equal(t, []string{"e2", "e5"}, ids(b.View().Entities))
}

func TestEmptyBrowser(t *testing.T) {
	v := New(nil).View()
	assert.True(t, v.Empty)
	assert.Equal(t, EmptyText, v.EmptyText)
	assert.Empty(t, v.Domains)
}

type fakeSearcher struct {
	gotText, gotDomain string
	result             []common.Entity
	err                error
}

func (f *fakeSearcher) ListEntities(_ context.Context, text, domain string) ([]common.Entity, error) {
	f.gotText, f.gotDomain = text, domain
	return f.result, f.err
}

func TestServerSearch(t *testing.T) {
	fake := &fakeSearcher{result: []common.Entity{{ID: "s1", Name: "Erin", Domain: "Biology"}}}
	b := New(fake)
	b.SetEntities(sampleEntities())
	b.SetSearchText("erin")
	b.SetDomain("Biology")

	v, err := b.ServerSearch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "erin", fake.gotText)
	assert.Equal(t, "Biology", fake.gotDomain)
	assert.Equal(t, []string{"s1"}, ids(v.Entities))
	assert.Equal(t, []string{"Biology"}, v.Domains)
	assert.Equal(t, 1, v.Total)
}

func TestServerSearchError(t *testing.T) {
	fake := &fakeSearcher{err: errors.New("backend down")}
	b := New(fake)
	b.SetEntities(sampleEntities())

	v, err := b.ServerSearch(context.Background())
	require.Error(t, err)
	assert.Len(t, v.Entities, 4, "collection untouched on error")
}

func TestServerSearchWithoutAPI(t *testing.T) {
	_, err := New(nil).ServerSearch(context.Background())
	require.Error(t, err)
}

func TestToggle(t *testing.T) {
	b := New(nil)
	b.SetEntities(sampleEntities())

	start := SelectionIntent{IDs: []string{"e3"}, Entities: []common.Entity{sampleEntities()[2]}}

	checked := b.Toggle("e1", true, start)
	assert.Equal(t, []string{"e3", "e1"}, checked.IDs)
	assert.Equal(t, []string{"e3", "e1"}, ids(checked.Entities))
	assert.Equal(t, []string{"e3"}, start.IDs, "current selection is not modified")

	unchecked := b.Toggle("e1", false, checked)
	assert.Equal(t, start, unchecked)

	again := b.Toggle("e3", true, start)
	assert.Equal(t, start, again, "checking a selected id is a no-op")

	unknown := b.Toggle("nope", true, start)
	assert.Equal(t, start, unknown)

	empty := b.Toggle("e3", false, start)
	assert.Empty(t, empty.IDs)
	assert.Empty(t, empty.Entities)
}

func TestSelectedCountText(t *testing.T) {
	assert.Equal(t, "已选择 3 个人物实体", SelectedCountText(3))
}
