package browser

import (
	"fmt"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// SelectionIntent is the selection the owner should adopt after a toggle.
type SelectionIntent struct {
	IDs      []string        `json:"ids"`
	Entities []common.Entity `json:"entities"`
}

// Contains reports whether id is selected.
func (s SelectionIntent) Contains(id string) bool {
	for _, v := range s.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// SelectedCountText is the summary line under the list.
func SelectedCountText(n int) string {
	return fmt.Sprintf("已选择 %d 个人物实体", n)
}

// Toggle derives the selection that follows checking or unchecking id, given
// the owner's current selection. Checking appends, unchecking removes; order
// is otherwise kept, so a check followed by an uncheck restores current.
// Checking an id that is selected already or not in the local collection
// returns current unchanged.
func (b *Browser) Toggle(id string, checked bool, current SelectionIntent) SelectionIntent {
	next := SelectionIntent{
		IDs:      append([]string{}, current.IDs...),
		Entities: append([]common.Entity{}, current.Entities...),
	}

	if checked {
		if next.Contains(id) {
			return next
		}
		e, ok := b.Find(id)
		if !ok {
			return next
		}
		next.IDs = append(next.IDs, id)
		next.Entities = append(next.Entities, e)
		return next
	}

	ids := next.IDs[:0]
	for _, v := range next.IDs {
		if v != id {
			ids = append(ids, v)
		}
	}
	entities := next.Entities[:0]
	for _, e := range next.Entities {
		if e.ID != id {
			entities = append(entities, e)
		}
	}
	next.IDs = ids
	next.Entities = entities
	return next
}
