package graph

import (
	"strings"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/common"
)

// MentionResolver finds the entities a free text description refers to,
// excluding the source itself.
type MentionResolver interface {
	Mentions(description string, source common.Entity, entities []common.Entity) []common.Entity
}

// SubstringResolver treats an entity as mentioned when its name occurs
// verbatim in the description. Entities sharing the source's name are never
// targets. Short names can produce false positives ("李" in "李四").
type SubstringResolver struct{}

func (SubstringResolver) Mentions(description string, source common.Entity, entities []common.Entity) []common.Entity {
	var out []common.Entity
	for _, e := range entities {
		if e.Name == "" || e.Name == source.Name {
			continue
		}
		if strings.Contains(description, e.Name) {
			out = append(out, e)
		}
	}
	return out
}

// Classifier maps a relationship description to an edge type and weight.
type Classifier interface {
	Classify(description string) (kind string, value float64)
}

// StrongKeywords mark a discovered relationship as STRONG.
var StrongKeywords = []string{"认识", "亲戚", "朋友", "夫妻", "兄弟", "姐妹", "父母", "子女", "同学", "密友"}

// Edge weights of discovered relationships.
const (
	StrongValue = 0.8
	WeakValue   = 0.4
)

// KeywordClassifier marks a description STRONG when it contains any keyword.
type KeywordClassifier struct {
	Keywords []string
}

// NewKeywordClassifier returns a classifier over StrongKeywords.
func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{Keywords: append([]string(nil), StrongKeywords...)}
}

func (k KeywordClassifier) Classify(description string) (string, float64) {
	for _, kw := range k.Keywords {
		if kw != "" && strings.Contains(description, kw) {
			return LinkStrong, StrongValue
		}
	}
	return LinkWeak, WeakValue
}
