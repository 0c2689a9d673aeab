package learning

import (
	"sort"

	"github.com/supportinsights/support-insights/internal/model"
)

// DefaultSampleLimit is the number of example signal IDs kept per pattern.
const DefaultSampleLimit = 5

type pairKey struct {
	hasPredicted bool
	predicted    string
	actual       string
}

// less orders pairs lexicographically with "no prediction" first.
func (k pairKey) less(o pairKey) bool {
	if k.hasPredicted != o.hasPredicted {
		return !k.hasPredicted
	}
	if k.predicted != o.predicted {
		return k.predicted < o.predicted
	}
	return k.actual < o.actual
}

// Misclassifications groups entries where predicted != actual by pair.
// Results are sorted by count descending, then by pair. Each pattern keeps up
// to sampleLimit distinct example signal IDs in ledger order.
func Misclassifications(history []model.CategorizationFeedback, sampleLimit int) []model.MisclassificationPattern {
	type group struct {
		key     pairKey
		count   int
		seen    map[string]struct{}
		samples []string
	}

	groups := make(map[pairKey]*group)
	for _, fb := range history {
		if fb.WasCorrect() {
			continue
		}
		key := pairKey{
			hasPredicted: fb.PredictedCategory != nil,
			predicted:    fb.Predicted(),
			actual:       fb.ActualCategory,
		}
		g, ok := groups[key]
		if !ok {
			g = &group{key: key, seen: make(map[string]struct{})}
			groups[key] = g
		}
		g.count++
		if _, dup := g.seen[fb.SignalID]; !dup && len(g.samples) < sampleLimit {
			g.seen[fb.SignalID] = struct{}{}
			g.samples = append(g.samples, fb.SignalID)
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].key.less(ordered[j].key)
	})

	patterns := make([]model.MisclassificationPattern, 0, len(ordered))
	for _, g := range ordered {
		p := model.MisclassificationPattern{
			ActualCategory:   g.key.actual,
			Count:            g.count,
			ExampleSignalIDs: append([]string{}, g.samples...),
		}
		if g.key.hasPredicted {
			p.PredictedCategory = model.StringPtr(g.key.predicted)
		}
		patterns = append(patterns, p)
	}
	return patterns
}
