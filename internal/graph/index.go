package graph

import (
	"strconv"

	"github.com/attlih/cris-network-tool/internal/domain"
)

type pubKey struct {
	title string
	year  string
}

type publication struct {
	key     pubKey
	authors []string
	seen    map[string]struct{}
}

// publicationIndex groups author names by (title, year) in first-seen order.
type publicationIndex struct {
	order []*publication
	byKey map[pubKey]*publication
}

func newPublicationIndex() *publicationIndex {
	return &publicationIndex{byKey: make(map[pubKey]*publication)}
}

// add records the authors of row r. Rows with an empty title are never
// merged with other rows.
func (idx *publicationIndex) add(r int, title, year string, names []string) {
	key := pubKey{title: title, year: year}
	lookup := key
	if title == "" {
		lookup = pubKey{title: "\x00row" + strconv.Itoa(r), year: year}
	}

	p, ok := idx.byKey[lookup]
	if !ok {
		p = &publication{key: key, seen: make(map[string]struct{})}
		idx.byKey[lookup] = p
		idx.order = append(idx.order, p)
	}
	for _, n := range names {
		if _, dup := p.seen[n]; dup {
			continue
		}
		p.seen[n] = struct{}{}
		p.authors = append(p.authors, n)
	}
}

// edges returns the canonical, deduplicated edges in first-occurrence order.
func (idx *publicationIndex) edges() []domain.Edge {
	out := []domain.Edge{}
	seen := make(map[domain.Edge]struct{})
	for _, p := range idx.order {
		for i := 0; i < len(p.authors); i++ {
			for j := i + 1; j < len(p.authors); j++ {
				e := domain.NewEdge(p.authors[i], p.authors[j], p.key.title, p.key.year)
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				out = append(out, e)
			}
		}
	}
	return out
}

type tally struct {
	counts map[string]int
	order  []string
}

// nodeIndex counts affiliation values per author in first-seen order.
type nodeIndex struct {
	order   []string
	tallies map[string]*tally
}

func newNodeIndex() *nodeIndex {
	return &nodeIndex{tallies: make(map[string]*tally)}
}

// add counts affiliation once for each distinct author of one row. Empty
// affiliation values are not counted.
func (idx *nodeIndex) add(names []string, affiliation string) {
	rowSeen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := rowSeen[n]; dup {
			continue
		}
		rowSeen[n] = struct{}{}

		t, ok := idx.tallies[n]
		if !ok {
			t = &tally{counts: make(map[string]int)}
			idx.tallies[n] = t
			idx.order = append(idx.order, n)
		}
		if affiliation == "" {
			continue
		}
		if _, counted := t.counts[affiliation]; !counted {
			t.order = append(t.order, affiliation)
		}
		t.counts[affiliation]++
	}
}

func (idx *nodeIndex) nodes() []domain.Node {
	out := make([]domain.Node, 0, len(idx.order))
	for _, name := range idx.order {
		out = append(out, domain.Node{
			ID:          name,
			Label:       name,
			Affiliation: idx.tallies[name].mostFrequent(),
		})
	}
	return out
}

// mostFrequent returns the value with the highest count. Ties go to the
// value encountered first.
func (t *tally) mostFrequent() string {
	best, bestCount := "", 0
	for _, v := range t.order {
		if c := t.counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}
