// Package search ranks symbols against free-text queries with Okapi BM25,
// boosted by recent session activity. IDF is computed over symbols, not
// files.
package search

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Index is an Okapi BM25 index over symbol documents.
//
// k1 controls term-frequency saturation; b controls document-length
// normalization (0 = none, 1 = full).
type Index struct {
	K1      float64                  `json:"k1"`
	B       float64                  `json:"b"`
	DocIDs  []model.SymbolID         `json:"docIds"`
	DocLens []int                    `json:"docLens"`
	Avgdl   float64                  `json:"avgdl"`
	N       int                      `json:"n"`
	DF      map[string]int           `json:"df"`
	IDF     map[string]float64       `json:"idf"`
	TF      []map[string]int         `json:"tf"`
}

// NewIndex creates an empty index with the given parameters; zero values
// select the defaults.
func NewIndex(k1, b float64) *Index {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &Index{K1: k1, B: b, DF: map[string]int{}, IDF: map[string]float64{}}
}

// DocumentText builds the term stream for one symbol: the identifier (whole
// and split), kind, path components, doc tokens, and decorators.
func DocumentText(sym *model.SymbolRecord) string {
	name := sym.ID.Name()
	parts := []string{
		name,
		strings.Join(Tokenize(name), " "),
		string(sym.Kind),
		strings.Join(Tokenize(sym.ID.Path()), " "),
		sym.Doc,
		strings.Join(sym.Decorators, " "),
	}
	return strings.Join(parts, " ")
}

// Build indexes the documents, replacing any previous state. Documents are
// processed in sorted ID order so the serialized index is deterministic.
func (idx *Index) Build(documents map[model.SymbolID]string) {
	ids := make([]model.SymbolID, 0, len(documents))
	for id := range documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idx.DocIDs = ids
	idx.N = len(ids)
	idx.DF = map[string]int{}
	idx.TF = make([]map[string]int, 0, len(ids))
	idx.DocLens = make([]int, 0, len(ids))

	totalLen := 0
	for _, id := range ids {
		tokens := Tokenize(documents[id])
		idx.DocLens = append(idx.DocLens, len(tokens))
		totalLen += len(tokens)

		tf := map[string]int{}
		for _, tok := range tokens {
			tf[tok]++
		}
		idx.TF = append(idx.TF, tf)
		for term := range tf {
			idx.DF[term]++
		}
	}

	idx.Avgdl = 0
	if idx.N > 0 {
		idx.Avgdl = float64(totalLen) / float64(idx.N)
	}

	idx.IDF = make(map[string]float64, len(idx.DF))
	for term, df := range idx.DF {
		idx.IDF[term] = math.Log((float64(idx.N)-float64(df)+0.5)/(float64(df)+0.5) + 1)
	}
}

// Hit is one scored search result. Boost is the additive session component;
// Score already includes it.
type Hit struct {
	ID    model.SymbolID `json:"id"`
	Score float64        `json:"score"`
	BM25  float64        `json:"bm25"`
	Boost float64        `json:"boost"`
}

// Search scores the query against every document and returns the top max
// hits. boost, when non-nil, maps file paths to a recency weight in [0,1];
// alpha scales the boost relative to the top BM25 score so boosting can
// reorder ties but never dominate.
func (idx *Index) Search(query string, max int, boost map[string]float64, alpha float64) []Hit {
	if idx.N == 0 {
		return nil
	}
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}
	if max <= 0 {
		max = 20
	}

	var hits []Hit
	for i := 0; i < idx.N; i++ {
		score := 0.0
		dl := float64(idx.DocLens[i])
		tf := idx.TF[i]

		for _, term := range queryTokens {
			idf, ok := idx.IDF[term]
			if !ok {
				continue
			}
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			score += idf * (f * (idx.K1 + 1)) / (f + idx.K1*(1-idx.B+idx.B*dl/idx.Avgdl))
		}

		if score > 0 {
			hits = append(hits, Hit{ID: idx.DocIDs[i], Score: score, BM25: score})
		}
	}

	if len(hits) == 0 {
		return nil
	}

	if len(boost) > 0 && alpha > 0 {
		top := 0.0
		for _, h := range hits {
			if h.BM25 > top {
				top = h.BM25
			}
		}
		for i := range hits {
			if w, ok := boost[hits[i].ID.Path()]; ok && w > 0 {
				hits[i].Boost = alpha * top * w
				hits[i].Score += hits[i].Boost
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > max {
		hits = hits[:max]
	}
	return hits
}

// Marshal renders the index for bm25.json.
func (idx *Index) Marshal() ([]byte, error) {
	data, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bm25 index: %w", err)
	}
	return append(data, '\n'), nil
}

// Load reads an index from bm25.json bytes.
func Load(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse bm25 index: %w", err)
	}
	if idx.K1 == 0 {
		idx.K1 = DefaultK1
	}
	if idx.B == 0 {
		idx.B = DefaultB
	}
	if idx.DF == nil {
		idx.DF = map[string]int{}
	}
	if idx.IDF == nil {
		idx.IDF = map[string]float64{}
	}
	return &idx, nil
}
