package search

import (
	"reflect"
	"strings"
	"testing"

	"github.com/flytohub/flyto-indexer/internal/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"useAuthToken", []string{"use", "auth", "token"}},
		{"snake_case_name", []string{"snake", "case", "name"}},
		{"kebab-case-name", []string{"kebab", "case", "name"}},
		{"src/pages/TopUp.vue", []string{"src", "pages", "top", "up", "vue"}},
		{"a b", nil}, // single characters are dropped
		{"", nil},
	}
	for _, tt := range tests {
		if got := Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func sid(path, name string) model.SymbolID {
	return model.MakeSymbolID("app", path, model.KindFunction, name)
}

func TestSearchRanksMatchingDocsFirst(t *testing.T) {
	idx := NewIndex(0, 0)
	idx.Build(map[model.SymbolID]string{
		sid("src/auth.ts", "useAuth"):     "useAuth use auth composable authentication token",
		sid("src/cart.ts", "useCart"):     "useCart use cart composable checkout",
		sid("src/login.ts", "LoginForm"):  "LoginForm login form component auth",
	})

	hits := idx.Search("auth", 10, nil, 0)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	for _, h := range hits {
		if h.BM25 <= 0 {
			t.Errorf("hit %s has non-positive score", h.ID)
		}
		if h.Boost != 0 {
			t.Errorf("hit %s has boost without session data", h.ID)
		}
	}
}

func TestSearchEmptyIndexAndQuery(t *testing.T) {
	idx := NewIndex(0, 0)
	if hits := idx.Search("anything", 10, nil, 0); hits != nil {
		t.Errorf("empty index should return nil, got %v", hits)
	}
	idx.Build(map[model.SymbolID]string{sid("a.ts", "f"): "f function"})
	if hits := idx.Search("", 10, nil, 0); hits != nil {
		t.Errorf("empty query should return nil, got %v", hits)
	}
}

func TestSessionBoostBreaksTie(t *testing.T) {
	// Two symbols with identical documents tie on BM25.
	a := sid("src/a/auth.ts", "auth")
	b := sid("src/b/auth.ts", "auth")
	idx := NewIndex(0, 0)
	idx.Build(map[model.SymbolID]string{
		a: "auth handler",
		b: "auth handler",
	})

	base := idx.Search("auth", 10, nil, 0)
	if len(base) != 2 || base[0].BM25 != base[1].BM25 {
		t.Fatalf("setup should produce a BM25 tie: %+v", base)
	}
	// Without a boost the tie breaks lexicographically: a before b.
	if base[0].ID != a {
		t.Fatalf("lexicographic tie-break broken: %+v", base)
	}

	boosted := idx.Search("auth", 10, map[string]float64{"src/b/auth.ts": 1.0}, 0.2)
	if boosted[0].ID != b {
		t.Errorf("boosted symbol should rank first, got %s", boosted[0].ID)
	}
	if boosted[0].Boost <= 0 {
		t.Error("winning hit should carry a boost breakdown")
	}
}

func TestBoostCannotDominate(t *testing.T) {
	strong := sid("src/auth.ts", "authenticate")
	weak := sid("src/misc.ts", "helper")
	idx := NewIndex(0, 0)
	idx.Build(map[model.SymbolID]string{
		strong: "authenticate auth auth auth login token",
		weak:   "helper util auth",
	})

	hits := idx.Search("auth token", 10, map[string]float64{"src/misc.ts": 1.0}, 0.2)
	if hits[0].ID != strong {
		t.Errorf("a 20%% boost must not override a clear BM25 win: %+v", hits)
	}
}

func TestMarshalLoadRoundTrip(t *testing.T) {
	idx := NewIndex(0, 0)
	idx.Build(map[model.SymbolID]string{
		sid("a.ts", "alpha"): "alpha one two",
		sid("b.ts", "beta"):  "beta two three",
	})

	data, err := idx.Marshal()
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	want := idx.Search("two", 5, nil, 0)
	got := loaded.Search("two", 5, nil, 0)
	if !reflect.DeepEqual(want, got) {
		t.Errorf("loaded index ranks differently: %v vs %v", got, want)
	}

	again, err := loaded.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(data) {
		t.Error("marshal -> load -> marshal should be byte-identical")
	}
}

func TestDocumentTextIncludesKindAndPath(t *testing.T) {
	rec := &model.SymbolRecord{
		ID:         model.MakeSymbolID("app", "src/pages/TopUp.vue", model.KindComponent, "TopUp"),
		Kind:       model.KindComponent,
		Doc:        "wallet top-up page",
		Decorators: []string{"deprecated"},
	}
	text := DocumentText(rec)
	for _, want := range []string{"TopUp", "component", "pages", "wallet", "deprecated"} {
		if !strings.Contains(text, want) {
			t.Errorf("document text missing %q: %q", want, text)
		}
	}
}
