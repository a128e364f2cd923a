package parser

import (
	"testing"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

const goFixture = `package wallet

import (
	"fmt"
	db "example.com/app/internal/database"
)

const DefaultLimit = 100

// Store keeps wallet balances.
type Store struct {
	limit int
}

// Notifier is implemented by alerting sinks.
type Notifier interface {
	Notify(msg string) error
}

// NewStore builds a Store.
func NewStore() *Store {
	return &Store{limit: DefaultLimit}
}

func (s *Store) TopUp(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("bad amount")
	}
	return db.Save(amount)
}

func (s *Store) internalReset() {}
`

func TestGoSymbols(t *testing.T) {
	res := parseSource(t, lang.Go, "internal/wallet/store.go", goFixture)

	st := findSymbol(res, model.KindStruct, "Store")
	if st == nil {
		t.Fatal("struct Store not extracted")
	}
	if st.Record.Doc == "" {
		t.Error("doc comment above Store should be captured")
	}
	if !st.Record.Exported {
		t.Error("Store is exported")
	}

	if findSymbol(res, model.KindInterface, "Notifier") == nil {
		t.Error("interface Notifier not extracted")
	}
	if findSymbol(res, model.KindConstant, "DefaultLimit") == nil {
		t.Error("package-level const not extracted")
	}
	if findSymbol(res, model.KindFunction, "NewStore") == nil {
		t.Error("top-level func not extracted")
	}

	method := findSymbol(res, model.KindMethod, "Store.TopUp")
	if method == nil {
		t.Fatal("method with receiver not extracted as Store.TopUp")
	}
	if !method.Record.Exported {
		t.Error("TopUp is exported")
	}
	if m := findSymbol(res, model.KindMethod, "Store.internalReset"); m == nil || m.Record.Exported {
		t.Error("internalReset should be extracted but unexported")
	}
}

func TestGoImports(t *testing.T) {
	res := parseSource(t, lang.Go, "internal/wallet/store.go", goFixture)

	byModule := map[string]model.Import{}
	for _, imp := range res.Imports {
		byModule[imp.Module] = imp
	}
	if imp, ok := byModule["fmt"]; !ok || imp.Names[0] != "fmt" {
		t.Errorf("plain import = %+v", imp)
	}
	if imp, ok := byModule["example.com/app/internal/database"]; !ok || imp.Alias != "db" {
		t.Errorf("aliased import = %+v", imp)
	}
}

func TestGoRefs(t *testing.T) {
	res := parseSource(t, lang.Go, "internal/wallet/store.go", goFixture)

	ctor := findSymbol(res, model.KindFunction, "NewStore")
	var sawConst bool
	for _, name := range ctor.Record.RefsOut {
		if name == "DefaultLimit" {
			sawConst = true
		}
	}
	if !sawConst {
		t.Errorf("NewStore should reference DefaultLimit: %v", ctor.Record.RefsOut)
	}

	method := findSymbol(res, model.KindMethod, "Store.TopUp")
	var sawDotted bool
	for _, name := range method.Record.CallsOut {
		if name == "db.Save" {
			sawDotted = true
		}
	}
	if !sawDotted {
		t.Errorf("TopUp should call db.Save: %v", method.Record.CallsOut)
	}
}
