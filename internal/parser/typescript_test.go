package parser

import (
	"testing"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

const tsFixture = `import { apiClient } from './client'
import axios from 'axios'
import * as helpers from '../utils/helpers'

/** Formats money values. */
export function formatAmount(value: number): string {
  return helpers.round(value).toFixed(2)
}

export const useWallet = (userId: string) => {
  const balance = formatAmount(0)
  return { balance }
}

export interface WalletState {
  balance: number
}

export type WalletUpdate = Partial<WalletState>

export enum Currency {
  USD,
  EUR,
}

export class WalletStore extends BaseStore implements Resettable {
  topUp(amount: number) {
    return axios.post("/api/wallet/topup", { amount })
  }

  refresh() {
    return fetch("/api/wallet", { method: "GET" })
  }
}
`

func TestTypeScriptSymbols(t *testing.T) {
	res := parseSource(t, lang.TypeScript, "src/stores/wallet.ts", tsFixture)

	fn := findSymbol(res, model.KindFunction, "formatAmount")
	if fn == nil {
		t.Fatal("function formatAmount not extracted")
	}
	if !fn.Record.Exported {
		t.Error("formatAmount should be exported")
	}
	if fn.Record.Doc == "" {
		t.Error("JSDoc above formatAmount should be captured")
	}

	if findSymbol(res, model.KindComposable, "useWallet") == nil {
		t.Error("arrow const useWallet should be a composable")
	}
	if findSymbol(res, model.KindInterface, "WalletState") == nil {
		t.Error("interface WalletState not extracted")
	}
	if findSymbol(res, model.KindType, "WalletUpdate") == nil {
		t.Error("type alias WalletUpdate not extracted")
	}
	if findSymbol(res, model.KindEnum, "Currency") == nil {
		t.Error("enum Currency not extracted")
	}

	cls := findSymbol(res, model.KindClass, "WalletStore")
	if cls == nil {
		t.Fatal("class WalletStore not extracted")
	}
	wantBases := map[string]bool{"BaseStore": false, "Resettable": false}
	for _, base := range cls.Extends {
		wantBases[base] = true
	}
	for base, seen := range wantBases {
		if !seen {
			t.Errorf("missing extends/implements base %q (got %v)", base, cls.Extends)
		}
	}

	if findSymbol(res, model.KindMethod, "WalletStore.topUp") == nil {
		t.Error("method WalletStore.topUp not extracted")
	}
}

func TestTypeScriptImports(t *testing.T) {
	res := parseSource(t, lang.TypeScript, "src/stores/wallet.ts", tsFixture)

	byModule := map[string]model.Import{}
	for _, imp := range res.Imports {
		byModule[imp.Module] = imp
	}
	if imp := byModule["./client"]; len(imp.Names) != 1 || imp.Names[0] != "apiClient" {
		t.Errorf("named import = %+v", imp)
	}
	if imp := byModule["axios"]; len(imp.Names) != 1 || imp.Names[0] != "axios" {
		t.Errorf("default import = %+v", imp)
	}
	if imp := byModule["../utils/helpers"]; imp.Alias != "helpers" {
		t.Errorf("namespace import = %+v", imp)
	}
}

func TestTypeScriptCallSites(t *testing.T) {
	res := parseSource(t, lang.TypeScript, "src/stores/wallet.ts", tsFixture)

	if len(res.Calls) != 2 {
		t.Fatalf("call sites = %+v, want axios.post and fetch", res.Calls)
	}

	byURL := map[string]model.CallSite{}
	for _, c := range res.Calls {
		byURL[c.URLLiteral] = c
	}

	topup, ok := byURL["/api/wallet/topup"]
	if !ok {
		t.Fatal("axios.post call site missing")
	}
	if topup.Method != "POST" {
		t.Errorf("axios.post method = %q", topup.Method)
	}
	if topup.ContainingSymbol.Name() != "WalletStore.topUp" {
		t.Errorf("containing symbol = %s", topup.ContainingSymbol)
	}

	wallet, ok := byURL["/api/wallet"]
	if !ok {
		t.Fatal("fetch call site missing")
	}
	if wallet.Method != "GET" {
		t.Errorf("fetch method = %q", wallet.Method)
	}
}

func TestCallSiteInsideCommentIgnored(t *testing.T) {
	src := `// fetch("/api/fake") lives in a comment
const real = () => fetch("/api/real")
`
	res := parseSource(t, lang.JavaScript, "src/a.js", src)

	for _, c := range res.Calls {
		if c.URLLiteral == "/api/fake" {
			t.Error("call site extracted from a comment")
		}
	}
	if len(res.Calls) != 1 || res.Calls[0].URLLiteral != "/api/real" {
		t.Errorf("calls = %+v, want only /api/real", res.Calls)
	}
}

func TestExpressRouteDeclaration(t *testing.T) {
	src := `const express = require('express')
const app = express()

app.get('/api/users/:id', (req, res) => {
  res.json({ ok: true })
})

app.post('/api/users', createUser)
`
	res := parseSource(t, lang.JavaScript, "server/app.js", src)

	if len(res.Routes) != 2 {
		t.Fatalf("routes = %+v, want 2", res.Routes)
	}
	for _, r := range res.Routes {
		if r.Framework != model.FrameworkExpress {
			t.Errorf("framework = %q, want express", r.Framework)
		}
	}
}

func TestZeroSymbolFileStillParses(t *testing.T) {
	res := parseSource(t, lang.TypeScript, "src/empty.ts", "// only a comment\n")
	if res.ParseError {
		t.Error("comment-only file is not a parse error")
	}
	// The module symbol is always present.
	if len(res.Symbols) != 1 || res.Symbols[0].Record.Kind != model.KindModule {
		t.Errorf("symbols = %+v, want just the module symbol", res.Symbols)
	}
}
