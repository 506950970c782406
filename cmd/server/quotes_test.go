package main

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/doferlabs/printcost/internal/export"
	"github.com/doferlabs/printcost/internal/pricing"
	"github.com/doferlabs/printcost/internal/store"
)

func TestCost(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/cost", map[string]any{"mass_grams": 100, "waste_percent": 0})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res costResponse
	decode(t, rr, &res)

	want := srv.profile.Parameters
	want.MassGrams = 100
	want.WastePercent = 0
	if res.Params != want {
		t.Fatalf("body must overlay the profile, got %+v", res.Params)
	}
	if res.Breakdown != pricing.Calculate(want) {
		t.Fatalf("unexpected breakdown %+v", res.Breakdown)
	}
}

func TestCost_ValidationFailure(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/cost", map[string]any{"waste_percent": 150, "margin_percent": -1})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	var body errorBody
	decode(t, rr, &body)
	for _, f := range []string{pricing.FieldWastePercent, pricing.FieldMarginPercent} {
		if _, ok := body.Fields[f]; !ok {
			t.Fatalf("expected %s in fields, got %v", f, body.Fields)
		}
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/cost", map[string]any{"weight": 1})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: expected status 400, got %d", rr.Code)
	}
}

func createQuote(t *testing.T, srv *server, req quoteRequest) store.Quote {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/quotes", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var q store.Quote
	decode(t, rr, &q)
	return q
}

func TestQuotes_CreateListAndSearch(t *testing.T) {
	srv := newTestServer(t)
	params := pricing.Defaults()

	createQuote(t, srv, quoteRequest{Title: "Casa", Notes: "impresión roja", Params: params})
	createQuote(t, srv, quoteRequest{Title: "Llaveros", Notes: "cliente vip", Params: params})
	last := createQuote(t, srv, quoteRequest{Title: "Prototipo", Notes: "urgente para casa", Params: params})

	if last.Breakdown != pricing.Calculate(params) {
		t.Fatalf("breakdown must be computed on save, got %+v", last.Breakdown)
	}

	rr := do(t, srv, http.MethodGet, "/api/quotes", nil, nil)
	var all []store.Quote
	decode(t, rr, &all)
	if len(all) != 3 || all[0].Title != "Prototipo" || all[2].Title != "Casa" {
		t.Fatalf("quotes are not sorted newest first: %+v", all)
	}

	rr = do(t, srv, http.MethodGet, "/api/quotes?q=casa", nil, nil)
	var found []store.Quote
	decode(t, rr, &found)
	if len(found) != 2 {
		t.Fatalf("expected 2 quotes filtered by notes/title, got %+v", found)
	}
}

func TestQuotes_InvalidParamsAreNotSaved(t *testing.T) {
	srv := newTestServer(t)
	params := pricing.Defaults()
	params.DurationHours = 0

	rr := doJSON(t, srv, http.MethodPost, "/api/quotes", quoteRequest{Title: "Mala", Params: params})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/quotes", nil, nil)
	if body := bytes.TrimSpace(rr.Body.Bytes()); string(body) != "[]" {
		t.Fatalf("expected no quotes, got %s", body)
	}
}

func TestQuoteDetail_TextAndExport(t *testing.T) {
	srv := newTestServer(t)
	q := createQuote(t, srv, quoteRequest{
		Title:       "Soporte",
		FileName:    "soporte.3mf",
		PrinterName: "Bambu Lab P1S",
		Params:      pricing.Defaults(),
	})

	rr := do(t, srv, http.MethodGet, "/api/quotes/"+q.ID, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/quotes/"+q.ID+"/text", nil, nil)
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}
	body := rr.Body.String()
	for _, expected := range []string{"Cotización: Soporte", "Supuestos:", "Impresora: Bambu Lab P1S", "Total: 264.63 MXN"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}

	rr = do(t, srv, http.MethodGet, "/api/quotes/"+q.ID+"/export.xlsx", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != export.ContentTypeXLSX {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), export.FileName(q)) {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if title, _ := f.GetCellValue(export.SheetName, "B2"); title != "Soporte" {
		t.Fatalf("B2 = %q, want Soporte", title)
	}
}

func TestQuoteDetail_NotFound(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/quotes/missing", "/api/quotes/missing/text", "/api/quotes/missing/export.xlsx"} {
		rr := do(t, srv, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected status 404, got %d", path, rr.Code)
		}
	}
}
