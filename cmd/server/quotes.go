package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doferlabs/printcost/internal/export"
	"github.com/doferlabs/printcost/internal/pricing"
	"github.com/doferlabs/printcost/internal/store"
)

const maxJSONBody = 1 << 20

type costResponse struct {
	Params    pricing.PrintParameters `json:"params"`
	Breakdown pricing.CostBreakdown   `json:"breakdown"`
	Currency  string                  `json:"currency"`
}

type quoteRequest struct {
	Title       string                  `json:"title"`
	Notes       string                  `json:"notes"`
	FileName    string                  `json:"file_name"`
	PrinterName string                  `json:"printer_name"`
	Params      pricing.PrintParameters `json:"params"`
}

// decodeJSON reads a JSON body into v. Fields absent from the body keep the
// values already in v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// computeOr422 prices params and writes the validation failure when there is one.
func (s *server) computeOr422(w http.ResponseWriter, params pricing.PrintParameters) (pricing.CostBreakdown, bool) {
	breakdown, err := pricing.Compute(params)
	if err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "parámetros inválidos", Fields: verr.Fields})
			return pricing.CostBreakdown{}, false
		}
		s.log.Error().Err(err).Msg("compute cost")
		writeError(w, http.StatusInternalServerError, "error al calcular el costo")
		return pricing.CostBreakdown{}, false
	}
	return breakdown, true
}

func (s *server) handleCost(w http.ResponseWriter, r *http.Request) {
	params := s.profile.Parameters
	if err := decodeJSON(w, r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	breakdown, ok := s.computeOr422(w, params)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, costResponse{Params: params, Breakdown: breakdown, Currency: s.profile.Currency})
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	req := quoteRequest{Params: s.profile.Parameters}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	breakdown, ok := s.computeOr422(w, req.Params)
	if !ok {
		return
	}

	q, err := s.store.CreateQuote(r.Context(), store.Quote{
		Title:       req.Title,
		Notes:       req.Notes,
		FileName:    req.FileName,
		PrinterName: req.PrinterName,
		Currency:    s.profile.Currency,
		Params:      req.Params,
		Breakdown:   breakdown,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("create quote")
		writeError(w, http.StatusInternalServerError, "no se pudo guardar la cotización")
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.store.ListQuotes(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.log.Error().Err(err).Msg("list quotes")
		writeError(w, http.StatusInternalServerError, "no se pudieron cargar las cotizaciones")
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

// loadQuote writes the error response itself when the quote cannot be read.
func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (store.Quote, bool) {
	q, err := s.store.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cotización no encontrada")
			return store.Quote{}, false
		}
		s.log.Error().Err(err).Msg("load quote")
		writeError(w, http.StatusInternalServerError, "no se pudo cargar la cotización")
		return store.Quote{}, false
	}
	return q, true
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	if q, ok := s.loadQuote(w, r); ok {
		writeJSON(w, http.StatusOK, q)
	}
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = writeQuoteText(w, q)
}

func (s *server) handleQuoteExport(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteQuote(&buf, q); err != nil {
		s.log.Error().Err(err).Str("quote", q.ID).Msg("export quote")
		writeError(w, http.StatusInternalServerError, "no se pudo exportar la cotización")
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(q)))
	_, _ = w.Write(buf.Bytes())
}

// writeQuoteText renders the stored snapshot; nothing is recalculated.
func writeQuoteText(w io.Writer, q store.Quote) error {
	var b strings.Builder
	p, c, cur := q.Params, q.Breakdown, q.Currency

	title := q.Title
	if title == "" {
		title = "Sin título"
	}
	fmt.Fprintf(&b, "Cotización: %s\n", title)
	fmt.Fprintf(&b, "Fecha: %s\n", q.CreatedAt.Format("2006-01-02 15:04"))
	if q.FileName != "" {
		fmt.Fprintf(&b, "Archivo: %s\n", q.FileName)
	}
	if q.PrinterName != "" {
		fmt.Fprintf(&b, "Impresora: %s\n", q.PrinterName)
	}

	b.WriteString("\nSupuestos:\n")
	fmt.Fprintf(&b, "- Peso: %.2f g (+%.2f%% desperdicio)\n", p.MassGrams, p.WastePercent)
	fmt.Fprintf(&b, "- Filamento: %.2f %s/kg\n", p.PricePerKg, cur)
	fmt.Fprintf(&b, "- Tiempo: %.2f h a %.0f W\n", p.DurationHours, p.PowerWatts)
	fmt.Fprintf(&b, "- Electricidad: %.2f %s/kWh\n", p.PricePerKWh, cur)
	fmt.Fprintf(&b, "- Impresora: %.2f %s, vida útil %.0f h\n", p.PrinterPrice, cur, p.PrinterLifetimeHours)
	fmt.Fprintf(&b, "- Margen: %.2f%%\n", p.MarginPercent)

	b.WriteString("\nDesglose:\n")
	fmt.Fprintf(&b, "- Material: %.2f %s\n", c.MaterialCost, cur)
	fmt.Fprintf(&b, "- Energía: %.2f %s\n", c.EnergyCost, cur)
	fmt.Fprintf(&b, "- Depreciación: %.2f %s\n", c.DepreciationCost, cur)
	fmt.Fprintf(&b, "Costo: %.2f %s\n", c.TotalCost, cur)
	fmt.Fprintf(&b, "Total: %.2f %s\n", c.PriceWithMargin, cur)

	if q.Notes != "" {
		fmt.Fprintf(&b, "\nNotas: %s\n", q.Notes)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
