package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/config"
	"github.com/Simplici0/shopfloor/internal/db"
	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/metrics"
	"github.com/Simplici0/shopfloor/internal/migrations"
	"github.com/Simplici0/shopfloor/internal/pricing"
	"github.com/Simplici0/shopfloor/internal/quotes"
	"github.com/Simplici0/shopfloor/internal/seed"
	"github.com/Simplici0/shopfloor/internal/shipments"
	"github.com/Simplici0/shopfloor/internal/store"
)

func newTestServer(t *testing.T, seeded bool) *server {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, config.DriverSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	st := store.New(database, config.DriverSQLite)
	if seeded {
		if _, err := seed.Run(context.Background(), st, seed.Config{}); err != nil {
			t.Fatalf("run seed: %v", err)
		}
	}
	return newServer(st, zap.NewNop(), metrics.New(prometheus.NewRegistry()))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)
	rr := doJSON(t, srv.routes(false), http.MethodGet, "/health", nil)

	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestPricingEndpoints(t *testing.T) {
	h := newTestServer(t, false).routes(false)

	rr := doJSON(t, h, http.MethodPost, "/api/pricing/line", map[string]float64{
		"quantity": 1, "unit_price_net": 1.6, "vat_percent": 27,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("line: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var line pricing.LineTotal
	decodeBody(t, rr, &line)
	if line != (pricing.LineTotal{Net: 2, VAT: 1, Gross: 3}) {
		t.Fatalf("line: unexpected totals %+v", line)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/totals", map[string]float64{
		"materials_gross": 100000, "fees_gross": 20000, "accessories_gross": -5000, "discount_percent": 10,
	})
	var summary pricing.Summary
	decodeBody(t, rr, &summary)
	if summary.Subtotal != 120000 || summary.DiscountAmount != 12000 || summary.FinalTotal != 103000 {
		t.Fatalf("totals: unexpected summary %+v", summary)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/payment", map[string]float64{
		"final_total": 10000, "total_paid": 5000, "candidate_amount": 5002,
	})
	var payment pricing.PaymentResult
	decodeBody(t, rr, &payment)
	if payment.Valid || payment.RemainingBalance != 5000 {
		t.Fatalf("payment: unexpected result %+v", payment)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/lines", map[string]any{
		"lines": []map[string]float64{
			{"quantity": 2, "unit_price_net": 1000, "vat_percent": 27},
			{"quantity": 1, "unit_price_net": -500, "vat_percent": 27},
		},
	})
	var lines linesResponse
	decodeBody(t, rr, &lines)
	if len(lines.Lines) != 2 || lines.Totals != (pricing.LineTotal{Net: 1500, VAT: 405, Gross: 1905}) {
		t.Fatalf("lines: unexpected response %+v", lines)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/margin", map[string]float64{
		"base_price": 1000, "multiplier": 1.5, "vat_percent": 27,
	})
	var margin marginResponse
	decodeBody(t, rr, &margin)
	if margin.Net != 1500 || margin.Gross != 1905 {
		t.Fatalf("margin: unexpected response %+v", margin)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/multiplier", map[string]float64{
		"gross_selling_price": 1905, "base_price": 1000, "vat_percent": 27,
	})
	var mult multiplierResponse
	decodeBody(t, rr, &mult)
	if mult.Multiplier != 1.5 {
		t.Fatalf("multiplier: expected 1.5, got %v", mult.Multiplier)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/pricing/piece", map[string]any{
		"unit": "m2", "length_mm": 2000, "width_mm": 500, "per_unit_price": 8000,
	})
	var piece pieceResponse
	decodeBody(t, rr, &piece)
	if piece.Size != 1 || piece.PiecePrice != 8000 {
		t.Fatalf("piece: unexpected response %+v", piece)
	}
}

func TestPricingRejectsInvalidInput(t *testing.T) {
	h := newTestServer(t, false).routes(false)

	cases := []struct {
		path string
		body any
	}{
		{"/api/pricing/line", map[string]float64{"quantity": -1, "unit_price_net": 100}},
		{"/api/pricing/totals", map[string]float64{"discount_percent": 150}},
		{"/api/pricing/piece", map[string]any{"unit": "ft", "length_mm": 10, "piece_price": 1}},
		{"/api/pricing/piece", map[string]any{"unit": "m", "length_mm": 10}},
	}
	for _, tc := range cases {
		rr := doJSON(t, h, http.MethodPost, tc.path, tc.body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", tc.path, rr.Code, rr.Body.String())
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/pricing/line", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: expected 400, got %d", rr.Code)
	}
}

func TestMachineSuggestion(t *testing.T) {
	h := newTestServer(t, true).routes(false)

	body := map[string]any{
		"panels": []map[string]any{{"material_id": "w1000", "quantity": 40}},
		"pricing_rows": []map[string]any{{
			"material_id": "w1000", "board_width_mm": 2070, "board_length_mm": 2800,
			"boards_used": 2, "usage_percentage": 90, "waste_multi": 1,
		}},
	}

	// 11.592 m² over 40 panels is 0.29 m²/panel.
	rr := doJSON(t, h, http.MethodPost, "/api/machine-suggestion", body)
	var resp suggestionResponse
	decodeBody(t, rr, &resp)
	if !resp.Available || resp.Suggestion.Role != machine.RoleSmallPanel || resp.Threshold != machine.DefaultThreshold {
		t.Fatalf("unexpected suggestion: %+v", resp)
	}

	body["threshold"] = 0.2
	rr = doJSON(t, h, http.MethodPost, "/api/machine-suggestion", body)
	resp = suggestionResponse{}
	decodeBody(t, rr, &resp)
	if !resp.Available || resp.Suggestion.Role != machine.RoleLargePanel || resp.Suggestion.Label != "2" {
		t.Fatalf("unexpected suggestion with explicit threshold: %+v", resp)
	}

	body["machines"] = []map[string]any{{"id": "only", "name": "Egyetlen"}}
	rr = doJSON(t, h, http.MethodPost, "/api/machine-suggestion", body)
	resp = suggestionResponse{}
	decodeBody(t, rr, &resp)
	if resp.Available || resp.Suggestion != nil {
		t.Fatalf("expected no suggestion with a single machine: %+v", resp)
	}
}

func TestThresholdSetting(t *testing.T) {
	h := newTestServer(t, true).routes(false)

	rr := doJSON(t, h, http.MethodPut, "/api/settings/machine-threshold", thresholdBody{Value: 0.5})
	if rr.Code != http.StatusOK {
		t.Fatalf("put threshold: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/api/settings/machine-threshold", nil)
	var got thresholdBody
	decodeBody(t, rr, &got)
	if got.Value != 0.5 {
		t.Fatalf("expected threshold 0.5, got %v", got.Value)
	}

	rr = doJSON(t, h, http.MethodPut, "/api/settings/machine-threshold", thresholdBody{Value: 0})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("zero threshold: expected 400, got %d", rr.Code)
	}
}

func TestMachinesCreateInfersRole(t *testing.T) {
	h := newTestServer(t, false).routes(false)

	for _, req := range []machineRequest{
		{Name: "Holzma 1"},
		{Name: "Gyuri", Comment: "maradékok"},
		{Name: "Holzma 2"},
	} {
		rr := doJSON(t, h, http.MethodPost, "/api/machines", req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create machine %q: expected 201, got %d: %s", req.Name, rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, h, http.MethodGet, "/api/machines", nil)
	var resp machinesResponse
	decodeBody(t, rr, &resp)
	if !resp.Resolved || len(resp.Machines) != 3 {
		t.Fatalf("expected three machines with resolved roles, got %+v", resp)
	}

	want := map[string]machine.Role{
		"Holzma 1": machine.RoleSmallPanel,
		"Gyuri":    machine.RoleSmallOrder,
		"Holzma 2": machine.RoleLargePanel,
	}
	for _, m := range resp.Machines {
		if m.Role != want[m.Name] {
			t.Fatalf("machine %q: expected role %q, got %q", m.Name, want[m.Name], m.Role)
		}
	}

	rr = doJSON(t, h, http.MethodPost, "/api/machines", machineRequest{Name: "X", Role: "huge_panel"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown role: expected 400, got %d", rr.Code)
	}
}

func TestQuoteFlow(t *testing.T) {
	h := newTestServer(t, true).routes(false)

	rr := doJSON(t, h, http.MethodPost, "/api/quotes", quotes.CreateRequest{
		CustomerName: "Nagy Konyha Bt.",
		Materials: []quotes.MaterialRow{{
			MaterialID: "w1000", Quantity: 3, UnitPriceNet: 10000, VATPercent: 27,
			BoardWidthMM: 2070, BoardLengthMM: 2800, BoardsUsed: 0, UsagePercentage: 40,
		}},
		Panels: []quotes.Panel{{MaterialID: "w1000", WidthMM: 400, LengthMM: 500, Quantity: 2}},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create quote: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var q quotes.Quote
	decodeBody(t, rr, &q)
	base := "/api/quotes/" + q.ID

	rr = doJSON(t, h, http.MethodPost, base+"/fees", quotes.LineRequest{Name: "Szabás", Quantity: 1, UnitPriceNet: 2000, VATPercent: 27})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add fee: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, h, http.MethodPost, base+"/accessories", quotes.LineRequest{Name: "Láb", Quantity: 4, UnitPriceNet: 500, VATPercent: 27})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add accessory: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPut, base+"/discount", discountRequest{DiscountPercent: 5})
	if rr.Code != http.StatusOK {
		t.Fatalf("set discount: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	// materials 38100, fee 2540, accessories 2540 -> 43180, 5% off -> 41021
	rr = doJSON(t, h, http.MethodGet, base+"/totals", nil)
	var totals quotes.Totals
	decodeBody(t, rr, &totals)
	if totals.Subtotal != 43180 || totals.FinalTotal != 41021 || totals.PaymentStatus != pricing.PaymentNotPaid {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	rr = doJSON(t, h, http.MethodGet, base+"/machine-suggestion", nil)
	var sugg quoteSuggestionResponse
	decodeBody(t, rr, &sugg)
	if !sugg.Available || sugg.Suggestion.Role != machine.RoleSmallOrder || sugg.Suggestion.Label != "3" {
		t.Fatalf("expected small order suggestion, got %+v", sugg)
	}

	rr = doJSON(t, h, http.MethodPost, base+"/order", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("create order: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPost, base+"/payments", quotes.PaymentRequest{Amount: 50000})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("overpayment: expected 400, got %d", rr.Code)
	}
	rr = doJSON(t, h, http.MethodPost, base+"/payments", quotes.PaymentRequest{Amount: 41021, Method: "transfer"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("payment: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var paid paymentResponse
	decodeBody(t, rr, &paid)
	if paid.Result.NewStatus != pricing.PaymentPaid || paid.Quote.Totals.PaymentStatus != pricing.PaymentPaid {
		t.Fatalf("unexpected payment response: %+v", paid.Result)
	}

	for _, next := range []quotes.Status{quotes.StatusInProduction, quotes.StatusReady} {
		rr = doJSON(t, h, http.MethodPost, base+"/status", statusRequest{Status: next})
		if rr.Code != http.StatusOK {
			t.Fatalf("advance to %s: expected 200, got %d: %s", next, rr.Code, rr.Body.String())
		}
	}

	rr = doJSON(t, h, http.MethodPost, base+"/fees", quotes.LineRequest{Name: "Késői díj", Quantity: 1, UnitPriceNet: 100})
	if rr.Code != http.StatusConflict {
		t.Fatalf("fee on ready order: expected 409, got %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, base+"/breakdown", nil)
	var breakdown breakdownResponse
	decodeBody(t, rr, &breakdown)
	if len(breakdown.Rows) != 3 || breakdown.OrderNumber == "" {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
	if breakdown.Rows[0].Display.UnitPrice != 12700 {
		t.Fatalf("expected material unit price 12700, got %v", breakdown.Rows[0].Display.UnitPrice)
	}

	rr = doJSON(t, h, http.MethodGet, "/api/quotes/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing quote: expected 404, got %d", rr.Code)
	}
}

func TestHandleQuoteTotalsReadsRouteParam(t *testing.T) {
	srv := newTestServer(t, false)

	q, err := srv.quotes.Create(context.Background(), quotes.CreateRequest{
		CustomerName: "Szabó",
		Fees:         []quotes.LineRequest{{Name: "Kiszállítás", Quantity: 1, UnitPriceNet: 10000, VATPercent: 27}},
	})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/"+q.ID+"/totals", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", q.ID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuoteTotals(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected application/json content type, got %q", rr.Header().Get("Content-Type"))
	}
	var totals quotes.Totals
	decodeBody(t, rr, &totals)
	if totals.FeesGross != 12700 || totals.FinalTotal != 12700 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestShipmentEndpoints(t *testing.T) {
	h := newTestServer(t, false).routes(false)

	rr := doJSON(t, h, http.MethodPost, "/api/shipments", shipmentRequest{SupplierName: "Häfele"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create shipment: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var sh shipments.Shipment
	decodeBody(t, rr, &sh)

	path := "/api/shipments/" + sh.ID + "/receive"
	rr = doJSON(t, h, http.MethodPost, path, receiveRequest{Items: []shipments.ReceiveItem{
		{ProductName: "Zsanér", Quantity: 20, PurchasePriceNet: 350, VATPercent: 27},
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("receive: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	sh = shipments.Shipment{}
	decodeBody(t, rr, &sh)
	if sh.Status != shipments.StatusReceived || sh.Totals != (pricing.LineTotal{Net: 7000, VAT: 1890, Gross: 8890}) {
		t.Fatalf("unexpected received shipment: %+v", sh)
	}

	rr = doJSON(t, h, http.MethodPost, path, receiveRequest{Items: []shipments.ReceiveItem{{ProductName: "Csavar", Quantity: 1}}})
	if rr.Code != http.StatusConflict {
		t.Fatalf("second receive: expected 409, got %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodPost, "/api/shipments/missing/receive", receiveRequest{Items: []shipments.ReceiveItem{{ProductName: "Csavar", Quantity: 1}}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing shipment: expected 404, got %d", rr.Code)
	}
}
