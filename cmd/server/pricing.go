package main

import (
	"fmt"
	"net/http"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/pricing"
)

func (s *server) handlePricingLine(w http.ResponseWriter, r *http.Request) {
	var in pricing.LineInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validateLineInput(in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing.Line(in))
}

type linesRequest struct {
	Lines []pricing.LineInput `json:"lines"`
}

type linesResponse struct {
	Lines  []pricing.LineTotal `json:"lines"`
	Totals pricing.LineTotal   `json:"totals"`
}

func (s *server) handlePricingLines(w http.ResponseWriter, r *http.Request) {
	var req linesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	for i, in := range req.Lines {
		if err := validateLineInput(in); err != nil {
			s.writeError(w, r, fmt.Errorf("line %d: %w", i, err))
			return
		}
	}

	lines, totals := pricing.SumLines(req.Lines)
	writeJSON(w, http.StatusOK, linesResponse{Lines: lines, Totals: totals})
}

func (s *server) handlePricingTotals(w http.ResponseWriter, r *http.Request) {
	var in pricing.Aggregate
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPercent(in.DiscountPercent, "discount_percent"); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing.ApplyDiscount(in))
}

func (s *server) handlePricingPayment(w http.ResponseWriter, r *http.Request) {
	var in pricing.PaymentInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricing.EvaluatePayment(in))
}

type marginRequest struct {
	BasePrice  float64 `json:"base_price"`
	Multiplier float64 `json:"multiplier"`
	VATPercent float64 `json:"vat_percent"`
}

type marginResponse struct {
	Net   int64 `json:"net"`
	Gross int64 `json:"gross"`
}

func (s *server) handlePricingMargin(w http.ResponseWriter, r *http.Request) {
	var req marginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkNonNegative(req.BasePrice, "base_price"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPercent(req.VATPercent, "vat_percent"); err != nil {
		s.writeError(w, r, err)
		return
	}

	net, gross := pricing.ApplyMultiplier(req.BasePrice, req.Multiplier, req.VATPercent)
	writeJSON(w, http.StatusOK, marginResponse{Net: net, Gross: gross})
}

type multiplierRequest struct {
	GrossSellingPrice float64 `json:"gross_selling_price"`
	BasePrice         float64 `json:"base_price"`
	VATPercent        float64 `json:"vat_percent"`
}

type multiplierResponse struct {
	Multiplier float64 `json:"multiplier"`
}

func (s *server) handlePricingMultiplier(w http.ResponseWriter, r *http.Request) {
	var req multiplierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkPercent(req.VATPercent, "vat_percent"); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, multiplierResponse{
		Multiplier: pricing.MultiplierFromGross(req.GrossSellingPrice, req.BasePrice, req.VATPercent),
	})
}

type pieceRequest struct {
	Unit         string   `json:"unit"`
	LengthMM     float64  `json:"length_mm"`
	WidthMM      float64  `json:"width_mm"`
	PerUnitPrice *float64 `json:"per_unit_price"`
	PiecePrice   *float64 `json:"piece_price"`
}

type pieceResponse struct {
	Unit         string  `json:"unit"`
	Size         float64 `json:"size"`
	PerUnitPrice float64 `json:"per_unit_price"`
	PiecePrice   float64 `json:"piece_price"`
}

// handlePricingPiece converts between a per m² (boards) or per m (edging)
// price and the price of one piece. Exactly one of the prices is given.
func (s *server) handlePricingPiece(w http.ResponseWriter, r *http.Request) {
	var req pieceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkNonNegative(req.LengthMM, "length_mm"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := checkNonNegative(req.WidthMM, "width_mm"); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := pieceResponse{Unit: req.Unit}
	switch req.Unit {
	case "m2":
		resp.Size = pricing.PieceAreaM2(req.LengthMM, req.WidthMM)
	case "m":
		resp.Size = pricing.PieceLengthM(req.LengthMM)
	default:
		s.writeError(w, r, fmt.Errorf("%w: unit must be m2 or m", errBadRequest))
		return
	}

	switch {
	case req.PerUnitPrice != nil && req.PiecePrice == nil:
		resp.PerUnitPrice = *req.PerUnitPrice
		resp.PiecePrice = pricing.PiecePrice(*req.PerUnitPrice, resp.Size)
	case req.PiecePrice != nil && req.PerUnitPrice == nil:
		resp.PiecePrice = *req.PiecePrice
		resp.PerUnitPrice = pricing.PerUnitPrice(*req.PiecePrice, resp.Size)
	default:
		s.writeError(w, r, fmt.Errorf("%w: exactly one of per_unit_price and piece_price is required", errBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type suggestionRequest struct {
	machine.Input
	Threshold *float64 `json:"threshold"`
}

type suggestionResponse struct {
	Available  bool                `json:"available"`
	Threshold  float64             `json:"threshold"`
	Suggestion *machine.Suggestion `json:"suggestion"`
}

// handleMachineSuggestion classifies ad hoc input. Machines and threshold
// come from the store when the request leaves them out.
func (s *server) handleMachineSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if len(req.Machines) == 0 {
		machines, err := s.store.ListMachines(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Machines = machines
	}

	var threshold float64
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: threshold must be positive", errBadRequest))
			return
		}
	} else {
		threshold = s.threshold.Threshold(r.Context())
	}

	suggestion, ok := machine.Suggest(req.Input, threshold)
	resp := suggestionResponse{Available: ok, Threshold: threshold}
	if ok {
		resp.Suggestion = &suggestion
		s.metrics.MachineSuggested(string(suggestion.Role))
	}
	writeJSON(w, http.StatusOK, resp)
}

func validateLineInput(in pricing.LineInput) error {
	if err := checkNonNegative(in.Quantity, "quantity"); err != nil {
		return err
	}
	return checkPercent(in.VATPercent, "vat_percent")
}
