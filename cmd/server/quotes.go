package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/shopfloor/internal/machine"
	"github.com/Simplici0/shopfloor/internal/pricing"
	"github.com/Simplici0/shopfloor/internal/quotes"
)

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quotes.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.quotes.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteTotals(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q.Totals)
}

type breakdownResponse struct {
	QuoteNumber string                `json:"quote_number"`
	OrderNumber string                `json:"order_number,omitempty"`
	Rows        []quotes.BreakdownRow `json:"rows"`
	Totals      quotes.Totals         `json:"totals"`
}

func (s *server) handleQuoteBreakdown(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdownResponse{
		QuoteNumber: q.QuoteNumber,
		OrderNumber: q.OrderNumber,
		Rows:        quotes.Breakdown(q),
		Totals:      q.Totals,
	})
}

func (s *server) handleQuoteAddLine(kind quotes.LineKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quotes.LineRequest
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		q, err := s.quotes.AddLine(r.Context(), chi.URLParam(r, "id"), kind, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

type discountRequest struct {
	DiscountPercent float64 `json:"discount_percent"`
}

func (s *server) handleQuoteDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.quotes.SetDiscount(r.Context(), chi.URLParam(r, "id"), req.DiscountPercent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type paymentResponse struct {
	Quote  *quotes.Quote         `json:"quote"`
	Result pricing.PaymentResult `json:"result"`
}

func (s *server) handleQuotePayment(w http.ResponseWriter, r *http.Request) {
	var req quotes.PaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, result, err := s.quotes.RecordPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Quote: q, Result: result})
}

func (s *server) handleQuoteOrder(w http.ResponseWriter, r *http.Request) {
	q, err := s.quotes.CreateOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type statusRequest struct {
	Status quotes.Status `json:"status"`
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	q, err := s.quotes.Advance(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type quoteSuggestionResponse struct {
	Available  bool                `json:"available"`
	Suggestion *machine.Suggestion `json:"suggestion"`
}

func (s *server) handleQuoteMachineSuggestion(w http.ResponseWriter, r *http.Request) {
	suggestion, ok, err := s.quotes.SuggestMachine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := quoteSuggestionResponse{Available: ok}
	if ok {
		resp.Suggestion = &suggestion
	}
	writeJSON(w, http.StatusOK, resp)
}
