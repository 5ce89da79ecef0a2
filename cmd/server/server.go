package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/metrics"
	"github.com/Simplici0/shopfloor/internal/quotes"
	"github.com/Simplici0/shopfloor/internal/settings"
	"github.com/Simplici0/shopfloor/internal/shipments"
	"github.com/Simplici0/shopfloor/internal/store"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type server struct {
	log       *zap.Logger
	store     *store.Store
	metrics   *metrics.Metrics
	threshold *settings.Reader
	quotes    *quotes.Service
	shipments *shipments.Service
	now       func() time.Time
}

func newServer(st *store.Store, log *zap.Logger, m *metrics.Metrics) *server {
	reader := settings.NewReader(st, log, m)
	return &server{
		log:       log,
		store:     st,
		metrics:   m,
		threshold: reader,
		quotes:    quotes.NewService(st, st, reader, log, m),
		shipments: shipments.NewService(st, log),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *server) routes(exposeMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	if exposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/pricing", func(r chi.Router) {
			r.Post("/line", s.handlePricingLine)
			r.Post("/lines", s.handlePricingLines)
			r.Post("/totals", s.handlePricingTotals)
			r.Post("/payment", s.handlePricingPayment)
			r.Post("/margin", s.handlePricingMargin)
			r.Post("/multiplier", s.handlePricingMultiplier)
			r.Post("/piece", s.handlePricingPiece)
		})
		r.Post("/machine-suggestion", s.handleMachineSuggestion)

		r.Get("/settings/machine-threshold", s.handleThresholdGet)
		r.Put("/settings/machine-threshold", s.handleThresholdPut)

		r.Get("/machines", s.handleMachinesList)
		r.Post("/machines", s.handleMachinesCreate)

		r.Post("/quotes", s.handleQuoteCreate)
		r.Route("/quotes/{id}", func(r chi.Router) {
			r.Get("/", s.handleQuoteGet)
			r.Get("/totals", s.handleQuoteTotals)
			r.Get("/breakdown", s.handleQuoteBreakdown)
			r.Post("/fees", s.handleQuoteAddLine(quotes.LineFee))
			r.Post("/accessories", s.handleQuoteAddLine(quotes.LineAccessory))
			r.Put("/discount", s.handleQuoteDiscount)
			r.Post("/payments", s.handleQuotePayment)
			r.Post("/order", s.handleQuoteOrder)
			r.Post("/status", s.handleQuoteStatus)
			r.Get("/machine-suggestion", s.handleQuoteMachineSuggestion)
		})

		r.Post("/shipments", s.handleShipmentCreate)
		r.Post("/shipments/{id}/receive", s.handleShipmentReceive)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, quotes.ErrNotFound), errors.Is(err, shipments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, quotes.ErrQuoteLocked),
		errors.Is(err, quotes.ErrInvalidTransition),
		errors.Is(err, shipments.ErrAlreadyReceived):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, quotes.ErrInvalidLine),
		errors.Is(err, quotes.ErrInvalidDiscount),
		errors.Is(err, quotes.ErrZeroPayment),
		errors.Is(err, quotes.ErrPaymentExceedsBalance),
		errors.Is(err, quotes.ErrRefundExceedsPaid),
		errors.Is(err, shipments.ErrInvalidItem),
		errors.Is(err, settings.ErrInvalidThreshold):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func checkNonNegative(value float64, field string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be numeric", errBadRequest, field)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s must be greater than or equal to 0", errBadRequest, field)
	}
	return nil
}

func checkPercent(value float64, field string) error {
	if err := checkNonNegative(value, field); err != nil {
		return err
	}
	if value > 100 {
		return fmt.Errorf("%w: %s must be between 0 and 100", errBadRequest, field)
	}
	return nil
}
