// Package settings reads tunable values that operators change at runtime.
package settings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/Simplici0/shopfloor/internal/machine"
)

// MachineThresholdKey is the key of the classifier threshold setting.
const MachineThresholdKey = "machine_threshold"

// ErrNotFound is returned by a Source when the setting has never been stored.
var ErrNotFound = errors.New("setting not found")

// ErrInvalidThreshold is returned when a threshold is not a positive number.
var ErrInvalidThreshold = errors.New("threshold must be a positive number")

// Source is the persisted store of numeric settings.
type Source interface {
	GetSetting(ctx context.Context, key string) (float64, error)
	SetSetting(ctx context.Context, key string, value float64) error
}

// FallbackRecorder is notified when a fetch fails and a fallback is used.
type FallbackRecorder interface {
	ThresholdFallback()
}

// Reader fetches the classifier threshold fresh on every call and falls
// back to the last value it saw, or machine.DefaultThreshold, when the
// fetch fails.
type Reader struct {
	source  Source
	log     *zap.Logger
	metrics FallbackRecorder

	mu        sync.Mutex
	lastKnown float64
}

// NewReader creates a Reader. metrics may be nil.
func NewReader(source Source, log *zap.Logger, metrics FallbackRecorder) *Reader {
	return &Reader{source: source, log: log, metrics: metrics, lastKnown: machine.DefaultThreshold}
}

// Threshold returns the current threshold. It never fails.
func (r *Reader) Threshold(ctx context.Context) float64 {
	value, err := r.source.GetSetting(ctx, MachineThresholdKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return machine.DefaultThreshold
	case err != nil:
		fallback := r.last()
		r.log.Warn("fetch machine threshold failed, using fallback",
			zap.Error(err),
			zap.Float64("fallback", fallback),
		)
		if r.metrics != nil {
			r.metrics.ThresholdFallback()
		}
		return fallback
	case !validThreshold(value):
		return machine.DefaultThreshold
	}

	r.mu.Lock()
	r.lastKnown = value
	r.mu.Unlock()
	return value
}

// SetThreshold validates and stores a new threshold.
func (r *Reader) SetThreshold(ctx context.Context, value float64) error {
	if !validThreshold(value) {
		return ErrInvalidThreshold
	}
	if err := r.source.SetSetting(ctx, MachineThresholdKey, value); err != nil {
		return fmt.Errorf("store machine threshold: %w", err)
	}

	r.mu.Lock()
	r.lastKnown = value
	r.mu.Unlock()
	return nil
}

func (r *Reader) last() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastKnown
}

func validThreshold(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
