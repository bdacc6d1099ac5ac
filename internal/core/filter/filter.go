// Package filter conditions one y-sequence at a time.
//
// The causal modes (LPF, HPF, DIFF, DIFF2) scan left to right exactly once
// and carry their history in a State owned by that single series. QQ is a
// distribution transform over the whole sequence.
package filter

import (
	"log/slog"
	"strings"
)

// Mode names a signal-conditioning operator.
type Mode string

const (
	ModeNone  Mode = "none"
	ModeLPF   Mode = "LPF"
	ModeHPF   Mode = "HPF"
	ModeDiff  Mode = "DIFF"
	ModeDiff2 Mode = "DIFF2"
	ModeQQ    Mode = "QQ"
)

// Transform maps one raw sample to its output, given the series state
// after the low-pass estimate has absorbed the sample but before the raw
// history has shifted.
type Transform interface {
	Output(s *State, y float64) float64
}

// Transforms is the registry of causal modes.
// ModeQQ is absent: it is not a running scan and goes through QQ instead.
var Transforms = map[Mode]Transform{
	ModeNone:  noneTransform{},
	ModeLPF:   lpfTransform{},
	ModeHPF:   hpfTransform{},
	ModeDiff:  diffTransform{},
	ModeDiff2: diff2Transform{},
}

// ParseMode maps a form value onto a Mode. Matching ignores case; "", "raw"
// and "none" are pass-through. The boolean is false for unknown names, in
// which case ModeNone is returned.
func ParseMode(raw string) (Mode, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "NONE", "RAW":
		return ModeNone, true
	case string(ModeLPF):
		return ModeLPF, true
	case string(ModeHPF):
		return ModeHPF, true
	case string(ModeDiff):
		return ModeDiff, true
	case string(ModeDiff2):
		return ModeDiff2, true
	case string(ModeQQ):
		return ModeQQ, true
	}
	return ModeNone, false
}

// State is the running history of one series.
// The zero value is unseeded; the first numeric sample seeds every field to
// itself so that DIFF and DIFF2 start at zero.
type State struct {
	seeded   bool
	lpf      float64
	last     float64
	lastLast float64
}

// NewState returns a fresh, unseeded state for one series.
func NewState() *State {
	return &State{}
}

// LowPass returns the current low-pass estimate.
func (s *State) LowPass() float64 { return s.lpf }

// Step folds one numeric sample into the state and returns the output of t.
func (s *State) Step(t Transform, alpha, y float64) float64 {
	if !s.seeded {
		s.lpf, s.last, s.lastLast = y, y, y
		s.seeded = true
	}
	s.lpf += alpha * (y - s.lpf)

	out := t.Output(s, y)

	s.lastLast = s.last
	s.last = y
	return out
}

type noneTransform struct{}

func (noneTransform) Output(_ *State, y float64) float64 { return y }

// lpfTransform is exponential smoothing: lpf_i = lpf_{i-1} + a*(y_i - lpf_{i-1}).
type lpfTransform struct{}

func (lpfTransform) Output(s *State, _ float64) float64 { return s.lpf }

// hpfTransform is the complement of the low-pass estimate.
type hpfTransform struct{}

func (hpfTransform) Output(s *State, y float64) float64 { return y - s.lpf }

// diffTransform is the first difference of the raw samples.
type diffTransform struct{}

func (diffTransform) Output(s *State, y float64) float64 { return y - s.last }

// diff2Transform is the second difference of the raw samples.
type diff2Transform struct{}

func (diff2Transform) Output(s *State, y float64) float64 { return y - 2*s.last + s.lastLast }

// ClampAlpha bounds a smoothing coefficient to [0, 1].
func ClampAlpha(alpha float64) float64 {
	switch {
	case alpha != alpha: // NaN
		return 0
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

// Apply runs ys through a causal mode with a fresh State and returns a new
// slice of the same length. Non-numeric values pass through untouched and
// leave the state alone. ModeNone copies the input element for element.
// ModeQQ and unknown modes also pass through; callers route QQ to the QQ
// function.
func Apply(mode Mode, alpha float64, ys []any) []any {
	out := make([]any, len(ys))
	t, ok := Transforms[mode]
	if !ok || mode == ModeNone {
		if !ok && mode != ModeQQ {
			slog.Warn("[Filter] Unsupported filter mode, passing through", "mode", mode)
		}
		copy(out, ys)
		return out
	}

	alpha = ClampAlpha(alpha)
	state := NewState()
	for i, raw := range ys {
		y, numeric := ToFloat(raw)
		if !numeric {
			out[i] = raw
			continue
		}
		out[i] = state.Step(t, alpha, y)
	}
	return out
}
