package oracle

import (
	"github.com/mohtashimnawaz/prediction/internal/apperr"
)

// Observation is a value reported by an external feed and the unix time it was observed.
type Observation struct {
	Value      int64 `json:"value"`
	ObservedAt int64 `json:"observed_at"`
}

// Expect fails with ErrWrongResolutionPath unless the spec resolves through p.
func (s Spec) Expect(p Path) error {
	if s.Path() != p {
		return apperr.ErrWrongResolutionPath
	}
	return nil
}

// Evaluate checks freshness against now and compares the observation with the
// target. The returned Price has the observed value recorded as its strike.
func (p Price) Evaluate(obs Observation, now, maxStaleness int64) (Price, bool, error) {
	if now-obs.ObservedAt > maxStaleness {
		return p, false, apperr.ErrStaleData
	}
	out := p.clone().(Price)
	v := obs.Value
	out.StrikePrice = &v
	return out, obs.Value >= p.TargetPrice, nil
}

// Evaluate decides a sports market from final scores.
//
// Winner markets resolve YES when team A outscores team B. Score markets use
// the spread when one is configured, then the total, and fall back to the
// higher score otherwise.
func (s Sports) Evaluate(scoreA, scoreB uint32) (Sports, bool) {
	out := s.clone().(Sports)
	a, b := scoreA, scoreB
	out.TeamAScore = &a
	out.TeamBScore = &b

	diff := int64(scoreA) - int64(scoreB)
	total := int64(scoreA) + int64(scoreB)

	if s.Kind == DataSportsScore {
		switch {
		case s.TargetSpread != nil:
			return out, diff >= int64(*s.TargetSpread)
		case s.TargetValue != nil:
			return out, total >= *s.TargetValue
		}
	}
	return out, scoreA > scoreB
}

func (w Weather) Evaluate(recorded int64) (Weather, bool, error) {
	if w.TargetValue == nil {
		return w, false, apperr.ErrOracleConfigRequired
	}
	out := w.clone().(Weather)
	out.RecordedValue = &recorded
	return out, recorded >= *w.TargetValue, nil
}

func (t Threshold) Evaluate(actual uint64) (Threshold, bool, error) {
	if t.Threshold == nil {
		return t, false, apperr.ErrOracleConfigRequired
	}
	out := t.clone().(Threshold)
	out.ActualValue = &actual
	return out, actual >= *t.Threshold, nil
}
