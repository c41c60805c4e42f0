// Package telemetry flattens raw per-frame, per-slot HP readings into the
// single-target elapsed-time series consumed by the rest of the pipeline.
package telemetry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/questpace/internal/domain/model"
)

// CollisionPolicy decides what happens when two raw frames map to the same
// elapsed frame (the quest timer was recorded twice for one tick).
type CollisionPolicy int

const (
	// LastWriteWins keeps the reading recorded last.
	LastWriteWins CollisionPolicy = iota
	// FirstWriteWins keeps the reading recorded first.
	FirstWriteWins
	// RejectCollisions discards the whole run.
	RejectCollisions
)

// String returns the config spelling of p.
func (p CollisionPolicy) String() string {
	switch p {
	case LastWriteWins:
		return "last_write_wins"
	case FirstWriteWins:
		return "first_write_wins"
	case RejectCollisions:
		return "reject"
	default:
		return fmt.Sprintf("collision_policy(%d)", int(p))
	}
}

// ParseCollisionPolicy parses the config spelling of a policy.
// An empty string yields LastWriteWins.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last_write_wins", "last":
		return LastWriteWins, nil
	case "first_write_wins", "first":
		return FirstWriteWins, nil
	case "reject":
		return RejectCollisions, nil
	default:
		return LastWriteWins, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Normalize converts one run's raw telemetry into an elapsed-time series.
//
// The run must target exactly one monster slot across all frames. Elapsed time
// is measured from the first non-empty frame: elapsed = firstFrame - frame.
// Frames recorded before that (negative elapsed) are dropped.
func Normalize(raw model.RawTelemetry, policy CollisionPolicy) (model.Series, error) {
	var (
		target     model.SlotID
		firstFrame model.Frame
		haveFirst  bool
		slots      = make(map[model.SlotID]struct{})
	)
	for _, fr := range raw {
		if len(fr.HP) == 0 {
			continue
		}
		if !haveFirst {
			firstFrame = fr.Frame
			haveFirst = true
		}
		for slot := range fr.HP {
			slots[slot] = struct{}{}
			target = slot
		}
	}
	switch {
	case len(slots) == 0:
		return nil, ErrNoTelemetry
	case len(slots) > 1:
		return nil, fmt.Errorf("%w: %d distinct slots", ErrMultiTarget, len(slots))
	}

	byElapsed := make(map[model.Frame]model.HP, len(raw))
	for _, fr := range raw {
		hp, ok := fr.HP[target]
		if !ok {
			continue
		}
		elapsed := firstFrame - fr.Frame
		if elapsed < 0 {
			continue
		}
		if _, dup := byElapsed[elapsed]; dup {
			switch policy {
			case FirstWriteWins:
				continue
			case RejectCollisions:
				return nil, fmt.Errorf("%w: elapsed frame %d", ErrFrameCollision, elapsed)
			}
		}
		byElapsed[elapsed] = hp
	}

	series := make(model.Series, 0, len(byElapsed))
	for elapsed, hp := range byElapsed {
		series = append(series, model.Point{Elapsed: elapsed, HP: hp})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Elapsed < series[j].Elapsed })
	return series, nil
}
