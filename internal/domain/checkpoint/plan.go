// Package checkpoint quantizes a filtered HP series into fixed "HP dealt"
// thresholds.
package checkpoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/questpace/internal/domain/model"
)

// Plan is an ordered list of checkpoint thresholds, each expressed as the
// whole percentage of starting HP dealt (10 means 90% HP remaining).
type Plan struct {
	name     string
	percents []int
}

// Built-in plans.
var (
	// Fine records every 10% of HP dealt.
	Fine = Plan{name: "fine", percents: []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}}
	// Objective records 60%, 80% and 100% dealt.
	Objective = Plan{name: "objective", percents: []int{60, 80, 100}}
)

// NewPlan builds a custom plan. Percentages must be strictly increasing and
// within 1..100.
func NewPlan(name string, percents ...int) (Plan, error) {
	if len(percents) == 0 {
		return Plan{}, fmt.Errorf("%w: no thresholds", ErrInvalidPlan)
	}
	prev := 0
	for _, p := range percents {
		if p <= prev || p > 100 {
			return Plan{}, fmt.Errorf("%w: thresholds %v", ErrInvalidPlan, percents)
		}
		prev = p
	}
	return Plan{name: name, percents: append([]int(nil), percents...)}, nil
}

// ParseMode returns the built-in plan for a mode name.
func ParseMode(mode string) (Plan, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "fine", "every10":
		return Fine, nil
	case "objective", "60/80/100":
		return Objective, nil
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Name returns the plan's mode name.
func (p Plan) Name() string { return p.name }

// Len returns the number of checkpoints.
func (p Plan) Len() int { return len(p.percents) }

// Percent returns the HP% dealt at checkpoint i.
func (p Plan) Percent(i int) int { return p.percents[i] }

// Percents returns a copy of all thresholds.
func (p Plan) Percents() []int { return append([]int(nil), p.percents...) }

// Labels returns display labels such as "10%".
func (p Plan) Labels() []string {
	out := make([]string, len(p.percents))
	for i, pct := range p.percents {
		out[i] = strconv.Itoa(pct) + "%"
	}
	return out
}

// IndexOf returns the checkpoint index for a percentage, or -1.
func (p Plan) IndexOf(percent int) int {
	for i, pct := range p.percents {
		if pct == percent {
			return i
		}
	}
	return -1
}

// Reached reports whether hp is at or below the remaining-HP target of
// checkpoint i: hp <= maxHP * (1 - percent/100).
func (p Plan) Reached(maxHP model.HP, i int, hp model.HP) bool {
	return int64(hp)*100 <= int64(maxHP)*int64(100-p.percents[i])
}
