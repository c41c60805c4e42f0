package checkpoint

import "github.com/okian/questpace/internal/domain/model"

// Sample walks a filtered series and records the first reading at which each
// checkpoint of plan was reached.
//
// Readings that do not lower HP are skipped. An accepted reading fills every
// open checkpoint its HP has reached, so a hit that crosses several
// thresholds gives them the same elapsed time and crossing times are
// non-decreasing with the index. Checkpoints never reached stay invalid. The
// returned slice always has plan.Len() entries.
func Sample(series model.Series, maxHP model.HP, plan Plan) []model.Crossing {
	out := make([]model.Crossing, plan.Len())
	if len(series) == 0 || maxHP <= 0 {
		return out
	}

	next := 0
	prev := series[0].HP
	for _, pt := range series[1:] {
		if next == plan.Len() {
			break
		}
		if pt.HP >= prev {
			prev = pt.HP
			continue
		}
		prev = pt.HP
		for next < plan.Len() && plan.Reached(maxHP, next, pt.HP) {
			out[next] = model.Crossing{Elapsed: pt.Elapsed, HP: pt.HP, Valid: true}
			next++
		}
	}
	return out
}
