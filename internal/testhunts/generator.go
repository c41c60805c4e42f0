package testhunts

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/questpace/internal/domain/analysis"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/pkg/logger"
)

var (
	weapons    = []string{"greatsword", "longsword", "hammer", "bow", "lance", "insect_glaive"}
	categories = []string{"freestyle", "ta_rules", "arena"}
)

// Generated pairs a run with the fault injected into it.
type Generated struct {
	Run  model.Run
	Kind Kind
}

// ExpectedReason is the discard reason the engine should give a run of this
// kind under the default collision policy. Kept kinds return "".
func (k Kind) ExpectedReason() analysis.Reason {
	switch k {
	case KindMultiTarget:
		return analysis.ReasonMultiTarget
	case KindZeroHP:
		return analysis.ReasonZeroStartHP
	case KindEmpty:
		return analysis.ReasonNoTelemetry
	default:
		return ""
	}
}

// Generate creates config.NumRuns runs. Each run is derived from the seed and
// its index alone, so the result does not depend on the worker count.
func Generate(ctx context.Context, config *Config, stats *Stats) ([]Generated, error) {
	logger.Get().Info(ctx, "generating hunts",
		logger.Int("runs", config.NumRuns),
		logger.Int64("seed", int64(config.Seed)))

	if config.NumRuns <= 0 {
		return nil, fmt.Errorf("%w: runs must be positive", ErrInvalidConfig)
	}

	out := make([]Generated, config.NumRuns)

	type genResult struct {
		index int
		gen   Generated
		err   error
	}
	resultChan := make(chan genResult, config.NumRuns)

	workerCount := minInt(maxInt(config.Workers, 1), config.NumRuns)
	perWorker := config.NumRuns / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumRuns
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- genResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- genResult{index: i, gen: generateRun(i, config)}
				}
			}
		}(start, end)
	}

	for i := 0; i < config.NumRuns; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate run %d: %w", result.index, result.err)
			}
			out[result.index] = result.gen
		}
	}

	if stats != nil {
		stats.RunsGenerated = len(out)
		for _, g := range out {
			stats.ByKind[g.Kind]++
		}
	}
	logger.Get().Info(ctx, "generated hunts", logger.Int("count", len(out)))
	return out, nil
}

// generateRun builds the run at index i. HP falls as a power curve of elapsed
// time and reaches zero at the clear frame.
func generateRun(i int, config *Config) Generated {
	rng := rand.New(rand.NewPCG(config.Seed, uint64(i)))

	kind := KindClean
	if rng.Float64() < config.NoiseRate {
		kind = Kind(1 + rng.IntN(int(kindCount)-1))
	}

	quest := 1 + rng.IntN(maxInt(config.NumQuests, 1))
	run := model.Run{
		ID:        model.RunID(i + 1),
		QuestID:   quest,
		Weapon:    weapons[rng.IntN(len(weapons))],
		Category:  categories[rng.IntN(len(categories))],
		RunBuffs:  uint64(rng.IntN(4)),
		PartySize: 1,
	}
	if rng.IntN(5) == 0 {
		run.PartySize = 2 + rng.IntN(3)
	}

	maxHP := model.HP(minMaxHP + rng.IntN(maxHPRange))
	clear := model.Frame(float64(baseClearFrames+perQuestFrames*quest) * (clearSpreadMin + clearSpreadRange*rng.Float64()))
	interval := model.Frame(minSampleInterval + rng.IntN(sampleJitter))
	shape := 0.8 + 0.4*rng.Float64()
	slot := model.SlotID(rng.IntN(3))

	end := clear
	if kind == KindAbandoned {
		end = model.Frame(float64(clear) * (0.3 + 0.5*rng.Float64()))
	}

	lead := rng.IntN(maxLeadingEmpty)
	for k := 0; k < lead; k++ {
		run.Telemetry = append(run.Telemetry, model.RawFrame{
			Frame: questTimerStart - model.Frame(k)*interval,
			HP:    map[model.SlotID]model.HP{},
		})
	}
	first := model.Frame(questTimerStart) - model.Frame(lead)*interval

	hpAt := func(t model.Frame) model.HP {
		frac := math.Pow(float64(t)/float64(clear), shape)
		return model.HP(math.Round(float64(maxHP) * (1 - frac)))
	}
	body := len(run.Telemetry)
	for t := model.Frame(0); ; t += interval {
		if t > end {
			t = end
		}
		run.Telemetry = append(run.Telemetry, model.RawFrame{
			Frame: first - t,
			HP:    map[model.SlotID]model.HP{slot: hpAt(t)},
		})
		if t == end {
			break
		}
	}

	inject(rng, kind, &run, body, maxHP, slot)
	return Generated{Run: run, Kind: kind}
}

// inject applies kind's fault to the readings from index body onwards.
func inject(rng *rand.Rand, kind Kind, run *model.Run, body int, maxHP model.HP, slot model.SlotID) {
	tel := run.Telemetry
	n := len(tel) - body
	if n < 4 {
		return
	}
	// pick lands in the first 40% of readings, skipping the first two.
	pick := func() int { return body + 2 + rng.IntN(maxInt(n*4/10-2, 1)) }

	switch kind {
	case KindGlitch:
		j := pick()
		hp := tel[j].HP[slot] - maxHP/2
		if hp < 0 {
			hp = 0
		}
		tel[j].HP = map[model.SlotID]model.HP{slot: hp}
	case KindRebound:
		j := pick()
		tel[j].HP = map[model.SlotID]model.HP{slot: tel[j].HP[slot] + maxHP/10}
	case KindDuplicateFrame:
		j := pick()
		dup := model.RawFrame{
			Frame: tel[j].Frame,
			HP:    map[model.SlotID]model.HP{slot: tel[j+1].HP[slot]},
		}
		tel = append(tel[:j+1], append([]model.RawFrame{dup}, tel[j+1:]...)...)
	case KindMultiTarget:
		j := pick()
		tel[j].HP[slot+1] = maxHP
	case KindZeroHP:
		tel[body].HP = map[model.SlotID]model.HP{slot: 0}
	case KindEmpty:
		for k := range tel {
			tel[k].HP = map[model.SlotID]model.HP{}
		}
	}
	run.Telemetry = tel
}

// Runs strips the kinds from gens.
func Runs(gens []Generated) []model.Run {
	runs := make([]model.Run, len(gens))
	for i, g := range gens {
		runs[i] = g.Run
	}
	return runs
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
