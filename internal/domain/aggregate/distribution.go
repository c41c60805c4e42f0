package aggregate

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/okian/questpace/internal/domain/model"
)

// Clear times are tracked up to a full day of frames with three significant
// digits, so quantiles are approximate above 2048 frames.
const (
	maxTrackableFrames = 24 * 60 * 60 * model.FramesPerSecond
	significantFigures = 3
)

// Distribution summarizes the total clear times of complete runs.
type Distribution struct {
	Count int64       `json:"count"`
	Min   model.Frame `json:"min"`
	Max   model.Frame `json:"max"`
	Mean  float64     `json:"mean"`
	P25   model.Frame `json:"p25"`
	P50   model.Frame `json:"p50"`
	P75   model.Frame `json:"p75"`
	P90   model.Frame `json:"p90"`
}

// ClearTimes builds a Distribution over the entries whose splits are complete.
// Incomplete runs are ignored; an empty result has Count 0.
func ClearTimes(entries []Entry) Distribution {
	h := hdrhistogram.New(1, maxTrackableFrames, significantFigures)
	var d Distribution
	for _, e := range entries {
		total := e.Splits.Total()
		if !total.Valid || total.Frames < 0 {
			continue
		}
		v := int64(total.Frames)
		if v > maxTrackableFrames {
			v = maxTrackableFrames
		}
		if err := h.RecordValue(v); err != nil {
			continue
		}
		if d.Count == 0 || total.Frames < d.Min {
			d.Min = total.Frames
		}
		if total.Frames > d.Max {
			d.Max = total.Frames
		}
		d.Count++
	}
	if d.Count == 0 {
		return Distribution{}
	}
	d.Mean = h.Mean()
	d.P25 = model.Frame(h.ValueAtQuantile(25))
	d.P50 = model.Frame(h.ValueAtQuantile(50))
	d.P75 = model.Frame(h.ValueAtQuantile(75))
	d.P90 = model.Frame(h.ValueAtQuantile(90))
	return d
}
