// Package model contains domain models passed between layers.
package model

import "time"

// FramesPerSecond is the in-game clock rate. One Frame is 1/30 second.
const FramesPerSecond = 30

// Frame counts game frames. Raw telemetry uses the absolute quest timer
// (counting down); everything downstream of normalization uses elapsed frames.
type Frame int64

// Duration converts a frame count to wall time.
func (f Frame) Duration() time.Duration {
	return time.Duration(f) * time.Second / FramesPerSecond
}

// Seconds converts a frame count to fractional seconds.
func (f Frame) Seconds() float64 {
	return float64(f) / FramesPerSecond
}

// HP is a monster hit-point reading.
type HP int64

// SlotID identifies the monster slot a reading was taken from.
type SlotID int

// RunID identifies one historical hunt.
type RunID int64

// RawFrame is one sampled frame of a hunt: absolute quest timer plus the HP
// of every monster slot that was readable on that frame.
type RawFrame struct {
	Frame Frame         `json:"frame" yaml:"frame"`
	HP    map[SlotID]HP `json:"hp" yaml:"hp"`
}

// RawTelemetry holds the frames of one hunt in recording order.
type RawTelemetry []RawFrame

// Run is a historical hunt together with the attributes used to build cohorts.
type Run struct {
	ID        RunID        `json:"id" yaml:"id"`
	QuestID   int          `json:"quest_id" yaml:"quest_id"`
	Weapon    string       `json:"weapon" yaml:"weapon"`
	Category  string       `json:"category" yaml:"category"`
	RunBuffs  uint64       `json:"run_buffs" yaml:"run_buffs"`
	PartySize int          `json:"party_size" yaml:"party_size"`
	Telemetry RawTelemetry `json:"telemetry" yaml:"telemetry"`
}

// Cohort is the ordered set of runs selected for one query.
type Cohort []Run

// IDs returns the run IDs in cohort order.
func (c Cohort) IDs() []RunID {
	ids := make([]RunID, len(c))
	for i, r := range c {
		ids[i] = r.ID
	}
	return ids
}
