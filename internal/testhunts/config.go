package testhunts

import (
	"time"

	"github.com/okian/questpace/internal/domain/model"
)

// Config holds configuration for the hunt generator and its checks.
type Config struct {
	BaseURL   string        // Base URL of the service
	NumRuns   int           // Number of runs to generate
	NumQuests int           // Distinct quest IDs to spread runs over
	Seed      uint64        // Generator seed; equal seeds give equal cohorts
	NoiseRate float64       // Fraction of runs that carry a recording fault
	Workers   int           // Number of concurrent generator workers
	Timeout   time.Duration // HTTP request timeout
	Output    string        // Cohort file written by generate
	Input     string        // Cohort file read by analyze and verify
	Mode      string        // Checkpoint mode for analyze and verify
	Filter    model.Filter  // Cohort selection for analyze and verify
	LogFile   string        // Log file for tool output
	Verbose   bool          // Enable verbose logging
}

// Kind names the recording fault injected into a generated run.
type Kind int

// Generated run kinds.
const (
	KindClean Kind = iota
	KindGlitch
	KindRebound
	KindDuplicateFrame
	KindMultiTarget
	KindAbandoned
	KindZeroHP
	KindEmpty
	kindCount
)

var kindNames = [...]string{
	KindClean:          "clean",
	KindGlitch:         "glitch",
	KindRebound:        "rebound",
	KindDuplicateFrame: "duplicate_frame",
	KindMultiTarget:    "multi_target",
	KindAbandoned:      "abandoned",
	KindZeroHP:         "zero_hp",
	KindEmpty:          "empty",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Stats holds generator and check statistics.
type Stats struct {
	RunsGenerated int
	ByKind        map[Kind]int
	RunsKept      int
	RunsDiscarded int
	Checkpoints   int
	Mismatches    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

func newStats() *Stats {
	return &Stats{ByKind: make(map[Kind]int), StartTime: time.Now()}
}
