package testhunts

import "time"

// HTTP status code constants.
const (
	StatusOK = 200
)

// Quest clock constants. The in-game timer counts down from questTimerStart.
const (
	questTimerStart   = 90000
	minSampleInterval = 10
	sampleJitter      = 11
	maxLeadingEmpty   = 4
)

// Monster constants.
const (
	minMaxHP   = 20000
	maxHPRange = 20001
)

// Clear time constants, in frames.
const (
	baseClearFrames  = 5400
	perQuestFrames   = 1800
	clearSpreadMin   = 0.8
	clearSpreadRange = 0.6
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	defaultWaitTimeout   = 30 * time.Second
	healthPollInterval   = 500 * time.Millisecond
)
