package model

// Point is one elapsed-time sample of a single monster's HP.
// Synthetic points are inserted by the outlier filter to close gaps and are
// never read from the game.
type Point struct {
	Elapsed   Frame `json:"elapsed"`
	HP        HP    `json:"hp"`
	Synthetic bool  `json:"synthetic,omitempty"`
}

// Series is a single-target HP series ordered by ascending, unique elapsed frame.
type Series []Point

// Clone returns an independent copy of s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// NullFrame is a frame count that may be absent, shaped like sql.NullInt64.
type NullFrame struct {
	Frames Frame `json:"frames"`
	Valid  bool  `json:"valid"`
}

// Frames wraps f as a valid NullFrame.
func Frames(f Frame) NullFrame {
	return NullFrame{Frames: f, Valid: true}
}

// Crossing records when a checkpoint threshold was first reached.
type Crossing struct {
	Elapsed Frame `json:"elapsed"`
	HP      HP    `json:"hp"`
	Valid   bool  `json:"valid"`
}
