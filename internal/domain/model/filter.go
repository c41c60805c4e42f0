package model

// Filter selects the runs that form a cohort. Zero values match anything,
// except RunBuffs which must match exactly when HasRunBuffs is set.
type Filter struct {
	QuestID     int    `json:"quest_id"`
	Weapon      string `json:"weapon,omitempty"`
	Category    string `json:"category,omitempty"`
	RunBuffs    uint64 `json:"run_buffs"`
	HasRunBuffs bool   `json:"has_run_buffs"`
	SoloOnly    bool   `json:"solo_only"`
}

// Match reports whether r belongs to the cohort described by f.
func (f Filter) Match(r Run) bool {
	switch {
	case f.QuestID != 0 && r.QuestID != f.QuestID:
		return false
	case f.Weapon != "" && r.Weapon != f.Weapon:
		return false
	case f.Category != "" && r.Category != f.Category:
		return false
	case f.HasRunBuffs && r.RunBuffs != f.RunBuffs:
		return false
	case f.SoloOnly && r.PartySize != 1:
		return false
	}
	return true
}
