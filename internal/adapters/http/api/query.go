package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
)

// Query parameter names shared by /pace, /pace/chart.png and /pace/ws.
const (
	paramQuest    = "quest"
	paramWeapon   = "weapon"
	paramCategory = "category"
	paramBuffs    = "buffs"
	paramSolo     = "solo"
	paramMode     = "mode"
)

// ParseQuery reads a cohort filter and checkpoint mode from q. Unset
// parameters match anything; buffs, when present, must match exactly.
func ParseQuery(q url.Values) (model.Filter, string, error) {
	var f model.Filter

	if v := strings.TrimSpace(q.Get(paramQuest)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.Filter{}, "", fmt.Errorf("%w: invalid %s %q", ErrBadRequest, paramQuest, v)
		}
		f.QuestID = n
	}
	f.Weapon = strings.TrimSpace(q.Get(paramWeapon))
	f.Category = strings.TrimSpace(q.Get(paramCategory))

	if v := strings.TrimSpace(q.Get(paramBuffs)); v != "" {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return model.Filter{}, "", fmt.Errorf("%w: invalid %s %q", ErrBadRequest, paramBuffs, v)
		}
		f.RunBuffs = n
		f.HasRunBuffs = true
	}
	if v := strings.TrimSpace(q.Get(paramSolo)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return model.Filter{}, "", fmt.Errorf("%w: invalid %s %q", ErrBadRequest, paramSolo, v)
		}
		f.SoloOnly = b
	}

	mode := strings.TrimSpace(q.Get(paramMode))
	if mode != "" {
		if _, err := checkpoint.ParseMode(mode); err != nil {
			return model.Filter{}, "", fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
	}
	return f, mode, nil
}

// EncodeQuery is the inverse of ParseQuery.
func EncodeQuery(f model.Filter, mode string) url.Values {
	q := url.Values{}
	if f.QuestID != 0 {
		q.Set(paramQuest, strconv.Itoa(f.QuestID))
	}
	if f.Weapon != "" {
		q.Set(paramWeapon, f.Weapon)
	}
	if f.Category != "" {
		q.Set(paramCategory, f.Category)
	}
	if f.HasRunBuffs {
		q.Set(paramBuffs, strconv.FormatUint(f.RunBuffs, 10))
	}
	if f.SoloOnly {
		q.Set(paramSolo, "true")
	}
	if mode != "" {
		q.Set(paramMode, mode)
	}
	return q
}
