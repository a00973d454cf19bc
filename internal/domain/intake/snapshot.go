package intake

import (
	"encoding/json"
	"fmt"
	"sort"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// Snapshot is the single current structured view of a case: one string per Category.
// Every slot is always present; the zero value is the empty snapshot.
type Snapshot struct {
	Goal           string `json:"goal" gorm:"column:goal;type:text"`
	Finance        string `json:"finance" gorm:"column:finance;type:text"`
	Family         string `json:"family" gorm:"column:family;type:text"`
	Housing        string `json:"housing" gorm:"column:housing;type:text"`
	Work           string `json:"work" gorm:"column:work;type:text"`
	Immigration    string `json:"immigration" gorm:"column:immigration;type:text"`
	Education      string `json:"education" gorm:"column:education;type:text"`
	Tax            string `json:"tax" gorm:"column:tax;type:text"`
	Healthcare     string `json:"healthcare" gorm:"column:healthcare;type:text"`
	Other          string `json:"other" gorm:"column:other;type:text"`
	Clarifications string `json:"outstanding_clarifications" gorm:"column:outstanding_clarifications;type:text"`
}

// EmptySnapshot returns a snapshot with every slot set to "".
func EmptySnapshot() Snapshot { return Snapshot{} }

// Get returns the slot value for c.
func (s Snapshot) Get(c Category) string {
	switch c {
	case CategoryGoal:
		return s.Goal
	case CategoryFinance:
		return s.Finance
	case CategoryFamily:
		return s.Family
	case CategoryHousing:
		return s.Housing
	case CategoryWork:
		return s.Work
	case CategoryImmigration:
		return s.Immigration
	case CategoryEducation:
		return s.Education
	case CategoryTax:
		return s.Tax
	case CategoryHealthcare:
		return s.Healthcare
	case CategoryOther:
		return s.Other
	case CategoryClarifications:
		return s.Clarifications
	default:
		return ""
	}
}

// set is unexported: slots change only through Merge.
func (s *Snapshot) set(c Category, v string) bool {
	switch c {
	case CategoryGoal:
		s.Goal = v
	case CategoryFinance:
		s.Finance = v
	case CategoryFamily:
		s.Family = v
	case CategoryHousing:
		s.Housing = v
	case CategoryWork:
		s.Work = v
	case CategoryImmigration:
		s.Immigration = v
	case CategoryEducation:
		s.Education = v
	case CategoryTax:
		s.Tax = v
	case CategoryHealthcare:
		s.Healthcare = v
	case CategoryOther:
		s.Other = v
	case CategoryClarifications:
		s.Clarifications = v
	default:
		return false
	}
	return true
}

// Map renders the snapshot as a wire-shaped map with every slot present.
func (s Snapshot) Map() map[string]string {
	out := make(map[string]string, len(Categories))
	for _, c := range Categories {
		out[string(c)] = s.Get(c)
	}
	return out
}

// Patch is an untrusted partial snapshot, typically decoded model output.
type Patch map[string]any

// MergeReport describes what Merge did with each patch key.
type MergeReport struct {
	Applied     []Category
	UnknownKeys []string
	NonString   []string
}

// HasDrift reports whether the patch carried keys that Merge ignored.
func (r MergeReport) HasDrift() bool {
	return len(r.UnknownKeys) > 0 || len(r.NonString) > 0
}

// Merge overwrites every slot named by a string-valued patch key and returns the result.
// current is passed by value, so the caller's snapshot is never mutated. Unknown keys and
// non-string values are dropped and listed in the report.
func Merge(current Snapshot, patch Patch) (Snapshot, MergeReport) {
	next := current
	var rep MergeReport
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c, ok := ParseCategory(k)
		if !ok {
			rep.UnknownKeys = append(rep.UnknownKeys, k)
			continue
		}
		v, ok := patch[k].(string)
		if !ok {
			rep.NonString = append(rep.NonString, k)
			continue
		}
		next.set(c, v)
		rep.Applied = append(rep.Applied, c)
	}
	return next, rep
}

// AsPatch returns a patch that, merged onto any snapshot, reproduces s.
func (s Snapshot) AsPatch() Patch {
	out := make(Patch, len(Categories))
	for _, c := range Categories {
		out[string(c)] = s.Get(c)
	}
	return out
}

// RequireComplete checks that p names every slot with a string value.
func RequireComplete(p Patch) error {
	var missing, wrong []string
	for _, c := range Categories {
		v, ok := p[string(c)]
		if !ok || v == nil {
			missing = append(missing, string(c))
			continue
		}
		if _, ok := v.(string); !ok {
			wrong = append(wrong, string(c))
		}
	}
	if len(missing) > 0 || len(wrong) > 0 {
		return fmt.Errorf("incomplete snapshot (missing=%v non_string=%v)", missing, wrong)
	}
	return nil
}

// DecodeSnapshot parses a persisted snapshot and rejects it unless every slot is present and
// string-typed. Failures wrap ErrCorruptState; nothing is repaired.
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return Snapshot{}, fmt.Errorf("%w: snapshot: %v", pkgerrors.ErrCorruptState, err)
	}
	if p == nil {
		return Snapshot{}, fmt.Errorf("%w: snapshot is null", pkgerrors.ErrCorruptState)
	}
	if err := RequireComplete(p); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", pkgerrors.ErrCorruptState, err)
	}
	s, _ := Merge(EmptySnapshot(), p)
	return s, nil
}
