package ir

import "strings"

// HierarchyRow maps a source job code (and optionally a job-title fragment)
// to a destination hierarchy value.
type HierarchyRow struct {
	Code string  `json:"code"`
	Name *string `json:"name,omitempty"`
	Node string  `json:"node"`
}

// AbsenceReasonRow maps a source time-off policy to a destination reason id.
// EarningType is only set for countries that key on (policy, earning type).
type AbsenceReasonRow struct {
	Policy      string  `json:"policy"`
	EarningType *string `json:"earning_type,omitempty"`
	ReasonID    string  `json:"reason_id"`
	Narrative   *string `json:"narrative,omitempty"`
}

// TerminationReasonRow maps a source termination code to a leaver reason.
type TerminationReasonRow struct {
	Code      string `json:"code"`
	Narrative string `json:"narrative"`
}

// CountryTables holds the per-country lookup tables.
type CountryTables struct {
	HierarchyRoot     string             `json:"hierarchy_root"`
	CustomFieldItemID string             `json:"custom_field_item_id"`
	Hierarchy         []HierarchyRow     `json:"hierarchy"`
	AbsenceReasons    []AbsenceReasonRow `json:"absence_reasons"`
}

// ManagerOverrides routes the listed employees to a placeholder manager.
type ManagerOverrides struct {
	Placeholder string   `json:"placeholder"`
	Employees   []string `json:"employees"`
}

// Tables is the compiled set of lookup tables for a run.
// Tables are read-only once compiled and may be shared across goroutines.
type Tables struct {
	Countries          map[Country]CountryTables `json:"countries"`
	ManagerOverrides   ManagerOverrides          `json:"manager_overrides"`
	Exclusions         []string                  `json:"exclusions"`
	TerminationReasons []TerminationReasonRow    `json:"termination_reasons"`
}

// ForCountry returns the tables for c; the zero value when absent.
func (t *Tables) ForCountry(c Country) CountryTables {
	if t == nil || t.Countries == nil {
		return CountryTables{}
	}
	return t.Countries[c]
}

// Excluded reports whether a source worker id is on the exclusion list.
func (t *Tables) Excluded(workerID string) bool {
	if t == nil {
		return false
	}
	for _, x := range t.Exclusions {
		if x == workerID {
			return true
		}
	}
	return false
}

// ManagerOverride returns the placeholder manager for employeeID when the
// employee is on the override list.
func (t *Tables) ManagerOverride(employeeID string) (string, bool) {
	if t == nil || employeeID == "" {
		return "", false
	}
	for _, e := range t.ManagerOverrides.Employees {
		if e == employeeID {
			placeholder := t.ManagerOverrides.Placeholder
			if placeholder == "" {
				placeholder = PlaceholderManager
			}
			return placeholder, true
		}
	}
	return "", false
}

// LeaverReason maps a termination code to its narrative.
func (t *Tables) LeaverReason(code string) *string {
	if t == nil || code == "" {
		return nil
	}
	for _, r := range t.TerminationReasons {
		if strings.EqualFold(r.Code, code) {
			n := r.Narrative
			return &n
		}
	}
	return nil
}

// CountryCodes returns the supported countries that have tables, in
// Countries order.
func (t *Tables) CountryCodes() []Country {
	if t == nil {
		return nil
	}
	var out []Country
	for _, c := range Countries {
		if _, ok := t.Countries[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
