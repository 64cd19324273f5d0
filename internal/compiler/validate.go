package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/hrsync/internal/ir"
)

// Validation error codes (E120-E139)
const (
	ErrNoCountries           = "E120" // no country tables
	ErrHierarchyRootEmpty    = "E121" // hierarchy_root is empty
	ErrHierarchyNameNotUsed  = "E122" // name on a row for a country that ignores it
	ErrEarningTypeRequired   = "E123" // usa reasons key on (policy, earning_type)
	ErrEarningTypeNotUsed    = "E124" // can reasons key on policy only
	ErrEmptyValue            = "E125" // required value is blank
	ErrPlaceholderMissing    = "E126" // overrides listed without a placeholder manager
	ErrDuplicateTermination  = "E127" // termination code listed twice
	ErrUnknownCountryProfile = "E128" // country block for an unsupported country
)

// ValidationError is a semantic problem in compiled tables.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled tables against the per-country rules.
// Returns all errors found (does not fail-fast).
func Validate(t *ir.Tables) []ValidationError {
	if t == nil || len(t.Countries) == 0 {
		return []ValidationError{{Field: "country", Message: "at least one country is required", Code: ErrNoCountries}}
	}

	var errs []ValidationError
	for _, c := range ir.Countries {
		ct, ok := t.Countries[c]
		if !ok {
			continue
		}
		errs = append(errs, validateCountry(c, ct)...)
	}
	for c := range t.Countries {
		if _, err := ir.ParseCountry(string(c)); err != nil {
			errs = append(errs, ValidationError{Field: "country." + string(c), Message: err.Error(), Code: ErrUnknownCountryProfile})
		}
	}

	if len(t.ManagerOverrides.Employees) > 0 && strings.TrimSpace(t.ManagerOverrides.Placeholder) == "" {
		errs = append(errs, ValidationError{
			Field:   "manager_overrides.placeholder",
			Message: fmt.Sprintf("placeholder is empty; %s will be used", ir.PlaceholderManager),
			Code:    ErrPlaceholderMissing,
		})
	}

	seen := make(map[string]bool)
	for i, r := range t.TerminationReasons {
		field := fmt.Sprintf("termination_reasons[%d]", i)
		if strings.TrimSpace(r.Code) == "" {
			errs = append(errs, ValidationError{Field: field + ".code", Message: "code is blank", Code: ErrEmptyValue})
			continue
		}
		key := strings.ToLower(r.Code)
		if seen[key] {
			errs = append(errs, ValidationError{Field: field + ".code", Message: fmt.Sprintf("code %q already mapped", r.Code), Code: ErrDuplicateTermination})
		}
		seen[key] = true
	}

	return errs
}

func validateCountry(c ir.Country, ct ir.CountryTables) []ValidationError {
	var errs []ValidationError
	prefix := "country." + string(c)

	if strings.TrimSpace(ct.HierarchyRoot) == "" {
		errs = append(errs, ValidationError{Field: prefix + ".hierarchy_root", Message: "hierarchy_root is blank", Code: ErrHierarchyRootEmpty})
	}

	for i, row := range ct.Hierarchy {
		field := fmt.Sprintf("%s.hierarchy[%d]", prefix, i)
		if strings.TrimSpace(row.Code) == "" {
			errs = append(errs, ValidationError{Field: field + ".code", Message: "code is blank", Code: ErrEmptyValue})
		}
		if strings.TrimSpace(row.Node) == "" {
			errs = append(errs, ValidationError{Field: field + ".node", Message: "node is blank", Code: ErrEmptyValue})
		}
		// usa resolves by code alone
		if c == ir.CountryUSA && row.Name != nil {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "usa hierarchy rows match on code only", Code: ErrHierarchyNameNotUsed})
		}
	}

	for i, row := range ct.AbsenceReasons {
		field := fmt.Sprintf("%s.absence_reasons[%d]", prefix, i)
		if strings.TrimSpace(row.Policy) == "" {
			errs = append(errs, ValidationError{Field: field + ".policy", Message: "policy is blank", Code: ErrEmptyValue})
		}
		if strings.TrimSpace(row.ReasonID) == "" {
			errs = append(errs, ValidationError{Field: field + ".reason_id", Message: "reason_id is blank", Code: ErrEmptyValue})
		}
		switch c {
		case ir.CountryUSA:
			if row.EarningType == nil || strings.TrimSpace(*row.EarningType) == "" {
				errs = append(errs, ValidationError{Field: field + ".earning_type", Message: "usa reasons need an earning_type", Code: ErrEarningTypeRequired})
			}
		case ir.CountryCAN:
			if row.EarningType != nil {
				errs = append(errs, ValidationError{Field: field + ".earning_type", Message: "can reasons match on policy only", Code: ErrEarningTypeNotUsed})
			}
		}
	}

	return errs
}
