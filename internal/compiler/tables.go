package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/hrsync/internal/ir"
)

// CompileTables parses the root value of a tables directory into ir.Tables.
//
// Expected shape:
//
//	country: usa: {hierarchy_root: "...", hierarchy: [...], absence_reasons: [...]}
//	country: can: {...}
//	manager_overrides: {placeholder: "...", employees: [...]}
//	exclusions: [...]
//	termination_reasons: [{code: "...", narrative: "..."}]
//
// Only structure is checked here (presence and types). Cross-field rules
// that depend on the country live in Validate.
func CompileTables(v cue.Value) (*ir.Tables, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tables := &ir.Tables{Countries: make(map[ir.Country]ir.CountryTables)}

	countries := v.LookupPath(cue.ParsePath("country"))
	if !countries.Exists() {
		return nil, &CompileError{Field: "country", Message: "at least one country is required", Pos: v.Pos()}
	}
	iter, err := countries.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		code, err := ir.ParseCountry(iter.Selector().Unquoted())
		if err != nil {
			return nil, &CompileError{Field: "country", Message: err.Error(), Pos: iter.Value().Pos()}
		}
		ct, err := CompileCountry(iter.Value())
		if err != nil {
			return nil, err
		}
		tables.Countries[code] = ct
	}

	if mo := v.LookupPath(cue.ParsePath("manager_overrides")); mo.Exists() {
		placeholder, err := optionalString(mo, "placeholder")
		if err != nil {
			return nil, err
		}
		if placeholder != nil {
			tables.ManagerOverrides.Placeholder = *placeholder
		}
		tables.ManagerOverrides.Employees, err = stringList(mo, "employees")
		if err != nil {
			return nil, err
		}
	}

	tables.Exclusions, err = stringList(v, "exclusions")
	if err != nil {
		return nil, err
	}

	err = eachRow(v, "termination_reasons", func(row cue.Value) error {
		code, err := requiredString(row, "termination_reasons", "code")
		if err != nil {
			return err
		}
		narrative, err := requiredString(row, "termination_reasons", "narrative")
		if err != nil {
			return err
		}
		tables.TerminationReasons = append(tables.TerminationReasons, ir.TerminationReasonRow{Code: code, Narrative: narrative})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

// CompileCountry parses one country block.
func CompileCountry(v cue.Value) (ir.CountryTables, error) {
	var ct ir.CountryTables
	if err := v.Err(); err != nil {
		return ct, formatCUEError(err)
	}

	root, err := requiredString(v, "hierarchy_root", "hierarchy_root")
	if err != nil {
		return ct, err
	}
	ct.HierarchyRoot = root

	item, err := optionalString(v, "custom_field_item_id")
	if err != nil {
		return ct, err
	}
	ct.CustomFieldItemID = ir.Deref(item)

	err = eachRow(v, "hierarchy", func(row cue.Value) error {
		code, err := requiredString(row, "hierarchy", "code")
		if err != nil {
			return err
		}
		node, err := requiredString(row, "hierarchy", "node")
		if err != nil {
			return err
		}
		name, err := optionalString(row, "name")
		if err != nil {
			return err
		}
		ct.Hierarchy = append(ct.Hierarchy, ir.HierarchyRow{Code: code, Name: name, Node: node})
		return nil
	})
	if err != nil {
		return ct, err
	}

	err = eachRow(v, "absence_reasons", func(row cue.Value) error {
		policy, err := requiredString(row, "absence_reasons", "policy")
		if err != nil {
			return err
		}
		reason, err := requiredString(row, "absence_reasons", "reason_id")
		if err != nil {
			return err
		}
		earning, err := optionalString(row, "earning_type")
		if err != nil {
			return err
		}
		narrative, err := optionalString(row, "narrative")
		if err != nil {
			return err
		}
		ct.AbsenceReasons = append(ct.AbsenceReasons, ir.AbsenceReasonRow{
			Policy:      policy,
			EarningType: earning,
			ReasonID:    reason,
			Narrative:   narrative,
		})
		return nil
	})
	if err != nil {
		return ct, err
	}

	return ct, nil
}

// requiredString reads a concrete string at path, reporting problems
// against field.
func requiredString(v cue.Value, field, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", path),
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a string", path),
			Pos:     val.Pos(),
		}
	}
	return s, nil
}

func optionalString(v cue.Value, path string) (*string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return nil, nil
	}
	s, err := val.String()
	if err != nil {
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("%s must be a string", path),
			Pos:     val.Pos(),
		}
	}
	return &s, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	var out []string
	err := eachRow(v, path, func(item cue.Value) error {
		s, err := item.String()
		if err != nil {
			return &CompileError{Field: path, Message: "entries must be strings", Pos: item.Pos()}
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

// eachRow calls fn for each element of the list at path. A missing list is
// empty; a non-list is an error.
func eachRow(v cue.Value, path string, fn func(cue.Value) error) error {
	list := v.LookupPath(cue.ParsePath(path))
	if !list.Exists() {
		return nil
	}
	iter, err := list.List()
	if err != nil {
		return &CompileError{Field: path, Message: fmt.Sprintf("%s must be a list", path), Pos: list.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Value()); err != nil {
			return err
		}
	}
	return nil
}
