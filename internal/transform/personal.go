package transform

import (
	"fmt"

	"github.com/roach88/hrsync/internal/country"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/identity"
	"github.com/roach88/hrsync/internal/ir"
)

// Source working-status codes.
const (
	sourceActive     = "Active"
	sourceInactive   = "Inactive"
	sourceTerminated = "Terminated"
)

const (
	mobileType            = "Mobile"
	personalCell          = "Personal Cell"
	ownershipPersonal     = "Personal"
	ownershipOrganization = "Organization"
	leftDateLayout        = "02/01/2006"
)

// EntryFor finds the identity entry for a worker.
func EntryFor(lib *identity.Library, p country.Profile, w feed.Worker) (ir.IdentityEntry, bool) {
	idx, _, err := identity.ActiveAssignment(w)
	if err != nil {
		return ir.IdentityEntry{}, false
	}
	return lib.ForWorker(p.DisplayID(w), w.WorkAssignments[idx].PositionID)
}

func activeAssignment(w feed.Worker, e ir.IdentityEntry) (feed.WorkAssignment, error) {
	if e.ActiveAssignmentIndex < 0 || e.ActiveAssignmentIndex >= len(w.WorkAssignments) {
		return feed.WorkAssignment{}, malformed("workAssignments",
			fmt.Errorf("active index %d out of range", e.ActiveAssignmentIndex))
	}
	return w.WorkAssignments[e.ActiveAssignmentIndex], nil
}

// Personal projects a source worker into the destination employee shape.
//
// Id is set only when the display id held at the source is the one the
// identity entry was matched on; a record without a display id is a new
// starter and carries neither.
func Personal(w feed.Worker, e ir.IdentityEntry, p country.Profile, tables *ir.Tables) (ir.PersonalRecord, error) {
	a, err := activeAssignment(w, e)
	if err != nil {
		return ir.PersonalRecord{}, err
	}

	start, err := requiredDate("actualStartDate", a.ActualStartDate)
	if err != nil {
		return ir.PersonalRecord{}, err
	}
	end, err := ir.ParseDatePtr(a.TerminationDate)
	if err != nil {
		return ir.PersonalRecord{}, malformed("terminationDate", err)
	}

	var person feed.Person
	if w.Person != nil {
		person = *w.Person
	}
	birth, err := ir.ParseDatePtr(person.BirthDate)
	if err != nil {
		return ir.PersonalRecord{}, malformed("birthDate", err)
	}

	status, err := workingStatus(statusCode(w), end)
	if err != nil {
		return ir.PersonalRecord{}, err
	}
	if status == ir.StatusCurrent {
		end = nil
	}

	service := e.EffectiveServiceStart
	if service.IsZero() || service.After(start) {
		service = start
	}

	rec := ir.PersonalRecord{
		WorkingStatus:           &status,
		IsManager:               a.ManagementPositionIndicator,
		NationalInsuranceNumber: ir.StringPtr(a.PositionID),
		IncludeInPayroll:        boolPtr(true),
		EmploymentStartDate:     &start,
		EmploymentLeftDate:      end,
		ContinuousServiceDate:   &service,
		DateOfBirth:             birth,
		LastWorkingDate:         end,
		MaritalStatus:           person.MaritalStatusCode.Short(),
		Phones:                  []ir.Phone{phone(person.Communication)},
		Emails:                  []ir.Email{email(w.BusinessCommunication)},
		Addresses:               []ir.Address{address(person.LegalAddress)},
	}
	applyName(&rec, person.LegalName)

	if end != nil {
		rec.LeaverReason = tables.LeaverReason(a.AssignmentTermReasonCode.Code())
	}

	if id := p.DisplayID(w); id != "" {
		rec.DisplayId = ir.StringPtr(id)
		if e.DestinationDisplayID != nil && *e.DestinationDisplayID == id {
			rec.Id = e.DestinationInternalID
		}
	}
	return rec, nil
}

func statusCode(w feed.Worker) string {
	if w.WorkerStatus == nil {
		return ""
	}
	return w.WorkerStatus.StatusCode.Code()
}

// workingStatus translates a source status code. Active and Inactive are
// Current; Terminated becomes "Left dd/mm/yyyy" and needs a date.
func workingStatus(code string, end *ir.Date) (string, error) {
	switch code {
	case sourceActive, sourceInactive:
		return ir.StatusCurrent, nil
	case sourceTerminated:
		if end == nil {
			return "", malformed("terminationDate", fmt.Errorf("%w for terminated worker", errMissing))
		}
		return fmt.Sprintf(ir.StatusLeftFmt, end.Format(leftDateLayout)), nil
	case "":
		return "", malformed("workerStatus.statusCode", errMissing)
	default:
		return code, nil
	}
}

func applyName(rec *ir.PersonalRecord, n *feed.LegalName) {
	if n == nil {
		return
	}
	rec.FirstName = n.GivenName
	rec.OtherName = n.MiddleName
	rec.LastName = n.FamilyName1
	rec.KnownAs = n.GivenName
	if n.NickName != nil {
		rec.KnownAs = n.NickName
	}
	if len(n.PreferredSalutations) > 0 {
		rec.TitleHonorific = n.PreferredSalutations[0].SalutationCode.Short()
	}
}

func phone(c *feed.Communication) ir.Phone {
	owner := ownershipPersonal
	p := ir.Phone{Type: ir.StringPtr(mobileType)}
	if c != nil && len(c.Mobiles) > 0 {
		m := c.Mobiles[0]
		if code := m.NameCode.Code(); code != "" && code != personalCell {
			owner = code
		}
		p.Value = m.FormattedNumber
	}
	p.Ownership = &owner
	return p
}

func email(c *feed.Communication) ir.Email {
	e := ir.Email{Ownership: ir.StringPtr(ownershipOrganization)}
	if c != nil && len(c.Emails) > 0 {
		e.Value = c.Emails[0].EmailURI
	}
	return e
}

func address(a *feed.Address) ir.Address {
	out := ir.Address{Ownership: ir.StringPtr(ownershipPersonal)}
	if a == nil {
		return out
	}
	out.Address1 = a.LineOne
	out.Address2 = a.LineTwo
	out.Address3 = a.LineThree
	out.Address4 = a.CityName
	out.Address5 = a.CountrySubdivisionLevel1.Short()
	out.PostCode = a.PostalCode
	return out
}

// NormalizeDestinationPersonal reshapes a destination employee for
// comparison: "On Holiday" reads as Current and absent contact lists read
// as empty.
func NormalizeDestinationPersonal(r ir.PersonalRecord) ir.PersonalRecord {
	if r.WorkingStatus != nil && *r.WorkingStatus == ir.StatusOnHoliday {
		r.WorkingStatus = ir.StringPtr(ir.StatusCurrent)
	}
	if r.Phones == nil {
		r.Phones = []ir.Phone{}
	}
	if r.Emails == nil {
		r.Emails = []ir.Email{}
	}
	if r.Addresses == nil {
		r.Addresses = []ir.Address{}
	}
	return r
}

func requiredDate(field string, s *string) (ir.Date, error) {
	if s == nil {
		return ir.Date{}, malformed(field, errMissing)
	}
	d, err := ir.ParseDate(*s)
	if err != nil {
		return ir.Date{}, malformed(field, err)
	}
	return d, nil
}

func boolPtr(b bool) *bool { return &b }
