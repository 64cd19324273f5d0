package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// WorkerBuilder assembles a source worker with one primary assignment.
//
// Defaults describe an active, full-time, annually paid worker hired on
// 2020-01-06 whose display id sits where both countries look for it.
type WorkerBuilder struct {
	w feed.Worker
}

// NewWorker starts a builder for the given associate and position ids.
func NewWorker(associateOID, positionID string) *WorkerBuilder {
	first, last := "Ada", "Lovelace"
	annual := decimal.RequireFromString("52000")
	b := &WorkerBuilder{w: feed.Worker{
		AssociateOID: associateOID,
		WorkerID:     feed.IDValue{IDValue: associateOID},
		Person: &feed.Person{
			LegalName: &feed.LegalName{GivenName: &first, FamilyName1: &last},
			BirthDate: ir.StringPtr("1990-12-10"),
		},
		WorkerStatus: &feed.Status{StatusCode: Code("Active")},
		WorkAssignments: []feed.WorkAssignment{{
			PositionID:              positionID,
			HireDate:                ir.StringPtr("2020-01-06"),
			ActualStartDate:         ir.StringPtr("2020-01-06"),
			JobTitle:                ir.StringPtr("Engineer"),
			HomeOrganizationalUnits: []feed.OrganizationalUnit{{NameCode: Code("100")}, {NameCode: Code("1001")}},
			BaseRemuneration: &feed.Remuneration{
				AnnualRateAmount: &feed.Amount{NameCode: Short("Annual"), AmountValue: &annual},
				EffectiveDate:    ir.StringPtr("2020-01-06"),
			},
			AssignmentStatus: &feed.Status{EffectiveDate: ir.StringPtr("2020-01-06")},
			PayCycleCode:     Short("Biweekly"),
			WorkerGroups:     []feed.WorkerGroup{{GroupCode: Code("FT")}},
			WorkerTypeCode:   Code("FT"),
		}},
	}}
	return b
}

// Code builds a CodeValue carrying codeValue v.
func Code(v string) *feed.CodeValue { return &feed.CodeValue{CodeValue: &v} }

// Short builds a CodeValue carrying shortName v.
func Short(v string) *feed.CodeValue { return &feed.CodeValue{ShortName: &v} }

func (b *WorkerBuilder) active() *feed.WorkAssignment {
	return &b.w.WorkAssignments[len(b.w.WorkAssignments)-1]
}

// DisplayID stores the destination display id in both countries' fields.
func (b *WorkerBuilder) DisplayID(id string) *WorkerBuilder {
	fields := []feed.StringField{{StringValue: &id}, {}, {StringValue: &id}}
	b.w.Person.CustomFieldGroup = &feed.CustomFieldGroup{StringFields: fields}
	b.w.CustomFieldGroup = &feed.CustomFieldGroup{StringFields: fields[:1]}
	return b
}

// Name sets given and family names.
func (b *WorkerBuilder) Name(given, family string) *WorkerBuilder {
	b.w.Person.LegalName.GivenName = &given
	b.w.Person.LegalName.FamilyName1 = &family
	return b
}

// Status sets the worker status code.
func (b *WorkerBuilder) Status(code string) *WorkerBuilder {
	b.w.WorkerStatus = &feed.Status{StatusCode: Code(code)}
	return b
}

// Hired sets the first assignment's hire date and the active start date.
func (b *WorkerBuilder) Hired(date string) *WorkerBuilder {
	b.w.WorkAssignments[0].HireDate = &date
	b.active().ActualStartDate = &date
	return b
}

// Terminated sets status Terminated with the given date and reason code.
func (b *WorkerBuilder) Terminated(date, reason string) *WorkerBuilder {
	b.Status("Terminated")
	a := b.active()
	a.TerminationDate = &date
	if reason != "" {
		a.AssignmentTermReasonCode = Code(reason)
	}
	return b
}

// ReportsTo sets the manager's associate id.
func (b *WorkerBuilder) ReportsTo(associateOID string) *WorkerBuilder {
	b.active().ReportsTo = []feed.ReportsTo{{AssociateOID: &associateOID}}
	return b
}

// Units replaces the active assignment's organizational unit codes.
func (b *WorkerBuilder) Units(codes ...string) *WorkerBuilder {
	units := make([]feed.OrganizationalUnit, len(codes))
	for i, c := range codes {
		units[i] = feed.OrganizationalUnit{NameCode: Code(c)}
	}
	b.active().HomeOrganizationalUnits = units
	return b
}

// JobTitle sets the active assignment's job title.
func (b *WorkerBuilder) JobTitle(title string) *WorkerBuilder {
	b.active().JobTitle = &title
	return b
}

// Hourly switches pay to an hourly rate.
func (b *WorkerBuilder) Hourly(rate string) *WorkerBuilder {
	v := decimal.RequireFromString(rate)
	b.active().BaseRemuneration.HourlyRateAmount = &feed.Amount{NameCode: Short("Hourly"), AmountValue: &v}
	b.active().BaseRemuneration.AnnualRateAmount = nil
	return b
}

// Annual switches pay to an annual rate.
func (b *WorkerBuilder) Annual(rate string) *WorkerBuilder {
	v := decimal.RequireFromString(rate)
	b.active().BaseRemuneration.AnnualRateAmount = &feed.Amount{NameCode: Short("Annual"), AmountValue: &v}
	b.active().BaseRemuneration.HourlyRateAmount = nil
	return b
}

// Unpaid removes base remuneration rates.
func (b *WorkerBuilder) Unpaid() *WorkerBuilder {
	b.active().BaseRemuneration.AnnualRateAmount = nil
	b.active().BaseRemuneration.HourlyRateAmount = nil
	return b
}

// PayEffective sets the remuneration and assignment-status effective dates.
func (b *WorkerBuilder) PayEffective(pay, status string) *WorkerBuilder {
	b.active().BaseRemuneration.EffectiveDate = &pay
	b.active().AssignmentStatus = &feed.Status{EffectiveDate: &status}
	return b
}

// Mobile sets the first mobile entry.
func (b *WorkerBuilder) Mobile(owner, number string) *WorkerBuilder {
	m := feed.Mobile{FormattedNumber: &number}
	if owner != "" {
		m.NameCode = Code(owner)
	}
	if b.w.Person.Communication == nil {
		b.w.Person.Communication = &feed.Communication{}
	}
	b.w.Person.Communication.Mobiles = []feed.Mobile{m}
	return b
}

// Email sets the first business email.
func (b *WorkerBuilder) Email(uri string) *WorkerBuilder {
	b.w.BusinessCommunication = &feed.Communication{Emails: []feed.EmailURI{{EmailURI: &uri}}}
	return b
}

// Address sets the legal address.
func (b *WorkerBuilder) Address(line1, city, region, postal string) *WorkerBuilder {
	b.w.Person.LegalAddress = &feed.Address{
		LineOne:                  &line1,
		CityName:                 &city,
		CountrySubdivisionLevel1: Short(region),
		PostalCode:               &postal,
	}
	return b
}

// AddAssignment appends an assignment with the given primary flag and
// position id, copying the current active assignment's other fields.
func (b *WorkerBuilder) AddAssignment(positionID string, primary *bool) *WorkerBuilder {
	a := *b.active()
	a.PositionID = positionID
	a.PrimaryIndicator = primary
	b.w.WorkAssignments = append(b.w.WorkAssignments, a)
	return b
}

// Primary sets the primary flag of assignment i.
func (b *WorkerBuilder) Primary(i int, primary bool) *WorkerBuilder {
	b.w.WorkAssignments[i].PrimaryIndicator = &primary
	return b
}

// Build returns the worker.
func (b *WorkerBuilder) Build() feed.Worker {
	return b.w
}

// Employee builds a destination personal record carrying the identifying
// fields the identity index reads.
func Employee(id, displayID, positionID, serviceStart string) ir.PersonalRecord {
	r := ir.PersonalRecord{
		Id:                      ir.StringPtr(id),
		DisplayId:               ir.StringPtr(displayID),
		NationalInsuranceNumber: ir.StringPtr(positionID),
		WorkingStatus:           ir.StringPtr(ir.StatusCurrent),
	}
	if serviceStart != "" {
		r.ContinuousServiceDate = ir.DatePtr(ir.MustParseDate(serviceStart))
	}
	return r
}

// Absence builds an absence record.
func Absence(employee, reason, start, end string) ir.AbsenceRecord {
	return ir.AbsenceRecord{
		EmployeeId:      employee,
		AbsenceReasonId: reason,
		StartDate:       ir.MustParseDate(start),
		EndDate:         ir.MustParseDate(end),
	}
}

// DestinationAbsence builds an absence as returned by the destination.
func DestinationAbsence(id, employee, reason, start, end string) ir.AbsenceRecord {
	a := Absence(employee, reason, start, end)
	a.Id = ir.StringPtr(id)
	return a
}

// TimeOffDay describes one entry of a time-off request.
type TimeOffDay struct {
	Date      string
	StartTime string
	Value     string
	Unit      string
	Status    string
}

// TimeOffRequest describes one request of a time-off section.
type TimeOffRequest struct {
	Policy      string
	EarningType string
	Days        []TimeOffDay
}

// TimeOff builds a time-off response from sections keyed by request status,
// in the given order.
func TimeOff(sections ...TimeOffSection) *feed.TimeOffResponse {
	out := make([]feed.TimeOffSection, len(sections))
	for i, s := range sections {
		status := s.Status
		sec := feed.TimeOffSection{RequestStatus: &feed.Label{LabelName: &status}}
		for _, r := range s.Requests {
			var req feed.TimeOffRequest
			for _, d := range r.Days {
				policy, earning := r.Policy, r.EarningType
				date := d.Date
				e := feed.TimeOffEntry{
					PaidTimeOffPolicy: &feed.Label{LabelName: &policy},
					EarningType:       &feed.Label{LabelName: &earning},
					TimePeriod:        &feed.TimePeriod{StartDateTime: &date, EndDateTime: &date},
					TotalQuantity:     &feed.Quantity{ValueNumber: decimal.RequireFromString(d.Value)},
				}
				if d.StartTime != "" {
					st := d.StartTime
					e.StartTime = &st
				}
				if d.Unit != "" {
					u := d.Unit
					e.TotalQuantity.UnitTimeCode = &u
				}
				if d.Status != "" {
					es := d.Status
					e.EntryStatus = &feed.Label{LabelName: &es}
				}
				req.PaidTimeOffEntries = append(req.PaidTimeOffEntries, e)
			}
			sec.Requests = append(sec.Requests, req)
		}
		out[i] = sec
	}
	return &feed.TimeOffResponse{PaidTimeOffDetails: &feed.TimeOffDetails{
		PaidTimeOffRequests: []feed.TimeOffRequests{{PaidTimeOffRequestEntries: out}},
	}}
}

// TimeOffSection describes requests sharing a request status.
type TimeOffSection struct {
	Status   string
	Requests []TimeOffRequest
}
