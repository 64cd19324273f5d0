package ir

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// The destination API takes salaries and hours as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Country selects the source-system field layout for a run.
type Country string

const (
	CountryUSA Country = "usa"
	CountryCAN Country = "can"
)

// Countries lists the supported countries in run order.
var Countries = []Country{CountryUSA, CountryCAN}

// ParseCountry validates a country code.
func ParseCountry(s string) (Country, error) {
	switch Country(s) {
	case CountryUSA, CountryCAN:
		return Country(s), nil
	default:
		return "", fmt.Errorf("unknown country %q: must be one of %v", s, Countries)
	}
}

// RecordKind names the entity kinds that a run reconciles.
type RecordKind string

const (
	KindIdentity   RecordKind = "identity"
	KindPersonal   RecordKind = "personal"
	KindJob        RecordKind = "job"
	KindAbsence    RecordKind = "absence"
	KindAbsenceDay RecordKind = "absence_day"
)

// Working statuses in destination vocabulary.
const (
	StatusCurrent   = "Current"
	StatusOnHoliday = "On Holiday"
	StatusLeftFmt   = "Left %s" // formatted with dd/mm/yyyy
)

// IdentityEntry is the cross-system join record for one source worker.
//
// EffectiveServiceStart = min(DestinationServiceStart, SourceServiceStart)
// when the worker is matched at the destination, else SourceServiceStart.
type IdentityEntry struct {
	SourceWorkerID          string  `json:"source_worker_id"`
	PositionID              string  `json:"position_id"`
	DestinationDisplayID    *string `json:"destination_display_id"`
	DestinationInternalID   *string `json:"destination_internal_id"`
	SourceManagerID         *string `json:"source_manager_id"`
	ActiveAssignmentIndex   int     `json:"active_assignment_index"`
	HierarchyNodeID         *string `json:"hierarchy_node_id"`
	JobCode                 string  `json:"job_code"`
	JobName                 string  `json:"job_name,omitempty"`
	DestinationServiceStart *Date   `json:"destination_service_start"`
	SourceServiceStart      Date    `json:"source_service_start"`
	EffectiveServiceStart   Date    `json:"effective_service_start"`
}

// Matched reports whether the worker has a destination record.
func (e IdentityEntry) Matched() bool {
	return e.DestinationDisplayID != nil
}

// Phone is a destination phone entry.
type Phone struct {
	Ownership *string `json:"Ownership"`
	Type      *string `json:"Type"`
	Value     *string `json:"Value"`
}

// Email is a destination email entry.
type Email struct {
	Ownership *string `json:"Ownership"`
	Value     *string `json:"Value"`
}

// Address is a destination address entry.
type Address struct {
	Ownership *string `json:"Ownership"`
	Address1  *string `json:"Address1"`
	Address2  *string `json:"Address2"`
	Address3  *string `json:"Address3"`
	Address4  *string `json:"Address4"`
	Address5  *string `json:"Address5"`
	PostCode  *string `json:"PostCode"`
}

// PersonalRecord is the destination employee payload.
// Field names follow the destination API.
type PersonalRecord struct {
	DisplayId               *string   `json:"DisplayId"`
	TitleHonorific          *string   `json:"TitleHonorific"`
	FirstName               *string   `json:"FirstName"`
	KnownAs                 *string   `json:"KnownAs"`
	OtherName               *string   `json:"OtherName"`
	LastName                *string   `json:"LastName"`
	CostCentre              *string   `json:"CostCentre"`
	WorkingStatus           *string   `json:"WorkingStatus"`
	IsManager               *bool     `json:"IsManager"`
	NationalInsuranceNumber *string   `json:"NationalInsuranceNumber"`
	PayrollId               *string   `json:"PayrollId"`
	TaxCode                 *string   `json:"TaxCode"`
	IncludeInPayroll        *bool     `json:"IncludeInPayroll"`
	EmploymentStartDate     *Date     `json:"EmploymentStartDate"`
	EmploymentLeftDate      *Date     `json:"EmploymentLeftDate"`
	ContinuousServiceDate   *Date     `json:"ContinuousServiceDate"`
	DateOfBirth             *Date     `json:"DateOfBirth"`
	LastWorkingDate         *Date     `json:"LastWorkingDate"`
	Gender                  *string   `json:"Gender"`
	Ethnicity               *string   `json:"Ethnicity"`
	Nationality             *string   `json:"Nationality"`
	Religion                *string   `json:"Religion"`
	LeaverReason            *string   `json:"LeaverReason"`
	MaritalStatus           *string   `json:"MaritalStatus"`
	Phones                  []Phone   `json:"Phones"`
	Emails                  []Email   `json:"Emails"`
	Addresses               []Address `json:"Addresses"`
	GenderIdentity          *string   `json:"GenderIdentity"`
	WindowsUsername         *string   `json:"WindowsUsername"`
	Id                      *string   `json:"Id"`
}

// Key returns the display id used to join source and destination records.
func (r PersonalRecord) Key() string { return Deref(r.DisplayId) }

// Name returns "First Last" for log lines.
func (r PersonalRecord) Name() string {
	return Deref(r.FirstName) + " " + Deref(r.LastName)
}

// JobRecord is the destination job payload.
type JobRecord struct {
	JobTitle                              *string          `json:"JobTitle"`
	Classification                        *string          `json:"Classification"`
	StartDate                             Date             `json:"StartDate"`
	EndDate                               *Date            `json:"EndDate"`
	WorkingCalendar                       string           `json:"WorkingCalendar"`
	LineManagerId                         *string          `json:"LineManagerId"`
	HierarchyNodeId                       *string          `json:"HierarchyNodeId"`
	Active                                *bool            `json:"Active"`
	Salary                                decimal.Decimal  `json:"Salary"`
	EmployeeId                            *string          `json:"EmployeeId"`
	Contract                              string           `json:"Contract"`
	PayFrequency                          *string          `json:"PayFrequency"`
	PayBasis                              *string          `json:"PayBasis"`
	FullTimeEquivalent                    decimal.Decimal  `json:"FullTimeEquivalent"`
	ChangeReason                          *string          `json:"ChangeReason"`
	NextIncrementDate                     *Date            `json:"NextIncrementDate"`
	TimesheetLocation                     *string          `json:"TimesheetLocation"`
	TimesheetLunchDuration                *decimal.Decimal `json:"TimesheetLunchDuration"`
	ExpenseSubmissionFrequency            *string          `json:"ExpenseSubmissionFrequency"`
	CostCentre                            *string          `json:"CostCentre"`
	JobFamily                             *string          `json:"JobFamily"`
	ApprenticeUnder25                     *bool            `json:"ApprenticeUnder25"`
	ApprenticeshipEndDate                 *Date            `json:"ApprenticeshipEndDate"`
	ContractEndDate                       *Date            `json:"ContractEndDate"`
	NormalHours                           *decimal.Decimal `json:"NormalHours"`
	RealTimeInformationIrregularFrequency *string          `json:"RealTimeInformationIrregularFrequency"`
	NoticePeriod                          *string          `json:"NoticePeriod"`
	Id                                    *string          `json:"Id,omitempty"`
}

// Job constants applied to every job line written by hrsync.
const (
	WorkingCalendar     = "40hrs Monday to friday"
	NormalHours         = 40
	FullTimeEquivalent  = 1
	ContractPermanent   = "Permenent" // destination vocabulary, spelled as configured there
	ContractTemporary   = "Temporary"
	PayBasisHourly      = "Hourly"
	PayBasisYearly      = "Yearly"
	ChangeSalary        = "Change of Salary"
	ChangePosition      = "Change of Position"
	ChangeManager       = "Change of Manager"
	ChangeCorrection    = "Minor Change/Correction"
	ChangeNewStarter    = "New Starter"
	PlaceholderManager  = "b3775d20-8d33-4ca9-aaad-5e2346bb17e9"
	AbsenceWindowDays   = 90
	ReactivationMaxDays = 180
)

// DayPart classifies one absence day.
type DayPart string

const (
	DayPartAM     DayPart = "AM"
	DayPartPM     DayPart = "PM"
	DayPartAllDay DayPart = "AllDay"
)

// AllDayMinutes is the duration at or above which a day is AllDay.
const AllDayMinutes = 360

// AbsenceRecord is one absence at either system.
//
// Section and Request locate the source request inside the time-off
// response so that approved entries can be expanded into days after the
// destination assigns an Id.
type AbsenceRecord struct {
	EmployeeId      string  `json:"EmployeeId"`
	AbsenceReasonId string  `json:"AbsenceReasonId"`
	Narrative       *string `json:"Narrative"`
	StartDate       Date    `json:"StartDate"`
	EndDate         Date    `json:"EndDate"`
	Id              *string `json:"Id,omitempty"`
	Section         int     `json:"-"`
	Request         int     `json:"-"`
}

// AbsenceKey is the (employee, start, end) tuple that marks a source
// absence as processed.
type AbsenceKey struct {
	EmployeeID string
	Start      Date
	End        Date
}

// Key returns the processed-key tuple for a.
func (a AbsenceRecord) Key() AbsenceKey {
	return AbsenceKey{EmployeeID: a.EmployeeId, Start: a.StartDate, End: a.EndDate}
}

// AbsenceUpdate is the payload sent to update an existing destination absence.
type AbsenceUpdate struct {
	Narrative *string `json:"Narrative"`
	StartDate Date    `json:"StartDate"`
	EndDate   Date    `json:"EndDate"`
	Id        string  `json:"Id"`
}

// AbsenceDay is one approved day of an absence.
type AbsenceDay struct {
	AbsenceId       string  `json:"AbsenceId"`
	EmployeeId      string  `json:"EmployeeId"`
	Date            string  `json:"Date"`
	DurationDays    string  `json:"DurationDays"`
	DurationMinutes int     `json:"DurationMinutes,string"`
	DayPart         DayPart `json:"DayPart"`
}
