package feed

import "github.com/shopspring/decimal"

// CodeValue is the source system's {codeValue, shortName, longName} triple.
type CodeValue struct {
	CodeValue *string `json:"codeValue,omitempty"`
	ShortName *string `json:"shortName,omitempty"`
	LongName  *string `json:"longName,omitempty"`
}

// Code returns codeValue or "".
func (c *CodeValue) Code() string {
	if c == nil || c.CodeValue == nil {
		return ""
	}
	return *c.CodeValue
}

// Short returns shortName or nil.
func (c *CodeValue) Short() *string {
	if c == nil {
		return nil
	}
	return c.ShortName
}

// IDValue wraps an idValue field.
type IDValue struct {
	IDValue string `json:"idValue"`
}

// WorkersPage is one page of the worker listing.
type WorkersPage struct {
	Workers []Worker `json:"workers"`
	Meta    *struct {
		TotalNumber int `json:"totalNumber"`
	} `json:"meta,omitempty"`
}

// Worker is a source-system worker.
type Worker struct {
	AssociateOID          string            `json:"associateOID"`
	WorkerID              IDValue           `json:"workerID"`
	Person                *Person           `json:"person,omitempty"`
	WorkerStatus          *Status           `json:"workerStatus,omitempty"`
	WorkAssignments       []WorkAssignment  `json:"workAssignments"`
	BusinessCommunication *Communication    `json:"businessCommunication,omitempty"`
	CustomFieldGroup      *CustomFieldGroup `json:"customFieldGroup,omitempty"`
}

// Status wraps a statusCode.
type Status struct {
	StatusCode    *CodeValue `json:"statusCode,omitempty"`
	EffectiveDate *string    `json:"effectiveDate,omitempty"`
}

// Person holds personal attributes.
type Person struct {
	LegalName         *LegalName        `json:"legalName,omitempty"`
	BirthDate         *string           `json:"birthDate,omitempty"`
	MaritalStatusCode *CodeValue        `json:"maritalStatusCode,omitempty"`
	Communication     *Communication    `json:"communication,omitempty"`
	LegalAddress      *Address          `json:"legalAddress,omitempty"`
	CustomFieldGroup  *CustomFieldGroup `json:"customFieldGroup,omitempty"`
}

// LegalName holds name parts.
type LegalName struct {
	GivenName            *string      `json:"givenName,omitempty"`
	NickName             *string      `json:"nickName,omitempty"`
	MiddleName           *string      `json:"middleName,omitempty"`
	FamilyName1          *string      `json:"familyName1,omitempty"`
	PreferredSalutations []Salutation `json:"preferredSalutations,omitempty"`
}

// Salutation is a preferred salutation.
type Salutation struct {
	SalutationCode *CodeValue `json:"salutationCode,omitempty"`
}

// Communication holds mobiles and emails.
type Communication struct {
	Mobiles []Mobile   `json:"mobiles,omitempty"`
	Emails  []EmailURI `json:"emails,omitempty"`
}

// Mobile is a phone entry.
type Mobile struct {
	NameCode        *CodeValue `json:"nameCode,omitempty"`
	FormattedNumber *string    `json:"formattedNumber,omitempty"`
}

// EmailURI is an email entry.
type EmailURI struct {
	EmailURI *string `json:"emailUri,omitempty"`
}

// Address is a legal address.
type Address struct {
	LineOne                  *string    `json:"lineOne,omitempty"`
	LineTwo                  *string    `json:"lineTwo,omitempty"`
	LineThree                *string    `json:"lineThree,omitempty"`
	CityName                 *string    `json:"cityName,omitempty"`
	CountrySubdivisionLevel1 *CodeValue `json:"countrySubdivisionLevel1,omitempty"`
	PostalCode               *string    `json:"postalCode,omitempty"`
}

// CustomFieldGroup holds custom string fields.
type CustomFieldGroup struct {
	StringFields []StringField `json:"stringFields,omitempty"`
}

// StringField is a custom string field.
type StringField struct {
	ItemID      *string    `json:"itemID,omitempty"`
	NameCode    *CodeValue `json:"nameCode,omitempty"`
	StringValue *string    `json:"stringValue,omitempty"`
}

// StringAt returns stringFields[i].stringValue, or "" when absent.
func (g *CustomFieldGroup) StringAt(i int) string {
	if g == nil || i < 0 || i >= len(g.StringFields) || g.StringFields[i].StringValue == nil {
		return ""
	}
	return *g.StringFields[i].StringValue
}

// WorkAssignment is one position held by a worker.
type WorkAssignment struct {
	PrimaryIndicator            *bool                `json:"primaryIndicator,omitempty"`
	PositionID                  string               `json:"positionID"`
	HireDate                    *string              `json:"hireDate,omitempty"`
	ActualStartDate             *string              `json:"actualStartDate,omitempty"`
	TerminationDate             *string              `json:"terminationDate,omitempty"`
	AssignmentTermReasonCode    *CodeValue           `json:"assignmentTermReasonCode,omitempty"`
	JobTitle                    *string              `json:"jobTitle,omitempty"`
	ManagementPositionIndicator *bool                `json:"managementPositionIndicator,omitempty"`
	HomeOrganizationalUnits     []OrganizationalUnit `json:"homeOrganizationalUnits,omitempty"`
	ReportsTo                   []ReportsTo          `json:"reportsTo,omitempty"`
	BaseRemuneration            *Remuneration        `json:"baseRemuneration,omitempty"`
	AssignmentStatus            *Status              `json:"assignmentStatus,omitempty"`
	PayCycleCode                *CodeValue           `json:"payCycleCode,omitempty"`
	WorkerGroups                []WorkerGroup        `json:"workerGroups,omitempty"`
	WorkerTypeCode              *CodeValue           `json:"workerTypeCode,omitempty"`
}

// IsPrimary reports primaryIndicator, defaulting to true when absent.
func (a WorkAssignment) IsPrimary() bool {
	return a.PrimaryIndicator == nil || *a.PrimaryIndicator
}

// ManagerID returns reportsTo[0].associateOID or nil.
func (a WorkAssignment) ManagerID() *string {
	if len(a.ReportsTo) == 0 {
		return nil
	}
	return a.ReportsTo[0].AssociateOID
}

// OrganizationalUnit is a home organizational unit.
type OrganizationalUnit struct {
	NameCode *CodeValue `json:"nameCode,omitempty"`
	TypeCode *CodeValue `json:"typeCode,omitempty"`
}

// ReportsTo references a manager.
type ReportsTo struct {
	AssociateOID *string `json:"associateOID,omitempty"`
}

// Remuneration holds base pay.
type Remuneration struct {
	HourlyRateAmount *Amount `json:"hourlyRateAmount,omitempty"`
	AnnualRateAmount *Amount `json:"annualRateAmount,omitempty"`
	EffectiveDate    *string `json:"effectiveDate,omitempty"`
}

// Amount is a pay rate.
type Amount struct {
	NameCode    *CodeValue       `json:"nameCode,omitempty"`
	AmountValue *decimal.Decimal `json:"amountValue,omitempty"`
}

// Present reports whether the rate carries a name code, which is how the
// source marks the pay basis in use.
func (a *Amount) Present() bool {
	return a != nil && a.NameCode != nil && a.NameCode.ShortName != nil
}

// WorkerGroup is a worker group membership.
type WorkerGroup struct {
	GroupCode *CodeValue `json:"groupCode,omitempty"`
}
