package feed

import "github.com/roach88/hrsync/internal/ir"

// Page is an OData collection page.
type Page[T any] struct {
	Value []T  `json:"value"`
	Count *int `json:"@odata.count,omitempty"`
}

// HierarchyNode is a destination hierarchy node.
type HierarchyNode struct {
	Id             string  `json:"Id"`
	ParentId       *string `json:"ParentId"`
	Title          *string `json:"Title"`
	SourceSystemId *string `json:"SourceSystemId"`
	Disabled       bool    `json:"Disabled"`
}

// DestinationEmployee is an employee as returned by the destination.
// Its fields decode straight into the personal payload; datetimes are
// collapsed to dates by ir.Date.
type DestinationEmployee = ir.PersonalRecord

// DestinationJob is a job line as returned by the destination.
type DestinationJob = ir.JobRecord

// DestinationAbsence is an absence as returned by the destination.
type DestinationAbsence struct {
	Id              string  `json:"Id"`
	EmployeeId      string  `json:"EmployeeId"`
	AbsenceReasonId string  `json:"AbsenceReasonId"`
	Narrative       *string `json:"Narrative"`
	StartDate       ir.Date `json:"StartDate"`
	EndDate         ir.Date `json:"EndDate"`
}

// Created is the body returned by a destination create.
type Created struct {
	Id string `json:"id"`
}

// ChangeEvent is the source custom-field change event used to push a
// destination display id back to the source.
type ChangeEvent struct {
	Events []EventBody `json:"events"`
}

// EventBody is one change event.
type EventBody struct {
	Data EventData `json:"data"`
}

// EventData carries the event context and transform.
type EventData struct {
	EventContext struct {
		Worker EventWorker `json:"worker"`
	} `json:"eventContext"`
	Transform struct {
		Worker EventWorker `json:"worker"`
	} `json:"transform"`
}

// EventWorker is the worker shape inside a change event.
type EventWorker struct {
	AssociateOID *string     `json:"associateOID,omitempty"`
	Person       EventPerson `json:"person"`
}

// EventPerson is the person shape inside a change event.
type EventPerson struct {
	CustomFieldGroup struct {
		StringField EventStringField `json:"stringField"`
	} `json:"customFieldGroup"`
}

// EventStringField is the custom field being changed.
type EventStringField struct {
	ItemID      *string `json:"itemID,omitempty"`
	StringValue *string `json:"stringValue,omitempty"`
}

// NewChangeEvent builds the event that writes displayID into the custom
// field itemID of worker associateOID.
func NewChangeEvent(associateOID, itemID, displayID string) ChangeEvent {
	var b EventBody
	b.Data.EventContext.Worker.AssociateOID = &associateOID
	b.Data.EventContext.Worker.Person.CustomFieldGroup.StringField.ItemID = &itemID
	b.Data.Transform.Worker.Person.CustomFieldGroup.StringField.StringValue = &displayID
	return ChangeEvent{Events: []EventBody{b}}
}
