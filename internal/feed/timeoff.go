package feed

import "github.com/shopspring/decimal"

// TimeOffResponse is the per-worker time-off response.
type TimeOffResponse struct {
	PaidTimeOffDetails *TimeOffDetails `json:"paidTimeOffDetails,omitempty"`
}

// TimeOffDetails holds the request groups.
type TimeOffDetails struct {
	PaidTimeOffRequests []TimeOffRequests `json:"paidTimeOffRequests"`
}

// TimeOffRequests groups request sections by request status.
type TimeOffRequests struct {
	PaidTimeOffRequestEntries []TimeOffSection `json:"paidTimeOffRequestEntries"`
}

// TimeOffSection holds the requests sharing one request status.
type TimeOffSection struct {
	RequestStatus *Label           `json:"requestStatus,omitempty"`
	Requests      []TimeOffRequest `json:"requests"`
}

// TimeOffRequest is one booked absence with its per-day entries.
type TimeOffRequest struct {
	PaidTimeOffEntries []TimeOffEntry `json:"paidTimeOffEntries"`
}

// TimeOffEntry is one day of a request.
type TimeOffEntry struct {
	PaidTimeOffPolicy *Label      `json:"paidTimeOffPolicy,omitempty"`
	EarningType       *Label      `json:"earningType,omitempty"`
	EntryStatus       *Label      `json:"entryStatus,omitempty"`
	TimePeriod        *TimePeriod `json:"timePeriod,omitempty"`
	StartTime         *string     `json:"startTime,omitempty"`
	TotalQuantity     *Quantity   `json:"totalQuantity,omitempty"`
}

// Label wraps a labelName.
type Label struct {
	LabelName *string `json:"labelName,omitempty"`
}

// Name returns labelName or "".
func (l *Label) Name() string {
	if l == nil || l.LabelName == nil {
		return ""
	}
	return *l.LabelName
}

// TimePeriod is an entry's date span.
type TimePeriod struct {
	StartDateTime *string `json:"startDateTime,omitempty"`
	EndDateTime   *string `json:"endDateTime,omitempty"`
}

// Quantity is an entry's booked amount.
type Quantity struct {
	ValueNumber  decimal.Decimal `json:"valueNumber"`
	UnitTimeCode *string         `json:"unitTimeCode,omitempty"`
}

// Sections returns the request sections of the first request group.
func (r *TimeOffResponse) Sections() []TimeOffSection {
	if r == nil || r.PaidTimeOffDetails == nil || len(r.PaidTimeOffDetails.PaidTimeOffRequests) == 0 {
		return nil
	}
	return r.PaidTimeOffDetails.PaidTimeOffRequests[0].PaidTimeOffRequestEntries
}

// Request returns the request at (section, request), or false.
func (r *TimeOffResponse) Request(section, request int) (TimeOffRequest, bool) {
	sections := r.Sections()
	if section < 0 || section >= len(sections) {
		return TimeOffRequest{}, false
	}
	reqs := sections[section].Requests
	if request < 0 || request >= len(reqs) {
		return TimeOffRequest{}, false
	}
	return reqs[request], true
}
