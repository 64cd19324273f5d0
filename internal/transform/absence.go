package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/hrsync/internal/country"
	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
)

// StatusApproved is the request and entry status label for approved time off.
const StatusApproved = "Approved"

// defaultStartTime is assumed for entries that carry no start time.
const defaultStartTime = "08:00"

// AbsenceInput holds what an absence projection reads besides the response.
type AbsenceInput struct {
	Profile    country.Profile
	Tables     ir.CountryTables
	EmployeeID string
	// WindowStart drops requests that start before it.
	WindowStart ir.Date
}

// Absences projects the approved requests of a time-off response into
// destination absences. A request whose reason cannot be mapped, or whose
// dates are unreadable, is reported in skipped and left out.
func Absences(resp *feed.TimeOffResponse, in AbsenceInput) (records []ir.AbsenceRecord, skipped []error) {
	records = []ir.AbsenceRecord{}
	for s, section := range resp.Sections() {
		if section.RequestStatus.Name() != StatusApproved {
			continue
		}
		for r, req := range section.Requests {
			rec, err := absence(req, in)
			if err != nil {
				skipped = append(skipped, fmt.Errorf("request %d/%d: %w", s, r, err))
				continue
			}
			if rec.StartDate.Before(in.WindowStart) {
				continue
			}
			rec.Section, rec.Request = s, r
			records = append(records, rec)
		}
	}
	return records, skipped
}

func absence(req feed.TimeOffRequest, in AbsenceInput) (ir.AbsenceRecord, error) {
	entries := req.PaidTimeOffEntries
	if len(entries) == 0 {
		return ir.AbsenceRecord{}, malformed("paidTimeOffEntries", errMissing)
	}
	first, last := entries[0], entries[len(entries)-1]

	reason, ok := in.Profile.AbsenceReason(first, in.Tables)
	if !ok {
		return ir.AbsenceRecord{}, malformed("paidTimeOffPolicy",
			fmt.Errorf("no absence reason for %q/%q", first.PaidTimeOffPolicy.Name(), first.EarningType.Name()))
	}

	var startRaw, endRaw *string
	if first.TimePeriod != nil {
		startRaw = first.TimePeriod.StartDateTime
	}
	if last.TimePeriod != nil {
		endRaw = last.TimePeriod.EndDateTime
	}
	start, err := requiredDate("timePeriod.startDateTime", startRaw)
	if err != nil {
		return ir.AbsenceRecord{}, err
	}
	end, err := requiredDate("timePeriod.endDateTime", endRaw)
	if err != nil {
		return ir.AbsenceRecord{}, err
	}

	return ir.AbsenceRecord{
		EmployeeId:      in.EmployeeID,
		AbsenceReasonId: reason,
		StartDate:       start,
		EndDate:         end,
	}, nil
}

// NormalizeDestinationAbsence reshapes a destination absence for comparison.
func NormalizeDestinationAbsence(a feed.DestinationAbsence) ir.AbsenceRecord {
	id := a.Id
	return ir.AbsenceRecord{
		EmployeeId:      a.EmployeeId,
		AbsenceReasonId: a.AbsenceReasonId,
		Narrative:       a.Narrative,
		StartDate:       a.StartDate,
		EndDate:         a.EndDate,
		Id:              &id,
	}
}

// DayPartFor classifies a day by its booked minutes and start hour.
func DayPartFor(minutes, startHour int) ir.DayPart {
	switch {
	case minutes >= ir.AllDayMinutes:
		return ir.DayPartAllDay
	case startHour < 12:
		return ir.DayPartAM
	default:
		return ir.DayPartPM
	}
}

// ExpandDays turns the approved entries of a created absence's source
// request into day records tied to the destination absence id.
func ExpandDays(req feed.TimeOffRequest, absenceID, employeeID string, p country.Profile) ([]ir.AbsenceDay, error) {
	days := []ir.AbsenceDay{}
	for i, e := range req.PaidTimeOffEntries {
		if e.EntryStatus.Name() != StatusApproved {
			continue
		}
		if e.TimePeriod == nil || e.TimePeriod.StartDateTime == nil {
			return nil, malformed(fmt.Sprintf("paidTimeOffEntries[%d].timePeriod", i), errMissing)
		}
		hour, err := startHour(e.StartTime)
		if err != nil {
			return nil, malformed(fmt.Sprintf("paidTimeOffEntries[%d].startTime", i), err)
		}
		minutes, dayCount := p.EntryMinutes(e.TotalQuantity)
		days = append(days, ir.AbsenceDay{
			AbsenceId:       absenceID,
			EmployeeId:      employeeID,
			Date:            *e.TimePeriod.StartDateTime,
			DurationDays:    FormatDays(dayCount),
			DurationMinutes: minutes,
			DayPart:         DayPartFor(minutes, hour),
		})
	}
	return days, nil
}

// FormatDays renders a day count with at least one decimal place, as the
// destination expects ("1.0", "0.5", "0.125").
func FormatDays(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func startHour(s *string) (int, error) {
	v := defaultStartTime
	if s != nil && *s != "" {
		v = *s
	}
	h, _, _ := strings.Cut(v, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, fmt.Errorf("start time %q: %w", v, err)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("start time %q: hour out of range", v)
	}
	return hour, nil
}
