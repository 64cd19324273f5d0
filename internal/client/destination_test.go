package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrsync/internal/ir"
)

func newDestinationServer(t *testing.T, handler http.HandlerFunc) *DestinationClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewDestinationClient(srv.URL+"/hr/v2", "dst-token", fastRetry())
	require.NoError(t, err)
	return c
}

func employeesPage(count int, displayIDs ...string) string {
	parts := make([]string, len(displayIDs))
	for i, id := range displayIDs {
		if id == "" {
			parts[i] = `{"DisplayId":null,"Id":"anon"}`
			continue
		}
		parts[i] = fmt.Sprintf(`{"DisplayId":%q,"Id":"id-%s","EmploymentStartDate":"2020-01-06T00:00:00Z"}`, id, id)
	}
	return fmt.Sprintf(`{"@odata.count":%d,"value":[%s]}`, count, strings.Join(parts, ","))
}

func TestDestinationClient_EmployeesPagesByCount(t *testing.T) {
	var mu sync.Mutex
	var skips []string
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/hr/v2/employees", r.URL.Path)
		assert.Equal(t, "Bearer dst-token", r.Header.Get("Authorization"))
		assert.Equal(t, "EmploymentLeftDate eq null", q.Get("$filter"))
		assert.Equal(t, "200", q.Get("$top"))
		mu.Lock()
		skips = append(skips, q.Get("$skip"))
		mu.Unlock()
		switch q.Get("$skip") {
		case "":
			w.Write([]byte(employeesPage(401, "D1", "")))
		case "200":
			w.Write([]byte(employeesPage(401, "D2")))
		case "400":
			w.Write([]byte(employeesPage(401, "D3")))
		}
	})

	got, err := c.Employees(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, got.Items, 3)
	assert.Equal(t, "D1", got.Items[0].Key())
	assert.Equal(t, "2020-01-06", got.Items[0].EmploymentStartDate.String())
	assert.Equal(t, []string{"", "200", "400"}, skips)
}

func TestDestinationClient_EmployeesExtendedHasNoFilter(t *testing.T) {
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["$filter"]
		assert.False(t, ok)
		w.Write([]byte(employeesPage(1, "D1")))
	})

	got, err := c.Employees(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestDestinationClient_EmployeesFirstPageFailureIsError(t *testing.T) {
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Employees(context.Background(), false)
	assert.Error(t, err)
}

func TestDestinationClient_EmployeeByDisplayID(t *testing.T) {
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("$filter")
		if filter == "DisplayId eq 'D1'" {
			w.Write([]byte(employeesPage(1, "D1")))
			return
		}
		w.Write([]byte(`{"value":[]}`))
	})

	found := c.EmployeeByDisplayID(context.Background(), "D1")
	require.True(t, found.IsSome())
	e, _ := found.Value()
	assert.Equal(t, "id-D1", ir.Deref(e.Id))

	assert.True(t, c.EmployeeByDisplayID(context.Background(), "D9").IsEmpty())
}

func TestDestinationClient_JobsStopsOnShortPage(t *testing.T) {
	var calls int
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "EndDate eq null", q.Get("$filter"))
		assert.Equal(t, "250", q.Get("$top"))
		calls++
		n := 250
		if q.Get("$skip") == "250" {
			n = 3
		}
		jobs := make([]string, n)
		for i := range jobs {
			jobs[i] = fmt.Sprintf(`{"Id":"j%d","StartDate":"2024-01-01","Salary":1,"FullTimeEquivalent":1}`, i)
		}
		w.Write([]byte(`{"value":[` + strings.Join(jobs, ",") + `]}`))
	})

	got, err := c.Jobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Items, 253)
	assert.Equal(t, 2, calls)
}

func TestDestinationClient_HierarchyBreadthFirst(t *testing.T) {
	children := map[string]string{
		"root": `[{"Id":"a","ParentId":"root"},{"Id":"b","ParentId":"root"}]`,
		"a":    `[{"Id":"c","ParentId":"a","SourceSystemId":"1001"}]`,
		"b":    `[]`,
		"c":    `[{"Id":"a","ParentId":"c"}]`,
	}
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("$filter")
		if filter == "Id eq 'root'" {
			w.Write([]byte(`{"value":[{"Id":"root"}]}`))
			return
		}
		parent := strings.TrimSuffix(strings.TrimPrefix(filter, "parentId eq '"), "' and disabled eq false")
		w.Write([]byte(`{"value":` + children[parent] + `}`))
	})

	got, err := c.Hierarchy(context.Background(), "root")
	require.NoError(t, err)

	ids := make([]string, len(got.Items))
	for i, n := range got.Items {
		ids[i] = n.Id
	}
	assert.Equal(t, []string{"root", "a", "b", "c"}, ids)
	assert.Equal(t, "1001", ir.Deref(got.Items[3].SourceSystemId))
}

func TestDestinationClient_Absences(t *testing.T) {
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("$filter")
		assert.Equal(t, "/hr/v2/attendance/absences", r.URL.Path)
		switch filter {
		case "EmployeeId eq 'e1' and startDate ge 2026-07-18":
			w.Write([]byte(`{"value":[{"Id":"x1","EmployeeId":"e1","AbsenceReasonId":"r","StartDate":"2026-08-01T00:00:00Z","EndDate":"2026-08-02T00:00:00Z"}]}`))
		case "EmployeeId eq 'e2' and startDate ge 2026-07-18":
			w.Write([]byte(`{"value":[]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	from := ir.MustParseDate("2026-07-18")

	some := c.Absences(context.Background(), "e1", from)
	require.True(t, some.IsSome())
	list, _ := some.Value()
	assert.Equal(t, "2026-08-01", list[0].StartDate.String())

	assert.True(t, c.Absences(context.Background(), "e2", from).IsEmpty())
	assert.True(t, c.Absences(context.Background(), "e3", from).IsErr())
}

type recorded struct {
	Method string
	Path   string
	Body   string
}

func recordingServer(t *testing.T, status int, reply string) (*DestinationClient, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	c := newDestinationServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		w.WriteHeader(status)
		if reply != "" {
			w.Write([]byte(reply))
		}
	})
	return c, &calls
}

func TestDestinationClient_Writes(t *testing.T) {
	ctx := context.Background()

	t.Run("update employee", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusNoContent, "")
		require.NoError(t, c.UpdateEmployee(ctx, "E-1", ir.PersonalRecord{DisplayId: ir.StringPtr("D1")}))
		require.Len(t, *calls, 1)
		assert.Equal(t, http.MethodPut, (*calls)[0].Method)
		assert.Equal(t, "/hr/v2/employees/E-1", (*calls)[0].Path)
	})

	t.Run("create employee", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusCreated, `{"id":"E-9"}`)
		id, err := c.CreateEmployee(ctx, ir.PersonalRecord{})
		require.NoError(t, err)
		assert.Equal(t, "E-9", id)
		assert.Equal(t, "/hr/v2/employees", (*calls)[0].Path)
	})

	t.Run("update job", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusNoContent, "")
		rec := ir.JobRecord{Salary: decimal.RequireFromString("52000.10"), Id: ir.StringPtr("J-1")}
		require.NoError(t, c.UpdateJob(ctx, "J-1", rec))
		assert.Equal(t, "/hr/v2/jobs/J-1", (*calls)[0].Path)
		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte((*calls)[0].Body), &body))
		assert.Equal(t, 52000.1, body["Salary"])
	})

	t.Run("create job omits id", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusCreated, `{"id":"J-2"}`)
		_, err := c.CreateJob(ctx, ir.JobRecord{})
		require.NoError(t, err)
		assert.NotContains(t, (*calls)[0].Body, `"Id"`)
	})

	t.Run("create absence returns tracking id", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusCreated, `{"id":"ABS-1"}`)
		id, err := c.CreateAbsence(ctx, ir.AbsenceRecord{EmployeeId: "e1", AbsenceReasonId: "r", StartDate: ir.MustParseDate("2026-08-01"), EndDate: ir.MustParseDate("2026-08-01"), Section: 2})
		require.NoError(t, err)
		assert.Equal(t, "ABS-1", id)
		assert.JSONEq(t, `{"EmployeeId":"e1","AbsenceReasonId":"r","Narrative":null,"StartDate":"2026-08-01","EndDate":"2026-08-01"}`, (*calls)[0].Body)
	})

	t.Run("create absence without id fails", func(t *testing.T) {
		c, _ := recordingServer(t, http.StatusCreated, `{}`)
		_, err := c.CreateAbsence(ctx, ir.AbsenceRecord{EmployeeId: "e1"})
		assert.Error(t, err)
	})

	t.Run("update and delete absence", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusNoContent, "")
		require.NoError(t, c.UpdateAbsence(ctx, "ABS-1", ir.AbsenceUpdate{Id: "r", StartDate: ir.MustParseDate("2026-08-01"), EndDate: ir.MustParseDate("2026-08-02")}))
		require.NoError(t, c.DeleteAbsence(ctx, "ABS-2"))
		assert.Equal(t, http.MethodPut, (*calls)[0].Method)
		assert.Equal(t, "/hr/v2/attendance/absences/ABS-1", (*calls)[0].Path)
		assert.Equal(t, http.MethodDelete, (*calls)[1].Method)
		assert.Equal(t, "/hr/v2/attendance/absences/ABS-2", (*calls)[1].Path)
	})

	t.Run("absence day encodes durations as strings", func(t *testing.T) {
		c, calls := recordingServer(t, http.StatusCreated, "")
		day := ir.AbsenceDay{AbsenceId: "ABS-1", EmployeeId: "e1", Date: "2026-08-01", DurationDays: "0.5", DurationMinutes: 240, DayPart: ir.DayPartAM}
		require.NoError(t, c.CreateAbsenceDay(ctx, day))
		assert.Equal(t, "/hr/v2/attendance/absencedays", (*calls)[0].Path)
		assert.JSONEq(t, `{"AbsenceId":"ABS-1","EmployeeId":"e1","Date":"2026-08-01","DurationDays":"0.5","DurationMinutes":"240","DayPart":"AM"}`, (*calls)[0].Body)
	})

	t.Run("not found is reported", func(t *testing.T) {
		c, _ := recordingServer(t, http.StatusNotFound, "")
		err := c.DeleteAbsence(ctx, "gone")
		assert.True(t, IsNotFound(err))
	})
}
