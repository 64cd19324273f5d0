package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/ir"
	"github.com/roach88/hrsync/internal/queryir"
)

const (
	employeesPath   = "employees"
	jobsPath        = "jobs"
	hierarchyPath   = "hierarchy"
	absencesPath    = "attendance/absences"
	absenceDaysPath = "attendance/absencedays"

	employeesPageSize = 200
	jobsPageSize      = 250
	maxJobPages       = 400
)

// DestinationClient reads and writes employees, jobs, hierarchy nodes and
// absences in the destination system.
type DestinationClient struct {
	t *transport
}

// NewDestinationClient creates a client for the destination API at baseURL.
func NewDestinationClient(baseURL, token string, opts ...Option) (*DestinationClient, error) {
	t, err := newTransport(baseURL, token, opts)
	if err != nil {
		return nil, err
	}
	t.headers.Set("Accept", "application/json")
	return &DestinationClient{t: t}, nil
}

// Employees pages through destination employees 200 at a time. Unless
// extended is set only employees without a left date are read. Records
// without a DisplayId are dropped. The first page carries the total count;
// if it fails the read fails.
func (c *DestinationClient) Employees(ctx context.Context, extended bool) (Listing[feed.DestinationEmployee], error) {
	var out Listing[feed.DestinationEmployee]
	base := queryir.Collection{Path: employeesPath, Top: employeesPageSize, Count: true}
	if !extended {
		base.Filter = queryir.IsNull("EmploymentLeftDate")
	}

	var first feed.Page[feed.DestinationEmployee]
	if err := c.t.query(ctx, base, &first); err != nil {
		return out, fmt.Errorf("list employees: %w", err)
	}
	out.Items = withDisplayID(out.Items, first.Value)

	total := len(first.Value)
	if first.Count != nil {
		total = *first.Count
	}
	limit := roundUp(total, employeesPageSize)
	for skip := employeesPageSize; skip < limit; skip += employeesPageSize {
		var page feed.Page[feed.DestinationEmployee]
		if err := c.t.query(ctx, base.Page(skip), &page); err != nil {
			if fatal(ctx, err) {
				return out, err
			}
			c.t.logger.Warn("destination page failed", "collection", employeesPath, "skip", skip, "error", err)
			out.Failed = append(out.Failed, err)
			continue
		}
		out.Items = withDisplayID(out.Items, page.Value)
	}
	return out, nil
}

func withDisplayID(dst, src []feed.DestinationEmployee) []feed.DestinationEmployee {
	for _, e := range src {
		if e.DisplayId != nil {
			dst = append(dst, e)
		}
	}
	return dst
}

// EmployeeByDisplayID looks up one employee regardless of left date.
func (c *DestinationClient) EmployeeByDisplayID(ctx context.Context, displayID string) Result[feed.DestinationEmployee] {
	var page feed.Page[feed.DestinationEmployee]
	q := queryir.Collection{Path: employeesPath, Filter: queryir.Eq("DisplayId", displayID)}
	if err := c.t.query(ctx, q, &page); err != nil {
		return Failed[feed.DestinationEmployee](err)
	}
	if len(page.Value) == 0 {
		return Empty[feed.DestinationEmployee]()
	}
	return Some(page.Value[0])
}

// Jobs pages through open job lines 250 at a time until a short page.
func (c *DestinationClient) Jobs(ctx context.Context) (Listing[feed.DestinationJob], error) {
	var out Listing[feed.DestinationJob]
	base := queryir.Collection{Path: jobsPath, Filter: queryir.IsNull("EndDate"), Top: jobsPageSize}

	for n := 0; n < maxJobPages; n++ {
		skip := n * jobsPageSize
		var page feed.Page[feed.DestinationJob]
		if err := c.t.query(ctx, base.Page(skip), &page); err != nil {
			if fatal(ctx, err) {
				return out, err
			}
			c.t.logger.Warn("destination page failed", "collection", jobsPath, "skip", skip, "error", err)
			out.Failed = append(out.Failed, err)
			continue
		}
		out.Items = append(out.Items, page.Value...)
		if len(page.Value) < jobsPageSize {
			return out, nil
		}
	}
	c.t.logger.Warn("job paging stopped at page cap", "pages", maxJobPages)
	return out, nil
}

// Hierarchy walks enabled hierarchy nodes breadth-first from rootID. Each
// node is expanded at most once even if the destination reports a cycle.
func (c *DestinationClient) Hierarchy(ctx context.Context, rootID string) (Listing[feed.HierarchyNode], error) {
	var out Listing[feed.HierarchyNode]

	var root feed.Page[feed.HierarchyNode]
	if err := c.t.query(ctx, queryir.Collection{Path: hierarchyPath, Filter: queryir.Eq("Id", rootID)}, &root); err != nil {
		return out, fmt.Errorf("hierarchy root %s: %w", rootID, err)
	}

	visited := make(map[string]bool)
	var frontier []string
	for _, n := range root.Value {
		if visited[n.Id] {
			continue
		}
		visited[n.Id] = true
		out.Items = append(out.Items, n)
		frontier = append(frontier, n.Id)
	}

	for len(frontier) > 0 {
		var next []string
		for _, parent := range frontier {
			q := queryir.Collection{
				Path:   hierarchyPath,
				Filter: queryir.AllOf(queryir.Eq("parentId", parent), queryir.Equals{Field: "disabled", Value: queryir.Bool(false)}),
			}
			var page feed.Page[feed.HierarchyNode]
			if err := c.t.query(ctx, q, &page); err != nil {
				if fatal(ctx, err) {
					return out, err
				}
				c.t.logger.Warn("hierarchy children failed", "parent", parent, "error", err)
				out.Failed = append(out.Failed, err)
				continue
			}
			for _, n := range page.Value {
				if visited[n.Id] {
					continue
				}
				visited[n.Id] = true
				out.Items = append(out.Items, n)
				next = append(next, n.Id)
			}
		}
		frontier = next
	}
	return out, nil
}

// Absences lists an employee's absences starting on or after from.
func (c *DestinationClient) Absences(ctx context.Context, employeeID string, from ir.Date) Result[[]feed.DestinationAbsence] {
	q := queryir.Collection{
		Path: absencesPath,
		Filter: queryir.AllOf(
			queryir.Eq("EmployeeId", employeeID),
			queryir.GreaterOrEqual{Field: "startDate", Value: queryir.Date(from)},
		),
	}
	var page feed.Page[feed.DestinationAbsence]
	if err := c.t.query(ctx, q, &page); err != nil {
		return Failed[[]feed.DestinationAbsence](err)
	}
	if len(page.Value) == 0 {
		return Empty[[]feed.DestinationAbsence]()
	}
	return Some(page.Value)
}

// UpdateEmployee replaces the employee with internal id.
func (c *DestinationClient) UpdateEmployee(ctx context.Context, id string, rec ir.PersonalRecord) error {
	return c.t.send(ctx, http.MethodPut, employeesPath+"/"+id, rec, nil)
}

// CreateEmployee adds a new employee and returns its internal id.
func (c *DestinationClient) CreateEmployee(ctx context.Context, rec ir.PersonalRecord) (string, error) {
	var created feed.Created
	if err := c.t.send(ctx, http.MethodPost, employeesPath, rec, &created); err != nil {
		return "", err
	}
	return created.Id, nil
}

// UpdateJob replaces the job line with id.
func (c *DestinationClient) UpdateJob(ctx context.Context, id string, rec ir.JobRecord) error {
	return c.t.send(ctx, http.MethodPut, jobsPath+"/"+id, rec, nil)
}

// CreateJob adds a job line and returns its id.
func (c *DestinationClient) CreateJob(ctx context.Context, rec ir.JobRecord) (string, error) {
	var created feed.Created
	if err := c.t.send(ctx, http.MethodPost, jobsPath, rec, &created); err != nil {
		return "", err
	}
	return created.Id, nil
}

// CreateAbsence adds an absence and returns the destination tracking id
// that its days must reference.
func (c *DestinationClient) CreateAbsence(ctx context.Context, rec ir.AbsenceRecord) (string, error) {
	var created feed.Created
	if err := c.t.send(ctx, http.MethodPost, absencesPath, rec, &created); err != nil {
		return "", err
	}
	if created.Id == "" {
		return "", fmt.Errorf("create absence for %s: response carried no id", rec.EmployeeId)
	}
	return created.Id, nil
}

// UpdateAbsence applies a two-of-three correction to an absence.
func (c *DestinationClient) UpdateAbsence(ctx context.Context, id string, payload ir.AbsenceUpdate) error {
	return c.t.send(ctx, http.MethodPut, absencesPath+"/"+id, payload, nil)
}

// DeleteAbsence removes an absence.
func (c *DestinationClient) DeleteAbsence(ctx context.Context, id string) error {
	return c.t.send(ctx, http.MethodDelete, absencesPath+"/"+id, nil, nil)
}

// CreateAbsenceDay adds one day of an absence.
func (c *DestinationClient) CreateAbsenceDay(ctx context.Context, day ir.AbsenceDay) error {
	return c.t.send(ctx, http.MethodPost, absenceDaysPath, day, nil)
}
