package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roach88/hrsync/internal/feed"
	"github.com/roach88/hrsync/internal/queryir"
)

const (
	workersPath     = "hr/v2/workers"
	changeEventPath = "events/hr/v1/worker.person.custom-field.string.change"
	workersPageSize = 100
	statusField     = "workers/workAssignments/assignmentStatus/statusCode/codeValue"
)

// Assignment status codes used to partition the source feed.
const (
	StatusActive     = "A"
	StatusLeave      = "L"
	StatusTerminated = "T"
)

// Workers is the materialized source feed for one country.
type Workers struct {
	// Current holds active and on-leave workers.
	Current []feed.Worker
	// Terminated holds workers whose assignment status is T.
	Terminated []feed.Worker
	// Failed lists pages that could not be fetched.
	Failed []error
}

// SourceClient reads workers and time-off from the source system and
// pushes display ids back to it.
type SourceClient struct {
	t *transport
}

// NewSourceClient creates a client for the source API at baseURL.
func NewSourceClient(baseURL, token string, opts ...Option) (*SourceClient, error) {
	t, err := newTransport(baseURL, token, opts)
	if err != nil {
		return nil, err
	}
	t.headers.Set("Accept", "application/json;masked=false")
	return &SourceClient{t: t}, nil
}

// Count returns the total number of workers, rounded up to a whole page.
func (c *SourceClient) Count(ctx context.Context) (int, error) {
	var page feed.WorkersPage
	if err := c.t.getJSON(ctx, workersPath, url.Values{"count": {"true"}}, &page); err != nil {
		return 0, fmt.Errorf("count workers: %w", err)
	}
	total := 0
	if page.Meta != nil {
		total = page.Meta.TotalNumber
	}
	return roundUp(total, workersPageSize), nil
}

// Workers fetches active and terminated workers in pages of 100 bounded by
// Count, plus the on-leave workers in a single request. Workers for which
// exclude returns true are dropped. A failed page is logged and skipped;
// auth failures and cancellation abort the read.
func (c *SourceClient) Workers(ctx context.Context, exclude func(workerID string) bool) (*Workers, error) {
	limit, err := c.Count(ctx)
	if err != nil {
		return nil, err
	}

	out := &Workers{}
	active, err := c.statusPages(ctx, StatusActive, limit)
	if err != nil {
		return nil, err
	}
	terminated, err := c.statusPages(ctx, StatusTerminated, limit)
	if err != nil {
		return nil, err
	}
	leave, err := c.fetchWorkers(ctx, queryir.Collection{Path: workersPath, Filter: queryir.Eq(statusField, StatusLeave)})
	if err != nil {
		if fatal(ctx, err) {
			return nil, err
		}
		c.t.logger.Warn("source page failed", "status", StatusLeave, "error", err)
		out.Failed = append(out.Failed, err)
	}

	out.Current = keep(append(active.Items, leave...), exclude)
	out.Terminated = keep(terminated.Items, exclude)
	out.Failed = append(out.Failed, active.Failed...)
	out.Failed = append(out.Failed, terminated.Failed...)
	return out, nil
}

func (c *SourceClient) statusPages(ctx context.Context, status string, limit int) (Listing[feed.Worker], error) {
	var out Listing[feed.Worker]
	base := queryir.Collection{Path: workersPath, Filter: queryir.Eq(statusField, status), Top: workersPageSize}
	for skip := 0; skip < limit; skip += workersPageSize {
		workers, err := c.fetchWorkers(ctx, base.Page(skip))
		if err != nil {
			if fatal(ctx, err) {
				return out, err
			}
			c.t.logger.Warn("source page failed", "status", status, "skip", skip, "error", err)
			out.Failed = append(out.Failed, err)
			continue
		}
		out.Items = append(out.Items, workers...)
	}
	return out, nil
}

func (c *SourceClient) fetchWorkers(ctx context.Context, q queryir.Collection) ([]feed.Worker, error) {
	var page feed.WorkersPage
	if err := c.t.query(ctx, q, &page); err != nil {
		return nil, err
	}
	return page.Workers, nil
}

// TimeOff fetches the time-off requests of one worker. A 204, a blank
// body or a body without time-off sections means the worker has nothing
// booked and yields Empty; a body that does not decode is Failed.
func (c *SourceClient) TimeOff(ctx context.Context, associateOID string) Result[*feed.TimeOffResponse] {
	path := "time/v2/workers/" + associateOID + "/time-off-details/time-off-requests"
	var resp feed.TimeOffResponse
	if err := c.t.getJSON(ctx, path, nil, &resp); err != nil {
		return Failed[*feed.TimeOffResponse](err)
	}
	if resp.PaidTimeOffDetails == nil || len(resp.Sections()) == 0 {
		return Empty[*feed.TimeOffResponse]()
	}
	return Some(&resp)
}

// PushDisplayID writes a destination display id into the worker's custom
// field.
func (c *SourceClient) PushDisplayID(ctx context.Context, associateOID, itemID, displayID string) error {
	event := feed.NewChangeEvent(associateOID, itemID, displayID)
	if err := c.t.send(ctx, http.MethodPost, changeEventPath, event, nil); err != nil {
		return fmt.Errorf("push display id for %s: %w", associateOID, err)
	}
	return nil
}

func keep(workers []feed.Worker, exclude func(string) bool) []feed.Worker {
	if exclude == nil {
		return workers
	}
	out := workers[:0:0]
	for _, w := range workers {
		if exclude(w.WorkerID.IDValue) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func roundUp(n, size int) int {
	if n <= 0 {
		return 0
	}
	return ((n + size - 1) / size) * size
}
