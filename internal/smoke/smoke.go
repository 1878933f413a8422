// Package smoke exercises the backend's CRUD endpoints end to end and reports
// what happened step by step. Failures are informational: nothing here returns
// an error for a failed check.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ideaboard/api/internal/backend"
)

type Step string

const (
	StepList   Step = "GET"
	StepCreate Step = "POST"
	StepUpdate Step = "PATCH"
	StepDelete Step = "DELETE"
)

type Outcome struct {
	Step       Step
	Passed     bool
	StatusCode int
	Detail     string
}

type Report struct {
	Suite    string
	Outcomes []Outcome
}

func (r Report) count(passed bool) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Passed == passed {
			n++
		}
	}
	return n
}

func (r Report) Passed() int { return r.count(true) }
func (r Report) Failed() int { return r.count(false) }

// CreateFunc creates the record a suite will then update and delete.
type CreateFunc func(ctx context.Context, c *backend.Client) (backend.Result, error)

type Suite struct {
	Name       string
	Collection backend.Collection
	Create     CreateFunc
	Patch      map[string]any
}

type Runner struct {
	client *backend.Client
	out    io.Writer
	logger zerolog.Logger
}

func NewRunner(client *backend.Client, out io.Writer, logger zerolog.Logger) *Runner {
	return &Runner{client: client, out: out, logger: logger}
}

// Run executes suite: list, then create, then update and delete the created
// record when the backend returned an id.
func (r *Runner) Run(ctx context.Context, suite Suite) Report {
	report := Report{Suite: suite.Name}
	record := func(o Outcome) {
		report.Outcomes = append(report.Outcomes, o)
		mark := "PASS"
		if !o.Passed {
			mark = "FAIL"
		}
		status := ""
		if o.StatusCode != 0 {
			status = fmt.Sprintf(" [%d]", o.StatusCode)
		}
		fmt.Fprintf(r.out, "  %s %-6s /api/%s%s %s\n", mark, o.Step, suite.Collection, status, o.Detail)
	}

	fmt.Fprintf(r.out, "== %s ==\n", suite.Name)

	listing, err := r.client.List(ctx, suite.Collection, nil)
	if err != nil {
		record(failure(StepList, err))
		return report
	}
	record(Outcome{Step: StepList, Passed: true, StatusCode: listing.StatusCode, Detail: describeListing(listing)})

	started := time.Now()
	created, err := suite.Create(ctx, r.client)
	if err != nil {
		record(failure(StepCreate, err))
		return report
	}
	id := created.ID()
	record(Outcome{Step: StepCreate, Passed: true, StatusCode: created.StatusCode, Detail: fmt.Sprintf("created id=%q", id)})
	r.logger.Debug().Str("suite", suite.Name).Dur("elapsed", time.Since(started)).Msg("record created")

	if id == "" {
		fmt.Fprintf(r.out, "  SKIP update/delete: no id returned\n")
		return report
	}

	updated, err := r.client.Update(ctx, suite.Collection, id, suite.Patch)
	if err != nil {
		record(failure(StepUpdate, err))
	} else {
		record(Outcome{Step: StepUpdate, Passed: true, StatusCode: updated.StatusCode, Detail: "updated " + id})
	}

	deleted, err := r.client.Delete(ctx, suite.Collection, id)
	if err != nil {
		record(failure(StepDelete, err))
	} else {
		record(Outcome{Step: StepDelete, Passed: true, StatusCode: deleted.StatusCode, Detail: "deleted " + id})
	}
	return report
}

// Summary prints per-suite and overall totals.
func (r *Runner) Summary(reports []Report) {
	passed, failed := 0, 0
	fmt.Fprintln(r.out, strings.Repeat("-", 40))
	for _, rep := range reports {
		fmt.Fprintf(r.out, "%-24s %d passed, %d failed\n", rep.Suite, rep.Passed(), rep.Failed())
		passed += rep.Passed()
		failed += rep.Failed()
	}
	fmt.Fprintf(r.out, "TOTAL %d passed, %d failed\n", passed, failed)
}

func describeListing(l backend.Listing) string {
	switch l.Shape {
	case backend.ShapeEnvelope:
		return fmt.Sprintf("paginated envelope, %d of %d items", len(l.Items), l.TotalElements)
	case backend.ShapeArray:
		return fmt.Sprintf("raw array, %d items", len(l.Items))
	default:
		return "unknown response shape"
	}
}

func failure(step Step, err error) Outcome {
	o := Outcome{Step: step, Detail: err.Error()}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		o.StatusCode = statusErr.StatusCode
		o.Detail = statusErr.Body
	}
	return o
}
