package check

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/dirac/internal/config"
	"github.com/samcharles93/dirac/internal/lattice"
	"github.com/samcharles93/dirac/internal/metrics"
)

// Result is the outcome of one property check. Residual is relative unless
// the check says otherwise.
type Result struct {
	Name      string  `json:"name"`
	Residual  float64 `json:"residual"`
	Tolerance float64 `json:"tolerance"`
	Pass      bool    `json:"pass"`
	Detail    string  `json:"detail,omitempty"`
}

func result(name string, residual, tol float64, detail string) Result {
	return Result{Name: name, Residual: residual, Tolerance: tol, Pass: residual <= tol, Detail: detail}
}

// Report collects the results of one run.
type Report struct {
	ID       string          `json:"id"`
	Operator config.Operator `json:"operator"`
	Lattice  [lattice.Nd]int `json:"lattice"`
	Grid     [lattice.Nd]int `json:"grid"`
	N5       int             `json:"n5,omitempty"`
	NFlops   uint64          `json:"nflops"`
	Started  time.Time       `json:"started"`
	Elapsed  float64         `json:"elapsed_seconds"`
	Results  []Result        `json:"results"`
	Timers   []metrics.Entry `json:"timers,omitempty"`
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, c := range r.Results {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Failed returns the names of the failing checks.
func (r *Report) Failed() []string {
	var out []string
	for _, c := range r.Results {
		if !c.Pass {
			out = append(out, c.Name)
		}
	}
	return out
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "run %s  %s on %v", r.ID, r.Operator, r.Lattice)
	if r.N5 > 0 {
		fmt.Fprintf(w, " x %d", r.N5)
	}
	fmt.Fprintf(w, "  grid %v  %d flops/apply\n\n", r.Grid, r.NFlops)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tRESIDUAL\tTOLERANCE\tSTATUS\t")
	for _, c := range r.Results {
		status := "ok"
		if !c.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%.3e\t%.1e\t%s\t%s\n", c.Name, c.Residual, c.Tolerance, status, c.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Timers) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SECTION\tSECONDS\tCALLS\t")
		for _, e := range r.Timers {
			fmt.Fprintf(tw, "%s\t%.6f\t%d\t\n", e.Section, e.Seconds, e.Calls)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d/%d passed in %.3fs\n", len(r.Results)-len(r.Failed()), len(r.Results), r.Elapsed)
	return err
}
