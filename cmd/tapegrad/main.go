// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// tapegrad records the tape described in a YAML problem file, evaluates its Taylor coefficients and prints
// the derivatives computed by the reverse sweeps.
//
// Usage:
//
//	tapegrad [-selective] [-jacobian] [-dedup] [-parallelism=N] problem.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/tapead/internal/workerspool"
	"github.com/gomlx/tapead/pkg/core/reverse"
	"github.com/gomlx/tapead/pkg/core/tape"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagSelective = flag.Bool("selective", false, "Computes the first order gradient of each dependent "+
		"variable with a selective sweep, and checks the derivative buffer is restored after each call.")
	flagJacobian = flag.Bool("jacobian", false, "Computes the first order Jacobian, one selective sweep "+
		"per dependent variable, distributed over -parallelism workers.")
	flagDedup       = flag.Bool("dedup", false, "Removes duplicate records from the tape before sweeping.")
	flagParallelism = flag.Int("parallelism", runtime.NumCPU(), "Number of workers used by -jacobian. "+
		"If 0 the Jacobian is computed sequentially, if -1 there is no limit.")
	flagPrintTape = flag.Bool("tape", false, "Prints the recorded tape.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing problem file to read from. See 'tapegrad -help'")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'tapegrad -help'.")
		os.Exit(1)
	}
	if err := report(args[0]); err != nil {
		klog.Errorf("tapegrad failed: %+v", err)
		os.Exit(1)
	}
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

// tableStyle styles the header row and alternates the style of the data rows, which are numbered from 0.
func tableStyle(row, col int) (s lipgloss.Style) {
	if row == lgtable.HeaderRow {
		return headerRowStyle
	}
	switch {
	case row%2 == 0:
		s = oddRowStyle
	default:
		s = evenRowStyle
	}
	if col == 0 {
		s = s.Align(lipgloss.Right)
	} else {
		s = s.Align(lipgloss.Left)
	}
	return
}

func newPlainTable(headers ...string) *lgtable.Table {
	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(tableStyle)
	if len(headers) > 0 {
		table = table.Headers(headers...)
	}
	return table
}

// describeParallelism returns how the Jacobian rows are distributed over the pool.
func describeParallelism(pool *workerspool.Pool) string {
	switch {
	case !pool.IsEnabled():
		return "sequential"
	case pool.IsUnlimited():
		return "unlimited"
	}
	return humanize.Comma(int64(pool.MaxParallelism())) + " workers"
}

func formatFloat(v float64) string {
	return humanize.FtoaWithDigits(v, 8)
}

func report(problemPath string) error {
	pb, err := LoadProblem(problemPath)
	if err != nil {
		return err
	}
	t, err := pb.Build()
	if err != nil {
		return err
	}
	if *flagDedup {
		before := t.NumRecords()
		t, _ = tape.Dedup(t)
		klog.V(1).Infof("dedup: %d records reduced to %d", before, t.NumRecords())
	}
	x, err := pb.Coefficients()
	if err != nil {
		return err
	}
	p := pb.Orders()
	tc := must.M1(tape.Forward(t, p, x))
	w, err := pb.Weighting()
	if err != nil {
		return err
	}

	pool := workerspool.New()
	pool.SetMaxParallelism(*flagParallelism)

	fmt.Println(titleStyle.Render("Summary"))
	table := newPlainTable()
	table.Row("problem", problemPath)
	table.Row("# records", humanize.Comma(int64(t.NumRecords())))
	table.Row("# variables", humanize.Comma(int64(t.NumVar())))
	table.Row("# independents", humanize.Comma(int64(t.NumIndependents())))
	table.Row("# dependents", humanize.Comma(int64(t.NumDependents())))
	table.Row("orders (p)", humanize.Comma(int64(p)))
	table.Row("weighting", fmt.Sprintf("%T", w))
	table.Row("partials buffer", humanize.Bytes(uint64(t.NumVar()*p*8)))
	if *flagJacobian {
		table.Row("jacobian parallelism", describeParallelism(pool))
	}
	fmt.Println(table.Render())

	if *flagPrintTape {
		fmt.Println(titleStyle.Render("Tape"))
		table = newPlainTable("#", "Record", "Value")
		for ii := range t.NumRecords() {
			r := t.Record(ii)
			table.Row(humanize.Comma(int64(ii)), r.String(), formatFloat(tc.Value(r.Addr)))
		}
		fmt.Println(table.Render())
	}

	value := must.M1(reverse.Reverse(t, tc, p, w))
	fmt.Println(titleStyle.Render("Reverse"))
	header := []string{"Independent"}
	for k := range p {
		header = append(header, fmt.Sprintf("k=%d", k))
	}
	table = newPlainTable(header...)
	for j, name := range pb.Independents {
		row := []string{name}
		for k := range p {
			row = append(row, formatFloat(value[j*p+k]))
		}
		table.Row(row...)
	}
	fmt.Println(table.Render())

	if *flagSelective {
		if err := selective(pb, t, tc); err != nil {
			return err
		}
	}
	if *flagJacobian {
		jac, err := reverse.Jacobian(t, tc, pool)
		if err != nil {
			return err
		}
		fmt.Println(titleStyle.Render("Jacobian"))
		printRows(pb, jac)
	}
	return nil
}

// selective prints the gradient of each dependent variable computed by the selective sweep.
func selective(pb *Problem, t *tape.Tape, tc *tape.Taylor) error {
	m, n := t.NumDependents(), t.NumIndependents()
	sweeper := reverse.NewSweeper(t, tc)
	w := make([]float64, m)
	gradients := make([]float64, m*n)
	var numActive int
	for i := range m {
		if err := sweeper.ReverseOne(1, w, i, gradients[i*n:(i+1)*n]); err != nil {
			return err
		}
		numActive += len(sweeper.ActiveRecords())
		if !sweeper.Partials().IsZero() {
			return errors.Errorf("selective sweep of dependent %q left %d non-zero partials",
				pb.Dependents[i], sweeper.Partials().NumNonZero())
		}
		klog.V(1).Infof("dependent %q: active records %v, active inputs %v",
			pb.Dependents[i], sweeper.ActiveRecords(), sweeper.ActiveInputs())
	}
	fmt.Println(titleStyle.Render("Selective"))
	printRows(pb, gradients)
	fmt.Printf("%s records visited out of %s (%d sweeps of %s records)\n",
		humanize.Comma(int64(numActive)), humanize.Comma(int64(m*t.NumRecords())), m,
		humanize.Comma(int64(t.NumRecords())))
	return nil
}

// printRows prints a matrix with one row per dependent and one column per independent.
func printRows(pb *Problem, values []float64) {
	n := len(pb.Independents)
	table := newPlainTable(append([]string{"Dependent"}, pb.Independents...)...)
	for i, name := range pb.Dependents {
		row := []string{name}
		for j := range n {
			row = append(row, formatFloat(values[i*n+j]))
		}
		table.Row(row...)
	}
	fmt.Println(table.Render())
}

