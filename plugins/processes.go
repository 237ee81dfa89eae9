package plugins

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cast"

	"github.com/hugr-lab/airport-vtable/table"
)

var processColumns = table.Schema{
	{Name: "pid", Type: table.BigInt},
	{Name: "name", Type: table.Text},
	{Name: "parent", Type: table.BigInt},
	{Name: "cmdline", Type: table.Text},
	{Name: "state", Type: table.Text},
	{Name: "threads", Type: table.Integer},
}

// Processes lists running processes.
//
// An equality constraint on pid restricts the enumeration to the listed pids.
// Processes that exit while being read are skipped.
func Processes() table.Plugin {
	return table.NewPlugin("processes", processColumns, generateProcesses)
}

func generateProcesses(ctx context.Context, qc *table.QueryContext) ([]table.Row, error) {
	pids, err := processPids(ctx, qc)
	if err != nil {
		return nil, err
	}

	rows := make([]table.Row, 0, len(pids))
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			if errors.Is(err, process.ErrorProcessNotRunning) {
				continue
			}
			return nil, err
		}
		row, ok := processRow(ctx, p)
		if !ok {
			continue
		}
		if qc.Matches(row) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// processPids returns the pids named by pid = N constraints, or every running pid.
// A literal that is not a number falls back to full enumeration; integral values
// outside the pid range name no process.
func processPids(ctx context.Context, qc *table.QueryContext) ([]int32, error) {
	if !qc.HasConstraint("pid", table.OpEQ) {
		return process.PidsWithContext(ctx)
	}
	var pids []int32
	seen := make(map[int32]struct{})
	for _, literal := range qc.GetAll("pid", table.OpEQ) {
		f, err := cast.ToFloat64E(strings.TrimSpace(literal))
		if err != nil {
			return process.PidsWithContext(ctx)
		}
		if f != math.Trunc(f) || f <= 0 || f > math.MaxInt32 {
			continue
		}
		pid := int32(f)
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		pids = append(pids, pid)
	}
	return pids, nil
}

func processRow(ctx context.Context, p *process.Process) (table.Row, bool) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		// The process is gone or unreadable.
		return nil, false
	}
	row := table.Row{
		"pid":  strconv.FormatInt(int64(p.Pid), 10),
		"name": name,
	}
	if ppid, err := p.PpidWithContext(ctx); err == nil {
		row["parent"] = strconv.FormatInt(int64(ppid), 10)
	}
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
		row["cmdline"] = cmdline
	}
	if status, err := p.StatusWithContext(ctx); err == nil {
		row["state"] = strings.Join(status, ",")
	}
	if threads, err := p.NumThreadsWithContext(ctx); err == nil {
		row["threads"] = strconv.FormatInt(int64(threads), 10)
	}
	return row, true
}
