package plugins

import (
	"context"
	"strconv"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/hugr-lab/airport-vtable/table"
)

var systemColumns = table.Schema{
	{Name: "hostname", Type: table.Text},
	{Name: "os", Type: table.Text},
	{Name: "platform", Type: table.Text},
	{Name: "platform_version", Type: table.Text},
	{Name: "kernel_version", Type: table.Text},
	{Name: "uptime", Type: table.BigInt},
	{Name: "procs", Type: table.BigInt},
}

// SystemInfo returns a single row describing the host.
func SystemInfo() table.Plugin {
	return table.NewPlugin("system_info", systemColumns, generateSystemInfo)
}

func generateSystemInfo(ctx context.Context, _ *table.QueryContext) ([]table.Row, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return []table.Row{{
		"hostname":         info.Hostname,
		"os":               info.OS,
		"platform":         info.Platform,
		"platform_version": info.PlatformVersion,
		"kernel_version":   info.KernelVersion,
		"uptime":           strconv.FormatUint(info.Uptime, 10),
		"procs":            strconv.FormatUint(info.Procs, 10),
	}}, nil
}
