package seeder

import (
	"fmt"
	"time"
)

// Progress tracks seeding progress.
type Progress struct {
	Phase     string
	Plies     int
	Partition int
	Target    int
	Generated int
	Skipped   int
	Retries   int
	Searched  int
	Written   int
	StartTime time.Time
	Error     error
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// DefaultProgressFunc prints progress to stdout.
func DefaultProgressFunc(p Progress) {
	switch p.Phase {
	case PhaseGenerate:
		fmt.Printf("\r[Generate] %d / %d positions at ply %d (%d known, %d regenerated)",
			p.Generated, p.Target, p.Plies, p.Skipped, p.Retries)
	case PhaseSearch:
		fmt.Printf("\r[Search] %d / %d positions searched", p.Searched, p.Generated)
	case PhaseAppend:
		fmt.Printf("\r[Append] writing partition %d", p.Partition)
	case PhaseDone:
		elapsed := time.Since(p.StartTime)
		fmt.Printf("\n[Done] %d records written to partition %d (%s)\n",
			p.Written, p.Partition, FormatDuration(elapsed))
	case PhaseError:
		fmt.Printf("\n[Error] %v\n", p.Error)
	}
}
