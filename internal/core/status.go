package core

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"mediashelf/internal/clients/metadata"
)

type Status struct {
	Providers map[string]bool `json:"providers"`
	Library   LibraryStats    `json:"library"`
	Process   ProcessStats    `json:"process"`
}

type LibraryStats struct {
	Items  int            `json:"items"`
	ByType map[string]int `json:"byType"`
	Tags   int            `json:"tags"`
}

type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rssBytes"`
	CPUPercent float64 `json:"cpuPercent"`
	Goroutines int     `json:"goroutines"`
	Uptime     string  `json:"uptime"`
}

// Status reports which catalogs are usable, library totals and resource
// usage of the running process.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	byType, err := m.library.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := m.tags.Count(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range byType {
		total += n
	}

	return &Status{
		Providers: map[string]bool{
			metadata.ProviderTMDB:        m.films != nil,
			metadata.ProviderGoogleBooks: m.books != nil,
		},
		Library: LibraryStats{Items: total, ByType: byType, Tags: tags},
		Process: m.processStats(),
	}, nil
}

// processStats is best effort: fields the platform cannot report stay zero.
func (m *Manager) processStats() ProcessStats {
	stats := ProcessStats{
		PID:        int32(os.Getpid()),
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(m.started).Round(time.Second).String(),
	}

	proc, err := process.NewProcess(stats.PID)
	if err != nil {
		m.logger.Debug().Err(err).Msg("process stats unavailable")
		return stats
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}
