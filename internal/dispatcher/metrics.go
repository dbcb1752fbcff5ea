package dispatcher

import (
	"sort"
	"sync"
	"time"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics, keyed by the space-joined path.
	commandMetrics map[string]*CommandMetrics

	// Errors by KindName.
	errorsByKind map[string]uint64

	totalDispatches uint64
	totalErrors     uint64
	totalPanics     uint64
	totalUnresolved uint64

	totalDuration time.Duration
}

// CommandMetrics holds metrics for a specific command path.
type CommandMetrics struct {
	Command       string
	DispatchCount uint64
	ErrorCount    uint64
	TotalDuration time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	LastError     string
	LastDispatch  time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
		errorsByKind:   make(map[string]uint64),
	}
}

// RecordDispatch records a dispatch. An empty command means the input did
// not resolve to any command.
func (m *Metrics) RecordDispatch(command string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration

	if err != nil {
		m.totalErrors++
		m.errorsByKind[KindName(err)]++
	}

	if command == "" {
		m.totalUnresolved++
		return
	}

	cm := m.commandMetrics[command]
	if cm == nil {
		cm = &CommandMetrics{
			Command:     command,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandMetrics[command] = cm
	}

	cm.DispatchCount++
	cm.TotalDuration += duration
	cm.LastDispatch = time.Now()

	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}

	if err != nil {
		cm.ErrorCount++
		cm.LastError = err.Error()
	} else {
		cm.LastError = ""
	}
}

// RecordPanic records a panic recovery.
func (m *Metrics) RecordPanic(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalPanics++
}

// TotalDispatches returns the total number of dispatches.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalErrors returns the total number of failed dispatches.
func (m *Metrics) TotalErrors() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalErrors
}

// TotalPanics returns the total number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// ErrorsByKind returns a copy of the error counts keyed by KindName.
func (m *Metrics) ErrorsByKind() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]uint64, len(m.errorsByKind))
	for k, v := range m.errorsByKind {
		out[k] = v
	}
	return out
}

// AverageDuration returns the average dispatch duration.
func (m *Metrics) AverageDuration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalDispatches == 0 {
		return 0
	}
	return m.totalDuration / time.Duration(m.totalDispatches)
}

// CommandStats returns metrics for a specific command, or nil.
func (m *Metrics) CommandStats(command string) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandMetrics[command]
	if cm == nil {
		return nil
	}

	c := *cm
	return &c
}

// TopCommands returns the n most dispatched commands. Ties are ordered by
// command name.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		c := *cm
		commands = append(commands, &c)
	}

	sort.Slice(commands, func(i, j int) bool {
		if commands[i].DispatchCount != commands[j].DispatchCount {
			return commands[i].DispatchCount > commands[j].DispatchCount
		}
		return commands[i].Command < commands[j].Command
	})

	if n > len(commands) {
		n = len(commands)
	}
	return commands[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commandMetrics = make(map[string]*CommandMetrics)
	m.errorsByKind = make(map[string]uint64)
	m.totalDispatches = 0
	m.totalErrors = 0
	m.totalPanics = 0
	m.totalUnresolved = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64
	TotalErrors     uint64
	TotalPanics     uint64
	TotalUnresolved uint64
	AverageDuration time.Duration
	CommandCount    int
	Timestamp       time.Time
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalErrors:     m.totalErrors,
		TotalPanics:     m.totalPanics,
		TotalUnresolved: m.totalUnresolved,
		CommandCount:    len(m.commandMetrics),
		Timestamp:       time.Now(),
	}

	if m.totalDispatches > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}

	return snapshot
}

// AverageDuration returns the average duration for the command.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.DispatchCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.DispatchCount)
}

// ErrorRate returns the error rate as a percentage.
func (cm *CommandMetrics) ErrorRate() float64 {
	if cm.DispatchCount == 0 {
		return 0
	}
	return float64(cm.ErrorCount) / float64(cm.DispatchCount) * 100
}
