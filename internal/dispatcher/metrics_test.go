package dispatcher_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/cmdtree/internal/dispatcher"
)

func TestMetricsDisabledByDefault(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())
	if d.Metrics() != nil {
		t.Error("expected nil metrics by default")
	}
}

func TestMetricsThroughDispatch(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig().WithMetrics())

	inputs := []string{
		"elytra repack",
		"elytra repack",
		"elytra reset",
		"elytra test sneed x",
		"unknown",
		`elytra "open`,
	}
	for _, in := range inputs {
		_, _ = d.Dispatch(in)
	}

	m := d.Metrics()
	if m.TotalDispatches() != 6 {
		t.Errorf("TotalDispatches = %d, want 6", m.TotalDispatches())
	}
	if m.TotalErrors() != 3 {
		t.Errorf("TotalErrors = %d, want 3", m.TotalErrors())
	}

	kinds := m.ErrorsByKind()
	if kinds["argument_parse"] != 1 || kinds["name_mismatch"] != 1 || kinds["unbalanced_quote"] != 1 {
		t.Errorf("ErrorsByKind = %v", kinds)
	}

	top := m.TopCommands(1)
	if len(top) != 1 || top[0].Command != "elytra repack" || top[0].DispatchCount != 2 {
		t.Errorf("TopCommands(1) = %+v", top)
	}

	sneed := m.CommandStats("elytra test sneed")
	if sneed == nil || sneed.ErrorCount != 1 || sneed.ErrorRate() != 100 {
		t.Errorf("sneed stats = %+v", sneed)
	}
	if m.CommandStats("missing") != nil {
		t.Error("CommandStats for unknown command should be nil")
	}

	snap := m.Snapshot()
	if snap.TotalUnresolved != 2 || snap.CommandCount != 3 {
		t.Errorf("Snapshot = %+v", snap)
	}
}

func TestMetricsDirect(t *testing.T) {
	m := dispatcher.NewMetrics()

	m.RecordDispatch("a", 10*time.Millisecond, nil)
	m.RecordDispatch("a", 30*time.Millisecond, errors.New("x"))
	m.RecordDispatch("b", 5*time.Millisecond, nil)

	a := m.CommandStats("a")
	if a.MinDuration != 10*time.Millisecond || a.MaxDuration != 30*time.Millisecond {
		t.Errorf("min/max = %v/%v", a.MinDuration, a.MaxDuration)
	}
	if a.AverageDuration() != 20*time.Millisecond {
		t.Errorf("AverageDuration = %v", a.AverageDuration())
	}
	if a.LastError != "x" {
		t.Errorf("LastError = %q", a.LastError)
	}
	if m.ErrorsByKind()["other"] != 1 {
		t.Errorf("ErrorsByKind = %v", m.ErrorsByKind())
	}
	if m.AverageDuration() != 15*time.Millisecond {
		t.Errorf("AverageDuration = %v", m.AverageDuration())
	}

	top := m.TopCommands(10)
	if len(top) != 2 || top[0].Command != "a" {
		t.Errorf("TopCommands = %+v", top)
	}

	m.Reset()
	if m.TotalDispatches() != 0 || m.CommandStats("a") != nil {
		t.Error("Reset did not clear metrics")
	}
}
