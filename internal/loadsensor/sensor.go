package loadsensor

import (
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sensor is a process-wide handle onto the local machine's CPU and memory
// counters, plus the in-process active-task counter. It is constructed once
// at startup and has no teardown.
type Sensor struct {
	activeTasks int64
}

// New returns a ready-to-use Sensor. There is nothing to configure: CPU and
// memory are read from the OS on demand.
func New() *Sensor {
	return &Sensor{}
}

// CPUPercent returns the instantaneous CPU utilization percentage,
// averaged across all cores, over a near-zero sampling interval.
func (s *Sensor) CPUPercent() (float64, error) {
	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, nil
	}
	return clamp(percentages[0], 0, 100), nil
}

// MemoryAvailablePercent returns the percentage of total memory currently
// available for new allocations (not merely "free" — gopsutil's Available
// accounts for reclaimable cache/buffers the same way the OS would).
func (s *Sensor) MemoryAvailablePercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if vm.Total == 0 {
		return 0, nil
	}
	pct := float64(vm.Available) / float64(vm.Total) * 100
	return clamp(pct, 0, 100), nil
}

// ActiveTasks returns the current number of executor wrappers running on
// this node.
func (s *Sensor) ActiveTasks() int64 {
	return atomic.LoadInt64(&s.activeTasks)
}

// IncrementActiveTasks is called by internal/executor when a task begins.
func (s *Sensor) IncrementActiveTasks() {
	atomic.AddInt64(&s.activeTasks, 1)
}

// DecrementActiveTasks is called by internal/executor when a task ends,
// unconditionally on every exit path.
func (s *Sensor) DecrementActiveTasks() {
	atomic.AddInt64(&s.activeTasks, -1)
}

// Priority computes the scalar load score:
//
//	0.5*cpu_percent + 0.3*min(active_tasks/10, 1)*100 + 0.2*(100 - memory_available_percent)
//
// Lower is better: a better leader candidate and a better task target.
// Recomputed fresh on every call; no caching or staleness window.
func (s *Sensor) Priority() (float64, error) {
	cpuPct, err := s.CPUPercent()
	if err != nil {
		return 0, err
	}
	memAvail, err := s.MemoryAvailablePercent()
	if err != nil {
		return 0, err
	}

	active := float64(s.ActiveTasks())
	taskComponent := active / 10
	if taskComponent > 1 {
		taskComponent = 1
	}

	priority := 0.5*cpuPct + 0.3*taskComponent*100 + 0.2*(100-memAvail)
	return clamp(priority, 0, 100), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
