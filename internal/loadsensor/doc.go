// Package loadsensor samples local CPU, memory, and in-process task load to
// produce the scalar priority score used by both the election engine (lower
// priority wins leadership) and the assignment service (lower priority wins
// the next task).
//
// CPU and memory readings come from github.com/shirou/gopsutil/v3.
// active_tasks is a process-local atomic counter maintained by
// internal/executor.
//
// Every read is cheap: gopsutil's cpu.Percent and mem.VirtualMemory are
// single syscalls/proc-file reads on Linux, so the priority formula is
// recomputed fresh on every call rather than cached — the sensor is the
// source of truth at query time, not a periodically-refreshed snapshot.
package loadsensor
