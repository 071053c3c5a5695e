// Package driver provides the core discrete-event simulation driver: the
// windowed parallel scheduler that advances a global emulated clock while
// running many hosts concurrently.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - time.go: EmulatedTime / SimulationTime, the clock types
//   - event.go: the Event interface every host queue entry satisfies
//   - queue.go: EventQueue, the per-host monotonic priority queue
//
// # Architecture
//
// The driver package defines the time and event primitives; the
// orchestration pieces live in sub-packages:
//   - driver/host/: the Host interface consumed by the scheduler
//   - driver/worker/: WorkerShared, the process-wide read-mostly table,
//     and host build / DNS registration support
//   - driver/scheduler/: WindowScheduler (thread-per-host, thread-per-core)
//   - driver/runcontrol/: the pause/step/continue/restart state machine
//   - driver/pump/: Run, which wires the above together into the
//     per-window loop described in the package's design notes
package driver
