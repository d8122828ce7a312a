// Package sim provides the bounded-buffer producer/consumer engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - queue.go: BoundedQueue, the blocking fixed-capacity FIFO (Put blocks when full, Get when empty)
//   - workitem.go: WorkItem and the Entry variant (Item | Stop) that travels through the queue
//   - manager.go: SimulationManager, the run state machine and the shutdown protocol
//
// # Run protocol
//
// A run moves through Partitioned → Running → Draining → Aggregated:
//   - producers stamp their partition's ids with numbers from one shared
//     SequenceAllocator, claimed in partition order so sequence order is id
//     order, and put them on the queue;
//   - once every producer has returned, the manager puts exactly one Stop entry
//     per consumer, so no consumer can stop while real items are still arriving;
//   - each consumer appends items to a private buffer until it takes a Stop;
//   - the manager concatenates the buffers and sorts them by sequence number,
//     which makes the interleaving of N producers and M consumers indistinguishable
//     from a single FIFO run.
//
// A worker failure aborts the queue so no sibling blocks forever, and the first
// failure is returned from Run after every goroutine has exited.
//
// # Instrumentation
//
// Every produce, consume and terminate action is delivered to the registered
// Observers as a trace.Event carrying the exact queue-length transition. See
// sim/trace for recording and validation, and LogObserver and Metrics for the
// logging and prometheus sinks.
package sim
