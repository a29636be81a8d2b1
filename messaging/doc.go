// Package messaging implements the inter-service contract on top of the
// broker transport: correlated request/reply commands, fire-and-forget
// events, the per-destination client registry, and the worker dispatch
// loop with its acknowledgment policy.
//
// Callers obtain a Client per destination from a process-wide Registry
// and use Send (command, blocks for one reply or error) or Emit (event,
// no reply). Workers register one handler per pattern and acknowledge
// every delivery exactly once: success and permanent business failures
// ack, transient failures requeue.
package messaging
