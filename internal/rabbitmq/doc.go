// Package rabbitmq provides the broker transport primitives shared by the
// gateway and the worker services: a reconnecting connection manager, a
// channel pool, a confirming publisher, a manual-ack consumer, and queue
// topology declaration for the per-service destinations.
package rabbitmq
