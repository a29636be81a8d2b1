// Package contracts defines the wire protocol shared by the gateway and the
// worker services: the message envelope, the destination queues and their
// patterns, the request/response payload types, and the tagged error
// taxonomy that drives the acknowledgment policy.
package contracts
