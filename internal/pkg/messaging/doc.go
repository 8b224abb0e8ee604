// Package messaging publishes events to a message broker chosen by driver
// name: NATS, NSQ, Kafka, Google Pub/Sub, or a noop sink.
package messaging
