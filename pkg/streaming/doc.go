// Package streaming connects the dispatcher to its event backbone.
//
// A Manager owns one Driver. It subscribes a single Handler to a fixed topic
// list, fetches envelopes in order and runs each one on its own goroutine,
// capped by WithMaxInFlight. Messages are acknowledged once their handler
// returns. Disconnect stops intake, waits for running handlers and then
// closes the links.
//
// Drivers:
//
//   - kafka: segmentio/kafka-go consumer group plus a hash-balanced writer
//   - amqp: RabbitMQ topic exchange with one durable queue bound per topic
//   - memory: in-process broker used by tests and local runs
//
// There is no automatic reconnect. A dropped consumer link ends Run with
// ErrConnection and the process is expected to restart.
package streaming
