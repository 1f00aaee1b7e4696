// Package messaging publishes messages to a broker without tying callers to
// a specific system.
//
// Run reports go out through the Publisher interface; Kafka, NATS, NSQ and
// Google Pub/Sub implementations live here and are chosen by driver name.
package messaging
