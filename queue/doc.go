// Package queue provides the asynchronous channel between command submission
// and command application.
//
// [SQS] sends, receives and acknowledges messages on Amazon SQS (or an
// SQS-compatible endpoint such as ElasticMQ). [Memory] implements the same
// contract in process. Both are at-least-once: a received message that is
// not acknowledged becomes visible again after its visibility timeout.
//
// In Lambda deployments the consumer is driven by the SQS event source
// mapping. Everywhere else, [Poller] drains queues and feeds batches to the
// same handler, acknowledging only the messages the handler did not report
// as failed.
package queue
