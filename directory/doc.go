// Package directory implements organizations and the users that belong to
// them: request validation, uniqueness checks, command submission and the
// consumer that applies queued commands to the entity store.
//
// # Flow
//
// A mutation is validated, checked for name/email collisions against a
// secondary index, turned into a [Command] and handed to a
// [CommandExecutor]. [DirectExecutor] applies it to the store before
// returning; [QueuedExecutor] sends it to a queue and returns immediately,
// and [Consumer] applies it later.
//
// # Known limitations
//
// The uniqueness check and the write it guards are separate round trips with
// no lock or conditional write between them. Two concurrent requests with the
// same organization name (or user email) can both pass the check and both be
// committed. Closing that gap needs a store-level constraint (for example a
// conditional put on a name-keyed record) and is not done here.
//
// On the queued path, failures while applying a command never reach the
// original caller. They are reported to the channel as batch item failures so
// the message is redelivered, and eventually dead-lettered by the queue's
// redrive policy.
package directory
