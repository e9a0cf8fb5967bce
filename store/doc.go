// Package store provides the entity store used by roster: a thin DynamoDB
// adapter exposing get, put, conditional create, partial update, secondary
// index queries and full table scans.
//
// Two implementations share the same method set:
//
//   - [Store] talks to DynamoDB (managed or DynamoDB Local) through [DynamoAPI].
//   - [Memory] keeps tables in process and is used by tests and local runs.
//
// # Keys and items
//
// Every table is keyed by a single string partition key. Items are raw
// DynamoDB attribute maps ([Item]); callers marshal their own types with the
// attributevalue package.
//
// # Errors
//
//   - [ErrNotFound] - item doesn't exist (Get) or update target is missing (Update)
//   - [ErrAlreadyExists] - conditional create found an item with the same key
//   - [ErrThrottled] - the request was rejected by DynamoDB throttling
//
// The store never holds locks across calls. Uniqueness of non-key attributes
// is not enforced here; see the directory package.
package store
