// Package store is the write/read surface against the external record
// store that holds materialized tasks.
//
// The store is osTicket-shaped: a gap-free numeric sequence counter, a
// task table keyed by auto-generated id, a linked title/description
// table, and optionally a discussion thread subsystem plus a search
// index that make the task visible through the store's own interfaces.
// Which of those optional subsystems get written is a named schema
// profile chosen at Open time, never runtime schema introspection.
//
// Materialize is the one write operation: a single transaction that
// allocates a sequence number and inserts the full object graph for one
// new task. It rolls back completely on any failure and is deliberately
// NOT idempotent - calling it twice for the same occurrence creates two
// tasks with two sequence numbers. The caller is responsible for
// invoking it at most once per (template, day).
//
// A Store is an explicit handle constructed once by Open with an
// explicit error; there is no package-level connection state.
package store
