// Package ledger turns a snapshot of expense records into the two views the
// front-end renders: chronologically ordered month buckets and summary
// statistics. Every function here is a pure reduction over its input; callers
// recompute from scratch on every snapshot.
package ledger
