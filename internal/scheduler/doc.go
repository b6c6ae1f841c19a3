// Package scheduler drives the sync engine on a daily clock and runs manual triggers.
//
// Sync work is split into two families:
//   - venues : facility sync, daily at the venue hour
//   - concerts : performance sync followed by the box-office sync, daily at the concert hour
//
// Each family runs as a [suture.Service] that optionally syncs once at startup, then sleeps
// until [NextRun] and honours cancellation at the sleep boundary.
//
// A family runs at most once at a time within the process. A scheduled tick or [Scheduler.Trigger]
// that finds its family busy fails with [shared.ErrSyncInProgress]; the sync_metadata lock
// extends the same policy across processes.
package scheduler
