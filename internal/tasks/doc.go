// Package tasks reconciles KOPIS venues, concerts and box-office rankings into the local store.
//
// # Core Operations
//
// The [SyncEngine] interface defines three runs, each returning a [SyncResult]:
//
//  1. [SyncEngine.SyncVenues] : incremental facility sync
//     - Lists facilities changed after the stored watermark
//     - Fetches each detail and upserts the venue and its halls by kopis_id
//     - Advances the watermark to the run date on success
//
//  2. [SyncEngine.SyncConcerts] : incremental performance sync
//     - Lists each configured genre across the forward horizon in 30-day windows
//     - Skips concerts whose facility has not been synced (orphan skip)
//     - Replaces ticket vendors and images, links artists by exact cast name
//
//  3. [SyncEngine.SyncBoxoffice] : ranking slot replacement
//     - Fetches the top entries for every configured area plus the nationwide slot
//     - Replaces each (genre, area, period) slot in a single transaction
//
// # Failure Model
//
// Failures on a single venue, concert, window or slot are logged and counted in
// [SyncResult.Errors]; the run continues. A missing provider, a lock held by another run
// or a sync_metadata failure aborts the run. Aborted runs are recorded with status failed.
//
// # Progress Reporting
//
// Runs accept an optional channel of [ProgressUpdate]. Sends use select with default so a slow
// reader never blocks a sync.
//
// # Implementation
//
// [KopisEngine] implements [SyncEngine] with dependencies on:
//   - [services.Provider] : KOPIS API client
//   - repositories : venue, hall, concert, artist, box-office and sync metadata persistence
//   - [events.Publisher] : sync-completed notifications
package tasks
