package tasks

import (
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or HTTP layer for display.
type ProgressUpdate struct {
	Phase    Phase           // Run phase
	SyncType models.SyncType // Sync domain the update belongs to
	Step     int             // Current step number within phase
	Total    int             // Total steps in this phase
	Message  string          // Human-readable message for display
	Data     any             // Optional phase-specific data
}

// Run phase enumeration
type Phase int

const (
	Started Phase = iota
	FetchListing
	SyncItems
	ReplaceSlot
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case Started:
		return "started"
	case FetchListing:
		return "fetch_listing"
	case SyncItems:
		return "sync_items"
	case ReplaceSlot:
		return "replace_slot"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

func startedUpdate(syncType models.SyncType) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Started,
		SyncType: syncType,
		Message:  fmt.Sprintf("Starting %s sync...", syncType),
	}
}

func fetchingListingUpdate(syncType models.SyncType, label string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    FetchListing,
		SyncType: syncType,
		Message:  fmt.Sprintf("Fetching %s listing from KOPIS...", label),
	}
}

func listingFetchedUpdate(syncType models.SyncType, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:    FetchListing,
		SyncType: syncType,
		Total:    count,
		Message:  fmt.Sprintf("Found %d %s to sync", count, syncType),
	}
}

func itemUpdate(syncType models.SyncType, step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:    SyncItems,
		SyncType: syncType,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("Syncing %d/%d: %s", step, total, name),
	}
}

func slotUpdate(step, total int, slot string, rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:    ReplaceSlot,
		SyncType: models.SyncBoxoffice,
		Step:     step,
		Total:    total,
		Message:  fmt.Sprintf("Replaced %s ranking with %d rows", slot, rows),
		Data:     rows,
	}
}

func completedUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Completed,
		SyncType: result.SyncType,
		Message: fmt.Sprintf("Sync %s completed: %d added, %d updated, %d errors",
			result.SyncType, result.Added, result.Updated, result.Errors),
		Data: result,
	}
}

func failedUpdate(syncType models.SyncType, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:    Failed,
		SyncType: syncType,
		Message:  fmt.Sprintf("Sync %s failed: %v", syncType, err),
		Data:     err,
	}
}
