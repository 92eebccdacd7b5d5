package sections

import (
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// LoadState is the coordinator-owned lifecycle of one section.
// A section whose loaders failed is still Loaded, with Err set.
type LoadState struct {
	Status       enums.LoadStatus
	LastLoadedAt time.Time
	Err          error
	// Stale marks loaded data that must be refetched on the next navigation.
	Stale bool
	// Refreshing is set while a reload runs over already-loaded data.
	Refreshing bool
}

// Status is the serializable view of a section used by the ops surface.
type Status struct {
	Section      enums.Section    `json:"section"`
	Status       enums.LoadStatus `json:"status"`
	LastLoadedAt *time.Time       `json:"last_loaded_at,omitempty"`
	Error        string           `json:"error,omitempty"`
	Stale        bool             `json:"stale"`
	Refreshing   bool             `json:"refreshing"`
	Active       bool             `json:"active"`
}

func statusOf(section enums.Section, state LoadState, active bool) Status {
	out := Status{
		Section:    section,
		Status:     state.Status,
		Stale:      state.Stale,
		Refreshing: state.Refreshing,
		Active:     active,
	}
	if !state.LastLoadedAt.IsZero() {
		at := state.LastLoadedAt
		out.LastLoadedAt = &at
	}
	if state.Err != nil {
		out.Error = state.Err.Error()
	}
	return out
}
