package controllers

import (
	"net/http"

	"github.com/angelmondragon/packfinderz-storefront/api/responses"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// SectionSnapshotter is the read side of the section coordinator.
type SectionSnapshotter interface {
	Snapshot() []sections.Status
	Active() enums.Section
	Navigating() bool
}

type sectionsPayload struct {
	Active     enums.Section     `json:"active"`
	Navigating bool              `json:"navigating"`
	Sections   []sections.Status `json:"sections"`
}

// Sections reports every registered section's load state.
func Sections(coord SectionSnapshotter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, sectionsPayload{
			Active:     coord.Active(),
			Navigating: coord.Navigating(),
			Sections:   coord.Snapshot(),
		})
	}
}
