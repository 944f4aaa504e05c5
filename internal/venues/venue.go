package venues

import "github.com/hoppz/geocache/internal/geostore"

// Venue is one master-data record: identifier, position, and an optional
// geometric footprint.
type Venue struct {
	ID       string               `json:"id"`
	Position geostore.Coordinates `json:"position"`
	Geometry *geostore.SearchBy   `json:"geometry,omitempty"`
}

// Info is the display metadata attached to a venue in check-in prompts.
type Info struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}
