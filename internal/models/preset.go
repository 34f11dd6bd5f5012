package models

import "time"

// Preset is a named, durable snapshot of a FilterState.
type Preset struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Filters   FilterState `json:"filters"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Clone deep-copies the preset including its filters.
func (p Preset) Clone() Preset {
	out := p
	out.Filters = p.Filters.Clone()
	return out
}

// PresetStats summarises a preset collection.
type PresetStats struct {
	Total      int        `json:"total"`
	Max        int        `json:"max"`
	CanAddMore bool       `json:"canAddMore"`
	Oldest     *time.Time `json:"oldest"`
	Newest     *time.Time `json:"newest"`
}
