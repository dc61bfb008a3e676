package models

import "time"

type Track string

const (
	TrackAIEmergingTech Track = "AI & Emerging Tech"
	TrackSmartCampus    Track = "Smart Campus"
	TrackSustainability Track = "Sustainability"
	TrackOpenInnovation Track = "Open Innovation"
)

func (t Track) Valid() bool {
	switch t {
	case TrackAIEmergingTech, TrackSmartCampus, TrackSustainability, TrackOpenInnovation:
		return true
	}
	return false
}

type Submission struct {
	ID          int       `json:"id" db:"id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	Track       Track     `json:"track" db:"track"`
	Brief       string    `json:"brief" db:"brief"`
	FileKey     string    `json:"-" db:"file_key"`
	FileURL     string    `json:"file_url" db:"-"`
	SubmittedBy int       `json:"submitted_by" db:"submitted_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
