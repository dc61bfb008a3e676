package models

import "time"

type TeamStatus string

const (
	TeamStatusRecruiting TeamStatus = "Recruiting"
	TeamStatusActive     TeamStatus = "Active"
	TeamStatusSubmitted  TeamStatus = "Submitted"
)

// TeamMaxSize is the fixed roster size for the event. Composition rules in
// the eligibility package assume exactly this many members.
const TeamMaxSize = 5

type Team struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	LeaderID    int        `json:"leader_id" db:"leader_id"`
	MaxSize     int        `json:"max_size" db:"max_size"`
	IsPrivate   bool       `json:"is_private" db:"is_private"`
	Skills      string     `json:"skills" db:"skills"`
	Status      TeamStatus `json:"status" db:"status"`
	Score       int        `json:"score" db:"score"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Leader  *User  `json:"leader,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`
}

type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	TeamID      int        `json:"team_id"`
	TeamName    string     `json:"team_name"`
	Score       int        `json:"score"`
	MemberCount int        `json:"member_count"`
	Status      TeamStatus `json:"status"`
}
