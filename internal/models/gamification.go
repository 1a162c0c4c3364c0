package models

import "time"

// PointHistory is an audit record of awarded points.
type PointHistory struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Points        int       `db:"points" json:"points"`
	Reason        string    `db:"reason" json:"reason"`
	ReferenceType *string   `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   *string   `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PointEvent is the outbound gamification notification emitted by the core
// when a tracked activity happens.
type PointEvent struct {
	UserID        string `json:"user_id"`
	Points        int    `json:"points"`
	Reason        string `json:"reason"`
	ReferenceType string `json:"reference_type,omitempty"`
	ReferenceID   string `json:"reference_id,omitempty"`
}

// ExperienceLevel maps a point threshold to a named level.
type ExperienceLevel struct {
	Level     int    `json:"level"`
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// ExperienceLevels is the fixed level table, ascending by threshold.
var ExperienceLevels = []ExperienceLevel{
	{Level: 1, Name: "Novice Seeker", MinPoints: 0},
	{Level: 2, Name: "Active Applicant", MinPoints: 100},
	{Level: 3, Name: "Job Hunter", MinPoints: 300},
	{Level: 4, Name: "Networking Pro", MinPoints: 600},
	{Level: 5, Name: "Interview Master", MinPoints: 1000},
	{Level: 6, Name: "Offer Magnet", MinPoints: 1500},
}

// LevelForPoints returns the highest level whose threshold the points reach.
func LevelForPoints(points int) ExperienceLevel {
	level := ExperienceLevels[0]
	for _, candidate := range ExperienceLevels {
		if points >= candidate.MinPoints {
			level = candidate
		}
	}
	return level
}
