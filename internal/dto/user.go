package dto

// UpdateProfileRequest edits the user profile.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// UserStatsResponse exposes the gamification counters.
type UserStatsResponse struct {
	Points          int    `json:"points"`
	Level           int    `json:"level"`
	LevelName       string `json:"level_name"`
	NextLevelPoints int    `json:"next_level_points"`
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
}
