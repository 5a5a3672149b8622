package models

import "time"

// Player is a ranked game profile. A player may be owned by a registered
// user and may be linked to a Brawl Stars account.
type Player struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId,omitempty"`
	Nickname  string    `json:"nickname"`
	Region    string    `json:"region"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Score is a player's accumulated result within one season.
type Score struct {
	PlayerID   string    `json:"playerId"`
	SeasonID   string    `json:"seasonId"`
	TotalScore int       `json:"totalScore"`
	Wins       int       `json:"wins"`
	Losses     int       `json:"losses"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpsertScoreRequest is the POST/PUT /scores payload.
type UpsertScoreRequest struct {
	PlayerID   string `json:"playerId"`
	SeasonID   string `json:"seasonId"`
	TotalScore int    `json:"totalScore"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
}

// Validate checks the score upsert payload.
func (r *UpsertScoreRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	if r.PlayerID == "" {
		errs = append(errs, ValidationError{Field: "playerId", Message: "playerId is required"})
	}
	if r.SeasonID == "" {
		errs = append(errs, ValidationError{Field: "seasonId", Message: "seasonId is required"})
	}
	if r.TotalScore < 0 {
		errs = append(errs, ValidationError{Field: "totalScore", Message: "totalScore must not be negative"})
	}
	if r.Wins < 0 {
		errs = append(errs, ValidationError{Field: "wins", Message: "wins must not be negative"})
	}
	if r.Losses < 0 {
		errs = append(errs, ValidationError{Field: "losses", Message: "losses must not be negative"})
	}
	return errs
}
