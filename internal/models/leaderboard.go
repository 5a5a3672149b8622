package models

// LeaderboardEntry is one ranked row of a leaderboard page. The rank is
// positional: for a page starting at offset it is offset + index + 1.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	PlayerID      string `json:"playerId"`
	Nickname      string `json:"nickname"`
	TotalTrophies int    `json:"totalTrophies"`
	Region        string `json:"region"`
	Level         int    `json:"level"`
}

// LeaderboardPage is a ranked slice of the leaderboard for one season and
// optional region, plus pagination metadata.
type LeaderboardPage struct {
	Entries  []LeaderboardEntry `json:"entries"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
	HasMore  bool               `json:"hasMore"`
	SeasonID string             `json:"seasonId"`
	Region   string             `json:"region"`
}
