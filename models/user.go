package models

// User is a lichess account known to this service.
type User struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email,omitempty"`
	StatsSpreadsheet string `json:"stats_spreadsheet,omitempty"`
	StatsUpdated     int64  `json:"stats_updated,omitempty"`
}
