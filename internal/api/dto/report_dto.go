package dto

// AggregateResponse maps group keys to ticket counts.
type AggregateResponse struct {
	GroupBy string         `json:"group_by"`
	From    string         `json:"from"`
	To      string         `json:"to"`
	Counts  map[string]int `json:"counts"`
}

// RequesterCountResponse is one top-requester row.
type RequesterCountResponse struct {
	RequesterID string `json:"requester_id"`
	Username    string `json:"username"`
	Count       int    `json:"count"`
}

// DashboardResponse summarizes current workload.
type DashboardResponse struct {
	Open          int `json:"open"`
	InProgress    int `json:"in_progress"`
	OnHold        int `json:"on_hold"`
	ResolvedToday int `json:"resolved_today"`
}
