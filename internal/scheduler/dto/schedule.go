package dto

import "time"

// ScheduleResponse is the DTO for the scheduled evaluation state.
type ScheduleResponse struct {
	CronExpression string     `json:"cron_expression"`
	NextRun        time.Time  `json:"next_run"`
	LastRun        *time.Time `json:"last_run,omitempty"`
}

// TriggerResponse reports a manual fan-out of evaluation requests.
type TriggerResponse struct {
	Owners    int `json:"owners"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}
