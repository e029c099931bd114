package dto

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// QuotaExceededResponse is returned with 429 when the daily quota is used up.
type QuotaExceededResponse struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	UsageCount      int    `json:"usageCount"`
	RemainingChecks int    `json:"remainingChecks"`
}
