package dto

// EvaluationRequest is the body of POST /api/v1/evaluations.
type EvaluationRequest struct {
	UserID            string `json:"userId"`
	IncludeAPIDetails bool   `json:"includeApiDetails"`
	// RequestDate overrides the reference date (YYYY-MM-DD). Defaults to now.
	RequestDate string `json:"requestDate"`
}

// EvaluationResponse summarises one evaluation run.
type EvaluationResponse struct {
	Success            bool             `json:"success"`
	Message            string           `json:"message"`
	RemainingChecks    int              `json:"remainingChecks"`
	UsageCount         int              `json:"usageCount"`
	CheckedPosts       int              `json:"checkedPosts"`
	UpdatedPosts       int              `json:"updatedPosts"`
	ClosedPostsSkipped int              `json:"closedPostsSkipped"`
	UpdateSuccess      bool             `json:"updateSuccess"`
	ExperienceUpdated  bool             `json:"experienceUpdated"`
	Results            []PositionResult `json:"results"`
	APIDetails         []APICallDetail  `json:"apiDetails,omitempty"`
}

// PositionResult is the per-position outcome of a run.
type PositionResult struct {
	ID                     string   `json:"id"`
	Symbol                 string   `json:"symbol"`
	CompanyName            string   `json:"companyName"`
	CurrentPrice           *float64 `json:"currentPrice"`
	TargetPrice            float64  `json:"targetPrice"`
	StopLossPrice          float64  `json:"stopLossPrice"`
	TargetReached          bool     `json:"targetReached"`
	StopLossTriggered      bool     `json:"stopLossTriggered"`
	TargetReachedDate      *string  `json:"targetReachedDate"`
	StopLossTriggeredDate  *string  `json:"stopLossTriggeredDate"`
	Closed                 bool     `json:"closed"`
	PercentToTarget        string   `json:"percentToTarget"`
	PercentToStopLoss      float64  `json:"percentToStopLoss"`
	Message                string   `json:"message,omitempty"`
	NoDataAvailable        bool     `json:"noDataAvailable,omitempty"`
	PostDateAfterPriceDate bool     `json:"postDateAfterPriceDate,omitempty"`
	PostAfterMarketClose   bool     `json:"postAfterMarketClose,omitempty"`
}
