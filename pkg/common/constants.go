package common

const (
	RedisStreamPositionEvaluation = "position.evaluation"

	RedisStreamGroup    = "evaluator-group"
	RedisStreamConsumer = "evaluator-consumer"

	// RedisKeySession maps a bearer token to a user id.
	RedisKeySession = "session:%s"

	DateLayout = "2006-01-02"
)
