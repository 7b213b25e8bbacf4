package cache

import "fmt"

func JobStatusKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

func QueryResultKey(jobID, paramsHash string) string {
	return fmt.Sprintf("query:%s:%s", jobID, paramsHash)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
