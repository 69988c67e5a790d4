package cache

import (
	"fmt"

	"github.com/google/uuid"
)

const jobListPrefix = "jobs:list:"

func RateLimitKey(actorID string) string {
	return fmt.Sprintf("ratelimit:%s", actorID)
}

func JobListKey(companyID uuid.UUID, status string, page, limit int) string {
	return fmt.Sprintf("%s%s:%s:%d:%d", jobListPrefix, companyID, status, page, limit)
}

func JobListPrefix() string {
	return jobListPrefix
}
