package config

import "fmt"

// cacheKeys namespaces every Redis key the application touches.
type cacheKeys struct{}

// CacheKey is the singleton key builder.
var CacheKey cacheKeys

// ExamSummary is the cached analytics summary of a finalized exam.
func (cacheKeys) ExamSummary(examID string) string {
	return fmt.Sprintf("examforge:exam:%s:summary", examID)
}

// AnalyticsQueue is the list the analytics worker consumes finalization
// events from.
func (cacheKeys) AnalyticsQueue() string {
	return "examforge:analytics:finalized"
}

// UserSession tracks the active JWT session per user.
func (cacheKeys) UserSession(userID string) string {
	return fmt.Sprintf("examforge:session:%s", userID)
}
