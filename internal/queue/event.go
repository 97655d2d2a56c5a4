// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// ReviewQueueName is the durable queue carrying review activity.
const ReviewQueueName = "review.activity"

// Review event actions.
const (
	ActionReviewPosted  = "posted"
	ActionReviewDeleted = "deleted"
)

// ReviewActivityEvent is published whenever a review is created or removed.
// It carries enough for downstream consumers to audit-log the activity and
// re-derive the course's rating aggregate without extra queries.
type ReviewActivityEvent struct {
	Action     string `json:"action"`
	CommentID  uint64 `json:"comment_id"`
	CourseID   uint64 `json:"course_id"`
	StudentID  uint64 `json:"student_id"`
	Rating     int    `json:"rating"`
	OccurredAt string `json:"occurred_at"`
}
