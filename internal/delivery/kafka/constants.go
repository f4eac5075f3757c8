package kafka

const (
	TopicQueueJoined   = "booking.queue.joined"
	TopicQueueAdmitted = "booking.queue.admitted"
	TopicQueueLeft     = "booking.queue.left"

	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingFailed    = "booking.failed"

	TopicSessionAbandoned = "session.abandoned"
)

const (
	LeftReasonCompleted = "completed"
	LeftReasonRemoved   = "removed"
	LeftReasonExpired   = "expired"
	LeftReasonAbandoned = "abandoned"
)
