package models

import "time"

type JoinStatus string

const (
	JoinStatusActive        JoinStatus = "ACTIVE"
	JoinStatusQueued        JoinStatus = "QUEUED"
	JoinStatusAlreadyActive JoinStatus = "ALREADY_ACTIVE"
	JoinStatusAlreadyQueued JoinStatus = "ALREADY_QUEUED"
)

type TokenState string

const (
	TokenStateActive   TokenState = "ACTIVE"
	TokenStateWaiting  TokenState = "WAITING"
	TokenStateNotFound TokenState = "NOT_FOUND"
)

// QueueLimits carries the admission policy into a single store call so the
// capacity check and the mutation happen atomically.
type QueueLimits struct {
	MaxActive  int
	SessionTTL time.Duration
	TokenTTL   time.Duration
}

type JoinResult struct {
	Status   JoinStatus
	Token    string
	Position int64
}

type TokenStatus struct {
	State        TokenState
	UserID       string
	Position     int64
	TotalWaiting int64
	LeaseUntil   time.Time
}

type QueueCounts struct {
	Waiting int64
	Active  int64
}

// Admission pairs a token with the user that owns it.
type Admission struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}
