package models

import (
	"slices"
	"time"
)

type UpdateType string

const (
	UpdateTypeUserJoined    UpdateType = "user_joined"
	UpdateTypeUserLeft      UpdateType = "user_left"
	UpdateTypeUserAdmitted  UpdateType = "user_admitted"
	UpdateTypeUserReclaimed UpdateType = "user_reclaimed"
)

// QueueUpdate is published on the pool channel whenever the queue changes.
type QueueUpdate struct {
	Pool       string     `json:"pool"`
	UpdateType UpdateType `json:"update_type"`
	Tokens     []string   `json:"tokens,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

func (u QueueUpdate) Affects(token string) bool {
	return slices.Contains(u.Tokens, token)
}
