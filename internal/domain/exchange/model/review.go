// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// Review is a one-time rating a participant leaves about the other after completion.
type Review struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	ReviewerID string    `json:"reviewerId"`
	RevieweeID string    `json:"revieweeId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ActivityEvent is an out-of-band activity (skill verification, forum post)
// counted toward activity badges. (UserID, Kind, RefID) is unique.
type ActivityEvent struct {
	UserID     string       `json:"userId"`
	Kind       ActivityKind `json:"kind"`
	RefID      string       `json:"refId"`
	OccurredAt time.Time    `json:"occurredAt"`
}
