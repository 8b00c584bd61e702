// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// CancelRequest is a participant's proposal to end a session early.
// At most one request per session has Resolution == ResolutionPending.
type CancelRequest struct {
	ID            string       `json:"id"`
	SessionID     string       `json:"sessionId"`
	InitiatorID   string       `json:"initiatorId"`
	Reason        CancelReason `json:"reason"`
	Description   string       `json:"description"`
	EvidenceFiles []string     `json:"evidenceFiles"`

	ResponseStatus           ResponseStatus `json:"responseStatus"`
	ResponderID              string         `json:"responderId,omitempty"`
	ResponseDescription      string         `json:"responseDescription,omitempty"`
	WorkCompletionPercentage *int           `json:"workCompletionPercentage,omitempty"`
	ResponseEvidenceFiles    []string       `json:"responseEvidenceFiles"`
	RespondedAt              *time.Time     `json:"respondedAt,omitempty"`

	Resolution Resolution `json:"resolution"`
	FinalNote  string     `json:"finalNote,omitempty"`
	ResolvedAt *time.Time `json:"resolvedDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	Version   int64     `json:"version"`
}

// IsOpen reports whether the request still awaits resolution.
func (c *CancelRequest) IsOpen() bool {
	return c != nil && c.Resolution == ResolutionPending
}

// Clone returns a deep copy safe for mutation.
func (c *CancelRequest) Clone() *CancelRequest {
	if c == nil {
		return nil
	}
	out := *c
	out.EvidenceFiles = cloneStrings(c.EvidenceFiles)
	out.ResponseEvidenceFiles = cloneStrings(c.ResponseEvidenceFiles)
	out.RespondedAt = cloneTime(c.RespondedAt)
	out.ResolvedAt = cloneTime(c.ResolvedAt)
	if c.WorkCompletionPercentage != nil {
		p := *c.WorkCompletionPercentage
		out.WorkCompletionPercentage = &p
	}
	return &out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
