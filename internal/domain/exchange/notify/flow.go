// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"fmt"
	"time"
)

// Flow is a moderation notification variant.
type Flow int

const (
	FlowRequestInfoFromReporter Flow = iota + 1
	FlowRequestInfoFromReported
	FlowWarnReporter
	FlowWarnReported
)

// Flows lists every variant.
var Flows = []Flow{FlowRequestInfoFromReporter, FlowRequestInfoFromReported, FlowWarnReporter, FlowWarnReported}

// Role is which side of a report receives a message.
type Role string

const (
	RoleReporter Role = "reporter"
	RoleReported Role = "reported"
)

func (f Flow) String() string {
	switch f {
	case FlowRequestInfoFromReporter:
		return "request-info-from-reporter"
	case FlowRequestInfoFromReported:
		return "request-info-from-reported"
	case FlowWarnReporter:
		return "warn-reporter"
	case FlowWarnReported:
		return "warn-reported"
	}
	return fmt.Sprintf("flow(%d)", int(f))
}

// ParseFlow is the inverse of Flow.String.
func ParseFlow(s string) (Flow, error) {
	for _, f := range Flows {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("notify: unknown flow %q", s)
}

// Render produces the recipient role and message of the flow for reportID.
func (f Flow) Render(reportID string) (Role, string, string, error) {
	switch f {
	case FlowRequestInfoFromReporter:
		return RoleReporter, "More information needed",
			fmt.Sprintf("Please add details to your report %s so that we can review it.", reportID), nil
	case FlowRequestInfoFromReported:
		return RoleReported, "Response requested",
			fmt.Sprintf("A report (%s) concerns your activity. Please share your side.", reportID), nil
	case FlowWarnReporter:
		return RoleReporter, "About your report",
			fmt.Sprintf("Report %s was found to be unfounded. Please only report genuine problems.", reportID), nil
	case FlowWarnReported:
		return RoleReported, "Community guidelines warning",
			fmt.Sprintf("Following report %s, your activity was found to breach the community guidelines.", reportID), nil
	}
	return "", "", "", fmt.Errorf("notify: unknown flow %d", int(f))
}

// FlowIntent builds the moderation intent for the party of the flow's role.
func FlowIntent(f Flow, reportID, reporterID, reportedID string, now time.Time) (Intent, error) {
	role, subject, body, err := f.Render(reportID)
	if err != nil {
		return Intent{}, err
	}
	recipient := reporterID
	if role == RoleReported {
		recipient = reportedID
	}
	in := NewIntent(KindModeration, recipient, "", now)
	in.Subject = subject
	in.Body = body
	in.Data = map[string]string{"flow": f.String(), "reportId": reportID, "role": string(role)}
	return in, nil
}
