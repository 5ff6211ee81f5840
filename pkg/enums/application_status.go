package enums

import "fmt"

// ApplicationStatus tracks the lifecycle of a job application.
type ApplicationStatus string

const (
	ApplicationStatusNew                ApplicationStatus = "new"
	ApplicationStatusReviewing          ApplicationStatus = "reviewing"
	ApplicationStatusInterviewScheduled ApplicationStatus = "interview-scheduled"
	ApplicationStatusInterviewed        ApplicationStatus = "interviewed"
	ApplicationStatusOffer              ApplicationStatus = "offer"
	ApplicationStatusRejected           ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn          ApplicationStatus = "withdrawn"
)

var validApplicationStatuses = []ApplicationStatus{
	ApplicationStatusNew,
	ApplicationStatusReviewing,
	ApplicationStatusInterviewScheduled,
	ApplicationStatusInterviewed,
	ApplicationStatusOffer,
	ApplicationStatusRejected,
	ApplicationStatusWithdrawn,
}

// String implements fmt.Stringer.
func (s ApplicationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ApplicationStatus.
func (s ApplicationStatus) IsValid() bool {
	for _, candidate := range validApplicationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AllowsReveal reports whether applicant identity may be disclosed while the
// application sits in this status. Declared here once so every transition
// checks the same rule.
func (s ApplicationStatus) AllowsReveal() bool {
	return s == ApplicationStatusInterviewed || s == ApplicationStatusOffer
}

// ParseApplicationStatus converts raw input into an ApplicationStatus.
func ParseApplicationStatus(value string) (ApplicationStatus, error) {
	for _, candidate := range validApplicationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", value)
}

// ApplicationStatuses returns every known status in pipeline order.
func ApplicationStatuses() []ApplicationStatus {
	out := make([]ApplicationStatus, len(validApplicationStatuses))
	copy(out, validApplicationStatuses)
	return out
}
