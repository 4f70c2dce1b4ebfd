package event

import (
	"fmt"

	appErrors "event-ticketing/pkg/errors"
)

// State machine for event status transitions
var validTransitions = map[Status][]Status{
	StatusDraft: {
		StatusPublished,
		StatusCancelled,
	},
	StatusPublished: {
		StatusCompleted,
		StatusCancelled,
	},
	StatusCompleted: {
		// Terminal state - no transitions
	},
	StatusCancelled: {
		// Terminal state - no transitions
	},
}

// ValidateStatusTransition checks if status transition is allowed
func ValidateStatusTransition(current, next Status) error {
	allowed, exists := validTransitions[current]
	if !exists {
		return appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Unknown current status: %s", current),
			nil,
		)
	}

	for _, s := range allowed {
		if next == s {
			return nil
		}
	}

	return appErrors.NewAppError(
		appErrors.CodeInvalidTransition,
		fmt.Sprintf("Cannot transition from %s to %s", current, next),
		nil,
	)
}

// GetAllowedTransitions returns allowed next statuses
func GetAllowedTransitions(current Status) []Status {
	return validTransitions[current]
}

// ValidatePublishable checks what an event needs before it can go live.
func ValidatePublishable(e *Event) error {
	if len(e.TicketTiers) == 0 {
		return appErrors.BadRequest("Event must have at least one ticket tier before publishing")
	}
	if len(e.CoverImages) == 0 {
		return appErrors.BadRequest("Event must have at least one cover image before publishing")
	}
	if !e.EndDateTime.After(e.StartDateTime) {
		return appErrors.BadRequest("End date must be after start date")
	}
	return nil
}
