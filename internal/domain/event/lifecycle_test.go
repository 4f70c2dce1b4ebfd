package event

import (
	"errors"
	"testing"
	"time"

	appErrors "event-ticketing/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatusTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusCancelled, true},
		{StatusDraft, StatusCompleted, false},
		{StatusPublished, StatusCompleted, true},
		{StatusPublished, StatusCancelled, true},
		{StatusPublished, StatusDraft, false},
		{StatusCancelled, StatusPublished, false},
		{StatusCompleted, StatusCancelled, false},
		{Status("ARCHIVED"), StatusDraft, false},
	}

	for _, tc := range cases {
		err := ValidateStatusTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr), "%s -> %s", tc.from, tc.to)
		assert.Equal(t, appErrors.CodeInvalidTransition, appErr.Code)
	}

	assert.Empty(t, GetAllowedTransitions(StatusCompleted))
}

func TestValidatePublishable(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	e := &Event{StartDateTime: start, EndDateTime: start.Add(3 * time.Hour), CoverImages: []string{"a.png"}}

	assert.Error(t, ValidatePublishable(e))

	e.TicketTiers = []TicketTier{{Name: "General", Quantity: 100}}
	assert.NoError(t, ValidatePublishable(e))

	e.EndDateTime = start
	assert.Error(t, ValidatePublishable(e))
}
