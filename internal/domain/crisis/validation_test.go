package crisis_test

import (
	"errors"
	"testing"

	"github.com/rpggio/crisisdesk/internal/domain/crisis"
	"github.com/stretchr/testify/require"
)

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload crisis.Payload
		want    []crisis.Violation
	}{
		{
			name:    "valid at minimums",
			payload: crisis.Payload{Title: "F", Description: "0123456789", Location: "LA"},
		},
		{
			name:    "short description",
			payload: crisis.Payload{Title: "Flood", Description: "abc", Location: "Lagos"},
			want:    []crisis.Violation{{Field: "description", Min: 10}},
		},
		{
			name:    "every field short",
			payload: crisis.Payload{Title: "", Description: "short", Location: "L"},
			want: []crisis.Violation{
				{Field: "title", Min: 1},
				{Field: "description", Min: 10},
				{Field: "location", Min: 2},
			},
		},
		{
			name:    "multibyte characters count once",
			payload: crisis.Payload{Title: "é", Description: "éééééééééé", Location: "éé"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := crisis.ValidatePayload(tt.payload)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, crisis.ErrInvalidInput)
			var verr *crisis.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, tt.want, verr.Violations)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := crisis.ValidatePayload(crisis.Payload{Title: "Flood", Description: "abc", Location: "Lagos"})
	require.EqualError(t, err, "invalid crisis update input: description must be at least 10 characters")
}

func TestAuthorize(t *testing.T) {
	rec := &crisis.Update{ID: 1, Author: "A"}
	require.NoError(t, crisis.Authorize(rec, "A"))
	require.ErrorIs(t, crisis.Authorize(rec, "B"), crisis.ErrNotAuthor)
	require.ErrorIs(t, crisis.Authorize(rec, ""), crisis.ErrNotAuthor)
}
