package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslateConflict(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{
			"session exclusivity violation maps to occupied",
			&pq.Error{Code: "23505", Constraint: "one_started_session_per_spot"},
			ErrSpotOccupied,
		},
		{"exclusion violation maps to overlap", &pq.Error{Code: "23P01"}, ErrOverlapConflict},
		{"serialization failure maps to overlap", &pq.Error{Code: "40001"}, ErrOverlapConflict},
		{
			"wrapped pq error is still recognized",
			fmt.Errorf("insert: %w", &pq.Error{Code: "23P01"}),
			ErrOverlapConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateConflict(tt.in), tt.want)
		})
	}

	// A duplicate booking code is a unique violation too, but not an
	// occupied spot.
	err := translateConflict(&pq.Error{Code: "23505", Constraint: "bookings_code_key"})
	assert.NotErrorIs(t, err, ErrSpotOccupied)
	assert.NotErrorIs(t, err, ErrOverlapConflict)

	err = translateConflict(errors.New("connection reset"))
	assert.NotErrorIs(t, err, ErrSpotOccupied)
	assert.NotErrorIs(t, err, ErrOverlapConflict)
	assert.ErrorContains(t, err, "connection reset")
}
