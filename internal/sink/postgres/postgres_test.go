package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"userflat/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{name: "connection failure", err: &pq.Error{Code: "08006", Message: "connection failure"}, unavailable: true},
		{name: "too many connections", err: &pq.Error{Code: "53300", Message: "too many connections"}, unavailable: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01", Message: "terminating"}, unavailable: true},
		{name: "unique violation", err: &pq.Error{Code: "23505", Message: "duplicate"}, unavailable: false},
		{name: "plain error", err: errors.New("boom"), unavailable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unavailable, errors.Is(classify(tt.err), sentinel.ErrUnavailable))
		})
	}
}

func TestDriverRegistered(t *testing.T) {
	assert.Contains(t, sql.Drivers(), DriverName)
}
