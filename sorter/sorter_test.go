package sorter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/sorter"
)

func TestParse(t *testing.T) {
	allowed := []string{"name", "created_at"}

	tests := []struct {
		name     string
		expr     string
		expected sorter.SortOpts
	}{
		{
			name:     "empty expression",
			expr:     "",
			expected: nil,
		},
		{
			name: "single pair",
			expr: "name:asc",
			expected: sorter.SortOpts{
				{Field: "name", Direction: sorter.Asc},
			},
		},
		{
			name: "multiple pairs",
			expr: "name:asc,created_at:desc",
			expected: sorter.SortOpts{
				{Field: "name", Direction: sorter.Asc},
				{Field: "created_at", Direction: sorter.Desc},
			},
		},
		{
			name: "disallowed field dropped",
			expr: "name:asc,age:desc",
			expected: sorter.SortOpts{
				{Field: "name", Direction: sorter.Asc},
			},
		},
		{
			name: "invalid direction dropped",
			expr: "name:ascending,created_at:desc",
			expected: sorter.SortOpts{
				{Field: "created_at", Direction: sorter.Desc},
			},
		},
		{
			name: "missing colon dropped",
			expr: "name_asc,created_at:desc",
			expected: sorter.SortOpts{
				{Field: "created_at", Direction: sorter.Desc},
			},
		},
		{
			name: "whitespace and mixed case normalized",
			expr: " name : ASC , created_at : Desc ",
			expected: sorter.SortOpts{
				{Field: "name", Direction: sorter.Asc},
				{Field: "created_at", Direction: sorter.Desc},
			},
		},
		{
			name: "empty pairs skipped",
			expr: ",,name:asc,,",
			expected: sorter.SortOpts{
				{Field: "name", Direction: sorter.Asc},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, sorter.Parse(tc.expr, allowed...))
		})
	}
}

func TestOptToSQL(t *testing.T) {
	assert.Equal(t, "name asc", sorter.Opt{Field: "name", Direction: sorter.Asc}.ToSQL())
	assert.Equal(t, "created_at desc", sorter.Opt{Field: "created_at", Direction: sorter.Desc}.ToSQL())
}
