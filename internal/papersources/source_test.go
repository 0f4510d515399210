package papersources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParamsFor(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		size     int
		expected PageParams
	}{
		{name: "first page", page: 1, size: 100, expected: PageParams{Page: 1, Skip: 0, Limit: 100}},
		{name: "second page", page: 2, size: 100, expected: PageParams{Page: 2, Skip: 100, Limit: 100}},
		{name: "seventh page", page: 7, size: 100, expected: PageParams{Page: 7, Skip: 600, Limit: 100}},
		{name: "zero page clamps", page: 0, size: 50, expected: PageParams{Page: 1, Skip: 0, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PageParamsFor(tt.page, tt.size))
		})
	}
}
