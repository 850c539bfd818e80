package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicolaspearson/grpc.typeorm.infrastructure/pagination"
)

func TestRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.Request
		opts         []pagination.Option
		wantPage     int
		wantSize     int
		wantOffset   int
	}{
		{
			name:       "zero values get defaults",
			req:        pagination.Request{},
			wantPage:   1,
			wantSize:   20,
			wantOffset: 0,
		},
		{
			name:       "negative page resets to first",
			req:        pagination.Request{PageNumber: -3, PageSize: 10},
			wantPage:   1,
			wantSize:   10,
			wantOffset: 0,
		},
		{
			name:       "oversized page clamped",
			req:        pagination.Request{PageNumber: 2, PageSize: 500},
			wantPage:   2,
			wantSize:   100,
			wantOffset: 100,
		},
		{
			name:       "custom max page size",
			req:        pagination.Request{PageNumber: 1, PageSize: 500},
			opts:       []pagination.Option{pagination.WithMaxPageSize(250)},
			wantPage:   1,
			wantSize:   250,
			wantOffset: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize(tc.opts...)
			assert.Equal(t, tc.wantPage, tc.req.PageNumber)
			assert.Equal(t, tc.wantSize, tc.req.PageSize)
			assert.Equal(t, tc.wantOffset, tc.req.Offset())
			assert.Equal(t, tc.wantSize, tc.req.Limit())
		})
	}
}

func TestNewResponse(t *testing.T) {
	req := pagination.Request{PageNumber: 2, PageSize: 10}
	req.Normalize()

	resp := pagination.NewResponse([]string{"a", "b"}, 25, req)

	assert.Equal(t, 2, resp.PageNumber)
	assert.Equal(t, 10, resp.PageSize)
	assert.Equal(t, 3, resp.PageCount)
	assert.Equal(t, int64(25), resp.TotalCount)
	assert.Equal(t, []string{"a", "b"}, resp.PageContent)
}
