package store

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_InMemoryStore_FindAll(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name        string
		offset      int32
		limit       int32
		expectedLen int
	}{
		{name: "full window", offset: 0, limit: 10, expectedLen: 3},
		{name: "limited window", offset: 0, limit: 2, expectedLen: 2},
		{name: "window in the middle", offset: 1, limit: 1, expectedLen: 1},
		{name: "offset past the end", offset: 5, limit: 10, expectedLen: 0},
		{name: "no limit lists everything", offset: 0, limit: 0, expectedLen: 3},
		{name: "no limit after offset", offset: 1, limit: 0, expectedLen: 2},
		{name: "huge limit does not overflow", offset: 1, limit: math.MaxInt32, expectedLen: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			s := NewInMemoryStore()
			for _, name := range []string{"Widget", "Gadget", "Gizmo"} {
				_, err := s.Create(ctx, name, "test product", 9.99, 5)
				require.NoError(t, err)
			}
			// when
			found, err := s.FindAll(ctx, tc.offset, tc.limit)
			// then
			require.NoError(t, err)
			assert.Len(t, found, tc.expectedLen)
		})
	}
}
