package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampEncoding(t *testing.T) {
	t.Run("stored timestamps are fixed width", func(t *testing.T) {
		whole := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		fractional := whole.Add(500 * time.Millisecond)

		encWhole, err := encodeDoc(&testDoc{ID: "a", At: whole})
		require.NoError(t, err)
		encFractional, err := encodeDoc(&testDoc{ID: "b", At: fractional})
		require.NoError(t, err)

		assert.Equal(t, "2025-06-01T09:00:00.000000000Z", encWhole["at"])
		assert.Equal(t, "2025-06-01T09:00:00.500000000Z", encFractional["at"])
		// encoding/json alone would trim the whole-second value to
		// "...:00Z", which sorts after "...:00.5Z" as text.
		assert.Less(t, encWhole["at"].(string), encFractional["at"].(string))
	})

	t.Run("updated timestamps get the same form", func(t *testing.T) {
		at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		merged := mergeFields(map[string]any{"id": "a"}, map[string]any{"at": at})
		assert.Equal(t, "2025-06-01T09:00:00.000000000Z", merged["at"])
	})

	t.Run("ordering across whole and fractional seconds is chronological", func(t *testing.T) {
		ctx := context.Background()
		col := NewMemory[*testDoc]()

		base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		for _, d := range []*testDoc{
			{ID: "half", At: base.Add(500 * time.Millisecond)},
			{ID: "whole", At: base},
			{ID: "next", At: base.Add(time.Second)},
		} {
			_, err := col.Create(ctx, d)
			require.NoError(t, err)
		}

		docs, err := col.Find(ctx, Query{OrderBy: "at"})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "whole", docs[0].ID)
		assert.Equal(t, "half", docs[1].ID)
		assert.Equal(t, "next", docs[2].ID)
	})
}
