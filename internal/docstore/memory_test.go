package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID     string    `json:"id"`
	Owner  string    `json:"owner"`
	Status string    `json:"status"`
	Score  float64   `json:"score"`
	At     time.Time `json:"at"`
}

func (d *testDoc) DocumentID() string      { return d.ID }
func (d *testDoc) SetDocumentID(id string) { d.ID = id }

func TestMemoryCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns an ID and get round-trips", func(t *testing.T) {
		col := NewMemory[*testDoc]()

		id, err := col.Create(ctx, &testDoc{Owner: "p1", Status: "active", Score: 3})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := col.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "p1", doc.Owner)
		assert.Equal(t, 3.0, doc.Score)
	})

	t.Run("get of unknown ID is ErrNotFound", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		_, err := col.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update merges named fields only", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		id, err := col.Create(ctx, &testDoc{Owner: "p1", Status: "active", Score: 3})
		require.NoError(t, err)

		require.NoError(t, col.Update(ctx, id, map[string]any{"status": "completed"}))

		doc, err := col.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "completed", doc.Status)
		assert.Equal(t, "p1", doc.Owner, "untouched fields survive")
	})

	t.Run("find filters on equality and membership", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		for _, d := range []*testDoc{
			{Owner: "p1", Status: "active"},
			{Owner: "p1", Status: "completed"},
			{Owner: "p2", Status: "active"},
		} {
			_, err := col.Create(ctx, d)
			require.NoError(t, err)
		}

		docs, err := col.Find(ctx, Query{Filters: []Filter{
			Eq("owner", "p1"),
			In("status", "active", "abandoned"),
		}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "active", docs[0].Status)
	})

	t.Run("find orders and limits", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			_, err := col.Create(ctx, &testDoc{
				Owner: "p1",
				Score: float64(i),
				At:    base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}

		docs, err := col.Find(ctx, Query{
			Filters: []Filter{Eq("owner", "p1")},
			OrderBy: "at",
			Desc:    true,
			Limit:   2,
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, 4.0, docs[0].Score)
		assert.Equal(t, 3.0, docs[1].Score)
	})

	t.Run("subscribe delivers an initial snapshot and one per write", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		_, err := col.Create(ctx, &testDoc{Owner: "p1", Status: "active"})
		require.NoError(t, err)

		sub, err := col.Subscribe(ctx, Query{Filters: []Filter{Eq("owner", "p1")}})
		require.NoError(t, err)
		defer sub.Unsubscribe()

		initial := <-sub.Snapshots()
		require.Len(t, initial, 1)

		_, err = col.Create(ctx, &testDoc{Owner: "p1", Status: "active"})
		require.NoError(t, err)

		select {
		case next := <-sub.Snapshots():
			assert.Len(t, next, 2)
		case <-time.After(time.Second):
			t.Fatal("no snapshot after write")
		}
	})

	t.Run("unsubscribe closes the channel and is idempotent", func(t *testing.T) {
		col := NewMemory[*testDoc]()
		sub, err := col.Subscribe(ctx, Query{})
		require.NoError(t, err)

		sub.Unsubscribe()
		sub.Unsubscribe()

		for range sub.Snapshots() {
		}
	})
}
