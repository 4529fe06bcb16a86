package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/cart-survey/database"
	"github.com/mbolis/cart-survey/model"
)

func openSQLite(t *testing.T) *SQLiteResponses {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "survey.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteResponses(db)
}

func seed(t *testing.T, s Responses, records ...model.Response) []string {
	t.Helper()
	ids := make([]string, len(records))
	for i, r := range records {
		id, err := s.Insert(context.Background(), r)
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestSQLiteInsertKeepsRecordVerbatim(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, model.Response{
		"q1":        4,
		"q2":        "Gift",
		"timestamp": "2024-05-01T10:00:00.000Z",
		"pageUrl":   "https://shop.example.com/cart",
		"cartItems": []model.CartItem{{Title: "Mug", Price: "N/A"}},
		"_id":       "client-supplied",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEqual(t, "client-supplied", id)

	list, total, err := s.List(ctx, model.Range{}, model.Page{Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, list, 1)

	r := list[0]
	assert.Equal(t, id, r[model.FieldID])
	assert.EqualValues(t, 4, r["q1"])
	assert.Equal(t, "Gift", r["q2"])
	assert.Equal(t, "https://shop.example.com/cart", r["pageUrl"])
	assert.NotContains(t, r, "q3")
	assert.Equal(t, []any{map[string]any{"title": "Mug", "price": "N/A"}}, r["cartItems"])
}

func TestSQLiteListOrderingAndPagination(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	seed(t, s,
		model.Response{"q1": 1, "q2": "Gift", "timestamp": "2024-05-01T10:00:00.000Z"},
		model.Response{"q1": 2, "q2": "Gift", "timestamp": "2024-05-03T10:00:00.000Z"},
		model.Response{"q1": 3, "q2": "Gift", "timestamp": "2024-05-02T10:00:00.000Z"},
		model.Response{"q1": 4, "q2": "Gift", "timestamp": "2024-05-04T10:00:00.000Z"},
	)

	list, total, err := s.List(ctx, model.Range{}, model.Page{Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-05-03T10:00:00.000Z", list[0]["timestamp"])
	assert.Equal(t, "2024-05-02T10:00:00.000Z", list[1]["timestamp"])

	list, total, err = s.List(ctx, model.Range{
		Start: "2024-05-02T00:00:00.000Z",
		End:   "2024-05-03T10:00:00.000Z",
	}, model.Page{Limit: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-05-03T10:00:00.000Z", list[0]["timestamp"])

	list, total, err = s.List(ctx, model.Range{}, model.Page{Limit: 10, Skip: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestSQLiteAnalytics(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	seed(t, s,
		model.Response{"q1": 5, "q2": "Gift", "timestamp": "2024-05-01T10:00:00.000Z"},
		model.Response{"q1": 3, "q2": "Gift", "timestamp": "2024-05-01T23:59:59.999Z"},
		model.Response{"q1": 5, "q2": "Business", "timestamp": "2024-05-02T08:00:00.000Z"},
		model.Response{"q2": "Personal use", "timestamp": "2024-05-03T08:00:00.000Z"},
		model.Response{"q1": 1, "timestamp": "not a date"},
	)

	a, err := s.Analytics(ctx, model.Range{})
	require.NoError(t, err)

	assert.EqualValues(t, 5, a.TotalResponses)
	assert.Equal(t, []model.GroupCount{
		{ID: int64(1), Count: 1},
		{ID: int64(3), Count: 1},
		{ID: int64(5), Count: 2},
	}, a.SatisfactionData)
	assert.Equal(t, []model.GroupCount{
		{ID: "Gift", Count: 2},
		{ID: "Business", Count: 1},
		{ID: "Personal use", Count: 1},
	}, a.PrimaryConcerns)
	assert.Equal(t, []model.GroupCount{
		{ID: "2024-05-01", Count: 2},
		{ID: "2024-05-02", Count: 1},
		{ID: "2024-05-03", Count: 1},
	}, a.ResponseTrend)

	var rated int64
	for _, g := range a.SatisfactionData {
		rated += g.Count
	}
	assert.LessOrEqual(t, rated, a.TotalResponses)
}

func TestSQLiteAnalyticsRangeAndEmpty(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	a, err := s.Analytics(ctx, model.Range{})
	require.NoError(t, err)
	assert.Zero(t, a.TotalResponses)
	assert.Equal(t, []model.GroupCount{}, a.SatisfactionData)
	assert.Equal(t, []model.GroupCount{}, a.PrimaryConcerns)
	assert.Equal(t, []model.GroupCount{}, a.ResponseTrend)

	seed(t, s,
		model.Response{"q1": 2, "q2": "Other", "timestamp": "2024-04-30T10:00:00.000Z"},
		model.Response{"q1": 4, "q2": "Gift", "timestamp": "2024-05-01T10:00:00.000Z"},
	)

	a, err = s.Analytics(ctx, model.Range{Start: "2024-05-01T00:00:00.000Z"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.TotalResponses)
	assert.Equal(t, []model.GroupCount{{ID: int64(4), Count: 1}}, a.SatisfactionData)
	assert.Equal(t, []model.GroupCount{{ID: "Gift", Count: 1}}, a.PrimaryConcerns)
	assert.Equal(t, []model.GroupCount{{ID: "2024-05-01", Count: 1}}, a.ResponseTrend)
}
