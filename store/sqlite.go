package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mbolis/cart-survey/model"
)

// SQLiteResponses keeps each record as a JSON document in survey_response.data,
// with the timestamp copied to its own column for range filters and ordering.
type SQLiteResponses struct {
	db *sql.DB
}

func NewSQLiteResponses(db *sql.DB) *SQLiteResponses {
	return &SQLiteResponses{db}
}

func (s *SQLiteResponses) Insert(ctx context.Context, r model.Response) (string, error) {
	doc := make(model.Response, len(r))
	for k, v := range r {
		if k != model.FieldID {
			doc[k] = v
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}

	var ts sql.NullString
	ts.String, ts.Valid = doc.Timestamp()

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_response (id, timestamp, data)
		VALUES (?, ?, ?)`,
		id,
		ts,
		string(data),
	)
	if err != nil {
		return "", fmt.Errorf("insert response: %w", err)
	}
	return id, nil
}

func (s *SQLiteResponses) List(ctx context.Context, rg model.Range, page model.Page) ([]model.Response, int64, error) {
	where, args := whereRange(rg)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data
		FROM survey_response`+where+`
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?`,
		append(args, page.Limit, page.Skip)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var id, data string
		err = rows.Scan(&id, &data)
		if err != nil {
			return nil, 0, fmt.Errorf("scan response: %w", err)
		}

		r := model.Response{}
		err = json.Unmarshal([]byte(data), &r)
		if err != nil {
			return nil, 0, fmt.Errorf("decode response %s: %w", id, err)
		}
		r[model.FieldID] = id

		responses = append(responses, r)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate responses: %w", err)
	}

	total, err := s.count(ctx, rg)
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

func (s *SQLiteResponses) Analytics(ctx context.Context, rg model.Range) (a model.Analytics, err error) {
	a.TotalResponses, err = s.count(ctx, rg)
	if err != nil {
		return
	}

	where, args := whereRange(rg, "json_type(data, '$."+model.RatingField+"') IS NOT NULL")
	a.SatisfactionData, err = s.groups(ctx, `
		SELECT json_extract(data, '$.`+model.RatingField+`') AS value, count(*)
		FROM survey_response`+where+`
		GROUP BY value
		ORDER BY value ASC`,
		args...,
	)
	if err != nil {
		return a, fmt.Errorf("satisfaction: %w", err)
	}

	where, args = whereRange(rg, "json_type(data, '$."+model.ReasonField+"') IS NOT NULL")
	a.PrimaryConcerns, err = s.groups(ctx, `
		SELECT json_extract(data, '$.`+model.ReasonField+`') AS value, count(*) AS n
		FROM survey_response`+where+`
		GROUP BY value
		ORDER BY n DESC, value ASC`,
		args...,
	)
	if err != nil {
		return a, fmt.Errorf("primary concerns: %w", err)
	}

	where, args = whereRange(rg, "date(timestamp) IS NOT NULL")
	a.ResponseTrend, err = s.groups(ctx, `
		SELECT date(timestamp) AS day, count(*)
		FROM survey_response`+where+`
		GROUP BY day
		ORDER BY day ASC`,
		args...,
	)
	if err != nil {
		return a, fmt.Errorf("response trend: %w", err)
	}
	return
}

func (s *SQLiteResponses) count(ctx context.Context, rg model.Range) (n int64, err error) {
	where, args := whereRange(rg)
	err = s.db.QueryRowContext(ctx, "SELECT count(*) FROM survey_response"+where, args...).Scan(&n)
	if err != nil {
		err = fmt.Errorf("count responses: %w", err)
	}
	return
}

func (s *SQLiteResponses) groups(ctx context.Context, query string, args ...any) ([]model.GroupCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []model.GroupCount{}
	for rows.Next() {
		g := model.GroupCount{}
		err = rows.Scan(&g.ID, &g.Count)
		if err != nil {
			return nil, err
		}
		if b, ok := g.ID.([]byte); ok {
			g.ID = string(b)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func whereRange(rg model.Range, extra ...string) (string, []any) {
	conds := []string{}
	args := []any{}
	if rg.Start != "" {
		conds = append(conds, "timestamp >= ?")
		args = append(args, rg.Start)
	}
	if rg.End != "" {
		conds = append(conds, "timestamp <= ?")
		args = append(args, rg.End)
	}
	conds = append(conds, extra...)

	if len(conds) == 0 {
		return "", args
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}
