package model

import "time"

type QuestionType string

const (
	Rating         QuestionType = "rating"
	MultipleChoice QuestionType = "multiple_choice"
	Text           QuestionType = "text"
	Boolean        QuestionType = "boolean"
)

type Survey struct {
	Title       string     `json:"title" yaml:"title" validate:"required"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions" validate:"required,min=1,unique=ID,dive"`
}

type Question struct {
	ID       string       `json:"id" yaml:"id" validate:"required"`
	Text     string       `json:"text" yaml:"text" validate:"required"`
	Type     QuestionType `json:"type" yaml:"type" validate:"oneof=rating multiple_choice text boolean"`
	Options  []string     `json:"options,omitempty" yaml:"options,omitempty"`
	Required bool         `json:"required" yaml:"required"`
}

// Reserved keys of a response record, next to the question answers.
const (
	FieldID        = "_id"
	FieldTimestamp = "timestamp"
	FieldPageURL   = "pageUrl"
	FieldCartItems = "cartItems"
)

// The ingestion contract is bound to the default survey's field names.
const (
	RatingField = "q1"
	ReasonField = "q2"
)

// TimestampLayout renders instants the way browsers serialize them (Date.toISOString).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Response is one stored survey submission: question id to answer,
// plus the reserved metadata keys.
type Response map[string]any

// Timestamp returns the stored timestamp when it is a string.
func (r Response) Timestamp() (string, bool) {
	ts, ok := r[FieldTimestamp].(string)
	return ts, ok
}

// CartItem is passed through from the storefront as-is, so every field is untyped.
type CartItem struct {
	ID       any `json:"id,omitempty" bson:"id,omitempty"`
	Title    any `json:"title" bson:"title"`
	Quantity any `json:"quantity,omitempty" bson:"quantity,omitempty"`
	Price    any `json:"price" bson:"price"`
}

// Range bounds the stored timestamp, both ends inclusive. Empty means unbounded.
type Range struct {
	Start string
	End   string
}

type Page struct {
	Limit int64 `json:"limit"`
	Skip  int64 `json:"skip"`
}

type GroupCount struct {
	ID    any   `json:"_id" bson:"_id"`
	Count int64 `json:"count" bson:"count"`
}

type Analytics struct {
	TotalResponses   int64        `json:"totalResponses"`
	SatisfactionData []GroupCount `json:"satisfactionData"`
	PrimaryConcerns  []GroupCount `json:"primaryConcerns"`
	ResponseTrend    []GroupCount `json:"responseTrend"`
}
