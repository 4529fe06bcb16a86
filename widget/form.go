package widget

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mbolis/cart-survey/model"
)

const RequiredMessage = "This question is required"

var ErrInvalidAnswer = errors.New("invalid answer")

// Answers maps question ids to collected values: an int 1-5 for ratings,
// a string for everything else.
type Answers map[string]any

// Form is the widget's form state. It is a value: every update returns a
// new Form and leaves the previous one untouched.
type Form struct {
	Answers Answers
	Errors  map[string]string
}

// Answer records value for q, clearing any error shown for it.
func Answer(f Form, q model.Question, value any) (Form, error) {
	v, err := normalize(q, value)
	if err != nil {
		return f, err
	}

	next := Form{
		Answers: copyAnswers(f.Answers),
		Errors:  copyErrors(f.Errors),
	}
	next.Answers[q.ID] = v
	delete(next.Errors, q.ID)
	return next, nil
}

// Submit validates f against s. When every required question is answered it
// returns the answers to send and ok; otherwise the returned form carries one
// error per unanswered required question and nothing is sent.
func Submit(s model.Survey, f Form) (next Form, out Answers, ok bool) {
	errs := map[string]string{}
	for _, q := range s.Questions {
		if q.Required && isEmpty(f.Answers[q.ID]) {
			errs[q.ID] = RequiredMessage
		}
	}

	next = Form{Answers: copyAnswers(f.Answers), Errors: errs}
	if len(errs) > 0 {
		return next, nil, false
	}

	out = Answers{}
	for _, q := range s.Questions {
		if v := f.Answers[q.ID]; !isEmpty(v) {
			out[q.ID] = v
		}
	}
	return next, out, true
}

func normalize(q model.Question, value any) (any, error) {
	switch q.Type {
	case model.Rating:
		n, ok := ratingValue(value)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a rating 1-5, got %v", ErrInvalidAnswer, q.ID, value)
		}
		return n, nil

	case model.MultipleChoice:
		s, _ := value.(string)
		for _, opt := range q.Options {
			if s == opt {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%w: %s has no option %v", ErrInvalidAnswer, q.ID, value)

	case model.Boolean:
		s, _ := value.(string)
		if s != "yes" && s != "no" {
			return nil, fmt.Errorf("%w: %s expects yes or no, got %v", ErrInvalidAnswer, q.ID, value)
		}
		return s, nil

	case model.Text:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text", ErrInvalidAnswer, q.ID)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidAnswer, q.ID, q.Type)
}

func ratingValue(value any) (int, bool) {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		n = int(v)
	case string:
		var err error
		n, err = strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return n, n >= 1 && n <= 5
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

func copyAnswers(a Answers) Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func copyErrors(e map[string]string) map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
