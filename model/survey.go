package model

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

func DefaultSurvey() Survey {
	return Survey{
		Title:       "Cart Feedback Survey",
		Description: "Help us improve your shopping experience by answering a few quick questions.",
		Questions: []Question{
			{
				ID:       "q1",
				Text:     "How satisfied are you with your shopping experience?",
				Type:     Rating,
				Required: true,
			},
			{
				ID:       "q2",
				Text:     "What is the primary reason for your purchase today?",
				Type:     MultipleChoice,
				Options:  []string{"Personal use", "Gift", "Business", "Other"},
				Required: true,
			},
			{
				ID:       "q3",
				Text:     "Any additional comments about your experience?",
				Type:     Text,
				Required: false,
			},
		},
	}
}

func (s Survey) Validate() error {
	err := validate.Struct(s)
	if err != nil {
		return fmt.Errorf("survey schema: %w", err)
	}

	for _, q := range s.Questions {
		if q.Type == MultipleChoice && len(q.Options) == 0 {
			return fmt.Errorf("survey schema: question %q: multiple_choice needs options", q.ID)
		}
	}
	return nil
}

// Question looks a question up by id.
func (s Survey) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// LoadSurvey reads a YAML survey definition. An empty path selects DefaultSurvey.
func LoadSurvey(path string) (s Survey, err error) {
	if path == "" {
		return DefaultSurvey(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read survey schema: %w", err)
	}
	return ParseSurvey(data)
}

func ParseSurvey(data []byte) (s Survey, err error) {
	err = yaml.Unmarshal(data, &s)
	if err != nil {
		return s, fmt.Errorf("parse survey schema: %w", err)
	}
	if len(s.Questions) == 0 && s.Title == "" {
		return s, errors.New("parse survey schema: empty document")
	}

	err = s.Validate()
	return
}
