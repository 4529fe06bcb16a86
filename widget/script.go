package widget

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/mbolis/cart-survey/model"
)

//go:embed script.js.tmpl
var scriptSource string

var scriptTemplate = template.Must(template.New("survey-script").Parse(scriptSource))

type ScriptOptions struct {
	SubmitURL string
	// Delay before the survey appears; zero means InjectDelay.
	Delay time.Duration
}

// Script renders the injectable storefront script for s.
// Every value is embedded as a JSON literal.
func Script(s model.Survey, opts ScriptOptions) ([]byte, error) {
	delay := opts.Delay
	if delay <= 0 {
		delay = InjectDelay
	}
	data := map[string]any{
		"DelayMillis": delay.Milliseconds(),
	}

	literals := map[string]any{
		"Survey":          s,
		"SubmitURL":       opts.SubmitURL,
		"ContainerID":     ContainerID,
		"SessionFlag":     SessionFlag,
		"CartPath":        CartPath,
		"RequiredMessage": RequiredMessage,
		"ItemSelector":    cartItemSelector,
		"TitleSelector":   cartTitleSelector,
		"PriceSelector":   cartPriceSelector,
	}
	for name, v := range literals {
		js, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode script %s: %w", name, err)
		}
		data[name] = string(js)
	}

	var buf bytes.Buffer
	err := scriptTemplate.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("render survey script: %w", err)
	}
	return buf.Bytes(), nil
}
