package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/cart-survey/model"
)

const testDelay = 50 * time.Millisecond

const cartPage = `<!doctype html>
<html><body>
<div class="cart-item"><span class="cart-item__title"> Linen Shirt </span><span class="cart-item__price">$45.00</span></div>
<div class="cart__item"><span class="cart__item-title">Canvas Tote</span></div>
<script src="/survey.js"></script>
<script src="/survey.js"></script>
</body></html>`

const productPage = `<!doctype html>
<html><body><h1>Linen Shirt</h1><script src="/survey.js"></script></body></html>`

type storefront struct {
	*httptest.Server
	status atomic.Int64

	mu          sync.Mutex
	submissions []map[string]any
}

func (s *storefront) submitted() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.submissions...)
}

func newStorefront(t *testing.T, survey model.Survey) *storefront {
	t.Helper()
	script, err := Script(survey, ScriptOptions{SubmitURL: "/submit", Delay: testDelay})
	require.NoError(t, err)

	sf := &storefront{}
	sf.status.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/survey.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write(script)
	})
	mux.HandleFunc("/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cartPage))
	})
	mux.HandleFunc("/products/linen-shirt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sf.mu.Lock()
		sf.submissions = append(sf.submissions, body)
		sf.mu.Unlock()

		status := int(sf.status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			w.Write([]byte(`{"success":true,"id":"r1"}`))
		} else {
			w.Write([]byte(`{"error":"An error occurred while submitting the survey."}`))
		}
	})

	sf.Server = httptest.NewServer(mux)
	t.Cleanup(sf.Close)
	return sf
}

func chromePath() string {
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func browser(t *testing.T) context.Context {
	t.Helper()
	path := chromePath()
	if path == "" {
		t.Skip("no Chrome or Chromium binary on PATH")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(path),
		chromedp.Flag("headless", "new"),
		chromedp.NoSandbox,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	t.Cleanup(cancelAlloc)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	t.Cleanup(cancelTask)
	return taskCtx
}

func run(t *testing.T, ctx context.Context, actions ...chromedp.Action) {
	t.Helper()
	require.NoError(t, chromedp.Run(ctx, actions...))
}

const countContainers = `document.querySelectorAll('#causal-funnel-survey').length`

const sessionFlagValue = `sessionStorage.getItem('causalFunnelSurveyCompleted') || ''`

const answerDefaultSurvey = `(function() {
  document.querySelector('.rating-btn[data-question="q1"][data-value="4"]').click();
  document.querySelector('input[name="q2"][value="Gift"]').click();
  var comments = document.querySelector('textarea[name="q3"]');
  comments.value = 'Fast checkout';
  comments.dispatchEvent(new Event('input'));
  document.getElementById('causal-funnel-form').requestSubmit();
  return true;
})()`

const submitEmpty = `(function() {
  document.getElementById('causal-funnel-form').requestSubmit();
  return true;
})()`

func TestScriptInjectsOnceOnCartPage(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.DefaultSurvey())

	var count int
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.WaitVisible("#"+ContainerID, chromedp.ByQuery),
		chromedp.Sleep(4*testDelay),
		chromedp.Evaluate(countContainers, &count),
	)
	assert.Equal(t, 1, count)
}

func TestScriptSkipsOtherPagesAndCompletedSessions(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.DefaultSurvey())

	var count int
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/products/linen-shirt"),
		chromedp.Sleep(4*testDelay),
		chromedp.Evaluate(countContainers, &count),
	)
	assert.Zero(t, count)

	var ok bool
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.Evaluate(`sessionStorage.setItem('causalFunnelSurveyCompleted', 'true'); true`, &ok),
		chromedp.Reload(),
		chromedp.Sleep(4*testDelay),
		chromedp.Evaluate(countContainers, &count),
	)
	assert.Zero(t, count)
}

func TestScriptRequiresAnswers(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.DefaultSurvey())

	var ok bool
	var errs map[string]string
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.WaitVisible("#"+ContainerID, chromedp.ByQuery),
		chromedp.Evaluate(submitEmpty, &ok),
		chromedp.Evaluate(`(function() {
  var out = {};
  document.querySelectorAll('[data-error-for]').forEach(function(el) {
    out[el.getAttribute('data-error-for')] = el.textContent;
  });
  return out;
})()`, &errs),
	)

	assert.Equal(t, map[string]string{"q1": RequiredMessage, "q2": RequiredMessage, "q3": ""}, errs)
	assert.Empty(t, sf.submitted())
}

func TestScriptFlagsErrorsForUnusualQuestionIDs(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.Survey{
		Title: "Checkout",
		Questions: []model.Question{
			{ID: `q"]1`, Text: "Anything to add?", Type: model.Text, Required: true},
		},
	})

	var ok bool
	var messages []string
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.WaitVisible("#"+ContainerID, chromedp.ByQuery),
		chromedp.Evaluate(submitEmpty, &ok),
		chromedp.Evaluate(`Array.from(document.querySelectorAll('[data-error-for]')).map(function(el) { return el.textContent; })`, &messages),
	)
	assert.Equal(t, []string{RequiredMessage}, messages)
}

func TestScriptSubmitsAndMarksSession(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.DefaultSurvey())

	var ok bool
	var flag string
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.WaitVisible("#"+ContainerID, chromedp.ByQuery),
		chromedp.Evaluate(answerDefaultSurvey, &ok),
		chromedp.WaitVisible("#causal-funnel-close-final", chromedp.ByQuery),
		chromedp.Evaluate(sessionFlagValue, &flag),
	)
	assert.Equal(t, "true", flag)

	submissions := sf.submitted()
	require.Len(t, submissions, 1)
	got := submissions[0]
	assert.Equal(t, float64(4), got["q1"])
	assert.Equal(t, "Gift", got["q2"])
	assert.Equal(t, "Fast checkout", got["q3"])
	assert.Equal(t, sf.URL+"/cart", got[model.FieldPageURL])
	assert.IsType(t, "", got[model.FieldTimestamp])
	assert.Equal(t, []any{
		map[string]any{"title": "Linen Shirt", "price": "$45.00"},
		map[string]any{"title": "Canvas Tote", "price": "N/A"},
	}, got[model.FieldCartItems])
}

func TestScriptKeepsFormWhenSubmissionFails(t *testing.T) {
	ctx := browser(t)
	sf := newStorefront(t, model.DefaultSurvey())
	sf.status.Store(http.StatusInternalServerError)

	var ok bool
	run(t, ctx,
		chromedp.Navigate(sf.URL+"/cart"),
		chromedp.WaitVisible("#"+ContainerID, chromedp.ByQuery),
		chromedp.Evaluate(answerDefaultSurvey, &ok),
	)
	assert.Eventually(t, func() bool { return len(sf.submitted()) == 1 }, 5*time.Second, 20*time.Millisecond)

	var flag string
	var formShown bool
	run(t, ctx,
		chromedp.Sleep(4*testDelay),
		chromedp.Evaluate(sessionFlagValue, &flag),
		chromedp.Evaluate(`!!document.getElementById('causal-funnel-form')`, &formShown),
	)
	assert.Empty(t, flag)
	assert.True(t, formShown)
}
