// Command surveyprobe runs the survey widget flow against a live storefront
// cart page: injection decision, cart snapshot and, when answers are given,
// validation and submission.
//
//	surveyprobe -page https://demo.myshopify.com/cart -submit-url http://localhost:3000/api/survey/submit -answer q1=4 -answer q2=Gift
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mbolis/cart-survey/log"
	"github.com/mbolis/cart-survey/model"
	"github.com/mbolis/cart-survey/widget"
)

type answerFlags []string

func (a *answerFlags) String() string     { return strings.Join(*a, ",") }
func (a *answerFlags) Set(v string) error { *a = append(*a, v); return nil }

func main() {
	var (
		pageURL   string
		submitURL string
		schema    string
		completed bool
		answers   answerFlags
	)
	flag.StringVar(&pageURL, "page", "", "storefront cart page URL")
	flag.StringVar(&submitURL, "submit-url", "", "ingestion endpoint; answers are only sent when set")
	flag.StringVar(&schema, "schema", "", "YAML survey schema (default built-in cart survey)")
	flag.BoolVar(&completed, "completed", false, "pretend the session already completed the survey")
	flag.Var(&answers, "answer", "question answer as id=value, repeatable")
	flag.Parse()

	if pageURL == "" {
		log.Fatal("surveyprobe: missing -page")
	}

	survey, err := model.LoadSurvey(schema)
	if err != nil {
		log.Fatal("surveyprobe.schema:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	page, err := url.Parse(pageURL)
	if err != nil {
		log.Fatal("surveyprobe.page:", err)
	}

	session := widget.Session{Completed: completed}
	session, decision := session.Load(page.Path, false)
	log.With(log.Fields{"path": page.Path, "inject": decision.Inject, "delay": decision.Delay}).Info(decision.Reason)
	if !decision.Inject {
		return
	}

	cart := widget.ExtractCart(fetchHostCart(ctx, page), fetchPage(ctx, pageURL))
	printJSON("cart", cart)

	form := widget.Form{}
	for _, a := range answers {
		id, value, _ := strings.Cut(a, "=")
		q, ok := survey.Question(id)
		if !ok {
			log.Fatal("surveyprobe.answer: unknown question", id)
		}
		form, err = widget.Answer(form, q, value)
		if err != nil {
			log.Fatal("surveyprobe.answer:", err)
		}
	}

	form, out, ok := widget.Submit(survey, form)
	if !ok {
		printJSON("errors", form.Errors)
		os.Exit(1)
	}
	if submitURL == "" {
		printJSON("answers", out)
		return
	}

	client := widget.NewClient(submitURL)
	id, err := client.Submit(ctx, out, widget.PageContext{URL: pageURL, Cart: cart})
	session = session.Apply(err)
	if err != nil {
		os.Exit(1)
	}
	log.With(log.Fields{"id": id, "view": session.View}).Info("survey submitted")
}

// fetchHostCart reads the storefront's cart object from /cart.js.
// A missing or unreadable cart leaves extraction to the page markup.
func fetchHostCart(ctx context.Context, page *url.URL) *widget.HostCart {
	cartURL := *page
	cartURL.Path = "/cart.js"
	cartURL.RawQuery = ""

	body, err := get(ctx, cartURL.String())
	if err != nil {
		log.Debugf("surveyprobe.host_cart: %s", err)
		return nil
	}
	defer body.Close()

	cart, err := widget.ParseHostCart(body)
	if err != nil {
		log.Debugf("surveyprobe.host_cart: %s", err)
		return nil
	}
	return cart
}

func fetchPage(ctx context.Context, pageURL string) io.Reader {
	body, err := get(ctx, pageURL)
	if err != nil {
		log.Warnf("surveyprobe.page: %s", err)
		return nil
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		log.Warnf("surveyprobe.page: %s", err)
		return nil
	}
	return strings.NewReader(string(raw))
}

func get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	return resp.Body, nil
}

func printJSON(label string, v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Printf("%s: %s\n", label, out)
}
