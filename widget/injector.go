// Package widget implements the storefront survey widget: when it is shown,
// how its form state evolves, how the cart is read and how a response is sent.
// The same rules are rendered into the injectable script served to shops.
package widget

import (
	"strings"
	"time"
)

const (
	ContainerID = "causal-funnel-survey"
	SessionFlag = "causalFunnelSurveyCompleted"
	CartPath    = "/cart"
	InjectDelay = 3 * time.Second
)

// Page is what the widget can observe on a page load.
type Page struct {
	Path             string
	SessionCompleted bool
	ContainerPresent bool
}

type Decision struct {
	Inject bool
	Delay  time.Duration
	Reason string
}

func Decide(p Page) Decision {
	switch {
	case !strings.Contains(p.Path, CartPath):
		return Decision{Reason: "not a cart page"}
	case p.SessionCompleted:
		return Decision{Reason: "already completed in this session"}
	case p.ContainerPresent:
		return Decision{Reason: "already injected"}
	}
	return Decision{Inject: true, Delay: InjectDelay, Reason: "cart page"}
}
