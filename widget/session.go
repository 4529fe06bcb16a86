package widget

type View string

const (
	ViewHidden   View = "hidden"
	ViewForm     View = "form"
	ViewThankYou View = "thank_you"
)

// Session is what the widget remembers for one browser session.
type Session struct {
	View      View
	Completed bool
}

// Load returns the session after a page load on path.
func (s Session) Load(path string, containerPresent bool) (Session, Decision) {
	d := Decide(Page{Path: path, SessionCompleted: s.Completed, ContainerPresent: containerPresent})
	if d.Inject {
		s.View = ViewForm
	}
	return s, d
}

// Apply moves the session past a submission attempt. Only a stored
// response completes the session; a failed one leaves the form as it was.
func (s Session) Apply(submitErr error) Session {
	if submitErr != nil {
		return s
	}
	return Session{View: ViewThankYou, Completed: true}
}

// Close dismisses the widget without completing the session.
func (s Session) Close() Session {
	s.View = ViewHidden
	return s
}
