package services

import "time"

// Scope is anything elements can be probed in: a page, or one of its frames.
// Probes return ErrElementNotFound instead of a nil element.
type Scope interface {
	// Query returns the first visible element matching the selector.
	Query(selector string) (Element, error)
	// QueryAll returns every matching element, visible or not.
	QueryAll(selector string) ([]Element, error)
	// Count returns how many elements match the selector.
	Count(selector string) (int, error)
}

// Surface is an exclusive reference to one live browser tab. Only the tab the
// session manager marks current may be driven; all other handles are inert
// until swapped in.
type Surface interface {
	Scope

	URL() string
	Title() (string, error)
	Navigate(url string) error
	// Content returns the full rendered HTML of the page.
	Content() (string, error)
	// Evaluate runs a script in the page and returns its result.
	Evaluate(script string) (interface{}, error)
	// WaitVisible polls for the selector to become visible, giving up after
	// the timeout. Timing out returns ErrElementNotFound.
	WaitVisible(selector string, timeout time.Duration) (Element, error)
	// WaitSettled blocks until network activity quiets down or the timeout
	// elapses. Timing out is not an error; the page is used as-is.
	WaitSettled(timeout time.Duration) error
	// Frames returns a Scope per sub-frame of the page, outermost first.
	Frames() ([]Scope, error)
	// Screenshot writes a full-page capture to path.
	Screenshot(path string) error
	Close() error
}

// Element is a handle bound to one node on a live page. Handles are transient:
// any navigation can invalidate them, after which operations return
// ErrNavigationLost.
type Element interface {
	Text() (string, error)
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) string
	// LabelText resolves the label associated with a form control, via
	// label[for], a wrapping label, or a preceding sibling.
	LabelText() string
	InputValue() (string, error)
	IsVisible() bool
	IsDisabled() bool
	IsChecked() bool

	// Fill sets the value and raises input- and change-type notifications in
	// the page. A fill whose notifications cannot be raised returns an error
	// and must not be counted as filled.
	Fill(value string) error
	// Blur moves focus off the element, raising a blur notification.
	Blur() error
	Click() error
	Check() error
	// SelectOption picks the option whose visible text contains the given
	// value, case-insensitively.
	SelectOption(value string) error
	// SetFiles attaches a local file to a file-type input.
	SetFiles(path string) error
}

// TabSession enumerates the open tabs of one browser session, in creation
// order.
type TabSession interface {
	Tabs() ([]Surface, error)
}
