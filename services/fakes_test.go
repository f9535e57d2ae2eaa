package services

import (
	"time"

	"applypilot/models"
)

// fakeElement implements Element for tests. Register it on a fakeSurface
// under the selector production code queries with.
type fakeElement struct {
	text     string
	attrs    map[string]string
	label    string
	value    string
	hidden   bool
	disabled bool
	checked  bool
	fillErr  error
	clickErr error
	clicks   int
	files    string
}

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) string {
	if e.attrs == nil {
		return ""
	}
	return e.attrs[name]
}

func (e *fakeElement) LabelText() string { return e.label }

func (e *fakeElement) InputValue() (string, error) { return e.value, nil }

func (e *fakeElement) IsVisible() bool  { return !e.hidden }
func (e *fakeElement) IsDisabled() bool { return e.disabled }
func (e *fakeElement) IsChecked() bool  { return e.checked }

func (e *fakeElement) Fill(value string) error {
	if e.fillErr != nil {
		return e.fillErr
	}
	e.value = value
	return nil
}

func (e *fakeElement) Blur() error { return nil }

// Click marks checkboxes checked too, the way a real click would.
func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	e.checked = true
	return nil
}

func (e *fakeElement) Check() error {
	e.checked = true
	return nil
}

func (e *fakeElement) SelectOption(value string) error {
	e.value = value
	return nil
}

func (e *fakeElement) SetFiles(path string) error {
	e.files = path
	return nil
}

// fakeSurface implements Surface over a selector-keyed element registry.
type fakeSurface struct {
	url     string
	title   string
	content string
	els     map[string][]*fakeElement
	frames  []Scope
	closed  bool
	navs    []string
}

func newFakeSurface(url string) *fakeSurface {
	return &fakeSurface{url: url, els: map[string][]*fakeElement{}}
}

func (s *fakeSurface) register(selector string, elements ...*fakeElement) {
	s.els[selector] = append(s.els[selector], elements...)
}

func (s *fakeSurface) Query(selector string) (Element, error) {
	if elements := s.els[selector]; len(elements) > 0 {
		return elements[0], nil
	}
	return nil, ErrElementNotFound
}

func (s *fakeSurface) QueryAll(selector string) ([]Element, error) {
	var out []Element
	for _, el := range s.els[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (s *fakeSurface) Count(selector string) (int, error) {
	return len(s.els[selector]), nil
}

func (s *fakeSurface) URL() string { return s.url }

func (s *fakeSurface) Title() (string, error) { return s.title, nil }

func (s *fakeSurface) Navigate(url string) error {
	s.navs = append(s.navs, url)
	s.url = url
	return nil
}

func (s *fakeSurface) Content() (string, error) { return s.content, nil }

func (s *fakeSurface) Evaluate(string) (interface{}, error) { return nil, nil }

func (s *fakeSurface) WaitVisible(selector string, _ time.Duration) (Element, error) {
	return s.Query(selector)
}

func (s *fakeSurface) WaitSettled(time.Duration) error { return nil }

func (s *fakeSurface) Frames() ([]Scope, error) { return s.frames, nil }

func (s *fakeSurface) Screenshot(string) error { return nil }

func (s *fakeSurface) Close() error {
	s.closed = true
	return nil
}

// fakeSession implements TabSession over a mutable tab list. Closed tabs drop
// out of the enumeration, mirroring the real browser.
type fakeSession struct {
	tabs []*fakeSurface
}

func (s *fakeSession) Tabs() ([]Surface, error) {
	var open []Surface
	for _, tab := range s.tabs {
		if !tab.closed {
			open = append(open, tab)
		}
	}
	return open, nil
}

// fakeAnswers returns a canned answer for every question.
type fakeAnswers struct {
	answer string
	asked  []string
}

func (f *fakeAnswers) GenerateResponse(question string, _ models.JobPosting) (Answer, error) {
	f.asked = append(f.asked, question)
	return Answer{Text: f.answer, Confidence: 0.5}, nil
}
