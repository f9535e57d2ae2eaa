package services

import (
	"strings"

	"applypilot/config"
)

// FieldKind classifies a discovered form control.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldTel      FieldKind = "tel"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldFile     FieldKind = "file"
	FieldCheckbox FieldKind = "checkbox"
	FieldRadio    FieldKind = "radio"
)

// FormField is a transient binding of a page control to its kind. Navigation
// invalidates the bound element, so fields never outlive one fill pass.
type FormField struct {
	Kind        FieldKind
	Name        string
	ID          string
	Placeholder string
	Label       string
	Required    bool
	Element     Element
}

// Prober scans a page for semantic targets: apply controls, form fields,
// submit controls. All matching is heuristic; every probe can come back
// empty-handed and callers must treat that as a normal outcome.
type Prober struct {
	heur *config.Heuristics
}

func NewProber(heur *config.Heuristics) *Prober {
	return &Prober{heur: heur}
}

const controlSelector = "button, a, input[type='submit'], input[type='button'], [role='button']"

// FindApplyControl locates the control that begins an application, preferring
// earlier entries of the apply allow-list.
func (p *Prober) FindApplyControl(scope Scope) (Element, error) {
	return p.findControl(scope, p.heur.ApplyAllow, p.heur.ApplyDeny)
}

// FindSubmitControl locates the control that finalizes a form, biased toward
// submit vocabulary over generic continue controls.
func (p *Prober) FindSubmitControl(scope Scope) (Element, error) {
	return p.findControl(scope, p.heur.SubmitAllow, p.heur.SubmitDeny)
}

func (p *Prober) findControl(scope Scope, allow, deny []string) (Element, error) {
	candidates, err := scope.QueryAll(controlSelector)
	if err != nil {
		return nil, err
	}

	var best Element
	bestPriority := len(allow)

	for _, candidate := range candidates {
		if !candidate.IsVisible() || candidate.IsDisabled() {
			continue
		}
		text := controlText(candidate)
		priority, ok := MatchIntent(text, allow, deny)
		if !ok {
			continue
		}
		if priority < bestPriority {
			best = candidate
			bestPriority = priority
		}
	}

	if best == nil {
		return nil, ErrElementNotFound
	}
	return best, nil
}

// MatchIntent checks a control's visible text against an ordered allow-list
// and a deny-list. Deny wins over allow; the returned priority is the index
// of the first allow entry contained in the text (lower is stronger).
func MatchIntent(text string, allow, deny []string) (int, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return 0, false
	}

	for _, word := range deny {
		if strings.Contains(normalized, strings.ToLower(word)) {
			return 0, false
		}
	}
	for i, word := range allow {
		if strings.Contains(normalized, strings.ToLower(word)) {
			return i, true
		}
	}
	return 0, false
}

func controlText(el Element) string {
	text, err := el.Text()
	if err == nil && text != "" {
		return text
	}
	// input[type=submit] carries its caption in value, not text content.
	if value := el.Attribute("value"); value != "" {
		return value
	}
	return el.Attribute("aria-label")
}

const fillableSelector = "input[type='text'], input[type='email'], input[type='tel'], " +
	"input:not([type]), textarea, select, input[type='file'], input[type='checkbox'], input[type='radio']"

var fieldGroups = []struct {
	selector string
	kind     FieldKind
}{
	{"input[type='text'], input:not([type])", FieldText},
	{"input[type='email']", FieldEmail},
	{"input[type='tel']", FieldTel},
	{"textarea", FieldTextarea},
	{"select", FieldSelect},
	{"input[type='file']", FieldFile},
	{"input[type='checkbox']", FieldCheckbox},
	{"input[type='radio']", FieldRadio},
}

// DiscoverFields returns every visible fillable control in the scope with its
// identifying attributes captured up front. File inputs are kept even when
// hidden, since upload widgets routinely hide the raw input.
func (p *Prober) DiscoverFields(scope Scope) ([]FormField, error) {
	var fields []FormField
	for _, group := range fieldGroups {
		elements, err := scope.QueryAll(group.selector)
		if err != nil {
			return nil, err
		}
		for _, el := range elements {
			if group.kind != FieldFile && !el.IsVisible() {
				continue
			}
			if el.IsDisabled() {
				continue
			}
			fields = append(fields, FormField{
				Kind:        group.kind,
				Name:        el.Attribute("name"),
				ID:          el.Attribute("id"),
				Placeholder: el.Attribute("placeholder"),
				Label:       el.LabelText(),
				Required:    el.Attribute("required") != "" || el.Attribute("aria-required") == "true",
				Element:     el,
			})
		}
	}
	return fields, nil
}

// HasFormContainer reports whether the scope contains a form element or any
// fillable control at all.
func (p *Prober) HasFormContainer(scope Scope) bool {
	if count, err := scope.Count("form"); err == nil && count > 0 {
		return true
	}
	count, err := scope.Count(fillableSelector)
	return err == nil && count > 0
}
