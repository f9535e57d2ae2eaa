package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"applypilot/config"
)

// BrowserEngine owns the Playwright process, the browser and its single
// context. One engine drives one logical session; tabs are handed out as
// Surfaces and tracked so the same tab always maps to the same handle.
type BrowserEngine struct {
	pw       *playwright.Playwright
	browser  playwright.Browser
	context  playwright.BrowserContext
	cfg      config.BrowserConfig
	surfaces map[playwright.Page]*playwrightSurface
}

func NewBrowserEngine(cfg config.BrowserConfig) (*BrowserEngine, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %v", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-blink-features=AutomationControlled",
			"--disable-extensions",
			"--disable-plugins-discovery",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %v", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
		UserAgent: playwright.String("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create context: %v", err)
	}

	return &BrowserEngine{
		pw:       pw,
		browser:  browser,
		context:  context,
		cfg:      cfg,
		surfaces: make(map[playwright.Page]*playwrightSurface),
	}, nil
}

func (e *BrowserEngine) Close() error {
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			log.Printf("Error closing browser: %v", err)
		}
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			log.Printf("Error stopping playwright: %v", err)
		}
	}
	return nil
}

// NewSurface opens a fresh tab.
func (e *BrowserEngine) NewSurface() (Surface, error) {
	page, err := e.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %v", err)
	}
	return e.surfaceFor(page), nil
}

// Tabs returns a Surface per open tab, in creation order. Implements
// TabSession for the session manager.
func (e *BrowserEngine) Tabs() ([]Surface, error) {
	pages := e.context.Pages()
	tabs := make([]Surface, 0, len(pages))
	for _, page := range pages {
		tabs = append(tabs, e.surfaceFor(page))
	}
	return tabs, nil
}

func (e *BrowserEngine) surfaceFor(page playwright.Page) *playwrightSurface {
	if s, ok := e.surfaces[page]; ok {
		return s
	}
	s := &playwrightSurface{page: page, cfg: e.cfg}
	e.surfaces[page] = s
	return s
}

type playwrightSurface struct {
	page playwright.Page
	cfg  config.BrowserConfig
}

func (s *playwrightSurface) URL() string {
	return s.page.URL()
}

func (s *playwrightSurface) Title() (string, error) {
	title, err := s.page.Title()
	return title, mapPageError(err)
}

func (s *playwrightSurface) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(s.cfg.NavigateTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, mapPageError(err))
	}
	return nil
}

func (s *playwrightSurface) Content() (string, error) {
	content, err := s.page.Content()
	return content, mapPageError(err)
}

func (s *playwrightSurface) Evaluate(script string) (interface{}, error) {
	result, err := s.page.Evaluate(script)
	return result, mapPageError(err)
}

func (s *playwrightSurface) Query(selector string) (Element, error) {
	return queryLocator(s.page.Locator(selector))
}

func (s *playwrightSurface) QueryAll(selector string) ([]Element, error) {
	return queryAllLocator(s.page.Locator(selector))
}

func (s *playwrightSurface) Count(selector string) (int, error) {
	count, err := s.page.Locator(selector).Count()
	return count, mapPageError(err)
}

func (s *playwrightSurface) WaitVisible(selector string, timeout time.Duration) (Element, error) {
	locator := s.page.Locator(selector).First()
	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		if isContextDestroyed(err) {
			return nil, ErrNavigationLost
		}
		return nil, ErrElementNotFound
	}
	return &playwrightElement{locator: locator}, nil
}

func (s *playwrightSurface) WaitSettled(timeout time.Duration) error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil && isContextDestroyed(err) {
		return ErrNavigationLost
	}
	// A timed-out settle is not fatal; the page is used as-is.
	return nil
}

func (s *playwrightSurface) Frames() ([]Scope, error) {
	frames := s.page.Frames()
	scopes := make([]Scope, 0, len(frames))
	for _, frame := range frames {
		if frame == s.page.MainFrame() {
			continue
		}
		scopes = append(scopes, &frameScope{frame: frame})
	}
	return scopes, nil
}

func (s *playwrightSurface) Screenshot(path string) error {
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return mapPageError(err)
}

func (s *playwrightSurface) Close() error {
	return s.page.Close()
}

type frameScope struct {
	frame playwright.Frame
}

func (f *frameScope) Query(selector string) (Element, error) {
	return queryLocator(f.frame.Locator(selector))
}

func (f *frameScope) QueryAll(selector string) ([]Element, error) {
	return queryAllLocator(f.frame.Locator(selector))
}

func (f *frameScope) Count(selector string) (int, error) {
	count, err := f.frame.Locator(selector).Count()
	return count, mapPageError(err)
}

func queryLocator(locator playwright.Locator) (Element, error) {
	candidates, err := locator.All()
	if err != nil {
		return nil, mapPageError(err)
	}
	for _, candidate := range candidates {
		if visible, _ := candidate.IsVisible(); visible {
			return &playwrightElement{locator: candidate}, nil
		}
	}
	return nil, ErrElementNotFound
}

func queryAllLocator(locator playwright.Locator) ([]Element, error) {
	candidates, err := locator.All()
	if err != nil {
		return nil, mapPageError(err)
	}
	elements := make([]Element, 0, len(candidates))
	for _, candidate := range candidates {
		elements = append(elements, &playwrightElement{locator: candidate})
	}
	return elements, nil
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Text() (string, error) {
	text, err := e.locator.TextContent()
	return strings.TrimSpace(text), mapPageError(err)
}

func (e *playwrightElement) Attribute(name string) string {
	value, err := e.locator.GetAttribute(name)
	if err != nil {
		return ""
	}
	return value
}

func (e *playwrightElement) LabelText() string {
	result, err := e.locator.Evaluate(`el => {
		if (el.id) {
			const label = document.querySelector('label[for="' + el.id + '"]');
			if (label) return label.textContent.trim();
		}
		const parentLabel = el.closest('label');
		if (parentLabel) return parentLabel.textContent.trim();
		const prev = el.previousElementSibling;
		if (prev && prev.tagName === 'LABEL') return prev.textContent.trim();
		return "";
	}`, nil)
	if err != nil {
		return ""
	}
	if text, ok := result.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func (e *playwrightElement) InputValue() (string, error) {
	value, err := e.locator.InputValue()
	return value, mapPageError(err)
}

func (e *playwrightElement) IsVisible() bool {
	visible, _ := e.locator.IsVisible()
	return visible
}

func (e *playwrightElement) IsDisabled() bool {
	disabled, _ := e.locator.IsDisabled()
	return disabled
}

func (e *playwrightElement) IsChecked() bool {
	checked, _ := e.locator.IsChecked()
	return checked
}

// Fill sets the value and then raises input and change notifications in the
// page. React-style forms ignore values whose notifications never fired, so a
// fill only counts once the dispatch succeeds.
func (e *playwrightElement) Fill(value string) error {
	if err := e.locator.Clear(); err != nil {
		return mapPageError(err)
	}
	if err := e.locator.Fill(value); err != nil {
		return mapPageError(err)
	}
	_, err := e.locator.Evaluate(`el => {
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	}`, nil)
	if err != nil {
		return fmt.Errorf("value set but notifications not raised: %w", mapPageError(err))
	}
	return nil
}

func (e *playwrightElement) Blur() error {
	_, err := e.locator.Evaluate(`el => el.blur()`, nil)
	return mapPageError(err)
}

func (e *playwrightElement) Click() error {
	return mapPageError(e.locator.Click())
}

func (e *playwrightElement) Check() error {
	return mapPageError(e.locator.Check())
}

// SelectOption matches option text case-insensitively by substring, the way
// ATS dropdowns are usually filled (visible labels rarely equal values).
func (e *playwrightElement) SelectOption(value string) error {
	options, err := e.locator.Locator("option").All()
	if err != nil {
		return mapPageError(err)
	}

	want := strings.ToLower(strings.TrimSpace(value))
	for _, option := range options {
		text, err := option.TextContent()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(strings.TrimSpace(text)), want) {
			optionValue, err := option.GetAttribute("value")
			if err != nil || optionValue == "" {
				optionValue = strings.TrimSpace(text)
			}
			_, err = e.locator.SelectOption(playwright.SelectOptionValues{
				Values: &[]string{optionValue},
			})
			if err != nil {
				return mapPageError(err)
			}
			_, err = e.locator.Evaluate(`el => {
				el.dispatchEvent(new Event('change', { bubbles: true }));
			}`, nil)
			return mapPageError(err)
		}
	}
	return ErrElementNotFound
}

func (e *playwrightElement) SetFiles(path string) error {
	return mapPageError(e.locator.SetInputFiles(path))
}

// mapPageError folds playwright's context-destroyed family of errors into
// ErrNavigationLost so callers can retry the interrupted operation once.
func mapPageError(err error) error {
	if err == nil {
		return nil
	}
	if isContextDestroyed(err) {
		return ErrNavigationLost
	}
	return err
}

func isContextDestroyed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution context was destroyed") ||
		strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "has been closed") ||
		strings.Contains(msg, "frame was detached")
}
