package services

import (
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"applypilot/config"
)

// Verdict is the verifier's judgment of post-submit page state. It is a
// heuristic oracle: callers must treat wrong verdicts as retry conditions,
// not exceptions.
type Verdict struct {
	Success            bool   `json:"success"`
	SuccessScore       int    `json:"success_score"`
	FailureScore       int    `json:"failure_score"`
	ConfirmationText   string `json:"confirmation_text,omitempty"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	Detail             string `json:"detail,omitempty"`
}

// SubmissionCheckerService scores post-submit page state into a success or
// failure verdict plus extracted confirmation data.
type SubmissionCheckerService struct {
	heur   *config.Heuristics
	prober *Prober
	filler *FormFillerService
	settle time.Duration
}

func NewSubmissionCheckerService(heur *config.Heuristics, prober *Prober, filler *FormFillerService, settle time.Duration) *SubmissionCheckerService {
	return &SubmissionCheckerService{heur: heur, prober: prober, filler: filler, settle: settle}
}

const successElementSelector = "[class*='success'], [class*='confirmation'], [class*='submitted'], " +
	"[id*='success'], [id*='confirmation'], [data-testid*='success'], [data-testid*='confirmation']"

const errorElementSelector = "[class*='error']:not([class*='error-free']), [id*='error'], " +
	"[role='alert'], [class*='invalid']"

// Verify waits for the page to settle after the submit click, then scores
// visible text, URL signals, conventional elements and unmet required fields
// into a verdict.
func (s *SubmissionCheckerService) Verify(surface Surface) (*Verdict, error) {
	if err := surface.WaitSettled(s.settle); err != nil {
		return nil, err
	}

	content, err := surface.Content()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	text := visibleText(doc)
	successScore := ScoreKeywords(text, s.heur.SuccessKeywords)
	failureScore := ScoreKeywords(text, s.heur.FailureKeywords)

	pageURL := surface.URL()
	successSignal := doc.Find(successElementSelector).Length() > 0 || urlSignal(pageURL, s.heur.SuccessURLSignals)
	errorSignal := doc.Find(errorElementSelector).Length() > 0 || urlSignal(pageURL, s.heur.FailureURLSignals)

	formPresent := s.prober.HasFormContainer(surface)
	unmetRequired := false
	if formPresent {
		unmetRequired = len(s.filler.CheckRequiredFields(surface)) > 0
	}

	verdict := &Verdict{
		SuccessScore: successScore,
		FailureScore: failureScore,
	}
	verdict.Success = Decide(successScore, failureScore, successSignal, errorSignal, formPresent, unmetRequired, s.heur.MinSuccessScore)

	if verdict.Success {
		verdict.ConfirmationText = ExtractConfirmationSentence(text, s.heur.SuccessKeywords)
		verdict.ConfirmationNumber = ExtractConfirmationNumber(text)
	} else {
		verdict.Detail = describeFailure(successScore, failureScore, errorSignal, unmetRequired)
	}

	log.Printf("Submission verdict: success=%v (success=%d failure=%d url=%s)",
		verdict.Success, successScore, failureScore, pageURL)
	return verdict, nil
}

// Decide applies the acceptance rule: more success than failure evidence,
// enough success evidence on its own terms, no error evidence, and nothing
// still demanding input. Monotonic in successScore, anti-monotonic in
// failureScore.
func Decide(successScore, failureScore int, successSignal, errorSignal, formPresent, unmetRequired bool, minSuccessScore int) bool {
	if successScore <= failureScore {
		return false
	}
	if successScore < minSuccessScore && !successSignal {
		return false
	}
	if errorSignal {
		return false
	}
	if formPresent && unmetRequired {
		return false
	}
	return true
}

// ScoreKeywords counts how many of the keywords occur in the text.
func ScoreKeywords(text string, keywords []string) int {
	lowered := strings.ToLower(text)
	score := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			score++
		}
	}
	return score
}

func urlSignal(rawURL string, signals []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, signal := range signals {
		if strings.Contains(path, signal) {
			return true
		}
	}
	return false
}

var sentenceSplitter = regexp.MustCompile(`[.!?\n]`)

// ExtractConfirmationSentence returns the first sentence of the text that
// contains a success keyword, as the human-readable confirmation artifact.
func ExtractConfirmationSentence(text string, keywords []string) string {
	for _, sentence := range sentenceSplitter.Split(text, -1) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		lowered := strings.ToLower(trimmed)
		for _, keyword := range keywords {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				return trimmed
			}
		}
	}
	return ""
}

var confirmationNumberPattern = regexp.MustCompile(
	`(?i)\b(?:confirmation|reference|application|tracking)\s*(?:number|no\.?|id|code)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{4,})`)

// ExtractConfirmationNumber pulls a labeled alphanumeric code out of the
// page text. The code must contain a digit; bare words after the label are
// label continuation, not codes.
func ExtractConfirmationNumber(text string) string {
	matches := confirmationNumberPattern.FindAllStringSubmatch(text, -1)
	for _, match := range matches {
		code := match[1]
		if strings.ContainsAny(code, "0123456789") {
			return code
		}
	}
	return ""
}

func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()
	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " ")
}

func describeFailure(successScore, failureScore int, errorSignal, unmetRequired bool) string {
	switch {
	case errorSignal:
		return "error markers present on post-submit page"
	case unmetRequired:
		return "required fields still unmet after submit"
	case failureScore >= successScore:
		return "failure keywords outweigh success keywords"
	default:
		return "insufficient success evidence"
	}
}
