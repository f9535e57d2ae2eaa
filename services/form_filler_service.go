package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"applypilot/models"
)

// FormFillerService maps discovered fields to semantic categories and fills
// them: canned profile values for basic fields, the answer provider for open
// questions, the résumé artifact for file inputs.
type FormFillerService struct {
	prober     *Prober
	answers    AnswerProvider
	resumePath string
	// reprobeDelay is how long to wait before the single re-probe when a
	// scope yields zero fields.
	reprobeDelay time.Duration
}

func NewFormFillerService(prober *Prober, answers AnswerProvider, resumePath string) *FormFillerService {
	return &FormFillerService{
		prober:       prober,
		answers:      answers,
		resumePath:   resumePath,
		reprobeDelay: 3 * time.Second,
	}
}

// FillReport summarizes one fill pass.
type FillReport struct {
	FilledCount    int
	SkippedCount   int
	AnsweredCount  int
	UploadedResume bool
}

// hintRule maps identifying text to a semantic category. Order matters: more
// specific hints come before the generic ones they would shadow.
type hintRule struct {
	hint     string
	keywords []string
}

var hintRules = []hintRule{
	{"first_name", []string{"first name", "first_name", "firstname", "given name", "given_name"}},
	{"last_name", []string{"last name", "last_name", "lastname", "surname", "family name", "family_name"}},
	{"full_name", []string{"full name", "full_name", "fullname", "your name", "legal name"}},
	{"email", []string{"email", "e-mail"}},
	{"phone", []string{"phone", "mobile", "cell"}},
	{"linkedin", []string{"linkedin"}},
	{"github", []string{"github"}},
	{"portfolio", []string{"portfolio", "website", "personal site", "url"}},
	{"address", []string{"street", "address line", "address"}},
	{"city", []string{"city", "town"}},
	{"state", []string{"state", "province", "region"}},
	{"zip", []string{"zip", "postal"}},
	{"country", []string{"country"}},
	{"company", []string{"current company", "current employer", "company", "employer", "organization"}},
	{"title", []string{"current title", "job title", "current role", "title"}},
	{"salary", []string{"salary", "compensation", "expected pay", "desired pay"}},
	{"years_experience", []string{"years of experience", "years experience", "yrs experience"}},
	{"school", []string{"school", "university", "college", "institution"}},
	{"degree", []string{"degree"}},
	{"name", []string{"name"}},
}

// DeriveHint infers a semantic category from a field's identifying text.
// Precedence is placeholder, then name, then id, then associated label; the
// first source that matches any rule decides.
func DeriveHint(placeholder, name, id, label string) string {
	for _, source := range []string{placeholder, name, id, label} {
		if source == "" {
			continue
		}
		normalized := normalizeIdent(source)
		for _, rule := range hintRules {
			for _, keyword := range rule.keywords {
				if strings.Contains(normalized, keyword) {
					return rule.hint
				}
			}
		}
	}
	return ""
}

// normalizeIdent lowers the text and opens up snake/camel separators so
// "firstName" and "first-name" both match "first name" keywords.
func normalizeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' && i > 0 {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				b.WriteRune(' ')
			}
		}
		switch r {
		case '-', '.', '[', ']':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	lowered := strings.ToLower(b.String())
	return strings.ReplaceAll(lowered, "_", " ")
}

// hintValues builds the hint to canned-value dictionary for one profile.
func hintValues(profile *models.ApplicantProfile) map[string]string {
	values := map[string]string{
		"first_name":       profile.FirstName,
		"last_name":        profile.LastName,
		"full_name":        profile.FullName,
		"name":             profile.FullName,
		"email":            profile.Email,
		"phone":            profile.Phone,
		"linkedin":         profile.LinkedIn,
		"github":           profile.GitHub,
		"portfolio":        profile.Portfolio,
		"address":          profile.Address,
		"city":             profile.City,
		"state":            profile.State,
		"zip":              profile.ZipCode,
		"country":          profile.Country,
		"company":          profile.CurrentCompany,
		"title":            profile.CurrentTitle,
		"salary":           profile.SalaryExpectation,
		"years_experience": "",
	}
	if profile.YearsOfExperience > 0 {
		values["years_experience"] = fmt.Sprintf("%d", profile.YearsOfExperience)
	}
	if len(profile.Education) > 0 {
		values["school"] = profile.Education[0].Institution
		values["degree"] = profile.Education[0].Degree
	}
	return values
}

// textareaRule routes long-form prompts to a profile-derived draft; anything
// unmatched goes to the answer provider instead.
type textareaRule struct {
	category string
	keywords []string
}

var textareaRules = []textareaRule{
	{"cover_letter", []string{"cover letter", "cover_letter", "coverletter", "why do you want", "why are you interested", "motivation"}},
	{"experience", []string{"experience", "background", "work history", "relevant projects"}},
	{"skills", []string{"skills", "technologies", "tech stack"}},
	{"about", []string{"about you", "about yourself", "tell us about", "summary", "bio"}},
}

func classifyTextarea(placeholder, name, id, label string) string {
	for _, source := range []string{placeholder, name, id, label} {
		if source == "" {
			continue
		}
		normalized := normalizeIdent(source)
		for _, rule := range textareaRules {
			for _, keyword := range rule.keywords {
				if strings.Contains(normalized, keyword) {
					return rule.category
				}
			}
		}
	}
	return ""
}

// FillForm runs one fill pass over the surface. If the top-level document has
// no fields it walks the sub-frames; the first frame yielding fillable fields
// wins. Zero fields anywhere triggers exactly one delayed re-probe before
// giving up.
func (s *FormFillerService) FillForm(surface Surface, profile *models.ApplicantProfile, job models.JobPosting) (*FillReport, error) {
	scope, fields, err := s.locateFields(surface)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		log.Printf("No fillable fields found, re-probing once after %v", s.reprobeDelay)
		time.Sleep(s.reprobeDelay)
		scope, fields, err = s.locateFields(surface)
		if err != nil {
			return nil, err
		}
	}

	if len(fields) == 0 {
		return &FillReport{}, nil
	}

	return s.fillFields(scope, fields, profile, job)
}

func (s *FormFillerService) locateFields(surface Surface) (Scope, []FormField, error) {
	fields, err := s.prober.DiscoverFields(surface)
	if err != nil {
		return nil, nil, err
	}
	if len(fields) > 0 {
		return surface, fields, nil
	}

	// Embedded ATS forms live inside iframes; repeat the probe per frame.
	frames, err := surface.Frames()
	if err != nil {
		return nil, nil, err
	}
	for i, frame := range frames {
		frameFields, err := s.prober.DiscoverFields(frame)
		if err != nil {
			continue
		}
		if len(frameFields) > 0 {
			log.Printf("Found %d fillable fields in frame %d", len(frameFields), i)
			return frame, frameFields, nil
		}
	}
	return surface, nil, nil
}

func (s *FormFillerService) fillFields(scope Scope, fields []FormField, profile *models.ApplicantProfile, job models.JobPosting) (*FillReport, error) {
	report := &FillReport{}
	values := hintValues(profile)
	var lastFilled Element

	for _, field := range fields {
		switch field.Kind {
		case FieldText, FieldEmail, FieldTel:
			if s.fillTextField(field, values, job, report) {
				lastFilled = field.Element
			}

		case FieldTextarea:
			if s.fillTextarea(field, profile, job, report) {
				lastFilled = field.Element
			}

		case FieldSelect:
			if s.fillSelect(field, profile) {
				report.FilledCount++
				lastFilled = field.Element
			} else {
				report.SkippedCount++
			}

		case FieldFile:
			if s.resumePath == "" {
				report.SkippedCount++
				continue
			}
			if err := field.Element.SetFiles(s.resumePath); err != nil {
				log.Printf("Failed to attach resume: %v", err)
				report.SkippedCount++
			} else {
				log.Printf("Attached resume to file input '%s'", field.Name)
				report.FilledCount++
				report.UploadedResume = true
			}

		case FieldCheckbox:
			if s.fillCheckbox(field) {
				report.FilledCount++
			} else {
				report.SkippedCount++
			}

		default:
			report.SkippedCount++
		}
	}

	// Blur on group exit so validation bound to focus loss runs.
	if lastFilled != nil {
		if err := lastFilled.Blur(); err != nil {
			log.Printf("Blur after fill pass failed: %v", err)
		}
	}

	return report, nil
}

func (s *FormFillerService) fillTextField(field FormField, values map[string]string, job models.JobPosting, report *FillReport) bool {
	if value, _ := field.Element.InputValue(); value != "" {
		return false
	}

	hint := DeriveHint(field.Placeholder, field.Name, field.ID, field.Label)
	if value := values[hint]; value != "" {
		if s.fillCounted(field, value, report) {
			return true
		}
		return false
	}

	// Secondary pass: unmatched required fields get a looser
	// placeholder-substring match before we give up on them.
	if field.Required {
		if value := placeholderFallback(field.Placeholder, values); value != "" {
			return s.fillCounted(field, value, report)
		}
		if question := questionText(field); question != "" {
			answer, err := s.answers.GenerateResponse(question, job)
			if err == nil && answer.Text != "" {
				if s.fillCounted(field, answer.Text, report) {
					report.AnsweredCount++
					return true
				}
			}
		}
	}

	report.SkippedCount++
	return false
}

func (s *FormFillerService) fillTextarea(field FormField, profile *models.ApplicantProfile, job models.JobPosting, report *FillReport) bool {
	if value, _ := field.Element.InputValue(); value != "" {
		return false
	}

	var text string
	switch classifyTextarea(field.Placeholder, field.Name, field.ID, field.Label) {
	case "cover_letter":
		answer, err := s.answers.GenerateResponse(
			fmt.Sprintf("Write a short cover letter for the %s role at %s.", job.Title, job.Company), job)
		if err == nil {
			text = answer.Text
		}
	case "experience":
		text = experienceSummary(profile)
	case "skills":
		text = strings.Join(profile.Skills, ", ")
	case "about":
		text = profile.Summary
	default:
		question := questionText(field)
		if question == "" {
			report.SkippedCount++
			return false
		}
		answer, err := s.answers.GenerateResponse(question, job)
		if err != nil {
			report.SkippedCount++
			return false
		}
		text = answer.Text
		report.AnsweredCount++
	}

	if text == "" {
		report.SkippedCount++
		return false
	}
	return s.fillCounted(field, text, report)
}

// selectRule drives semantic dropdown answers, including the voluntary
// self-identification sections most US applications carry.
func (s *FormFillerService) fillSelect(field FormField, profile *models.ApplicantProfile) bool {
	ident := normalizeIdent(field.Label + " " + field.Name + " " + field.ID)

	var want string
	switch {
	case strings.Contains(ident, "sponsor"):
		want = yesNo(profile.RequiresSponsorship)
	case strings.Contains(ident, "authoriz") || strings.Contains(ident, "legally"):
		want = profile.WorkAuthorization
	case strings.Contains(ident, "relocat"):
		want = yesNo(profile.WillingToRelocate)
	case strings.Contains(ident, "gender"):
		want = orPreferNot(profile.Gender)
	case strings.Contains(ident, "ethnic") || strings.Contains(ident, "race"):
		want = orPreferNot(profile.Ethnicity)
	case strings.Contains(ident, "veteran"):
		want = orPreferNot(profile.VeteranStatus)
	case strings.Contains(ident, "disab"):
		want = orPreferNot(profile.DisabilityStatus)
	case strings.Contains(ident, "country"):
		want = profile.Country
	case strings.Contains(ident, "hear about") || strings.Contains(ident, "how did you"):
		want = "LinkedIn"
	default:
		return false
	}

	if want == "" {
		return false
	}
	if err := field.Element.SelectOption(want); err != nil {
		// Fall back to the decline option when the exact answer is absent.
		if err := field.Element.SelectOption("prefer not"); err != nil {
			return false
		}
	}
	return true
}

func (s *FormFillerService) fillCheckbox(field FormField) bool {
	ident := normalizeIdent(field.Label + " " + field.Name)
	consent := strings.Contains(ident, "agree") || strings.Contains(ident, "consent") ||
		strings.Contains(ident, "acknowledge") || strings.Contains(ident, "certify") ||
		strings.Contains(ident, "terms")
	if !consent && !field.Required {
		return false
	}
	if field.Element.IsChecked() {
		return false
	}
	if err := field.Element.Check(); err != nil {
		log.Printf("Failed to check consent box '%s': %v", field.Name, err)
		return false
	}
	return true
}

// fillCounted performs the fill and counts it only when the input/change
// notifications were raised; a silent value set does not count as filled.
func (s *FormFillerService) fillCounted(field FormField, value string, report *FillReport) bool {
	if err := field.Element.Fill(value); err != nil {
		log.Printf("Failed to fill field '%s': %v", fieldIdent(field), err)
		report.SkippedCount++
		return false
	}
	log.Printf("Filled field '%s'", fieldIdent(field))
	report.FilledCount++
	return true
}

// CheckRequiredFields returns the identifiers of required fields that are
// still empty. Used as a pre-submit diagnostic and by the verifier.
func (s *FormFillerService) CheckRequiredFields(scope Scope) []string {
	fields, err := s.prober.DiscoverFields(scope)
	if err != nil {
		return nil
	}

	var missing []string
	for _, field := range fields {
		if !field.Required {
			continue
		}
		switch field.Kind {
		case FieldText, FieldEmail, FieldTel, FieldTextarea:
			if value, err := field.Element.InputValue(); err == nil && value == "" {
				missing = append(missing, fieldIdent(field))
			}
		case FieldSelect:
			value, err := field.Element.InputValue()
			if err == nil && (value == "" || value == "0" || strings.Contains(strings.ToLower(value), "select")) {
				missing = append(missing, fieldIdent(field))
			}
		case FieldCheckbox:
			if !field.Element.IsChecked() {
				missing = append(missing, fieldIdent(field))
			}
		}
	}
	return missing
}

func placeholderFallback(placeholder string, values map[string]string) string {
	if placeholder == "" {
		return ""
	}
	normalized := normalizeIdent(placeholder)
	for _, rule := range hintRules {
		for _, keyword := range rule.keywords {
			// Looser direction: the placeholder appearing inside the keyword
			// catches fragments like "First" against "first name".
			if strings.Contains(keyword, strings.TrimSpace(normalized)) && normalized != "" {
				if value := values[rule.hint]; value != "" {
					return value
				}
			}
		}
	}
	return ""
}

func questionText(field FormField) string {
	for _, source := range []string{field.Label, field.Placeholder} {
		trimmed := strings.TrimSpace(source)
		if strings.Contains(trimmed, "?") || len(trimmed) > 30 {
			return trimmed
		}
	}
	return ""
}

func experienceSummary(profile *models.ApplicantProfile) string {
	if len(profile.Experience) == 0 {
		return profile.Summary
	}
	var b strings.Builder
	for _, exp := range profile.Experience {
		fmt.Fprintf(&b, "%s at %s (%s - %s): %s\n", exp.Title, exp.Company, exp.StartDate, endOr(exp), exp.Description)
	}
	return strings.TrimSpace(b.String())
}

func endOr(exp models.ExperienceEntry) string {
	if exp.IsCurrent {
		return "present"
	}
	return exp.EndDate
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orPreferNot(value string) string {
	if value == "" {
		return "prefer not"
	}
	return value
}

func fieldIdent(field FormField) string {
	for _, id := range []string{field.Name, field.ID, field.Placeholder, field.Label} {
		if id != "" {
			return id
		}
	}
	return "unnamed"
}
