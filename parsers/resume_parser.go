package parsers

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"baliance.com/gooxml/document"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"applypilot/models"
)

// ResumeParser extracts an applicant profile from a résumé document. The
// profile feeds the form fill engine; fields the parser cannot find stay
// empty and are backfilled from environment configuration at startup.
type ResumeParser struct {
	emailRegex    *regexp.Regexp
	phoneRegex    *regexp.Regexp
	dateRegex     *regexp.Regexp
	linkedinRegex *regexp.Regexp
	githubRegex   *regexp.Regexp
}

func NewResumeParser() *ResumeParser {
	return &ResumeParser{
		emailRegex:    regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		phoneRegex:    regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`),
		dateRegex:     regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[\s,]*\d{4}|(\d{1,2}[\/\-]\d{1,2}[\/\-]\d{2,4})|present|current|now`),
		linkedinRegex: regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[A-Za-z0-9_-]+`),
		githubRegex:   regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9_-]+`),
	}
}

// ParseFile reads a .docx résumé and extracts the profile. Other extensions
// are rejected; the fill engine still uses the raw file for uploads.
func (p *ResumeParser) ParseFile(path string) (*models.ApplicantProfile, error) {
	if strings.ToLower(filepath.Ext(path)) != ".docx" {
		return nil, fmt.Errorf("unsupported resume format %q, need .docx", filepath.Ext(path))
	}

	text, err := extractDocxText(path)
	if err != nil {
		return nil, fmt.Errorf("reading resume: %w", err)
	}
	return p.Parse(text)
}

// Parse extracts a profile from plain résumé text.
func (p *ResumeParser) Parse(rawText string) (*models.ApplicantProfile, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("empty resume text")
	}

	profile := &models.ApplicantProfile{}

	p.extractContactInfo(profile, rawText)

	sections := p.extractSections(rawText)
	p.extractExperience(profile, sections)
	p.extractEducation(profile, sections)
	p.extractSkills(profile, sections)
	if summary, ok := sections["summary"]; ok {
		profile.Summary = strings.TrimSpace(summary)
	}

	if len(profile.Experience) > 0 {
		profile.CurrentTitle = profile.Experience[0].Title
		profile.CurrentCompany = profile.Experience[0].Company
	}

	return profile, nil
}

func extractDocxText(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (p *ResumeParser) extractContactInfo(profile *models.ApplicantProfile, text string) {
	if email := p.emailRegex.FindString(text); email != "" {
		profile.Email = email
	}
	if phone := p.phoneRegex.FindString(text); phone != "" {
		profile.Phone = normalizePhone(phone)
	}
	if link := p.linkedinRegex.FindString(text); link != "" {
		profile.LinkedIn = ensureScheme(link)
	}
	if link := p.githubRegex.FindString(text); link != "" {
		profile.GitHub = ensureScheme(link)
	}

	// The name is almost always one of the first few lines: short, alphabetic,
	// no contact markers.
	wordPattern := regexp.MustCompile(`^[A-Za-z'-]+$`)
	for i, line := range strings.Split(text, "\n") {
		if i > 5 {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "@") || p.phoneRegex.MatchString(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		isName := true
		for _, word := range words {
			if len(word) < 2 || !wordPattern.MatchString(word) {
				isName = false
				break
			}
		}
		if isName {
			// Résumés sometimes shout the name in all caps.
			title := cases.Title(language.English, cases.NoLower)
			if line == strings.ToUpper(line) {
				title = cases.Title(language.English)
			}
			profile.FullName = title.String(line)
			named := strings.Fields(profile.FullName)
			profile.FirstName = named[0]
			profile.LastName = named[len(named)-1]
			break
		}
	}
}

var sectionHeaders = map[string][]string{
	"experience": {"experience", "work experience", "employment", "professional experience", "career history"},
	"education":  {"education", "academic background", "qualifications", "degrees"},
	"skills":     {"skills", "technical skills", "competencies", "expertise", "technologies"},
	"summary":    {"summary", "profile", "objective", "about", "professional summary"},
}

func (p *ResumeParser) extractSections(text string) map[string]string {
	sections := make(map[string]string)

	currentSection := ""
	currentContent := []string{}

	flush := func() {
		if currentSection != "" && len(currentContent) > 0 {
			sections[currentSection] = strings.Join(currentContent, "\n")
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		isHeader := false
		lowered := strings.ToLower(line)
		for sectionKey, headers := range sectionHeaders {
			for _, header := range headers {
				if strings.Contains(lowered, header) && len(line) < 50 {
					flush()
					currentSection = sectionKey
					currentContent = []string{}
					isHeader = true
					break
				}
			}
			if isHeader {
				break
			}
		}

		if !isHeader && currentSection != "" {
			currentContent = append(currentContent, line)
		}
	}
	flush()

	return sections
}

func (p *ResumeParser) extractExperience(profile *models.ApplicantProfile, sections map[string]string) {
	expText, ok := sections["experience"]
	if !ok {
		return
	}

	var entries []models.ExperienceEntry
	var current *models.ExperienceEntry

	for _, line := range strings.Split(expText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if p.looksLikeJobHeader(line) {
			// A line that is nothing but dates belongs to the entry above it.
			if current != nil && p.isDateOnly(line) {
				p.applyExperienceDates(current, line)
				continue
			}
			if current != nil {
				entries = append(entries, *current)
			}
			current = &models.ExperienceEntry{}
			p.parseJobHeader(current, line)
		} else if current != nil {
			bullet := strings.TrimSpace(strings.TrimLeft(line, "•-* "))
			if current.Description == "" {
				current.Description = bullet
			} else {
				current.Description += " " + bullet
			}
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}

	profile.Experience = entries
	profile.YearsOfExperience = len(entries) * 2
}

func (p *ResumeParser) looksLikeJobHeader(line string) bool {
	for _, sep := range []string{" at ", " with ", " | ", " - "} {
		if strings.Contains(line, sep) {
			return true
		}
	}
	if p.dateRegex.MatchString(line) {
		return true
	}
	return len(strings.Fields(line)) <= 6 && len(line) > 10
}

// isDateOnly reports whether stripping every date span (and separators)
// leaves nothing behind.
func (p *ResumeParser) isDateOnly(line string) bool {
	stripped := p.dateRegex.ReplaceAllString(line, "")
	stripped = strings.Trim(stripped, " \t-–—,")
	return stripped == ""
}

func (p *ResumeParser) applyExperienceDates(exp *models.ExperienceEntry, line string) {
	dates := p.dateRegex.FindAllString(line, -1)
	if len(dates) == 0 {
		return
	}
	exp.StartDate = dates[0]
	if len(dates) > 1 {
		exp.EndDate = dates[len(dates)-1]
	}
	lowered := strings.ToLower(exp.EndDate)
	if lowered == "present" || lowered == "current" || lowered == "now" {
		exp.EndDate = "Present"
		exp.IsCurrent = true
	}
}

func (p *ResumeParser) parseJobHeader(exp *models.ExperienceEntry, line string) {
	dates := p.dateRegex.FindAllString(line, -1)
	if len(dates) >= 2 {
		exp.StartDate = dates[0]
		exp.EndDate = dates[len(dates)-1]
		if lowered := strings.ToLower(exp.EndDate); lowered == "present" || lowered == "current" || lowered == "now" {
			exp.EndDate = "Present"
			exp.IsCurrent = true
		}
	} else if len(dates) == 1 {
		lowered := strings.ToLower(dates[0])
		if lowered == "present" || lowered == "current" || lowered == "now" {
			exp.EndDate = "Present"
			exp.IsCurrent = true
		} else {
			exp.StartDate = dates[0]
		}
	}
	for _, date := range dates {
		line = strings.Replace(line, date, "", 1)
	}

	line = strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(line, " "))

	for _, sep := range []string{" at ", " with ", " | ", " - "} {
		if strings.Contains(line, sep) {
			parts := strings.SplitN(line, sep, 2)
			exp.Title = strings.TrimSpace(parts[0])
			exp.Company = strings.Trim(strings.TrimSpace(parts[1]), ",|-")
			return
		}
	}
	exp.Title = line
}

func (p *ResumeParser) extractEducation(profile *models.ApplicantProfile, sections map[string]string) {
	eduText, ok := sections["education"]
	if !ok {
		return
	}

	degreeKeywords := []string{"bachelor", "master", "phd", "doctorate", "associate", "b.s.", "b.a.", "m.s.", "m.a.", "mba"}

	var entries []models.EducationEntry
	var current *models.EducationEntry

	for _, line := range strings.Split(eduText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		hasDegree := false
		lowered := strings.ToLower(line)
		for _, keyword := range degreeKeywords {
			if strings.Contains(lowered, keyword) {
				hasDegree = true
				break
			}
		}

		if hasDegree || p.dateRegex.MatchString(line) {
			if current != nil && p.isDateOnly(line) {
				dates := p.dateRegex.FindAllString(line, -1)
				current.StartDate = dates[0]
				if len(dates) > 1 {
					current.EndDate = dates[len(dates)-1]
				}
				continue
			}
			if current != nil {
				entries = append(entries, *current)
			}
			current = &models.EducationEntry{}
			p.parseEducationLine(current, line)
		} else if current != nil && current.Institution == "" {
			current.Institution = line
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}

	profile.Education = entries
}

func (p *ResumeParser) parseEducationLine(edu *models.EducationEntry, line string) {
	dates := p.dateRegex.FindAllString(line, -1)
	if len(dates) >= 2 {
		edu.StartDate = dates[0]
		edu.EndDate = dates[len(dates)-1]
	} else if len(dates) == 1 {
		edu.EndDate = dates[0]
	}
	for _, date := range dates {
		line = strings.Replace(line, date, "", 1)
	}

	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, ",", 2)
	if len(parts) == 2 {
		edu.Degree = strings.TrimSpace(parts[0])
		edu.Field = strings.Trim(strings.TrimSpace(parts[1]), ",")
	} else {
		edu.Degree = line
	}
}

func (p *ResumeParser) extractSkills(profile *models.ApplicantProfile, sections map[string]string) {
	skillsText, ok := sections["skills"]
	if !ok {
		return
	}

	for _, sep := range []string{",", ";", "|"} {
		skillsText = strings.ReplaceAll(skillsText, sep, "\n")
	}

	var skills []string
	for _, line := range strings.Split(skillsText, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•-* "))
		if line != "" && len(line) > 1 && len(line) < 50 {
			skills = append(skills, line)
		}
	}
	profile.Skills = skills
}

func normalizePhone(phone string) string {
	digits := regexp.MustCompile(`\D`).ReplaceAllString(phone, "")
	if len(digits) == 10 {
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	}
	if len(digits) == 11 && digits[0] == '1' {
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	}
	return phone
}

func ensureScheme(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return "https://" + link
}
