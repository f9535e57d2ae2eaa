package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `
Jane Smith
jane.smith@example.com
(555) 123-4567
linkedin.com/in/janesmith

SUMMARY
Backend engineer with 6 years building distributed systems in Go.

EXPERIENCE
Senior Software Engineer at Acme Corp
June 2021 - Present
• Led migration of a monolith to Go microservices
• Cut p99 latency by 40%

Software Engineer at Startup Inc
Jan 2018 - May 2021
• Built RESTful APIs in Go and Postgres

EDUCATION
Bachelor of Science, Computer Science
State University
2014 - 2018

SKILLS
Go, Postgres, Kubernetes, Docker
`

func TestParse_ContactInfo(t *testing.T) {
	parser := NewResumeParser()

	profile, err := parser.Parse(sampleResume)
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", profile.FullName)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Smith", profile.LastName)
	assert.Equal(t, "jane.smith@example.com", profile.Email)
	assert.Equal(t, "(555) 123-4567", profile.Phone)
	assert.Equal(t, "https://linkedin.com/in/janesmith", profile.LinkedIn)
}

func TestParse_Sections(t *testing.T) {
	parser := NewResumeParser()

	profile, err := parser.Parse(sampleResume)
	require.NoError(t, err)

	require.Len(t, profile.Experience, 2)
	assert.Equal(t, "Senior Software Engineer", profile.Experience[0].Title)
	assert.Equal(t, "Acme Corp", profile.Experience[0].Company)
	assert.True(t, profile.Experience[0].IsCurrent)
	assert.Equal(t, "Senior Software Engineer", profile.CurrentTitle)
	assert.Equal(t, "Acme Corp", profile.CurrentCompany)

	require.NotEmpty(t, profile.Education)
	assert.Contains(t, profile.Education[0].Degree, "Bachelor of Science")

	assert.Contains(t, profile.Skills, "Go")
	assert.Contains(t, profile.Skills, "Kubernetes")
	assert.NotEmpty(t, profile.Summary)
}

func TestParse_UppercaseNameNormalized(t *testing.T) {
	parser := NewResumeParser()

	profile, err := parser.Parse("JANE SMITH\njane@example.com\n\nSKILLS\nGo")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", profile.FullName)
}

func TestParse_EmptyInput(t *testing.T) {
	parser := NewResumeParser()

	_, err := parser.Parse("   \n  ")
	assert.Error(t, err)
}

func TestParseFile_RejectsNonDocx(t *testing.T) {
	parser := NewResumeParser()

	_, err := parser.ParseFile("/tmp/resume.pdf")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", normalizePhone("555.123.4567"))
	assert.Equal(t, "+1 (555) 123-4567", normalizePhone("1-555-123-4567"))
	assert.Equal(t, "12345", normalizePhone("12345"))
}
