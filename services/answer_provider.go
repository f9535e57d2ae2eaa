package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"applypilot/models"
)

// Answer is one generated response to a free-text application question.
type Answer struct {
	Text       string
	Confidence float64
}

// AnswerProvider produces answers for open-ended form questions. Any question
// string, including empty or malformed ones, must yield a usable answer.
type AnswerProvider interface {
	GenerateResponse(question string, job models.JobPosting) (Answer, error)
}

type GeminiRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role"`
}

type Part struct {
	Text string `json:"text"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiAnswerProvider answers questions with the Gemini API, falling back to
// a generic professional response when the API is unavailable or the question
// is too degenerate to prompt with.
type GeminiAnswerProvider struct {
	apiKey  string
	client  *http.Client
	profile *models.ApplicantProfile
	sink    *ResultSink
}

func NewGeminiAnswerProvider(profile *models.ApplicantProfile, sink *ResultSink) *GeminiAnswerProvider {
	return &GeminiAnswerProvider{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		client:  &http.Client{Timeout: 30 * time.Second},
		profile: profile,
		sink:    sink,
	}
}

func (p *GeminiAnswerProvider) GenerateResponse(question string, job models.JobPosting) (Answer, error) {
	question = strings.TrimSpace(question)

	var answer Answer
	if !answerableQuestion(question) || p.apiKey == "" {
		answer = p.fallbackAnswer(job)
	} else {
		text, err := p.callGemini(buildQuestionPrompt(question, job, p.profile))
		if err != nil {
			log.Printf("Answer generation failed, using fallback: %v", err)
			answer = p.fallbackAnswer(job)
		} else {
			answer = Answer{Text: strings.TrimSpace(text), Confidence: 0.8}
		}
	}

	if p.sink != nil {
		p.sink.AppendAnswer(models.AnswerRecord{
			Timestamp:  time.Now(),
			Question:   question,
			Answer:     answer.Text,
			JobContext: job.Title + " at " + job.Company,
			Confidence: answer.Confidence,
		})
	}
	return answer, nil
}

// answerableQuestion filters out inputs too short or too mangled to prompt
// with; those get the generic fallback instead of a confused model reply.
func answerableQuestion(question string) bool {
	if len(question) < 8 {
		return false
	}
	letters := 0
	for _, r := range question {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return letters >= len(question)/2
}

func (p *GeminiAnswerProvider) fallbackAnswer(job models.JobPosting) Answer {
	role := job.Title
	if role == "" {
		role = "this role"
	}
	text := fmt.Sprintf("I am excited about the opportunity to contribute to %s. My background and skills align well with the requirements of %s, and I am confident I can make a meaningful impact on the team.",
		orDefault(job.Company, "your company"), role)
	return Answer{Text: text, Confidence: 0.3}
}

func (p *GeminiAnswerProvider) callGemini(prompt string) (string, error) {
	url := "https://generativelanguage.googleapis.com/v1/models/gemini-1.5-pro:generateContent?key=" + p.apiKey

	requestBody := GeminiRequest{
		Contents: []Content{
			{
				Role: "user",
				Parts: []Part{
					{Text: prompt},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Gemini API error: %s", b)
	}

	var gemResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gemResp); err != nil {
		return "", err
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no predictions returned")
	}

	return gemResp.Candidates[0].Content.Parts[0].Text, nil
}

func buildQuestionPrompt(question string, job models.JobPosting, profile *models.ApplicantProfile) string {
	background := ""
	if profile != nil {
		background = fmt.Sprintf("Candidate: %s %s, %s. Skills: %s.",
			profile.FirstName, profile.LastName, profile.CurrentTitle, strings.Join(profile.Skills, ", "))
	}
	return fmt.Sprintf(`You are helping a candidate answer a job application question.

Position: %s at %s
%s

Question: %s

Write a concise, professional first-person answer in 2-4 sentences. Return only the answer text, no preamble.`,
		orDefault(job.Title, "unspecified"), orDefault(job.Company, "unspecified"), background, question)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
