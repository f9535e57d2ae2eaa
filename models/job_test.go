package models

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupJobs_NoSharedIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	var jobs []JobPosting
	for i := 0; i < 200; i++ {
		jobs = append(jobs, JobPosting{
			Title:          fmt.Sprintf("Engineer %d", rng.Intn(20)),
			Company:        fmt.Sprintf("Company %d", rng.Intn(10)),
			CompositeScore: rng.Float64(),
		})
	}

	deduped := DedupJobs(jobs)

	seen := map[string]bool{}
	for _, job := range deduped {
		require.False(t, seen[job.Key()], "duplicate identity %q survived dedup", job.Key())
		seen[job.Key()] = true
	}
}

func TestDedupJobs_KeepsHighestScore(t *testing.T) {
	jobs := []JobPosting{
		{Title: "Software Engineer", Company: "Acme", CompositeScore: 0.4},
		{Title: "software engineer", Company: "ACME", CompositeScore: 0.9},
		{Title: "Software Engineer", Company: "Acme", CompositeScore: 0.6},
		{Title: "Data Engineer", Company: "Acme", CompositeScore: 0.5},
	}

	deduped := DedupJobs(jobs)
	require.Len(t, deduped, 2)
	assert.Equal(t, 0.9, deduped[0].CompositeScore)
	assert.Equal(t, "Data Engineer", deduped[1].Title)
}

func TestRankJobs(t *testing.T) {
	jobs := []JobPosting{
		{Title: "A", CompositeScore: 0.3},
		{Title: "B", CompositeScore: 0.9},
		{Title: "C", CompositeScore: 0.5},
		{Title: "D", CompositeScore: 0.9},
	}

	ranked := RankJobs(jobs, 0.5)
	require.Len(t, ranked, 3)
	assert.Equal(t, "B", ranked[0].Title)
	// Equal scores keep input order.
	assert.Equal(t, "D", ranked[1].Title)
	assert.Equal(t, "C", ranked[2].Title)

	// Input untouched.
	assert.Equal(t, "A", jobs[0].Title)
	assert.Len(t, jobs, 4)
}

func TestJobKey_Normalized(t *testing.T) {
	a := JobPosting{Title: " Software Engineer ", Company: "Acme"}
	b := JobPosting{Title: "software engineer", Company: "ACME"}
	assert.Equal(t, a.Key(), b.Key())
}
