package models

import (
	"sort"
	"strings"
)

// JobPosting is produced by the discovery surface and never mutated here.
// Identity is (Title, Company); the pair is not guaranteed unique upstream.
type JobPosting struct {
	Title          string  `json:"title"`
	Company        string  `json:"company"`
	Location       string  `json:"location"`
	CompositeScore float64 `json:"composite_score"`
	SourceIndex    int     `json:"source_index"`
}

// JobLead pairs a posting with the destination URL its apply action targets.
type JobLead struct {
	Job JobPosting `json:"job"`
	URL string     `json:"url"`
}

// Key returns the dedup identity for a posting.
func (j JobPosting) Key() string {
	return strings.ToLower(strings.TrimSpace(j.Title)) + "|" + strings.ToLower(strings.TrimSpace(j.Company))
}

// DedupJobs removes postings that share (title, company), keeping the
// highest-scoring occurrence of each pair.
func DedupJobs(jobs []JobPosting) []JobPosting {
	best := make(map[string]JobPosting)
	order := []string{}

	for _, job := range jobs {
		key := job.Key()
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = job
			continue
		}
		if job.CompositeScore > existing.CompositeScore {
			best[key] = job
		}
	}

	result := make([]JobPosting, 0, len(order))
	for _, key := range order {
		result = append(result, best[key])
	}
	return result
}

// RankJobs filters out postings below the score floor and orders the rest
// highest score first. The input slice is not modified.
func RankJobs(jobs []JobPosting, scoreFloor float64) []JobPosting {
	ranked := make([]JobPosting, 0, len(jobs))
	for _, job := range jobs {
		if job.CompositeScore >= scoreFloor {
			ranked = append(ranked, job)
		}
	}

	sort.SliceStable(ranked, func(i, k int) bool {
		return ranked[i].CompositeScore > ranked[k].CompositeScore
	})
	return ranked
}
