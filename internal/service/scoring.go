package service

import (
	"math"
	"sort"

	"github.com/lshigami/Margay/internal/dto"
	"github.com/lshigami/Margay/internal/model"
)

// OverallScore is the mean of per-question scores across the whole sequence.
// Unanswered or unscored questions count as zero, so an early-completed
// session is penalized for every skipped question.
func OverallScore(questions []model.InterviewQuestion) float64 {
	if len(questions) == 0 {
		return 0
	}
	total := 0.0
	for _, q := range questions {
		if q.Score != nil {
			total += *q.Score
		}
	}
	return round2(total / float64(len(questions)))
}

// CategoryScores returns the mean score per category tag, one entry per
// distinct category, sorted by category name for deterministic output.
func CategoryScores(questions []model.InterviewQuestion) []dto.CategoryScoreDTO {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, q := range questions {
		counts[q.Category]++
		if q.Score != nil {
			totals[q.Category] += *q.Score
		}
	}

	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	scores := make([]dto.CategoryScoreDTO, 0, len(categories))
	for _, category := range categories {
		scores = append(scores, dto.CategoryScoreDTO{
			Category:      category,
			Score:         round2(totals[category] / float64(counts[category])),
			QuestionCount: counts[category],
		})
	}
	return scores
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
