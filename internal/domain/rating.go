package domain

import "time"

// Category is one of the fixed rating dimensions.
type Category string

const (
	CategoryProfessionalism Category = "professionalism"
	CategoryResponsiveness  Category = "responsiveness"
	CategoryKnowledge       Category = "knowledge"
	CategoryHelpfulness     Category = "helpfulness"
	CategoryOverall         Category = "overall"
)

// Categories lists the enumeration in display order.
var Categories = []Category{
	CategoryProfessionalism,
	CategoryResponsiveness,
	CategoryKnowledge,
	CategoryHelpfulness,
	CategoryOverall,
}

// Valid reports whether c is part of the enumeration.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	MinScore = 1
	MaxScore = 5
)

// CategoryScore is a single (category, score) pair.
type CategoryScore struct {
	Category Category `json:"category"`
	Score    int      `json:"score"`
}

// RatingEntry is keyed by (RaterID, RateeID). A resubmission replaces Scores.
type RatingEntry struct {
	ID        string
	RaterID   string
	RateeID   string
	Scores    []CategoryScore
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Aggregate is the derived rating of a ratee. Count is the number of distinct raters.
type Aggregate struct {
	RateeID   string   `json:"rateeId"`
	MeanScore *float64 `json:"meanScore"`
	Count     int      `json:"count"`
}

// Rated reports whether the aggregate carries at least one rating.
func (a Aggregate) Rated() bool {
	return a.Count > 0 && a.MeanScore != nil
}

// NoRating returns the sentinel aggregate for a ratee without entries.
func NoRating(rateeID string) Aggregate {
	return Aggregate{RateeID: rateeID}
}
