package model

import "strings"

// Filters is the projects page view state. The zero value matches everything.
type Filters struct {
	SearchTerm   string
	Technology   string
	MinRating    float64
	FeaturedOnly bool
}

// Matches reports whether p passes all four predicates:
//
//  1. name or description contains SearchTerm (case-insensitive)
//  2. Technology is empty or one of p's tags
//  3. p.AverageRating >= MinRating
//  4. FeaturedOnly is off or p is featured
func (f Filters) Matches(p Project) bool {
	term := strings.ToLower(f.SearchTerm)
	matchesSearch := strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)

	matchesTechnology := f.Technology == "" || p.HasTechnology(f.Technology)
	matchesRating := p.AverageRating >= f.MinRating
	matchesFeatured := !f.FeaturedOnly || p.Featured

	return matchesSearch && matchesTechnology && matchesRating && matchesFeatured
}
