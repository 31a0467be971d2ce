package model

// Rating is one user's score for one project. The backend enforces a single
// rating per (user, project); the client only asks "have I rated this?".
type Rating struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	ProjectID int64  `json:"projectId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// RatingCreate is the body of POST /ratings.
type RatingCreate struct {
	ProjectID int64  `json:"projectId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// RatingUpdate is the body of PUT /ratings/{id}. Nil fields are left unchanged.
type RatingUpdate struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// RatingDistribution maps a star value (1–5) to how many ratings gave it.
type RatingDistribution map[int]int

const (
	MinStars = 1
	MaxStars = 5
)

// Star CSS classes, kept as data so any front end can map them.
const (
	StarFilled = "star-filled"
	StarHalf   = "star-half"
	StarEmpty  = "star-empty"
)

// StarClass tells a renderer how to draw star number `star` (1-based) for a
// given average: full when the average reaches it, half when within 0.5.
func StarClass(star int, average float64) string {
	s := float64(star)
	switch {
	case average >= s:
		return StarFilled
	case average >= s-0.5:
		return StarHalf
	default:
		return StarEmpty
	}
}
