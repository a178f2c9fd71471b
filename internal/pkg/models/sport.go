package models

// Sport is an immutable reference used to scope sources and matching.
type Sport struct {
	ID       int64
	Slug     string
	Name     string
	IsActive bool
}

// Competition belongs to one sport and is created on first sight.
type Competition struct {
	ID                 int64
	SportID            int64
	Name               string
	ExternalFlashscoreID string
}
