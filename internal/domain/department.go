package domain

import "time"

// Department is a municipal unit that owns assigned requests.
type Department struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
