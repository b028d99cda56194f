package domain

import "time"

// Citizen is a resident account that submits service requests.
type Citizen struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
