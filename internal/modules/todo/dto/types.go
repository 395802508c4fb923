package dto

import "time"

type CreateInput struct {
	Title       string
	Description string
}

type UpdateInput struct {
	ID          string
	Title       string
	Description string
}

type TodoOutput struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
