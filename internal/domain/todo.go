package domain

import "time"

// Todo es una tarea que pertenece a un unico usuario.
type Todo struct {
	ID          string    `json:"_id"`
	Text        string    `json:"text"`
	Completed   bool      `json:"completed"`
	CompletedAt *int64    `json:"completedAt"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"-"`
}

// TodoPatch lleva solo los campos presentes en un PATCH.
type TodoPatch struct {
	Text        *string
	Completed   *bool
	CompletedAt *int64
}
