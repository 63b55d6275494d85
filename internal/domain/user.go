package domain

import "time"

// PurposeAuth es el unico proposito de token emitido hoy.
const PurposeAuth = "auth"

// AuthToken es una entrada de la lista de tokens vigentes de un usuario.
type AuthToken struct {
	Purpose string `json:"-"`
	Token   string `json:"-"`
}

// User solo expone _id y email al serializarse; hash y tokens nunca salen.
type User struct {
	ID           string      `json:"_id"`
	Email        string      `json:"email"`
	Password     string      `json:"-"` // texto plano pendiente de hashear, nunca persistido
	PasswordHash string      `json:"-"`
	Tokens       []AuthToken `json:"-"`
	CreatedAt    time.Time   `json:"-"`
}

// HasToken indica si la lista contiene exactamente ese par proposito/token.
func (u User) HasToken(t AuthToken) bool {
	for _, existing := range u.Tokens {
		if existing == t {
			return true
		}
	}
	return false
}
