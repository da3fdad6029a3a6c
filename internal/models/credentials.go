package models

import (
	"time"
)

// ServiceSkolplattformen is the only supported credential service.
const ServiceSkolplattformen = "skolplattformen"

// Private is the encrypted credential payload. The password never leaves the
// sealed blob in serialised form; responses use Public.
type Private struct {
	Service  string `json:"service" msgpack:"service"`
	Username string `json:"username" msgpack:"username"`
	Password string `json:"password" msgpack:"password"`
}

// Public is the projection of Private that is safe to return to clients.
type Public struct {
	Service  string `json:"service"`
	Username string `json:"username"`
}

// Public strips the password.
func (p Private) Public() Public {
	return Public{Service: p.Service, Username: p.Username}
}

// Credentials is a decrypted credential row.
type Credentials struct {
	UpdatedAt time.Time
	School    *SchoolHash
	Class     *string
	Private   Private
}

// PublicCredentials is the response shape for credential reads.
type PublicCredentials struct {
	UpdatedAt time.Time   `json:"updated_at"`
	School    *SchoolHash `json:"school"`
	Class     *string     `json:"class"`
	Public    Public      `json:"credentials"`
}

// PublicCredentials converts to the response projection.
func (c Credentials) PublicCredentials() PublicCredentials {
	return PublicCredentials{
		UpdatedAt: c.UpdatedAt,
		School:    c.School,
		Class:     c.Class,
		Public:    c.Private.Public(),
	}
}
