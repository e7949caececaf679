package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// SessionID is 128 bits of CSPRNG output. Rendered as base64url it is 22
// characters, which keeps cookies small.
//
// Lookups never parse ids back into this form: records written before this
// generator existed can carry ids of any shape, and the store treats all of
// them as opaque strings.
type SessionID [16]byte

func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}
