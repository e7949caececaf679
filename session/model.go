package session

// Schema versions understood by [Decode]. The payload format is append-only:
// v2 added the creation timestamp. Older payloads decode with CreatedAt zero
// and are rewritten at the current version the first time they are read.
const (
	SchemaV1 byte = 1
	SchemaV2 byte = 2

	CurrentSchemaVersion = SchemaV2
)

// Session is one authenticated session as stored under its record key.
// UserID and CreatedAt are the only fields this module interprets; Data
// carries whatever the application wants per session and is never inspected
// here.
type Session struct {
	SessionID string
	UserID    string

	// CreatedAt is unix milliseconds. Zero means the record predates the
	// timestamp field and has not been stamped yet.
	CreatedAt int64

	Data []byte

	SchemaVersion byte
}
