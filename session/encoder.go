package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const maxDataBytes = 1 << 20

var errUnsupportedSchemaVersion = errors.New("unsupported session schema version")

// Encode serializes a [Session] at the current schema version.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(CurrentSchemaVersion)

	if len(s.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}

	if len(s.Data) > maxDataBytes {
		return nil, errors.New("session data too large")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(s.Data))); err != nil {
		return nil, err
	}
	buf.Write(s.Data)

	return buf.Bytes(), nil
}

// Decode parses a stored payload at any supported schema version. The
// decoded SchemaVersion tells callers whether the record needs a rewrite.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != SchemaV2 && version != SchemaV1 {
		return nil, errUnsupportedSchemaVersion
	}

	s := &Session{SchemaVersion: version}

	userLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	userID := make([]byte, userLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	s.UserID = string(userID)

	if version >= SchemaV2 {
		if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
			return nil, err
		}
	}

	var dataLen uint32
	if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
		return nil, err
	}
	if int(dataLen) > reader.Len() {
		return nil, errors.New("session data length exceeds payload")
	}
	if dataLen > 0 {
		s.Data = make([]byte, dataLen)
		if _, err := io.ReadFull(reader, s.Data); err != nil {
			return nil, err
		}
	}

	return s, nil
}
