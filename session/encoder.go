package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const recordFormatVersionCurrent = 1

const maxStringField = 1<<16 - 1

// Encode serializes a [Record] into the compact binary format. Integer
// fields are written first at fixed offsets so the Redis-side Lua parser
// can read them without walking the string section.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, r.TokenVersion); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.UpdatedAt.Unix()); err != nil {
		return nil, err
	}

	for _, field := range []string{r.ID, r.UserID, r.SessionID, r.Token} {
		if len(field) > maxStringField {
			return nil, errors.New("record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

// Decode deserializes a binary record blob.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record format version")
	}

	r := &Record{}

	if err := binary.Read(reader, binary.BigEndian, &r.TokenVersion); err != nil {
		return nil, err
	}

	var expiresAt, createdAt, updatedAt int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &updatedAt); err != nil {
		return nil, err
	}
	r.ExpiresAt = time.Unix(expiresAt, 0)
	r.CreatedAt = time.Unix(createdAt, 0)
	r.UpdatedAt = time.Unix(updatedAt, 0)

	for _, field := range []*string{&r.ID, &r.UserID, &r.SessionID, &r.Token} {
		var size uint16
		if err := binary.Read(reader, binary.BigEndian, &size); err != nil {
			return nil, err
		}
		raw := make([]byte, size)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}

	return r, nil
}
