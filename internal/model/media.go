package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// MediaKind classifies an attachment
type MediaKind string

const (
	MediaDocument MediaKind = "document"
	MediaPhoto    MediaKind = "photo"
)

// MediaKinds lists every media kind the bot can archive, in display order
var MediaKinds = []MediaKind{MediaDocument, MediaPhoto}

// Valid reports whether k is one of MediaKinds
func (k MediaKind) Valid() bool {
	for _, known := range MediaKinds {
		if k == known {
			return true
		}
	}
	return false
}

// MediaList is a set of media kinds stored as a space separated column
type MediaList []MediaKind

// Contains reports whether kind is part of the list
func (l MediaList) Contains(kind MediaKind) bool {
	for _, k := range l {
		if k == kind {
			return true
		}
	}
	return false
}

// String joins the list with spaces, the same format used for storage
func (l MediaList) String() string {
	parts := make([]string, len(l))
	for i, k := range l {
		parts[i] = string(k)
	}
	return strings.Join(parts, " ")
}

// Value implements driver.Valuer
func (l MediaList) Value() (driver.Value, error) {
	return l.String(), nil
}

// Scan implements sql.Scanner
func (l *MediaList) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*l = MediaList{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported media list column type %T", value)
	}

	fields := strings.Fields(raw)
	list := make(MediaList, 0, len(fields))
	for _, f := range fields {
		list = append(list, MediaKind(f))
	}
	*l = list
	return nil
}

// GormDataType tells gorm to store the list as a string column
func (MediaList) GormDataType() string {
	return "string"
}
