package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidPageToken marks page tokens that cannot be decoded back into a cursor.
var ErrInvalidPageToken = errors.New("pagination: invalid pageToken")

// Cursor represents the Firestore pagination cursor payload.
type Cursor struct {
	StartAfter []any `json:"startAfter,omitempty"`
	StartAt    []any `json:"startAt,omitempty"`
}

// EncodeTimeCursor serialises a (timestamp, document ID) resume point into a
// page token. Nanos travel as a decimal string so JSON round trips keep full
// precision.
func EncodeTimeCursor(at time.Time, docID string) string {
	token, err := EncodeToken(Cursor{
		StartAfter: []any{strconv.FormatInt(at.UTC().UnixNano(), 10), docID},
	})
	if err != nil {
		return ""
	}
	return token
}

// EncodeIntCursor serialises an (ordinal, document ID) resume point, used for
// priority-ordered listings.
func EncodeIntCursor(value int, docID string) string {
	token, err := EncodeToken(Cursor{
		StartAfter: []any{strconv.Itoa(value), docID},
	})
	if err != nil {
		return ""
	}
	return token
}

// DecodeIntCursor parses a token produced by EncodeIntCursor.
func DecodeIntCursor(token string) (int, string, error) {
	cursor, err := DecodeToken(token)
	if err != nil {
		return 0, "", err
	}
	if len(cursor.StartAfter) != 2 {
		return 0, "", fmt.Errorf("%w: unexpected cursor shape", ErrInvalidPageToken)
	}
	rawValue, ok := cursor.StartAfter[0].(string)
	if !ok {
		return 0, "", fmt.Errorf("%w: ordinal component missing", ErrInvalidPageToken)
	}
	docID, ok := cursor.StartAfter[1].(string)
	if !ok || docID == "" {
		return 0, "", fmt.Errorf("%w: document component missing", ErrInvalidPageToken)
	}
	value, err := strconv.Atoi(rawValue)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return value, docID, nil
}

// DecodeTimeCursor parses a token produced by EncodeTimeCursor.
func DecodeTimeCursor(token string) (time.Time, string, error) {
	cursor, err := DecodeToken(token)
	if err != nil {
		return time.Time{}, "", err
	}
	if len(cursor.StartAfter) != 2 {
		return time.Time{}, "", fmt.Errorf("%w: unexpected cursor shape", ErrInvalidPageToken)
	}
	rawNanos, ok := cursor.StartAfter[0].(string)
	if !ok {
		return time.Time{}, "", fmt.Errorf("%w: timestamp component missing", ErrInvalidPageToken)
	}
	docID, ok := cursor.StartAfter[1].(string)
	if !ok || docID == "" {
		return time.Time{}, "", fmt.Errorf("%w: document component missing", ErrInvalidPageToken)
	}
	nanos, err := strconv.ParseInt(rawNanos, 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	return time.Unix(0, nanos).UTC(), docID, nil
}
