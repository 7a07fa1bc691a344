package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeCursor serialises the position after lastID to an opaque token.
func EncodeCursor(c Collection, lastID int64) string {
	raw := fmt.Sprintf("%s|%d", c, lastID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor for the same
// collection. An empty token decodes to 0, the start of the collection.
func DecodeCursor(c Collection, token string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, &Error{Kind: KindInvalidCursor, Collection: c, Err: err}
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || Collection(parts[0]) != c {
		return 0, &Error{Kind: KindInvalidCursor, Collection: c, Err: fmt.Errorf("cursor does not belong to %s", c)}
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id < 0 {
		return 0, &Error{Kind: KindInvalidCursor, Collection: c, Err: fmt.Errorf("invalid cursor position %q", parts[1])}
	}
	return id, nil
}
