package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxTokenLen is the largest button payload the messaging platform accepts
const MaxTokenLen = 64

const tokenSep = " "

var (
	// ErrInvalidToken is returned for any payload that is not a well-formed token
	ErrInvalidToken = errors.New("invalid callback token")
	// ErrTokenTooLong means the encoded token would not fit in a button payload
	ErrTokenTooLong = errors.New("callback token too long")
	// ErrUnencodable means a field cannot be represented in a token
	ErrUnencodable = errors.New("callback token field not encodable")
)

// Token carries a button's intent through the messaging platform.
// Wire form is "<accountIndex> <action> <childID>"; the child ID is last so
// it may contain the separator.
type Token struct {
	AccountIndex uint
	ChildID      string
	Action       Action
}

// EncodeToken renders t as a callback payload
func EncodeToken(t Token) (string, error) {
	if !t.Action.valid() {
		return "", fmt.Errorf("%w: action %q", ErrUnencodable, t.Action)
	}
	if t.Action.IsPortalAction() && t.ChildID == "" {
		return "", fmt.Errorf("%w: empty child id for %s", ErrUnencodable, t.Action)
	}
	if !printableASCII(t.ChildID) {
		return "", fmt.Errorf("%w: child id %q", ErrUnencodable, t.ChildID)
	}

	s := strconv.FormatUint(uint64(t.AccountIndex), 10) + tokenSep + string(t.Action)
	if t.ChildID != "" {
		s += tokenSep + t.ChildID
	}
	if len(s) > MaxTokenLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTokenTooLong, len(s))
	}
	return s, nil
}

// DecodeToken parses a callback payload. Anything EncodeToken could not
// have produced yields ErrInvalidToken and a zero Token.
func DecodeToken(s string) (Token, error) {
	if s == "" || len(s) > MaxTokenLen || !printableASCII(s) {
		return Token{}, ErrInvalidToken
	}

	parts := strings.SplitN(s, tokenSep, 3)
	if len(parts) < 2 {
		return Token{}, ErrInvalidToken
	}

	idx, err := strconv.ParseUint(parts[0], 10, strconv.IntSize)
	if err != nil || strconv.FormatUint(idx, 10) != parts[0] {
		return Token{}, ErrInvalidToken
	}

	action := Action(parts[1])
	if !action.valid() {
		return Token{}, ErrInvalidToken
	}

	var childID string
	if len(parts) == 3 {
		childID = parts[2]
	}
	if action.IsPortalAction() && childID == "" {
		return Token{}, ErrInvalidToken
	}

	return Token{AccountIndex: uint(idx), ChildID: childID, Action: action}, nil
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
