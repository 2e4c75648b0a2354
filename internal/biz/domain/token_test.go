package domain

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	cases := []Token{
		{AccountIndex: 0, ChildID: "12345", Action: ActionCheckIn},
		{AccountIndex: 1, ChildID: "12345", Action: ActionCheckOut},
		{AccountIndex: 7, ChildID: "abc", Action: ActionMarkAbsent},
		{AccountIndex: 2, ChildID: "with space inside", Action: ActionCheckIn},
		{AccountIndex: 3, ChildID: " leading and trailing ", Action: ActionCheckOut},
		{AccountIndex: 0, ChildID: "", Action: ActionDismiss},
		{AccountIndex: 0, ChildID: "42", Action: ActionDismiss},
		{AccountIndex: 9, ChildID: "", Action: ActionIgnore},
		{AccountIndex: 0, ChildID: "0 checkin 1", Action: ActionMarkAbsent},
	}
	for _, tc := range cases {
		s, err := EncodeToken(tc)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(s), MaxTokenLen)

		got, err := DecodeToken(s)
		require.NoError(t, err, s)
		assert.Equal(t, tc, got)
	}
}

func TestToken_RoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	actions := []Action{ActionCheckIn, ActionCheckOut, ActionMarkAbsent, ActionDismiss, ActionIgnore}

	for i := 0; i < 2000; i++ {
		n := 1 + rng.Intn(40)
		var b strings.Builder
		for j := 0; j < n; j++ {
			b.WriteByte(byte(0x20 + rng.Intn(0x7f-0x20)))
		}
		tok := Token{
			AccountIndex: uint(rng.Intn(1000)),
			ChildID:      b.String(),
			Action:       actions[rng.Intn(len(actions))],
		}

		s, err := EncodeToken(tok)
		require.NoError(t, err)
		got, err := DecodeToken(s)
		require.NoError(t, err, s)
		require.Equal(t, tok, got)
	}
}

func TestEncodeToken_Rejects(t *testing.T) {
	_, err := EncodeToken(Token{ChildID: strings.Repeat("x", MaxTokenLen), Action: ActionCheckIn})
	assert.ErrorIs(t, err, ErrTokenTooLong)

	_, err = EncodeToken(Token{ChildID: "", Action: ActionCheckIn})
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = EncodeToken(Token{ChildID: "crèche", Action: ActionCheckIn})
	assert.ErrorIs(t, err, ErrUnencodable)

	_, err = EncodeToken(Token{ChildID: "1", Action: Action("teleport")})
	assert.ErrorIs(t, err, ErrUnencodable)
}

func TestDecodeToken_Invalid(t *testing.T) {
	cases := []string{
		"",
		"0",
		"0 ",
		"checkin",
		"x checkin 1",
		"-1 checkin 1",
		"+1 checkin 1",
		"01 checkin 1",
		"1.5 checkin 1",
		"99999999999999999999999 checkin 1",
		"0 teleport 1",
		"0 CHECKIN 1",
		"0 checkin",
		"0 checkin ",
		"0  checkin 1",
		"0\tcheckin\t1",
		"0 checkin caf\xc3\xa9",
		"0 checkin " + strings.Repeat("1", MaxTokenLen),
		"\x00\x01\x02",
	}
	for _, s := range cases {
		tok, err := DecodeToken(s)
		assert.ErrorIs(t, err, ErrInvalidToken, "%q", s)
		assert.Equal(t, Token{}, tok)
	}
}

func TestDecodeToken_RandomBytesNeverPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		buf := make([]byte, rng.Intn(80))
		rng.Read(buf)
		assert.NotPanics(t, func() {
			tok, err := DecodeToken(string(buf))
			if err != nil {
				assert.Equal(t, Token{}, tok)
			}
		})
	}
}

func TestDecodeToken_Truncated(t *testing.T) {
	s, err := EncodeToken(Token{AccountIndex: 12, ChildID: "child-1", Action: ActionCheckOut})
	require.NoError(t, err)

	for i := 0; i < len(s); i++ {
		tok, err := DecodeToken(s[:i])
		if err == nil {
			// a prefix may still be a well-formed token of its own
			assert.True(t, tok.Action.valid())
			assert.True(t, !tok.Action.IsPortalAction() || tok.ChildID != "")
		}
	}
}
