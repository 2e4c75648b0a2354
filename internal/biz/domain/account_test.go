package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Resolve(t *testing.T) {
	dir := NewDirectory(map[string][]AccountID{
		"ou_parent": {"U1", "U2"},
		"ou_single": {"U3"},
		"ou_empty":  {},
	})

	acc, ok := dir.Resolve("ou_parent", 1)
	require.True(t, ok)
	assert.Equal(t, AccountID("U2"), acc)

	_, ok = dir.Resolve("ou_single", 2)
	assert.False(t, ok)

	_, ok = dir.Resolve("ou_stranger", 0)
	assert.False(t, ok)

	assert.False(t, dir.IsAuthorized("ou_empty"))
	assert.Equal(t, 2, dir.Users())
}

func TestDirectory_IsImmutable(t *testing.T) {
	src := map[string][]AccountID{"ou_parent": {"U1", "U2"}}
	dir := NewDirectory(src)

	src["ou_parent"][0] = "EVIL"
	src["ou_other"] = []AccountID{"U9"}

	accounts, err := dir.Accounts("ou_parent")
	require.NoError(t, err)
	assert.Equal(t, []AccountID{"U1", "U2"}, accounts)

	accounts[1] = "EVIL"
	again, _ := dir.Accounts("ou_parent")
	assert.Equal(t, AccountID("U2"), again[1])

	_, err = dir.Accounts("ou_other")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
