package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }
func entry(t string) *RawEntry { return &RawEntry{Time: t} }

func TestNormalize_CheckedOut(t *testing.T) {
	raw := RawPresence{
		IsAbsent: boolPtr(false),
		HasIn:    boolPtr(true),
		HasOut:   boolPtr(true),
		In:       entry("09:35"),
		Out:      entry("17:11"),
	}

	status, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, CheckedOut("09:35", "17:11"), status)
	assert.Empty(t, ResolveActions(status))
}

func TestNormalize_CheckedIn_SentinelOut(t *testing.T) {
	raw := RawPresence{
		IsAbsent: boolPtr(false),
		HasIn:    boolPtr(true),
		HasOut:   boolPtr(false),
		In:       entry("09:52"),
		Out:      entry("--:--"),
	}

	status, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, StateCheckedIn, status.State)
	assert.Equal(t, "09:52", status.CheckIn)
	assert.Equal(t, "", status.CheckOut)
	assert.Equal(t, []Action{ActionCheckOut}, ResolveActions(status))
}

func TestNormalize_UndefinedWinsOverEverything(t *testing.T) {
	cases := []RawPresence{
		{ID: strPtr(UndefinedRecordID)},
		{ID: strPtr(UndefinedRecordID), IsAbsent: boolPtr(true), Notes: "fever"},
		{ID: strPtr(UndefinedRecordID), IsAbsent: boolPtr(false), HasIn: boolPtr(true), In: entry("08:00")},
		{ID: strPtr(UndefinedRecordID), HasIn: boolPtr(true)},
	}
	for _, raw := range cases {
		status, err := Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, Unknown(), status)
	}
}

func TestNormalize_Absent(t *testing.T) {
	status, err := Normalize(RawPresence{ID: strPtr("123"), IsAbsent: boolPtr(true), Notes: " fever "})
	require.NoError(t, err)
	assert.Equal(t, Absent("fever"), status)

	status, err = Normalize(RawPresence{IsAbsent: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, Absent(""), status)
}

func TestNormalize_NotYetArrived(t *testing.T) {
	status, err := Normalize(RawPresence{ID: strPtr("123"), IsAbsent: boolPtr(false), HasIn: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, NotYetArrived(), status)
	assert.Equal(t, []Action{ActionCheckIn, ActionMarkAbsent}, ResolveActions(status))
}

func TestNormalize_Malformed(t *testing.T) {
	cases := map[string]RawPresence{
		"missing isAbsent":    {ID: strPtr("1")},
		"missing hasIn":       {IsAbsent: boolPtr(false)},
		"hasIn without time":  {IsAbsent: boolPtr(false), HasIn: boolPtr(true), In: entry("--:--")},
		"hasIn without entry": {IsAbsent: boolPtr(false), HasIn: boolPtr(true)},
		"hasOut without time": {IsAbsent: boolPtr(false), HasIn: boolPtr(true), HasOut: boolPtr(true), In: entry("09:00")},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestNormalizeSingle(t *testing.T) {
	one := RawPresence{ID: strPtr(UndefinedRecordID)}

	status, err := NormalizeSingle([]RawPresence{one})
	require.NoError(t, err)
	assert.Equal(t, Unknown(), status)

	_, err = NormalizeSingle([]RawPresence{one, one})
	require.ErrorIs(t, err, ErrUnexpectedRecordShape)

	_, err = NormalizeSingle(nil)
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "", NormalizeTime("--:--"))
	assert.Equal(t, "", NormalizeTime(" --:-- "))
	assert.Equal(t, "00:00", NormalizeTime("00:00"))
	assert.Equal(t, "17:11", NormalizeTime("17:11"))
}

func TestResolveActions_Table(t *testing.T) {
	table := []struct {
		status PresenceStatus
		want   []Action
	}{
		{Unknown(), []Action{ActionCheckIn, ActionMarkAbsent}},
		{NotYetArrived(), []Action{ActionCheckIn, ActionMarkAbsent}},
		{Absent("x"), nil},
		{CheckedIn("09:00"), []Action{ActionCheckOut}},
		{CheckedOut("09:00", "17:00"), nil},
	}
	for _, tc := range table {
		first := ResolveActions(tc.status)
		second := ResolveActions(tc.status)
		assert.Equal(t, tc.want, first, tc.status.State.String())
		assert.Equal(t, first, second)
	}
}

func TestResolveActions_UnknownStatePanics(t *testing.T) {
	assert.Panics(t, func() {
		ResolveActions(PresenceStatus{State: PresenceState(42)})
	})
}
