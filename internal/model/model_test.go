package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationMark_Valid(t *testing.T) {
	for _, m := range NotificationMarks {
		assert.True(t, m.Valid(), m)
	}
	assert.Equal(t, "not notified", string(MarkNotNotified))
	assert.Equal(t, "unable to notify", string(MarkUnableToNotify))
	assert.Equal(t, "notification ignored", string(MarkNotificationIgnored))
	assert.False(t, NotificationMark("notification ignore").Valid())
	assert.False(t, NotificationMark("").Valid())
}

func TestPertinence_JSON(t *testing.T) {
	b, err := json.Marshal(PertinencePositive)
	require.NoError(t, err)
	assert.Equal(t, `"positive"`, string(b))

	var p Pertinence
	require.NoError(t, json.Unmarshal([]byte(`"negative"`), &p))
	assert.Equal(t, PertinenceNegative, p)
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &p))

	assert.Equal(t, PertinencePositive, PertinenceFromVote(true))
	assert.Equal(t, PertinenceNegative, PertinenceFromVote(false))
}

func TestParseFileMark(t *testing.T) {
	tests := []struct {
		in   string
		want FileMark
		ok   bool
	}{
		{"new", FileMarkNew, true},
		{"not processed", FileMarkNew, true},
		{"ready", FileMarkReady, true},
		{"blocked", FileMarkBlocked, true},
		{"delivered", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFileMark(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthOptions(t *testing.T) {
	assert.NoError(t, AuthOptions{"pin": "1234", "strict": true, "n": 3.0}.Validate())
	assert.Error(t, AuthOptions{"nested": map[string]any{"a": 1}}.Validate())
	assert.Error(t, AuthOptions{"": "x"}.Validate())

	v, err := AuthOptions{"strict": true}.Value()
	require.NoError(t, err)

	var back AuthOptions
	require.NoError(t, back.Scan(v))
	assert.Equal(t, true, back["strict"])

	var empty AuthOptions
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestStringList(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)

	var l StringList
	require.NoError(t, l.Scan(v))
	assert.Equal(t, StringList{"a", "b"}, l)
	assert.True(t, l.Contains("b"))
	assert.False(t, l.Contains("c"))

	require.NoError(t, l.Scan("[]"))
	assert.Empty(t, l)
}

func TestFile_DescriptionHasNoContentLocation(t *testing.T) {
	b, err := json.Marshal(File{ID: "f1", StorageKey: "files/secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "files/secret")
}
