package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUpdateKeepsIntegers(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"id":"620167361","number":7,"ledA":1,"ledB":0,"ratio":0.5}`))
	require.NoError(t, err)

	n, ok := u.Number()
	require.True(t, ok)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, int64(1), u["ledA"])
	assert.Equal(t, int64(0), u["ledB"])
	assert.Equal(t, 0.5, u["ratio"])
	assert.Equal(t, "620167361", u["id"])
}

func TestDecodeUpdateNested(t *testing.T) {
	u, err := DecodeUpdate([]byte(`{"number":1,"meta":{"rssi":-40,"tags":[1,2.5]}}`))
	require.NoError(t, err)

	meta, ok := u["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(-40), meta["rssi"])
	assert.Equal(t, []any{int64(1), 2.5}, meta["tags"])
}

func TestDecodeUpdateRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`null`, `[1,2]`, `"number"`, `{`} {
		t.Run(payload, func(t *testing.T) {
			_, err := DecodeUpdate([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestNumberAbsent(t *testing.T) {
	_, ok := Update{"ledA": 1}.Number()
	assert.False(t, ok)
}
