package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daunte502/RNG/internal/config"
	"github.com/Daunte502/RNG/internal/domain"
)

type fakeStore struct {
	updates []domain.Update
	reject  bool
	err     error
	closed  bool
}

func (f *fakeStore) Record(_ context.Context, u domain.Update) bool {
	if f.reject {
		return false
	}
	f.updates = append(f.updates, u)
	return true
}

func (f *fakeStore) FrequencyReport(context.Context) ([]domain.NumberFrequency, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.NumberFrequency{{Number: int64(2), Frequency: 1}, {Number: int64(7), Frequency: 2}}, nil
}

func (f *fakeStore) OnCount(_ context.Context, field string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if field == "ledA" {
		return 3, nil
	}
	return 0, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func run(t *testing.T, store *fakeStore, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"DB_SERVER", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_TLS", "KAFKA_BROKERS", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	opts := &RootOptions{
		OpenStore: func(context.Context, *config.Config, *slog.Logger) (domain.UpdateStore, error) {
			return store, nil
		},
	}
	cmd := newRootCommand(opts)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "elet2415", cmd.Use)

	for _, name := range []string{"serve", "record", "frequency", "oncount"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
}

func TestRecordCommand(t *testing.T) {
	store := &fakeStore{}
	out, err := run(t, store, "record", `{"number": 7, "ledA": 1}`)
	require.NoError(t, err)
	assert.Equal(t, "complete\n", out)
	require.Len(t, store.updates, 1)
	assert.Equal(t, int64(7), store.updates[0]["number"])
	assert.True(t, store.closed)
}

func TestRecordCommandFailure(t *testing.T) {
	_, err := run(t, &fakeStore{reject: true}, "record", `{"number": 7}`)
	assert.ErrorIs(t, err, errRecordFailed)

	_, err = run(t, &fakeStore{}, "record", `not json`)
	assert.Error(t, err)
}

func TestFrequencyCommand(t *testing.T) {
	out, err := run(t, &fakeStore{}, "frequency")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []map[string]any{
		{"number": float64(2), "frequency": float64(1)},
		{"number": float64(7), "frequency": float64(2)},
	}, rows)
}

func TestOnCountCommand(t *testing.T) {
	out, err := run(t, &fakeStore{}, "oncount", "ledA")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = run(t, &fakeStore{}, "oncount")
	assert.Error(t, err)
}

func TestQueryFailuresSurface(t *testing.T) {
	boom := errors.New("query error")

	_, err := run(t, &fakeStore{err: boom}, "frequency")
	assert.ErrorIs(t, err, boom)

	_, err = run(t, &fakeStore{err: boom}, "oncount", "ledA")
	assert.ErrorIs(t, err, boom)
}

func TestBadConfigFails(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	opts := &RootOptions{OpenStore: openMongoStore}
	cmd := newRootCommand(opts)
	cmd.SetArgs([]string{"oncount", "ledA"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
