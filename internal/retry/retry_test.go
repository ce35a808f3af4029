package retry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanmoss/gitforge/internal/provider"
)

func fastDelays(t *testing.T) {
	t.Helper()
	oldInitial, oldMax := initialDelay, maxDelay
	initialDelay = time.Millisecond
	maxDelay = 5 * time.Millisecond
	t.Cleanup(func() {
		initialDelay, maxDelay = oldInitial, oldMax
	})
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	fastDelays(t)

	attempts := 0
	got, err := Do(context.Background(), zerolog.Nop(), func() (string, error) {
		attempts++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesTransientErrors(t *testing.T) {
	fastDelays(t)

	attempts := 0
	got, err := Do(context.Background(), zerolog.Nop(), func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, provider.CommandFailed("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	fastDelays(t)

	attempts := 0
	_, err := Do(context.Background(), zerolog.Nop(), func() (int, error) {
		attempts++
		return 0, provider.CommandFailed("always broken")
	})

	require.Error(t, err)
	// 1 initial attempt + 3 retries.
	assert.Equal(t, 4, attempts)

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, provider.KindCommandFailed, perr.Kind)
}

func TestDoDoesNotRetryTerminalErrors(t *testing.T) {
	fastDelays(t)

	attempts := 0
	_, err := Do(context.Background(), zerolog.Nop(), func() (int, error) {
		attempts++
		return 0, provider.NotAuthenticated("please run gh auth login")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoDoesNotRetryUnclassifiedErrors(t *testing.T) {
	fastDelays(t)

	attempts := 0
	_, err := Do(context.Background(), zerolog.Nop(), func() (int, error) {
		attempts++
		return 0, context.DeadlineExceeded
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoNotifiesOnRetry(t *testing.T) {
	fastDelays(t)

	var buf testLogSink
	log := zerolog.New(&buf)

	attempts := 0
	_, err := Do(context.Background(), log, func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, provider.ParseError("garbled")
		}
		return 1, nil
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "retrying after transient failure")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	fastDelays(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := Do(ctx, zerolog.Nop(), func() (int, error) {
		attempts++
		return 0, provider.CommandFailed("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoVoid(t *testing.T) {
	fastDelays(t)

	attempts := 0
	err := DoVoid(context.Background(), zerolog.Nop(), func() error {
		attempts++
		if attempts == 1 {
			return provider.APIError(502, "bad gateway")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

type testLogSink struct {
	data []byte
}

func (s *testLogSink) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

func (s *testLogSink) String() string { return string(s.data) }
