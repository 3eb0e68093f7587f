package core

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidatesArguments(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 2)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	var mu sync.Mutex
	var failures []error
	boom := errors.New("boom")

	for i := 0; i < 20; i++ {
		i := i
		require.NoError(t, js.Submit(Job{
			Name: "count",
			Run: func() error {
				if i%5 == 0 {
					return boom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				failed.Add(1)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			},
		}))
	}
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(16), completed.Load())
	assert.Equal(t, int32(4), failed.Load())
	for _, err := range failures {
		assert.ErrorIs(t, err, boom)
	}
}

func TestJobSystemRejectsWorkAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
	assert.ErrorIs(t, js.Submit(Job{Name: "late", Run: func() error { return nil }}), ErrJobSystemClosed)
}
