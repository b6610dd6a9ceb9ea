package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/fjod/go_storefront/internal/logger"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[int]("test", logger.Nop())
	boom := errors.New("boom")

	for i := 0; i < consecutiveFailures; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestNew_SuccessResetsCount(t *testing.T) {
	cb := New[int]("test", logger.Nop())
	boom := errors.New("boom")

	for i := 0; i < consecutiveFailures-1; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, boom })
	}
	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, _ = cb.Execute(func() (int, error) { return 0, boom })
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
