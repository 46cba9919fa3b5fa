package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownManagerRunsNewestFirst(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), time.Second)

	var order []string
	for _, name := range []string{"store", "redis", "http"} {
		name := name
		sm.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "redis", "store"}, order)

	require.NoError(t, sm.Shutdown(context.Background()))
	assert.Len(t, order, 3, "second shutdown is a no-op")
}

func TestShutdownManagerJoinsErrors(t *testing.T) {
	sm := NewShutdownManager(NopLogger(), 0)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	sm.Register("a", func(context.Context) error { return errA })
	sm.Register("ok", func(context.Context) error { ran = true; return nil })
	sm.Register("b", func(context.Context) error { return errB })

	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran)
}

func TestOTelDisabled(t *testing.T) {
	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, NopLogger())
	require.NoError(t, err)
	assert.Nil(t, providers)
	assert.NoError(t, providers.Shutdown(context.Background()))
}
