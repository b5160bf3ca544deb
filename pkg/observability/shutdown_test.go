package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
		{name: "zero timeout uses default", timeout: 0, expectedTimeout: 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			sm := NewShutdownManager(logger, &http.Server{}, tt.timeout)
			assert.Equal(t, tt.expectedTimeout, sm.shutdownTimeout)
			assert.Empty(t, sm.shutdownFuncs)
		})
	}
}

func TestShutdown_RunsFuncsInReverseOrder(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sm := NewShutdownManager(logger, nil, time.Second)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Equal(t, "Graceful shutdown complete", hook.LastEntry().Message)
}

func TestShutdown_CollectsErrors(t *testing.T) {
	sm := NewShutdownManager(nil, nil, time.Second)

	ran := false
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		ran = true
		return nil
	})
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		return errors.New("redis close failed")
	})

	err := sm.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis close failed")
	assert.True(t, ran)
}

func TestShutdown_StopsHTTPServer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{Handler: http.NotFoundHandler()}
	served := make(chan error, 1)
	go func() { served <- server.Serve(ln) }()

	sm := NewShutdownManager(logger, server, time.Second)
	require.NoError(t, sm.Shutdown(context.Background()))

	select {
	case err := <-served:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
