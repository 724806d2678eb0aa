package ipinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeren/wiwi-waitlist/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PublicIP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.7"}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{Endpoint: srv.URL})

	ip, err := client.PublicIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestClient_PublicIP_RejectsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"not-an-ip"}`))
	}))
	defer srv.Close()

	_, err := NewClient(&Config{Endpoint: srv.URL}).PublicIP(context.Background())
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClient_PublicIP_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(&Config{Endpoint: srv.URL}).PublicIP(context.Background())
	assert.Error(t, err)
}

func TestClient_Disabled(t *testing.T) {
	client := NewClient(&Config{Endpoint: ""})

	assert.False(t, client.Enabled())
	_, err := client.PublicIP(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(&Config{
		Endpoint: srv.URL,
		Timeout:  time.Second,
		Breaker: &circuitbreaker.Config{
			FailureThreshold: 2,
			RecoveryTimeout:  time.Hour,
			SuccessThreshold: 1,
		},
	})

	for i := 0; i < 2; i++ {
		_, err := client.PublicIP(context.Background())
		require.Error(t, err)
	}

	_, err := client.PublicIP(context.Background())
	assert.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, circuitbreaker.Open, client.State())
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("203.0.113.7"))
	assert.True(t, IsPublic("2001:4860:4860::8888"))
	assert.False(t, IsPublic("127.0.0.1"))
	assert.False(t, IsPublic("10.1.2.3"))
	assert.False(t, IsPublic("192.168.0.4"))
	assert.False(t, IsPublic("::1"))
	assert.False(t, IsPublic(""))
	assert.False(t, IsPublic("garbage"))
}
