package config

import (
	"bytes"
	"testing"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw      string
		hostport string
		path     string
		insecure bool
		wantErr  bool
	}{
		{raw: "http://collector:4318", hostport: "collector:4318", path: "/v1/traces", insecure: true},
		{raw: "https://otel.example.com/custom/traces", hostport: "otel.example.com", path: "/custom/traces"},
		{raw: "collector:4318", hostport: "collector:4318", path: "/v1/traces", insecure: true},
		{raw: "collector:4318/v1/traces", wantErr: true},
		{raw: "grpc://collector:4317", wantErr: true},
		{raw: "http://", wantErr: true},
		{raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			hostport, path, insecure, err := parseOTLPEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hostport, hostport)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.insecure, insecure)
		})
	}
}

func TestSamplerRatio(t *testing.T) {
	ratio, err := samplerRatio("")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ratio)

	ratio, err = samplerRatio("0.25")
	require.NoError(t, err)
	assert.Equal(t, 0.25, ratio)

	_, err = samplerRatio("1.5")
	assert.Error(t, err)
	_, err = samplerRatio("half")
	assert.Error(t, err)
}

func TestTracingAttributes(t *testing.T) {
	t.Setenv(AppEnvKey, "Staging")
	t.Setenv("APP_VERSION", "1.4.0")

	attrs := tracingAttributes("wiwi-waitlist")

	values := map[string]string{}
	for _, kv := range attrs {
		values[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, map[string]string{
		"service.name":           "wiwi-waitlist",
		"deployment.environment": "staging",
		"service.version":        "1.4.0",
	}, values)
}

func TestSetupTracing_Disabled(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(log.NewLoggerWithWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}
