package waitlist

import (
	"context"
	"testing"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPResolver_Resolve(t *testing.T) {
	resolver := NewIPResolver(log.NewLoggerWithJSONOutput())
	ctx := context.Background()

	t.Run("reported address wins over the connection", func(t *testing.T) {
		got := resolver.Resolve(ctx, ClientMetadata{ReportedIP: " 198.51.100.20 ", RemoteIP: "203.0.113.9"})

		require.NotNil(t, got)
		assert.Equal(t, "198.51.100.20", *got)
	})

	t.Run("reported IPv6 address is kept", func(t *testing.T) {
		got := resolver.Resolve(ctx, ClientMetadata{ReportedIP: "2001:4860:4860::8888"})

		require.NotNil(t, got)
		assert.Equal(t, "2001:4860:4860::8888", *got)
	})

	t.Run("malformed reported address falls back to the connection", func(t *testing.T) {
		for _, reported := range []string{"not-an-ip", "1.2.3", "<script>", "10.0.0.4"} {
			got := resolver.Resolve(ctx, ClientMetadata{ReportedIP: reported, RemoteIP: "203.0.113.9"})

			require.NotNil(t, got, reported)
			assert.Equal(t, "203.0.113.9", *got, reported)
		}
	})

	t.Run("public client address is used directly", func(t *testing.T) {
		got := resolver.Resolve(ctx, ClientMetadata{RemoteIP: "203.0.113.9"})

		require.NotNil(t, got)
		assert.Equal(t, "203.0.113.9", *got)
	})

	t.Run("visitors behind a proxy are not given a shared address", func(t *testing.T) {
		first := resolver.Resolve(ctx, ClientMetadata{RemoteIP: "10.0.0.11"})
		second := resolver.Resolve(ctx, ClientMetadata{RemoteIP: "10.0.0.12"})

		assert.Nil(t, first)
		assert.Nil(t, second)
	})

	t.Run("nothing usable yields unknown", func(t *testing.T) {
		for _, meta := range []ClientMetadata{
			{},
			{RemoteIP: "127.0.0.1"},
			{RemoteIP: "172.17.0.1", ReportedIP: "garbage"},
		} {
			assert.Nil(t, resolver.Resolve(ctx, meta), meta)
		}
	})
}
