package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/clouddrive/internal/observability/logger"
)

func TestLog_UsesContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.RequestID("req-1")))

	Log(ctx, EventDriveConnected, logger.DrivePath("/Users/root/CMIS john"), Email("John@Example.com"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Equal(t, EventDriveConnected, entry.Message)
	require.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, EventDriveConnected, fields["event"])
	require.Equal(t, "j…@e….com", fields["email"])
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"abc":              "***",
		"johndoe":          "j…e",
		"a@b.io":           "a@b.io",
		" Jane@Corp.co.uk": "j…@c….co.uk",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), in)
	}
}
