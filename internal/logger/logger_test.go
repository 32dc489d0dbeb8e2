package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	zlog "github.com/rs/zerolog/log"

	appctx "github.com/baechuer/nippou-service/internal/pkg/context"
)

var envMu sync.Mutex

func withEnv(t *testing.T, kv map[string]string) {
	t.Helper()

	envMu.Lock()
	t.Cleanup(envMu.Unlock)

	prev := map[string]*string{}
	for k, v := range kv {
		if old, ok := os.LookupEnv(k); ok {
			tmp := old
			prev[k] = &tmp
		} else {
			prev[k] = nil
		}
		_ = os.Setenv(k, v)
	}

	t.Cleanup(func() {
		for k, old := range prev {
			if old == nil {
				_ = os.Unsetenv(k)
			} else {
				_ = os.Setenv(k, *old)
			}
		}
	})
}

func TestInitWithWriter_Defaults_ToInfoAndConsole(t *testing.T) {
	withEnv(t, map[string]string{
		"LOG_LEVEL":  "",
		"LOG_FORMAT": "",
	})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	if Logger.GetLevel().String() != "info" {
		t.Fatalf("expected level=info, got %s", Logger.GetLevel().String())
	}
	if zlog.Logger.GetLevel().String() != "info" {
		t.Fatalf("expected global level=info, got %s", zlog.Logger.GetLevel().String())
	}

	Logger.Info().Msg("hello")
	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console output, got json-like: %q", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestInitWithWriter_InvalidLogLevel_FallsBackToInfo(t *testing.T) {
	withEnv(t, map[string]string{
		"LOG_LEVEL":  "not-a-level",
		"LOG_FORMAT": "console",
	})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	if Logger.GetLevel().String() != "info" {
		t.Fatalf("expected level=info, got %s", Logger.GetLevel().String())
	}
}

func TestInitWithWriter_JSONFormat_DebugSuppressedAtWarn(t *testing.T) {
	withEnv(t, map[string]string{
		"LOG_LEVEL":  "warn",
		"LOG_FORMAT": "json",
	})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	Logger.Debug().Msg("quiet")
	Logger.Warn().Msg("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") || !strings.Contains(out, `"message":"loud"`) {
		t.Fatalf("expected json warn line, got: %q", out)
	}
}

func TestWithCtx_AddsRequestAndUserIDs(t *testing.T) {
	withEnv(t, map[string]string{
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
	})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := appctx.WithRequestID(context.Background(), "rid-42")
	ctx = appctx.WithUserID(ctx, "user-7")
	WithCtx(ctx).Info().Msg("report_created")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"rid-42"`) {
		t.Fatalf("missing request_id: %q", out)
	}
	if !strings.Contains(out, `"user_id":"user-7"`) {
		t.Fatalf("missing user_id: %q", out)
	}
}

func TestWithCtx_NoFieldsWhenContextEmpty(t *testing.T) {
	withEnv(t, map[string]string{
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
	})

	var buf bytes.Buffer
	InitWithWriter(&buf)

	WithCtx(context.Background()).Info().Msg("plain")
	if strings.Contains(buf.String(), "request_id") {
		t.Fatalf("unexpected request_id: %q", buf.String())
	}
}
