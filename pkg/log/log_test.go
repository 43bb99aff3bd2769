package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	Info("daemon starting")

	out := buf.String()
	if !strings.Contains(out, `"message":"daemon starting"`) {
		t.Errorf("expected JSON message in output, got %q", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("expected level field in output, got %q", out)
	}
}

func TestChildLoggersCarryFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("engine")
	logger.Warn().Msg("attempt budget exhausted")

	svcLogger := WithService("cache")
	svcLogger.Info().Msg("poll complete")

	errLogger := WithErrorID("err-42")
	errLogger.Debug().Msg("dispatching")

	out := buf.String()
	for _, want := range []string{
		`"component":"engine"`,
		`"service":"cache"`,
		`"error_id":"err-42"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got %q", want, out)
		}
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: Level("chatty"), JSONOutput: true, Output: &buf})

	Debug("should be suppressed")
	Info("should appear")

	out := buf.String()
	if strings.Contains(out, "should be suppressed") {
		t.Errorf("debug output not suppressed at default level: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("info output missing at default level: %q", out)
	}
}
