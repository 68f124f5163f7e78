package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/undrift/agentmon/internal/status"
)

func TestColorFunctions(t *testing.T) {
	tests := []struct {
		name    string
		colorFn func(...interface{}) string
		input   string
	}{
		{"Green", Green, "test"},
		{"Yellow", Yellow, "test"},
		{"Red", Red, "test"},
		{"Blue", Blue, "test"},
		{"Cyan", Cyan, "test"},
		{"Bold", Bold, "test"},
		{"Dim", Dim, "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.colorFn(tt.input)
			if !strings.Contains(result, tt.input) {
				t.Errorf("%s() result should contain '%s', got '%s'", tt.name, tt.input, result)
			}
		})
	}
}

func TestStateBadge(t *testing.T) {
	tests := []struct {
		state status.State
		want  string
	}{
		{status.StateRunning, "[RUNNING]"},
		{status.StateWaitingInput, "[WAITING]"},
		{status.StateIdle, "[IDLE]"},
		{status.StateError, "[ERROR]"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := StateBadge(tt.state); !strings.Contains(got, tt.want) {
				t.Errorf("StateBadge(%s) = %q, want it to contain %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestMessageHelpersWriteToOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	defer func() { Output = prev }()

	Success("saved")
	Warningf("%d skipped", 2)
	Info("polling")
	KeyValue("Status dir", "/tmp/x")

	out := buf.String()
	for _, want := range []string{"saved", "2 skipped", "polling", "Status dir:", "/tmp/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output = %q, want it to contain %q", out, want)
		}
	}
}

func TestDebug_Gated(t *testing.T) {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	defer func() { Output = prev }()

	t.Setenv("AGENTMON_DEBUG", "")
	Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug() wrote %q with AGENTMON_DEBUG unset", buf.String())
	}

	t.Setenv("AGENTMON_DEBUG", "1")
	Debugf("shown %d", 1)
	if !strings.Contains(buf.String(), "shown 1") {
		t.Errorf("Debugf() output = %q, want it to contain %q", buf.String(), "shown 1")
	}
}
