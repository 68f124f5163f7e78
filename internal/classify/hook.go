package classify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Payload is a decoded hook invocation.
type Payload struct {
	SessionID      string
	Cwd            string
	TranscriptPath string
	Event          Event
}

// hookInput mirrors the JSON a Claude Code hook receives on stdin.
type hookInput struct {
	SessionID        string          `json:"session_id"`
	Cwd              string          `json:"cwd"`
	HookEventName    string          `json:"hook_event_name"`
	ToolName         string          `json:"tool_name"`
	ToolInput        map[string]any  `json:"tool_input"`
	ToolResponse     json.RawMessage `json:"tool_response"`
	Message          string          `json:"message"`
	NotificationType string          `json:"notification_type"`
	Prompt           string          `json:"prompt"`
	TranscriptPath   string          `json:"transcript_path"`
	Text             string          `json:"text"`
}

// DecodeHook reads one hook payload. Hook names it does not know become Unknown events.
func DecodeHook(r io.Reader) (Payload, error) {
	var in hookInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return Payload{}, fmt.Errorf("failed to decode hook payload: %w", err)
	}

	p := Payload{
		SessionID:      in.SessionID,
		Cwd:            in.Cwd,
		TranscriptPath: in.TranscriptPath,
	}

	switch in.HookEventName {
	case "SessionStart":
		p.Event = SessionStart{}
	case "SessionEnd":
		p.Event = SessionEnd{}
	case "PreToolUse":
		p.Event = PreToolUse{ToolName: in.ToolName, ToolInput: in.ToolInput}
	case "PostToolUse", "PostToolUseFailure":
		output, isErr := parseToolResponse(in.ToolResponse)
		p.Event = PostToolUse{
			ToolName:   in.ToolName,
			ToolOutput: output,
			IsError:    isErr || in.HookEventName == "PostToolUseFailure",
		}
	case "Notification":
		p.Event = Notification{Message: in.Message, Kind: in.NotificationType}
	case "Stop", "SubagentStop":
		p.Event = Stop{}
	case "UserPromptSubmit":
		p.Event = UserPromptSubmit{Prompt: in.Prompt}
	case "AgentMessage":
		p.Event = AgentMessage{Text: firstNonEmpty(in.Text, in.Message)}
	default:
		p.Event = Unknown{Name: in.HookEventName}
	}

	return p, nil
}

// parseToolResponse extracts the most useful output text from a tool response
// and reports whether it signals failure. The response may be an object or a bare string.
func parseToolResponse(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, false
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}

	isErr := false
	if v, ok := obj["is_error"].(bool); ok && v {
		isErr = true
	}
	if v, ok := obj["success"].(bool); ok && !v {
		isErr = true
	}
	for _, key := range []string{"exit_code", "exitCode"} {
		if v, ok := obj[key].(float64); ok && v != 0 {
			isErr = true
		}
	}

	errText := ""
	switch v := obj["error"].(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			isErr = true
			errText = v
		}
	case bool:
		isErr = isErr || v
	case map[string]any:
		isErr = true
		if msg, ok := v["message"].(string); ok {
			errText = msg
		}
	}

	output := firstNonEmpty(errText, stringField(obj, "stderr"), stringField(obj, "stdout"), stringField(obj, "output"), stringField(obj, "content"))
	return output, isErr
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
