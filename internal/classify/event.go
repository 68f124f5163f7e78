// Package classify turns agent lifecycle events into a status and a short summary.
package classify

// Event is a lifecycle event reported by an agent hook. The set of
// implementations is closed; unrecognised hook names decode to Unknown.
type Event interface {
	eventName() string
}

// SessionStart fires when an agent session begins.
type SessionStart struct{}

// SessionEnd fires when an agent session ends.
type SessionEnd struct{}

// PreToolUse fires before the agent runs a tool.
type PreToolUse struct {
	ToolName  string
	ToolInput map[string]any
}

// PostToolUse fires after a tool returns.
type PostToolUse struct {
	ToolName   string
	ToolOutput string
	IsError    bool
}

// Notification carries a message the agent surfaced to the user.
type Notification struct {
	Message string
	Kind    string // notification_type, e.g. permission_prompt
}

// AgentMessage is free text written by the agent.
type AgentMessage struct {
	Text string
}

// Stop fires when the agent finishes responding.
type Stop struct{}

// UserPromptSubmit fires when the user sends a prompt.
type UserPromptSubmit struct {
	Prompt string
}

// Unknown is any event the decoder did not recognise.
type Unknown struct {
	Name string
}

func (SessionStart) eventName() string     { return "SessionStart" }
func (SessionEnd) eventName() string       { return "SessionEnd" }
func (PreToolUse) eventName() string       { return "PreToolUse" }
func (PostToolUse) eventName() string      { return "PostToolUse" }
func (Notification) eventName() string     { return "Notification" }
func (AgentMessage) eventName() string     { return "AgentMessage" }
func (Stop) eventName() string             { return "Stop" }
func (UserPromptSubmit) eventName() string { return "UserPromptSubmit" }
func (e Unknown) eventName() string        { return e.Name }

// Name returns the hook name of an event, or "" for nil.
func Name(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}
