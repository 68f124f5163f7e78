package classify

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/undrift/agentmon/internal/status"
)

// SummaryBudget is the maximum display width of a summary.
const SummaryBudget = 100

// promptBudget bounds summaries built from user prompts.
const promptBudget = 50

// Result is the outcome of classifying one event.
type Result struct {
	State   status.State
	Summary string
	// Clear means the worker's record should be deleted; State is empty.
	Clear bool
}

var statusTagPattern = regexp.MustCompile(`(?is)<status>\s*(.*?)\s*</status>`)

var deferencePhrases = []string{
	"should i",
	"would you like",
	"which would you prefer",
	"which do you prefer",
	"do you want",
	"shall i",
	"let me know",
	"please confirm",
	"your call",
	"want me to",
}

var blockingPhrases = []string{
	"blocked",
	"waiting for",
	"awaiting",
	"need input",
	"needs input",
	"need your",
	"needs your",
}

var waitingNotificationKinds = map[string]bool{
	"permission_prompt":  true,
	"idle_prompt":        true,
	"elicitation_dialog": true,
}

var waitingNotificationPattern = regexp.MustCompile(`(?i)permission|approv|waiting for (your )?input|needs your (input|attention)|is idle|waiting for you`)

type errorPattern struct {
	re      *regexp.Regexp
	summary string // %s is replaced with the tool name
}

var errorPatterns = []errorPattern{
	{regexp.MustCompile(`(?i)module not found|cannot find module|no module named|cannot find package|could not resolve (dependency|module)|no required module provides`), "Build failed: missing module"},
	{regexp.MustCompile(`(?i)syntax ?error|unexpected token|parse error`), "Syntax error"},
	{regexp.MustCompile(`(?i)compilation failed|build failed|\bundefined: |cannot use .+ as`), "Build failed: compile error"},
	{regexp.MustCompile(`\bFAIL\b|(?i:tests? failed|assertion ?error|failing tests?)`), "Tests failed"},
	{regexp.MustCompile(`(?i)permission denied|operation not permitted|\bEACCES\b`), "Permission denied"},
	{regexp.MustCompile(`(?i)command not found|is not recognized as`), "Command not found"},
	{regexp.MustCompile(`(?i)merge conflict|\bCONFLICT \(`), "Merge conflict"},
	{regexp.MustCompile(`(?i)connection refused|\bECONNREFUSED\b|network is unreachable`), "Connection refused"},
	{regexp.MustCompile(`(?i)no such file or directory|\bENOENT\b|file not found`), "File not found"},
	{regexp.MustCompile(`(?i)timed? ?out|deadline exceeded`), "%s timed out"},
}

// Classify maps an event, plus a window of recent agent-authored text
// (oldest first), to a status and summary. An explicit status tag in the
// agent's text outranks every heuristic. Classify never fails: anything it
// does not understand is idle with an empty summary.
func Classify(ev Event, recent []string) Result {
	if payload, ok := findStatusTag(ev, recent); ok {
		return Result{State: tagState(ev, payload), Summary: Truncate(payload, SummaryBudget), Clear: isSessionEnd(ev)}.normalize()
	}

	switch e := ev.(type) {
	case SessionEnd:
		return Result{Clear: true}
	case SessionStart:
		return Result{State: status.StateRunning, Summary: "Session started"}
	case PostToolUse:
		if e.IsError {
			return Result{State: status.StateError, Summary: Truncate(errorSummary(e), SummaryBudget)}
		}
	case PreToolUse:
		return Result{State: status.StateRunning, Summary: Truncate(toolSummary(e), SummaryBudget)}
	case Notification:
		if e.waiting() {
			return Result{State: status.StateWaitingInput, Summary: Truncate(orDefault(e.Message, "Waiting for input"), SummaryBudget)}
		}
		return Result{State: status.StateRunning, Summary: Truncate(orDefault(e.Message, "Processing"), SummaryBudget)}
	case AgentMessage:
		if IsQuestion(e.Text) {
			return Result{State: status.StateWaitingInput, Summary: Truncate(lastLine(e.Text), SummaryBudget)}
		}
	}

	switch e := ev.(type) {
	case PostToolUse:
		return Result{State: status.StateRunning, Summary: Truncate("Completed "+toolName(e.ToolName), SummaryBudget)}
	case UserPromptSubmit:
		prompt := strings.TrimSpace(e.Prompt)
		if prompt == "" {
			return Result{State: status.StateRunning, Summary: "Processing prompt"}
		}
		return Result{State: status.StateRunning, Summary: Truncate(prompt, promptBudget)}
	case Stop:
		return Result{State: status.StateIdle, Summary: "Task completed"}
	case AgentMessage:
		return Result{State: status.StateIdle, Summary: Truncate(lastLine(e.Text), SummaryBudget)}
	}

	return Result{State: status.StateIdle}
}

func (r Result) normalize() Result {
	if r.Clear {
		r.State = ""
	}
	return r
}

// findStatusTag scans agent text newest-first and returns the payload of the
// first status tag found. For an AgentMessage the event text is the newest source.
func findStatusTag(ev Event, recent []string) (string, bool) {
	sources := recent
	if msg, ok := ev.(AgentMessage); ok {
		sources = append(append([]string(nil), recent...), msg.Text)
	}
	for i := len(sources) - 1; i >= 0; i-- {
		if m := statusTagPattern.FindStringSubmatch(sources[i]); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// tagState decides the state implied by a status tag in the context of the event that carried it.
func tagState(ev Event, payload string) status.State {
	if IsQuestion(payload) || containsAny(strings.ToLower(payload), blockingPhrases) {
		return status.StateWaitingInput
	}
	switch e := ev.(type) {
	case PostToolUse:
		if e.IsError {
			return status.StateError
		}
	case Notification:
		if e.waiting() {
			return status.StateWaitingInput
		}
	case Stop:
		return status.StateIdle
	}
	return status.StateRunning
}

// waiting reports whether the notification means the agent is blocked on the operator.
func (n Notification) waiting() bool {
	return waitingNotificationKinds[n.Kind] || waitingNotificationPattern.MatchString(n.Message)
}

func isSessionEnd(ev Event) bool {
	_, ok := ev.(SessionEnd)
	return ok
}

// IsQuestion reports whether text asks the user something: it ends with a
// question mark or uses a deference phrase such as "should I".
func IsQuestion(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	return containsAny(strings.ToLower(trimmed), deferencePhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func errorSummary(e PostToolUse) string {
	name := toolName(e.ToolName)
	for _, p := range errorPatterns {
		if p.re.MatchString(e.ToolOutput) {
			if strings.Contains(p.summary, "%s") {
				return fmt.Sprintf(p.summary, name)
			}
			return p.summary
		}
	}
	if line := firstLine(e.ToolOutput); line != "" {
		return fmt.Sprintf("%s failed: %s", name, line)
	}
	return name + " failed"
}

func toolSummary(e PreToolUse) string {
	name := toolName(e.ToolName)
	switch e.ToolName {
	case "Edit", "MultiEdit", "NotebookEdit":
		if p := inputString(e.ToolInput, "file_path", "notebook_path", "path"); p != "" {
			return "Editing " + shortenPath(p)
		}
	case "Write":
		if p := inputString(e.ToolInput, "file_path", "path"); p != "" {
			return "Writing " + shortenPath(p)
		}
	case "Read":
		if p := inputString(e.ToolInput, "file_path", "path"); p != "" {
			return "Reading " + shortenPath(p)
		}
	case "Bash":
		if c := firstLine(inputString(e.ToolInput, "command")); c != "" {
			return "Running: " + c
		}
	case "Grep", "Glob":
		if p := inputString(e.ToolInput, "pattern"); p != "" {
			return "Searching " + p
		}
	case "Task":
		if d := inputString(e.ToolInput, "description"); d != "" {
			return "Delegating: " + d
		}
	case "WebFetch", "WebSearch":
		if u := inputString(e.ToolInput, "url", "query"); u != "" {
			return "Browsing " + u
		}
	}
	return "Using " + name
}

func inputString(input map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := input[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// shortenPath keeps the last three path elements.
func shortenPath(p string) string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	if len(parts) <= 3 {
		return p
	}
	return ".../" + strings.Join(parts[len(parts)-3:], "/")
}

func toolName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "tool"
	}
	return name
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// Truncate shortens s to at most width display cells, ending in "..." when cut.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
