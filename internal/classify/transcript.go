package classify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// transcriptTailBytes bounds how much of a transcript is read from the end.
const transcriptTailBytes = 256 * 1024

// DefaultRecentMessages is how many agent text chunks a hook looks back over.
const DefaultRecentMessages = 5

type transcriptLine struct {
	Type    string `json:"type"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RecentMessages returns up to n of the most recent assistant text chunks
// from a JSONL transcript, oldest first. Only the tail of the file is read.
// Lines that do not parse are skipped.
func RecentMessages(path string, n int) ([]string, error) {
	if path == "" || n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat transcript: %w", err)
	}

	offset := info.Size() - transcriptTailBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek transcript: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	lines := bytes.Split(data, []byte("\n"))
	if offset > 0 && len(lines) > 0 {
		// first line is probably cut
		lines = lines[1:]
	}

	var texts []string
	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var tl transcriptLine
		if err := json.Unmarshal(line, &tl); err != nil {
			continue
		}
		if tl.Type != "assistant" && tl.Message.Role != "assistant" {
			continue
		}
		if text := assistantText(tl.Message.Content); text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) > n {
		texts = texts[len(texts)-n:]
	}
	return texts, nil
}

// assistantText joins the text blocks of a message; content may be a plain string.
func assistantText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			parts = append(parts, strings.TrimSpace(b.Text))
		}
	}
	return strings.Join(parts, "\n")
}
