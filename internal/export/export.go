package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"capture-chat/internal/chat"
)

type Exporter struct {
	dir string
	cwd string
}

// New writes exports to dir. A relative dir is resolved against the working
// directory.
func New(dir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{dir: strings.TrimSpace(dir), cwd: cwd}, nil
}

func (e *Exporter) Export(key string, s *chat.Session, toggles chat.TranscriptToggles, now time.Time) (string, error) {
	path := e.outputPath(key, now)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	body := BuildTranscriptMarkdown(s.Messages, toggles)
	md := BuildSessionMarkdown(key, s, body, now.UTC())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func BuildTranscriptMarkdown(messages []chat.Message, toggles chat.TranscriptToggles) string {
	filtered := chat.FilterMessages(messages, toggles)
	var b strings.Builder
	for _, m := range filtered {
		content := strings.TrimSpace(m.Body)
		if m.Role == chat.RoleUser {
			content = escapeUserMarkdown(content)
		}
		if content == "" {
			continue
		}

		switch {
		case m.Role == chat.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(content + "\n\n")
		case m.Kind == chat.KindProposal:
			title := "## Proposal"
			if m.Proposal != nil {
				title += " (" + strings.ReplaceAll(string(m.Proposal.Kind), "_", " ") + ")"
			}
			b.WriteString(title + "\n\n")
			b.WriteString(content + "\n\n")
		default:
			b.WriteString("## Capture\n\n")
			b.WriteString(content + "\n\n")
			if opts := optionLabels(m.Actions); len(opts) > 0 {
				b.WriteString("Options: " + strings.Join(opts, " · ") + "\n\n")
			}
		}
	}
	return strings.TrimSpace(b.String()) + "\n"
}

// optionLabels lists the answer choices a message offered.
func optionLabels(actions []chat.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if a.Label == "" || a.Action == chat.ActNavigate {
			continue
		}
		out = append(out, a.Label)
	}
	return out
}

var headingLineRe = regexp.MustCompile(`(?m)^(\s*)(#{1,6}\s)`)

// escapeUserMarkdown keeps typed text such as "# urgent" from rendering as
// a heading inside the export.
func escapeUserMarkdown(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	return headingLineRe.ReplaceAllString(content, `$1\$2`)
}

func BuildSessionMarkdown(key string, s *chat.Session, transcript string, now time.Time) string {
	var b strings.Builder
	b.WriteString("# Capture session " + safeValue(key) + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString(fmt.Sprintf("message_count: %d\n", len(s.Messages)))
	b.WriteString("flow: " + safeValue(string(s.Flow.Kind)) + "\n")
	pending := "n/a"
	if msg, ok := s.Pending(); ok {
		pending = string(msg.Proposal.Kind)
	}
	b.WriteString("pending_proposal: " + pending + "\n")
	b.WriteString("```\n\n")
	b.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Exporter) outputPath(key string, now time.Time) string {
	dir := e.dir
	if dir == "" {
		dir = filepath.Join(e.cwd, "exports")
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(e.cwd, dir)
	}
	name := safeFileName(key) + "-" + now.UTC().Format("20060102-150405") + ".md"
	return filepath.Join(dir, name)
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "session"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(s)
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}
