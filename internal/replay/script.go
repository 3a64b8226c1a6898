// Package replay feeds JSONL turn scripts through a conversation.
//
// Each line is one turn: {"text": "..."} types a message, {"action": "...",
// "value": "..."} clicks an action, {"field": "...", "value": "..."} edits the
// pending proposal. An optional "at" timestamp pins the clock from that turn on.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"capture-chat/internal/chat"
)

type StepKind string

const (
	StepText   StepKind = "text"
	StepAction StepKind = "action"
	StepEdit   StepKind = "edit"
)

type Step struct {
	Line   int
	Kind   StepKind
	Text   string
	Action chat.Action
	Field  string
	Value  string
	At     *time.Time
}

func (s Step) String() string {
	switch s.Kind {
	case StepAction:
		if s.Action.Label != "" {
			return "[" + s.Action.Label + "]"
		}
		return "[" + string(s.Action.Action) + "]"
	case StepEdit:
		return fmt.Sprintf("edit %s = %s", s.Field, s.Value)
	default:
		return s.Text
	}
}

func Load(path string) ([]Step, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	steps, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return steps, nil
}

// Parse reads one step per non-blank line. Lines starting with "#" or "//"
// are comments.
func Parse(r io.Reader) ([]Step, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var steps []Step
	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' || bytes.HasPrefix(line, []byte("//")) {
			continue
		}
		step, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		step.Line = n
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan script: %w", err)
	}
	return steps, nil
}

func parseLine(line []byte) (Step, error) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		return Step{}, err
	}

	step := Step{At: extractTime(obj)}
	value := coerceText(firstByPath(obj, []string{"value"}, []string{"data", "value"}))

	if field := asString(firstByPath(obj, []string{"field"}, []string{"edit", "field"})); field != "" {
		step.Kind = StepEdit
		step.Field = field
		step.Value = value
		if step.Value == "" {
			step.Value = coerceText(firstByPath(obj, []string{"edit", "value"}))
		}
		return step, nil
	}

	if action := strings.ToLower(asString(firstByPath(obj, []string{"action"}, []string{"type"}, []string{"click"}))); action != "" && action != "text" {
		step.Kind = StepAction
		step.Action = chat.Action{
			Action: chat.ActionType(action),
			Value:  value,
			Label:  asString(firstByPath(obj, []string{"label"})),
		}
		if step.Action.Label == "" {
			step.Action.Label = value
		}
		return step, nil
	}

	text := coerceText(firstByPath(obj, []string{"text"}, []string{"say"}, []string{"input"}, []string{"message", "text"}, []string{"content"}))
	if text == "" {
		return Step{}, fmt.Errorf("no text, action or field")
	}
	step.Kind = StepText
	step.Text = text
	return step, nil
}

func extractTime(obj map[string]any) *time.Time {
	v := firstByPath(obj, []string{"at"}, []string{"timestamp"}, []string{"time"})
	switch t := v.(type) {
	case float64:
		return unixTime(int64(t))
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return nil
		}
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return unixTime(i)
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return &ts
			}
		}
	}
	return nil
}

// unixTime accepts seconds or milliseconds.
func unixTime(x int64) *time.Time {
	var ts time.Time
	if x > 1_000_000_000_000 {
		ts = time.UnixMilli(x).UTC()
	} else {
		ts = time.Unix(x, 0).UTC()
	}
	return &ts
}

func firstByPath(obj map[string]any, path ...[]string) any {
	for _, p := range path {
		var cur any = obj
		ok := true
		for _, seg := range p {
			m, isMap := cur.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			var exists bool
			cur, exists = m[seg]
			if !exists {
				ok = false
				break
			}
		}
		if ok {
			return cur
		}
	}
	return nil
}

func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Discover returns every *.jsonl script under dir, sorted by path.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat scripts: %w", err)
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	var out []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".jsonl") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk scripts: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
