package chat

import "strings"

type TranscriptToggles struct {
	IncludeProposals bool
	// IncludeRepeats keeps back-to-back duplicate assistant prompts, which
	// appear when a question is asked again.
	IncludeRepeats bool
}

func FilterMessages(messages []Message, toggles TranscriptToggles) []Message {
	filtered := make([]Message, 0, len(messages))
	lastAssistant := ""
	for _, m := range messages {
		if strings.TrimSpace(m.Body) == "" {
			continue
		}
		if m.Kind == KindProposal && !toggles.IncludeProposals {
			continue
		}
		if m.Role == RoleAssistant {
			n := normalizeBody(m.Body)
			if n == lastAssistant && !toggles.IncludeRepeats {
				continue
			}
			lastAssistant = n
		} else {
			lastAssistant = ""
		}
		filtered = append(filtered, m)
	}
	return filtered
}

func normalizeBody(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
