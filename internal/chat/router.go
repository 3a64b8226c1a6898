package chat

import (
	"regexp"

	"capture-chat/internal/extract"
)

type Intent string

const (
	IntentNone        Intent = ""
	IntentStartTimer  Intent = "start_timer"
	IntentStopTimer   Intent = "stop_timer"
	IntentSwitchTimer Intent = "switch_timer"
	IntentLogTime     Intent = "log_time"
	IntentConvert     Intent = "convert"
	IntentJobTask     Intent = "job_task"
	IntentQuickTask   Intent = "quick_task"
	IntentListItem    Intent = "list_item"
	IntentTaskType    Intent = "task_type"
	IntentCapture     Intent = "capture"
)

// Route is the router's verdict on a fresh utterance. Timer intents are
// reconciled against the live timer by the engine.
type Route struct {
	Intent Intent
	// JobScoped marks timer or conversion phrasing aimed at job tasks.
	JobScoped bool
}

type intentPatterns struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// intentTable is checked top to bottom; the first hit wins.
var intentTable = []intentPatterns{
	{IntentStopTimer, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:stop|end|finish|pause|kill)\s+(?:the\s+|my\s+)?timer\b`),
		regexp.MustCompile(`(?i)\btimer\s+(?:off|stop)\b`),
		regexp.MustCompile(`(?i)^\s*clock\s+out\b`),
	}},
	{IntentSwitchTimer, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bswitch\s+(?:the\s+|my\s+)?timer\b`),
		regexp.MustCompile(`(?i)\bswitch\s+(?:over\s+)?to\b`),
	}},
	{IntentStartTimer, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:start|begin|run|kick\s+off)\s+(?:a\s+|the\s+|my\s+)?timer\b`),
		regexp.MustCompile(`(?i)\btimer\s+(?:on|for)\b`),
		regexp.MustCompile(`(?i)^\s*clock\s+in\b`),
		regexp.MustCompile(`(?i)\bstart\s+(?:working|work)\s+on\b`),
	}},
	{IntentLogTime, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:log|track|record|book)\b`),
		regexp.MustCompile(`(?i)\b(?:spent|worked)\b`),
	}},
	{IntentConvert, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:convert|promote)\b`),
		regexp.MustCompile(`(?i)\b(?:turn|make)\s+(?:this|that|it)\s+(?:into\s+)?(?:a\s+|an\s+)?(?:(?:quick|job)\s+)?task\b`),
	}},
	{IntentJobTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bjob[\s-]task\b`),
		regexp.MustCompile(`(?i)\btask\s+(?:for|on|under)\s+(?:the\s+)?(?:job|deliverable)\b`),
	}},
	{IntentQuickTask, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bquick[\s-]task\b`),
		regexp.MustCompile(`(?i)\b(?:add|create|new|make)\s+(?:a\s+|an\s+)?(?:new\s+)?task\b`),
	}},
	{IntentTaskType, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\btasks?\b`),
	}},
	{IntentListItem, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:to|on|in)\s+(?:my|the)\s+(?:to-?do\s+)?list\b`),
		regexp.MustCompile(`(?i)\b(?:list\s+item|reminder)\b`),
	}},
	{IntentCapture, []*regexp.Regexp{
		regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:add|remind|note|jot|capture|remember|save)\b`),
		regexp.MustCompile(`(?i)\bfollow[\s-]?up\b`),
		regexp.MustCompile(`(?i)\bdon'?t\s+(?:let\s+me\s+)?forget\b`),
	}},
}

var (
	jobScopeRe   = regexp.MustCompile(`(?i)\bjob(?:[\s-]task)?\b`)
	taskOrNoteRe = regexp.MustCompile(`(?i)\b(?:tasks?|to-?do|remind(?:er)?|add|create|note|list)\b`)
	thisThatRe   = regexp.MustCompile(`(?i)\b(?:this|that|it)\b`)
)

// RouteText classifies an utterance that is not an answer to a question.
func RouteText(text string) Route {
	for _, entry := range intentTable {
		for _, re := range entry.patterns {
			if !re.MatchString(text) {
				continue
			}
			r := Route{Intent: entry.intent}
			switch entry.intent {
			case IntentStartTimer, IntentStopTimer, IntentSwitchTimer:
				r.JobScoped = jobScopeRe.MatchString(text)
			case IntentConvert:
				r.JobScoped = jobScopeRe.MatchString(text)
			}
			return r
		}
		// A bare duration is time logging unless the text is clearly a
		// capture ("add task ... 1.5h").
		if entry.intent == IntentLogTime {
			if _, ok := extract.Hours(text); ok && !taskOrNoteRe.MatchString(text) {
				return Route{Intent: IntentLogTime}
			}
		}
	}
	return Route{}
}

const capabilities = "I can capture a few kinds of things. Try:\n" +
	"- \"add buy milk to my list\"\n" +
	"- \"add task: email proposal to Acme, 1.5h, due tomorrow\"\n" +
	"- \"new job task for Website redesign\"\n" +
	"- \"log 45m to Fix login bug\"\n" +
	"- \"start timer on Design review\", \"stop timer\" or \"switch timer to ...\"\n" +
	"- \"turn this into a task\""
