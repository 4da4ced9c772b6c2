package tools

import "strings"

// Shipping the full catalog on every query bloats model context and cost.
// The selector trades recall for cost: an imperfect or superset tool list
// is acceptable because the model can ask again on a later turn.

var moduleKeywords = []struct {
	module   string
	keywords []string
}{
	{"boards", []string{"task", "board", "column", "kanban", "due", "todo", "to-do", "backlog"}},
	{"habits", []string{"habit", "streak", "routine"}},
	{"goals", []string{"goal", "milestone", "objective"}},
	{"journal", []string{"journal", "diary", "mood", "energy", "reflect"}},
	{"finance", []string{"finance", "money", "expense", "income", "budget", "spent", "spending", "transaction", "paid"}},
	{"calendar", []string{"calendar", "event", "schedule", "meeting", "appointment"}},
}

// Summary-style queries always pull in the analytics module, whichever
// domains also matched.
var analyticsKeywords = []string{"summary", "report", "insight", "overview", "productivity", "stats", "statistics"}

var actionVocabulary = map[string]bool{
	"create": true, "add": true, "new": true, "delete": true, "remove": true,
	"show": true, "list": true, "mark": true, "move": true, "complete": true,
	"finish": true, "schedule": true, "update": true, "track": true, "log": true,
	"record": true, "set": true, "make": true, "write": true, "check": true,
	"start": true, "cancel": true, "plan": true,
}

var dataVocabulary = map[string]bool{
	"my": true, "habit": true, "habits": true, "goal": true, "goals": true,
	"task": true, "tasks": true, "board": true, "boards": true, "journal": true,
	"finance": true, "finances": true, "money": true, "calendar": true,
	"status": true, "progress": true, "event": true, "events": true,
	"expense": true, "expenses": true, "budget": true, "mood": true,
	"today": true, "tomorrow": true, "week": true,
}

var greetingVocabulary = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "thanks": true,
	"thank": true, "you": true, "ok": true, "okay": true, "cool": true,
	"nice": true, "great": true, "bye": true, "goodbye": true, "good": true,
	"morning": true, "afternoon": true, "evening": true, "night": true,
	"sup": true, "howdy": true,
}

var identityPhrases = []string{"who are you", "what are you", "your name", "what can you do"}

// Fallback when a query looks action- or data-oriented but no module
// keyword matched: the broadly useful modules, so the model is never
// starved of tools on an under-matched query.
var defaultModules = []string{"boards", "habits", "analytics"}

type Selector struct {
	registry *Registry
}

func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

// Select returns the tool definitions relevant to a query, or nothing
// for purely conversational messages.
func (s *Selector) Select(query string) []Descriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	words := queryWords(q)

	if isGreeting(words) {
		return nil
	}

	if isIdentityQuestion(q, words) {
		return nil
	}

	hasAction := false
	hasData := false
	for _, word := range words {
		if actionVocabulary[word] {
			hasAction = true
		}
		if dataVocabulary[word] {
			hasData = true
		}
	}
	if !hasAction && !hasData {
		return nil
	}

	var defs []Descriptor
	matched := false
	for _, mk := range moduleKeywords {
		for _, keyword := range mk.keywords {
			if strings.Contains(q, keyword) {
				defs = append(defs, s.registry.ModuleDefinitions(mk.module)...)
				matched = true
				break
			}
		}
	}

	for _, keyword := range analyticsKeywords {
		if strings.Contains(q, keyword) {
			defs = append(defs, s.registry.ModuleDefinitions("analytics")...)
			matched = true
			break
		}
	}

	if !matched {
		for _, module := range defaultModules {
			defs = append(defs, s.registry.ModuleDefinitions(module)...)
		}
	}

	return defs
}

func queryWords(q string) []string {
	fields := strings.Fields(q)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, strings.Trim(f, ".,!?;:'\""))
	}
	return words
}

// isGreeting matches short acknowledgments like "hello" or "thanks!".
func isGreeting(words []string) bool {
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, word := range words {
		if !greetingVocabulary[word] {
			return false
		}
	}
	return true
}

// isIdentityQuestion matches questions about the assistant itself, unless
// they also ask about the user's data.
func isIdentityQuestion(q string, words []string) bool {
	identity := false
	for _, phrase := range identityPhrases {
		if strings.Contains(q, phrase) {
			identity = true
			break
		}
	}
	if !identity {
		return false
	}

	for _, word := range words {
		if dataVocabulary[word] {
			return false
		}
	}
	return true
}
