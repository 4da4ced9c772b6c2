package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/martinacantaro/aurora/storage"
)

// The assistant can embed a fenced block proposing a batch of mutations
// for selective user approval:
//
//	---EXTRACT---
//	JOURNAL: Productive day, shipped the report.
//	MOOD: 4
//	NEW_TASKS:
//	- Buy milk
//	COMPLETE_TASKS:
//	- quarterly report
//	---END EXTRACT---
const (
	extractStartMarker = "---EXTRACT---"
	extractEndMarker   = "---END EXTRACT---"
)

// Extraction is a parsed batch of candidate mutations. Nothing is
// pre-approved: the caller toggles individual items, then Process
// applies only the approved ones.
type Extraction struct {
	Journal     string
	Mood        *int
	Energy      *int
	NewTasks    []string
	Completions []string
	Topics      []string
	Goals       string
	Decisions   string

	journalApproved     bool
	approvedTasks       map[int]bool
	approvedCompletions map[int]bool
}

// ParseExtraction scans assistant text for a fenced extraction block.
// Returns nil when no complete block is present; a malformed or empty
// block is never an error, just no extraction.
func ParseExtraction(text string) *Extraction {
	start := strings.Index(text, extractStartMarker)
	if start < 0 {
		return nil
	}
	rest := text[start+len(extractStartMarker):]
	end := strings.Index(rest, extractEndMarker)
	if end < 0 {
		return nil
	}

	ex := &Extraction{
		approvedTasks:       make(map[int]bool),
		approvedCompletions: make(map[int]bool),
	}

	// Line-oriented section parsing: a prefixed key sets the current
	// section; list-item lines accumulate into NEW_TASKS/COMPLETE_TASKS.
	var currentList *[]string
	for _, line := range strings.Split(rest[:end], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "JOURNAL:"):
			currentList = nil
			ex.Journal = strings.TrimSpace(strings.TrimPrefix(line, "JOURNAL:"))
		case strings.HasPrefix(line, "MOOD:"):
			currentList = nil
			ex.Mood = parseRating(strings.TrimPrefix(line, "MOOD:"))
		case strings.HasPrefix(line, "ENERGY:"):
			currentList = nil
			ex.Energy = parseRating(strings.TrimPrefix(line, "ENERGY:"))
		case strings.HasPrefix(line, "NEW_TASKS:"), strings.HasPrefix(line, "TASKS:"):
			currentList = &ex.NewTasks
		case strings.HasPrefix(line, "COMPLETE_TASKS:"):
			currentList = &ex.Completions
		case strings.HasPrefix(line, "TOPICS:"):
			currentList = nil
			for _, topic := range strings.Split(strings.TrimPrefix(line, "TOPICS:"), ",") {
				if topic = strings.TrimSpace(topic); topic != "" {
					ex.Topics = append(ex.Topics, topic)
				}
			}
		case strings.HasPrefix(line, "GOALS:"):
			currentList = nil
			ex.Goals = strings.TrimSpace(strings.TrimPrefix(line, "GOALS:"))
		case strings.HasPrefix(line, "DECISIONS:"):
			currentList = nil
			ex.Decisions = strings.TrimSpace(strings.TrimPrefix(line, "DECISIONS:"))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			if currentList != nil {
				if item := strings.TrimSpace(line[2:]); item != "" {
					*currentList = append(*currentList, item)
				}
			}
		}
	}

	return ex
}

// parseRating reads a 1-5 rating; anything non-numeric or out of range
// is discarded as nil rather than an error.
func parseRating(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 || v > 5 {
		return nil
	}
	return &v
}

// StripExtraction removes the fenced block from assistant text, leaving
// the conversational part for display.
func StripExtraction(text string) string {
	start := strings.Index(text, extractStartMarker)
	if start < 0 {
		return text
	}
	rest := text[start+len(extractStartMarker):]
	end := strings.Index(rest, extractEndMarker)
	if end < 0 {
		return text
	}
	return strings.TrimSpace(text[:start] + rest[end+len(extractEndMarker):])
}

// ToggleJournal flips approval of the journal/mood/energy bundle.
func (ex *Extraction) ToggleJournal() {
	ex.journalApproved = !ex.journalApproved
}

// ToggleNewTask flips approval of a new-task index. Out-of-range
// indices are ignored; toggling never grows the list.
func (ex *Extraction) ToggleNewTask(i int) {
	if i < 0 || i >= len(ex.NewTasks) {
		return
	}
	ex.approvedTasks[i] = !ex.approvedTasks[i]
}

// ToggleCompletion flips approval of a completion-descriptor index.
func (ex *Extraction) ToggleCompletion(i int) {
	if i < 0 || i >= len(ex.Completions) {
		return
	}
	ex.approvedCompletions[i] = !ex.approvedCompletions[i]
}

func (ex *Extraction) JournalApproved() bool { return ex.journalApproved }

func (ex *Extraction) TaskApproved(i int) bool { return ex.approvedTasks[i] }

func (ex *Extraction) CompletionApproved(i int) bool { return ex.approvedCompletions[i] }

// Process applies the approved items: journal upsert for today (partial
// update, absent fields untouched), approved tasks created in the first
// column of the first board, approved completions resolved by word
// overlap against open tasks (first match wins). Approvals are cleared
// afterwards, so re-processing performs no mutations.
func (ex *Extraction) Process(store *storage.Store, today string) error {
	if ex.journalApproved {
		var content *string
		if ex.Journal != "" {
			content = &ex.Journal
		}
		if content != nil || ex.Mood != nil || ex.Energy != nil {
			if _, err := store.UpsertJournalEntry(today, content, ex.Mood, ex.Energy); err != nil {
				return fmt.Errorf("failed to save journal entry: %w", err)
			}
		}
	}

	if len(ex.approvedTasks) > 0 {
		column, err := store.DefaultTaskColumn()
		if err != nil {
			return fmt.Errorf("no destination for new tasks: %w", err)
		}
		for i, title := range ex.NewTasks {
			if !ex.approvedTasks[i] {
				continue
			}
			if _, err := store.CreateTask(column.ID, title, "", ""); err != nil {
				return fmt.Errorf("failed to create task %q: %w", title, err)
			}
		}
	}

	if len(ex.approvedCompletions) > 0 {
		open, err := store.ListOpenTasks()
		if err != nil {
			return err
		}
		for i, descriptor := range ex.Completions {
			if !ex.approvedCompletions[i] {
				continue
			}
			for _, task := range open {
				if titleMatches(task.Title, descriptor) {
					if err := store.CompleteTask(task.ID); err != nil {
						return fmt.Errorf("failed to complete task %q: %w", task.Title, err)
					}
					break
				}
			}
		}
	}

	ex.journalApproved = false
	ex.approvedTasks = make(map[int]bool)
	ex.approvedCompletions = make(map[int]bool)

	return nil
}

// titleMatches resolves a natural-language task descriptor to a stored
// title by word-set overlap: a match needs at least 2 common words, or
// common words covering half of the smaller word set, or one string
// containing the other.
func titleMatches(title, descriptor string) bool {
	a := strings.ToLower(title)
	b := strings.ToLower(descriptor)

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	aWords := wordSet(a)
	bWords := wordSet(b)

	common := 0
	for word := range bWords {
		if aWords[word] {
			common++
		}
	}
	if common == 0 {
		return false
	}

	if common >= 2 {
		return true
	}

	smaller := len(aWords)
	if len(bWords) < smaller {
		smaller = len(bWords)
	}
	return common*2 >= smaller
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		set[word] = true
	}
	return set
}
