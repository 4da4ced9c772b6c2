package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/martinacantaro/aurora/chat"
	"github.com/martinacantaro/aurora/config"
	"github.com/martinacantaro/aurora/llm"
	"github.com/martinacantaro/aurora/storage"
	"github.com/martinacantaro/aurora/tools"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "No API key configured. Set AURORA_API_KEY or ANTHROPIC_API_KEY.")
		os.Exit(1)
	}

	logger, err := newLogger(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	registry, err := tools.NewRegistry(logger,
		tools.NewBoardsModule(store),
		tools.NewHabitsModule(store),
		tools.NewGoalsModule(store),
		tools.NewJournalModule(store),
		tools.NewFinanceModule(store),
		tools.NewCalendarModule(store),
		tools.NewAnalyticsModule(store),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build tool registry: %v\n", err)
		os.Exit(1)
	}

	client, err := llm.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		os.Exit(1)
	}

	classifier := llm.NewClassifier(client, cfg.ClassifierModel, logger)
	selector := tools.NewSelector(registry)
	orchestrator := chat.NewOrchestrator(store, client, classifier, registry, selector, logger)
	orchestrator.SetSystemPrompt(cfg.DefaultSystemPrompt)

	streaming := config.CheckStream()
	if streaming {
		orchestrator.SetStreamHandler(func(text string) {
			fmt.Print(text)
		})
	}

	conv, err := store.CreateConversation("Chat " + Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create conversation: %v\n", err)
		os.Exit(1)
	}
	session := chat.NewSession(conv.ID)

	fmt.Printf("aurora %s — type a message, /help for commands\n", Version)
	repl(orchestrator, session, streaming)
}

func newLogger(dataDir string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{filepath.Join(dataDir, "aurora.log")}
	zapCfg.ErrorOutputPaths = zapCfg.OutputPaths
	if config.CheckDebug() {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zapCfg.Build()
}

func repl(orchestrator *chat.Orchestrator, session *chat.Session, streaming bool) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	ctx := context.Background()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, orchestrator, session, line, streaming); quit {
				return
			}
			continue
		}

		result, err := orchestrator.SendMessage(ctx, session, line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		printResult(result, streaming)
	}
}

func handleCommand(ctx context.Context, orchestrator *chat.Orchestrator, session *chat.Session, line string, streaming bool) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`Commands:
  /confirm            run the pending tool call
  /cancel             discard the pending tool call
  /extract            show the pending extraction
  /approve journal    toggle the journal/mood/energy bundle
  /approve task N     toggle new-task N
  /approve done N     toggle completion N
  /apply              apply the approved extraction items
  /dismiss            discard the pending extraction
  /quit               exit`)

	case "/confirm":
		result, err := orchestrator.Confirm(ctx, session)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		printResult(result, streaming)

	case "/cancel":
		if err := orchestrator.Cancel(session); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Println("cancelled")

	case "/extract":
		printExtraction(session.PendingExtraction())

	case "/approve":
		toggleApproval(session.PendingExtraction(), fields[1:])

	case "/apply":
		if err := orchestrator.ProcessExtraction(session); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Println("applied")

	case "/dismiss":
		session.DismissExtraction()
		fmt.Println("dismissed")

	default:
		fmt.Printf("unknown command %s (try /help)\n", fields[0])
	}
	return false
}

func toggleApproval(ex *chat.Extraction, args []string) {
	if ex == nil {
		fmt.Println("no pending extraction")
		return
	}
	if len(args) == 0 {
		fmt.Println("usage: /approve journal | task N | done N")
		return
	}

	switch args[0] {
	case "journal":
		ex.ToggleJournal()
	case "task", "done":
		if len(args) < 2 {
			fmt.Println("usage: /approve " + args[0] + " N")
			return
		}
		i, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("index must be a number")
			return
		}
		if args[0] == "task" {
			ex.ToggleNewTask(i)
		} else {
			ex.ToggleCompletion(i)
		}
	default:
		fmt.Println("usage: /approve journal | task N | done N")
		return
	}
	printExtraction(ex)
}

func printResult(result *chat.TurnResult, streamed bool) {
	if streamed {
		// Assistant text already went to the terminal as it arrived;
		// just close the line.
		for _, msg := range result.Messages {
			if msg.Role == llm.RoleAssistant && msg.Content != "" {
				fmt.Println()
				break
			}
		}
	} else {
		for _, msg := range result.Messages {
			if msg.Role != llm.RoleAssistant {
				continue
			}
			fmt.Println(chat.StripExtraction(msg.Content))
		}
	}

	if pending := result.PendingConfirmation; pending != nil {
		if pending.Destructive {
			fmt.Printf("\nDESTRUCTIVE tool call awaiting approval: %s %v\n", pending.ToolName, pending.ToolInput)
			fmt.Println("This permanently deletes data. Use /confirm to run it or /cancel to discard it.")
		} else {
			fmt.Printf("\nTool call awaiting approval: %s %v\n", pending.ToolName, pending.ToolInput)
			fmt.Println("Use /confirm to run it or /cancel to discard it.")
		}
	}

	if result.PendingExtraction != nil {
		fmt.Println("\nThe assistant proposed updates. Use /extract to review them.")
	}
}

func printExtraction(ex *chat.Extraction) {
	if ex == nil {
		fmt.Println("no pending extraction")
		return
	}

	if ex.Journal != "" || ex.Mood != nil || ex.Energy != nil {
		fmt.Printf("[%s] journal bundle:\n", checkbox(ex.JournalApproved()))
		if ex.Journal != "" {
			fmt.Printf("      journal: %s\n", ex.Journal)
		}
		if ex.Mood != nil {
			fmt.Printf("      mood: %d\n", *ex.Mood)
		}
		if ex.Energy != nil {
			fmt.Printf("      energy: %d\n", *ex.Energy)
		}
	}

	for i, title := range ex.NewTasks {
		fmt.Printf("[%s] task %d: %s\n", checkbox(ex.TaskApproved(i)), i, title)
	}
	for i, descriptor := range ex.Completions {
		fmt.Printf("[%s] done %d: %s\n", checkbox(ex.CompletionApproved(i)), i, descriptor)
	}
	if len(ex.Topics) > 0 {
		fmt.Printf("topics: %s\n", strings.Join(ex.Topics, ", "))
	}
	if ex.Goals != "" {
		fmt.Printf("goals: %s\n", ex.Goals)
	}
	if ex.Decisions != "" {
		fmt.Printf("decisions: %s\n", ex.Decisions)
	}
}

func checkbox(approved bool) string {
	if approved {
		return "x"
	}
	return " "
}
