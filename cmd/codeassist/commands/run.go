package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/codeassist-ai/codeassist/internal/chat"
	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/fileio"
	"github.com/codeassist-ai/codeassist/internal/generate"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/output"
	"github.com/codeassist-ai/codeassist/internal/prompt"
	"github.com/codeassist-ai/codeassist/internal/session"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

var (
	runModel string
	runFiles []string
	runWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run [message...]",
	Short: "Start an interactive codeassist session",
	Long: `Start an interactive codeassist session. With a message argument the
session handles that one message and exits; without one it drops into a
REPL.

Examples:
  codeassist run "Explain goroutine leaks"
  codeassist run --model anthropic/claude-sonnet-4-20250514
  codeassist run --file main.go "Review this file"
  codeassist run --file main.go --watch`,
	RunE: runInteractive,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (provider/model format)")
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "Project file(s) to attach")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-attach files when they change on disk")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	appConfig, err := loadConfig()
	if err != nil {
		return err
	}
	if runModel != "" {
		appConfig.Model = runModel
	}

	ctx := context.Background()

	bus := event.NewBus()
	defer bus.Close()

	store := session.NewStore(session.WithBus(bus))
	models := model.NewManager(engine.NewLoader(appConfig), bus)

	orchestrator := chat.New(
		store,
		models,
		prompt.NewTranscript(),
		generate.NewCoordinator(bus),
		bus,
		chat.Config{
			MaxHistory:           appConfig.MaxHistory,
			ContextFiles:         appConfig.ContextFiles,
			ContextCharBudget:    appConfig.ContextCharBudget,
			ContextRefreshWindow: appConfig.ContextRefreshWindow,
		},
	)

	sink := output.NewCLI(os.Stdout)

	fmt.Printf("Loading model %s...\n", appConfig.Model)
	if err := models.Initialize(ctx); err != nil {
		return err
	}

	sessionID := orchestrator.StartSession()
	defer orchestrator.EndSession(sessionID)

	for _, path := range runFiles {
		n, err := attachPath(orchestrator, sessionID, path)
		if err != nil {
			return err
		}
		fmt.Printf("Attached %d file(s) from %s\n", n, path)
	}

	if runWatch && len(runFiles) > 0 {
		watcher, err := fileio.NewWatcher(func(path, content string) {
			orchestrator.RefreshFile(sessionID, filepath.Base(path), content)
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
		for _, path := range runFiles {
			// Watching applies to plain paths; glob matches are a
			// point-in-time attach.
			if isGlob(path) {
				continue
			}
			if err := watcher.Add(path); err != nil {
				return err
			}
		}
	}

	// One-shot mode: handle the message from the command line and exit.
	if message := strings.Join(args, " "); message != "" {
		_, err := orchestrator.HandleMessage(ctx, sessionID, message, nil, sink)
		return err
	}

	fmt.Println(`Type a message, "/file PATH" to attach a file, or "exit" to quit.`)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "exit", line == "quit":
			return nil
		case strings.HasPrefix(line, "/file "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/file "))
			n, err := attachPath(orchestrator, sessionID, path)
			if err != nil {
				sink.DisplayError(err)
				continue
			}
			fmt.Printf("Attached %d file(s) from %s\n", n, path)
		default:
			if _, err := orchestrator.HandleMessage(ctx, sessionID, line, nil, sink); err != nil {
				sink.DisplayError(err)
			}
		}
	}
	return scanner.Err()
}

// isGlob reports whether path contains glob metacharacters.
func isGlob(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// attachPath attaches the file at path, or every match when path is a glob
// pattern. Returns how many files were attached.
func attachPath(orchestrator *chat.Orchestrator, sessionID, path string) (int, error) {
	if isGlob(path) {
		base, pattern := doublestar.SplitPattern(path)
		files, err := fileio.NewLocal(base).ReadGlob(pattern)
		if err != nil {
			return 0, err
		}
		if len(files) == 0 {
			return 0, fmt.Errorf("no files match %s", path)
		}
		for _, f := range files {
			if err := orchestrator.AddFile(sessionID, f); err != nil {
				return 0, err
			}
		}
		return len(files), nil
	}

	content, err := fileio.NewLocal("").ReadFile(path)
	if err != nil {
		return 0, err
	}
	err = orchestrator.AddFile(sessionID, types.ProjectFile{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}
