package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

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
)

var analyzeModel string

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "One-shot refactoring review of a source file",
	Long: `Read a source file and stream a refactoring review of it: code
smells, SOLID violations, and a suggested improved version.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeModel, "model", "m", "", "Model to use (provider/model format)")
}

// languageForExt maps file extensions to the language named in the prompt.
var languageForExt = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".rb":   "Ruby",
	".rs":   "Rust",
	".c":    "C",
	".cpp":  "C++",
	".cs":   "C#",
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	appConfig, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzeModel != "" {
		appConfig.Model = analyzeModel
	}

	path := args[0]
	content, err := fileio.NewLocal("").ReadFile(path)
	if err != nil {
		return err
	}

	language := languageForExt[strings.ToLower(filepath.Ext(path))]
	if language == "" {
		language = "the source"
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
		chat.DefaultConfig(),
	)

	fmt.Printf("Loading model %s...\n", appConfig.Model)
	if err := models.Initialize(ctx); err != nil {
		return err
	}

	sessionID := orchestrator.StartSession()
	defer orchestrator.EndSession(sessionID)

	sink := output.NewCLI(cmd.OutOrStdout())
	_, err = orchestrator.HandleMessage(ctx, sessionID, prompt.RefactorSeed(language, content), nil, sink)
	return err
}
