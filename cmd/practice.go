package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ThePeeKayy/resumate-orbital/internal/logger"
	"github.com/ThePeeKayy/resumate-orbital/internal/models"
	"github.com/ThePeeKayy/resumate-orbital/internal/practice"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptAnswer    = "Answer this question"
	PromptSkip      = "Skip to the next question"
	PromptQuit      = "Quit the session"
	PromptSave      = "Save the answer"
	PromptDiscard   = "Discard and answer again"
	PromptCustomTag = "Add a custom tag"
)

var errExit = errors.New("exit requested")

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interactive practice session in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runPractice(cmd)
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)

	practiceCmd.Flags().StringP("user", "u", "", "id of the practicing user")
	practiceCmd.Flags().StringP("session", "s", "", "resume an existing session instead of creating one")
	practiceCmd.Flags().String("job", "", "target a tracked job for job-specific questions")
	practiceCmd.Flags().StringSlice("categories", []string{string(models.DefaultCategory)}, "question categories for a new session")
}

// runPractice drives the capture flow in the terminal: the same
// workflow the HTTP API exposes, but with the turn state held in
// process instead of in the browser.
func runPractice(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	userID := cmd.Flag("user").Value.String()
	if userID == "" {
		logger.Fatal("a user id is required", zap.String("hint", "pass --user"))
	}

	st, err := newStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting to the document store", zap.Error(err))
	}
	defer st.Close(context.Background())

	assistant, err := newAssistant(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the ai assistant", zap.Error(err))
	}

	workflow := practice.NewWorkflow(practiceConfig(config), &practice.Deps{
		Store:     st,
		Assistant: assistant,
		Logger:    logger,
	})

	sessionID := cmd.Flag("session").Value.String()
	if sessionID == "" {
		categories := parseCategories(cmd)

		record, err := st.CreateSession(ctx, userID, categories, cmd.Flag("job").Value.String())
		if err != nil {
			logger.Fatal("creating a session", zap.Error(err))
		}
		sessionID = record.ID

		logger.Info("created a new session", zap.String("session_id", sessionID))
	}

	session, err := workflow.Bootstrap(ctx, sessionID, userID)
	if err != nil {
		logger.Fatal("loading the session", zap.Error(err))
	}

	for !session.Completed() {
		if err := runTurn(ctx, session); err != nil {
			if errors.Is(err, errExit) {
				logger.Info("exiting", zap.String("reason", "quit from prompt"))
				return
			}
			logger.Fatal("practice turn failed", zap.Error(err))
		}
	}

	fmt.Println("Session complete. Nice work!")
}

func parseCategories(cmd *cobra.Command) []models.QuestionCategory {
	raw, _ := cmd.Flags().GetStringSlice("categories")

	categories := make([]models.QuestionCategory, 0, len(raw))
	seen := make(map[models.QuestionCategory]struct{})
	for _, name := range raw {
		category := models.ParseCategory(name)
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}

	return categories
}

// runTurn walks one question from answer to advancement.
func runTurn(ctx context.Context, session *practice.Session) error {
	turn := session.NewTurn()
	position, total := session.Position()

	fmt.Printf("\nQuestion %d of %d [%s]\n%s\n\n", position, total, turn.Question().Category, turn.Question().Text)

	actionPrompt := promptui.Select{
		Label: "What next?",
		Items: []string{PromptAnswer, PromptSkip, PromptQuit},
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptQuit:
		return errExit
	case PromptSkip:
		_, err := turn.Skip(ctx)
		return err
	}

	answerPrompt := promptui.Prompt{Label: "Your answer"}
	answer, err := answerPrompt.Run()
	if err != nil {
		return err
	}

	if err := turn.SetAnswer(answer); err != nil {
		return err
	}

	if err := turn.RequestFeedback(ctx); err != nil {
		// A recovered failure still reaches tagging with the fallback
		// text; anything else is a real error.
		if turn.State() != practice.StateTagging {
			return err
		}
		fmt.Println("Feedback service unavailable, showing generic guidance.")
	}

	fmt.Printf("\nFeedback:\n%s\n\n", turn.Feedback())

	if err := editTags(turn); err != nil {
		if errors.Is(err, errRestart) {
			return runTurn(ctx, session)
		}
		return err
	}

	answerRecord, err := turn.Save(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Saved answer with tags: %s\n", strings.Join(answerRecord.Tags, ", "))

	_, err = turn.Next(ctx)
	return err
}

var errRestart = errors.New("restart turn")

// editTags loops a tag menu until the user saves or discards. Selected
// tags are marked; choosing a tag toggles it.
func editTags(turn *practice.Turn) error {
	for {
		selected := make(map[string]bool)
		for _, tag := range turn.SelectedTags() {
			selected[tag] = true
		}

		items := make([]string, 0, len(turn.SuggestedTags())+3)
		for _, tag := range turn.SuggestedTags() {
			mark := "[ ]"
			if selected[tag] {
				mark = "[x]"
			}
			items = append(items, fmt.Sprintf("%s %s", mark, tag))
		}
		for _, tag := range turn.SelectedTags() {
			if !containsTag(turn.SuggestedTags(), tag) {
				items = append(items, fmt.Sprintf("[x] %s", tag))
			}
		}

		tagPrompt := promptui.Select{
			Label: "Toggle tags, then save",
			Items: append(items, PromptCustomTag, PromptSave, PromptDiscard),
		}

		_, choice, err := tagPrompt.Run()
		if err != nil {
			return err
		}

		switch choice {
		case PromptSave:
			return nil
		case PromptDiscard:
			if err := turn.Discard(); err != nil {
				return err
			}
			return errRestart
		case PromptCustomTag:
			customPrompt := promptui.Prompt{Label: "New tag"}
			tag, err := customPrompt.Run()
			if err != nil {
				return err
			}
			if err := turn.AddCustomTag(tag); err != nil {
				return err
			}
		default:
			tag := strings.TrimPrefix(strings.TrimPrefix(choice, "[x] "), "[ ] ")
			if err := turn.ToggleTag(tag); err != nil {
				return err
			}
		}
	}
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
