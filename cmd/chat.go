package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/history"
)

var (
	chatSession string
	chatUser    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Starts an interactive conversation. History and confirmation state are
carried between turns, so follow-ups like "yes" or "just the procedure"
work as in the web client. With --session the conversation is stored and
resumed from the database.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "persist the conversation under this session id")
	chatCmd.Flags().StringVar(&chatUser, "user", "anonymous", "owner of the persisted session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	var turns []assistant.Turn
	state := assistant.State{}
	if chatSession != "" {
		sess, err := a.history.EnsureSession(ctx, chatSession, chatUser)
		if err != nil {
			return fmt.Errorf("opening session %s: %w", chatSession, err)
		}
		msgs, err := a.history.GetMessages(ctx, sess.ID, 0)
		if err != nil {
			return err
		}
		turns = history.Turns(msgs)
		if len(turns) > 0 {
			state = sess.State
		}
		fmt.Printf("Session %s (%d previous messages)\n", sess.ID, len(msgs))
	}
	fmt.Printf("Ask about %s. Ctrl+D to quit.\n\n", cfg.Domain)

	prompt := promptui.Prompt{Label: "You"}
	for {
		query, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		turnCtx, cancel := withTimeout(ctx, cfg)
		res, err := a.engine.Answer(turnCtx, query, turns, state)
		cancel()
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			continue
		}

		fmt.Println()
		printResult(res)
		fmt.Println()

		turns = append(turns,
			assistant.Turn{Role: assistant.RoleUser, Content: query},
			assistant.Turn{Role: assistant.RoleAssistant, Content: res.Answer})
		state = res.State

		if res.UnansweredQuery != "" {
			if _, err := a.backlog.Record(ctx, res.UnansweredQuery); err != nil {
				log.Warn().Err(err).Msg("recording knowledge gap failed")
			}
		}
		if chatSession != "" {
			if err := saveChatTurn(cmd, a, query, res); err != nil {
				log.Warn().Err(err).Str("session", chatSession).Msg("saving turn failed")
			}
		}
	}
}

func saveChatTurn(cmd *cobra.Command, a *app, query string, res *assistant.Result) error {
	ctx := cmd.Context()
	if _, err := a.history.AddMessage(ctx, history.Message{
		SessionID: chatSession,
		Role:      assistant.RoleUser,
		Content:   query,
	}); err != nil {
		return err
	}
	if _, err := a.history.AddMessage(ctx, history.Message{
		SessionID:   chatSession,
		Role:        assistant.RoleAssistant,
		Content:     res.Answer,
		Sources:     res.Sources,
		IsRunbook:   res.IsRunbook,
		RunbookType: res.RunbookType,
	}); err != nil {
		return err
	}
	return a.history.SaveState(ctx, chatSession, res.State)
}
