package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hangarhq/aeromesh"
	"github.com/hangarhq/aeromesh/core"
	"github.com/hangarhq/aeromesh/logging"
)

var (
	chatAgent        string
	chatTenant       string
	chatUser         string
	chatConversation string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to an agent and print the response",
	Long: `Submit a single request and wait for the terminal result. Without
--agent the tenant's default agent (normally the orchestrator) handles
the message.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Logs go to stderr so the response stays clean on stdout.
		logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, os.Stderr)

		mesh, err := aeromesh.New(func(o *aeromesh.Options) {
			o.Config = *cfg
			o.Logger = logger
		})
		if err != nil {
			return err
		}
		defer mesh.Close()

		agentType := chatAgent
		if agentType == "" {
			ten, err := mesh.Tenants().Get(chatTenant)
			if err != nil {
				return err
			}
			agentType = ten.DefaultAgent
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		start := time.Now()
		task, err := mesh.Submit(ctx, agentType, core.Request{
			Message:        strings.Join(args, " "),
			TenantID:       chatTenant,
			ConversationID: chatConversation,
			UserID:         chatUser,
		})
		if err != nil {
			return err
		}

		statusLine := fmt.Sprintf("%s finished %s in %.2fs (task %s)", agentType, task.Status, time.Since(start).Seconds(), task.ID)
		switch task.Status {
		case core.StatusCompleted:
			printStatus(color.GreenString("✓"), statusLine)
		case core.StatusFailed:
			printStatus(color.RedString("✗"), statusLine)
		default:
			printStatus(color.YellowString("!"), statusLine)
		}
		fmt.Println()
		fmt.Println(renderResponse(task))
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatAgent, "agent", "", "Agent type to address (default: the tenant's default agent)")
	chatCmd.Flags().StringVar(&chatTenant, "tenant", "default", "Tenant to submit under")
	chatCmd.Flags().StringVar(&chatUser, "user", "cli", "User identifier recorded on the task")
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "Conversation identifier (limits to one active task)")
}

func printStatus(symbol, message string) {
	fmt.Printf("%s %s\n", symbol, message)
}

// renderResponse turns the terminal task into the text shown to the user.
func renderResponse(t *core.Task) string {
	switch t.Status {
	case core.StatusCompleted:
		art, ok := t.PrimaryArtifact()
		if !ok {
			return "The task completed without a response artifact."
		}
		switch c := art.Content.(type) {
		case string:
			return c
		case map[string]any:
			if s, ok := c["summary"].(string); ok {
				return s
			}
		}
		return fmt.Sprintf("%v", art.Content)
	case core.StatusFailed:
		if t.Error != nil {
			return "The task failed: " + t.Error.Message
		}
		return "The task failed."
	case core.StatusCanceled:
		return "The task was canceled."
	default:
		return string(t.Status)
	}
}
