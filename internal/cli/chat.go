package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/watson-stark/internal/channel"
)

var (
	chatUser    string
	chatName    string
	chatChannel string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send one message from the terminal",
	Long: `Answer a single message exactly as the bot would, including tool calls
and conversation history. Slash commands work too.

Reminders created here are pushed through --channel, so --user should be
an ID that channel can reach.

Examples:
  watson chat "add buy milk to my todos"
  watson chat --user 123456789 --name Ada "remind me to call mom in 2 hours"
  watson chat /stats`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "cli", "user ID to act for")
	chatCmd.Flags().StringVar(&chatName, "name", "", "display name")
	chatCmd.Flags().StringVar(&chatChannel, "channel", channel.Telegram, "channel for reminders (telegram or twilio)")
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatChannel != channel.Telegram && chatChannel != channel.WhatsApp {
		return fmt.Errorf("unsupported channel: %s", chatChannel)
	}
	ctx := cmd.Context()

	b, err := newBot(ctx, newStores(dbClient))
	if err != nil {
		return err
	}

	reply := b.HandleMessage(ctx, channel.Inbound{
		Channel:  chatChannel,
		ChatID:   chatUser,
		UserID:   chatUser,
		UserName: chatName,
		Text:     strings.Join(args, " "),
	})
	fmt.Println(reply)
	return nil
}
