package cmd

import (
	"io"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/internal/tui/chatclient"
	"github.com/spf13/cobra"
)

var (
	chatName    string
	chatRoles   []string
	chatChannel string
	chatNoSave  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Startar en lokal chatt mot tolken",
	Long: `Startar en terminalchatt som kör tolken i samma process.

Under varje svar visas hur meddelandet tolkades.

Tangenter:
  Enter       Skicka meddelande
  ↑/↓         Historik
  Ctrl+D      Visa/dölj tolkning
  Ctrl+L      Rensa chatten
  PgUp/PgDn   Scrolla
  Ctrl+C      Avsluta`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatName, "name", "elev", "Ditt namn i chatten")
	chatCmd.Flags().StringSliceVar(&chatRoles, "roles", nil, "Dina roller, t.ex. teacher")
	chatCmd.Flags().StringVar(&chatChannel, "channel", "", "Kanal (default: gateway.default_channel)")
	chatCmd.Flags().BoolVar(&chatNoSave, "no-history", false, "Spara inte inmatningshistorik")
}

func runChat(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal
	logOutput = io.Discard

	cfg, b, err := buildBot()
	if err != nil {
		printError("kunde inte starta", err)
		return err
	}
	defer b.Close()

	channel := chatChannel
	if channel == "" {
		channel = cfg.Gateway.DefaultChannel
	}
	historyFile := chatclient.DefaultHistoryFile()
	if chatNoSave {
		historyFile = ""
	}

	return chatclient.Run(chatclient.Config{
		Processor:   b.Processor,
		Author:      interpreter.Member{ID: chatName, Name: chatName, Roles: chatRoles},
		Channel:     channel,
		HistoryFile: historyFile,
	})
}
