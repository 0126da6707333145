package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/spf13/cobra"
)

var (
	interpretName     string
	interpretRoles    []string
	interpretChannel  string
	interpretMentions []string
	interpretJSON     bool
)

var interpretCmd = &cobra.Command{
	Use:   "interpret <meddelande>",
	Short: "Tolkar ett meddelande och skriver ut svaret",
	Long: `Kör ett meddelande genom tolken utan att starta gatewayen och visar
hur det tolkades.

Exempel:
  robbot interpret "vad blir det för lunch imorgon?"
  robbot interpret --mention bo "rank upp"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInterpret,
}

func init() {
	rootCmd.AddCommand(interpretCmd)
	interpretCmd.Flags().StringVar(&interpretName, "name", "cli", "Avsändarens namn")
	interpretCmd.Flags().StringSliceVar(&interpretRoles, "roles", nil, "Avsändarens roller")
	interpretCmd.Flags().StringVar(&interpretChannel, "channel", "", "Kanal (default: gateway.default_channel)")
	interpretCmd.Flags().StringSliceVar(&interpretMentions, "mention", nil, "Nämnda medlemmar")
	interpretCmd.Flags().BoolVar(&interpretJSON, "json", false, "Skriv ut resultatet som JSON")
}

type interpretResult struct {
	Pronouns    []string `json:"pronouns"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Response    string   `json:"response"`
	Error       string   `json:"error,omitempty"`
	Interpret   string   `json:"interpret_duration"`
	Respond     string   `json:"respond_duration"`
}

func runInterpret(cmd *cobra.Command, args []string) error {
	cfg, b, err := buildBot()
	if err != nil {
		printError("kunde inte starta", err)
		return err
	}
	defer b.Close()

	channel := interpretChannel
	if channel == "" {
		channel = cfg.Gateway.DefaultChannel
	}

	author := interpreter.Member{ID: interpretName, Name: interpretName, Roles: interpretRoles}
	msg := interpreter.NewMessage(strings.Join(args, " "), author)
	msg.ChannelID = channel
	for _, m := range interpretMentions {
		msg.Mentions = append(msg.Mentions, interpreter.Member{ID: m, Name: m})
	}

	start := time.Now()
	in := b.Processor.Process(msg)
	interpreted := time.Since(start)

	start = time.Now()
	text, err := in.Respond()
	responded := time.Since(start)
	if err == nil {
		err = in.Err()
	}

	res := interpretResult{
		Pronouns:    in.Pronouns().Strings(),
		Category:    in.Category().String(),
		Subcategory: in.Subcategory().String(),
		Response:    text,
		Interpret:   interpreted.String(),
		Respond:     responded.String(),
	}
	if err != nil {
		res.Error = err.Error()
	}

	if interpretJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Printf("Pronomen:     %s\n", in.Pronouns())
	fmt.Printf("Kategori:     %s\n", res.Category)
	fmt.Printf("Underkategori: %s\n", res.Subcategory)
	fmt.Printf("Tolkning:     %s\n", res.Interpret)
	fmt.Printf("Svar:         %s\n", res.Respond)
	if res.Error != "" {
		fmt.Printf("Fel:          %s\n", res.Error)
	}
	fmt.Println()
	fmt.Println(text)
	return nil
}
