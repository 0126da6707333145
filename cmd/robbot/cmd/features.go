package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/msto63/robbot/internal/gateway"
	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Listar registrerade funktioner och schemalagda jobb",
	Args:  cobra.NoArgs,
	RunE:  runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	_, b, err := buildBot()
	if err != nil {
		printError("kunde inte starta", err)
		return err
	}
	defer b.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KATEGORI\tPRONOMEN\tNYCKELORD\tUNDERKATEGORIER")
	for _, f := range gateway.DescribeFeatures(b.Processor) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			f.Category,
			strings.Join(f.Pronouns, ","),
			strings.Join(f.Keywords, ","),
			strings.Join(f.Subcategories, ","),
		)
	}
	w.Flush()

	jobs := b.Scheduler.Jobs()
	if len(jobs) == 0 {
		return nil
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOBB\tSCHEMA\tNÄSTA")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", j.ID, j.Schedule, j.Next.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
