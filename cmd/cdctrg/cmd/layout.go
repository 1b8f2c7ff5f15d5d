package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cdctrg/bitstate"
	"github.com/sarchlab/cdctrg/frontend"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <board type>",
	Short: "Print the input and output layouts of a board type.",
	Long: "`layout InnerInside` lists every field of the packer input and " +
		"output words with its bit offset and width.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t, err := frontend.ParseBoardType(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		outerSP, _ := cmd.Flags().GetBool("outer-second-priority")
		opts := frontend.Options{OuterSecondPriority: outerSP}

		w := cmd.OutOrStdout()
		printLayout(w, frontend.InputLayout(t))
		fmt.Fprintln(w)
		printLayout(w, frontend.OutputLayout(t, opts))
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().Bool("outer-second-priority", false,
		"Include the second priority stage on OuterInside boards")
}

func printLayout(w io.Writer, l *bitstate.Layout) {
	fmt.Fprintf(w, "%s (%d bits)\n", l.Name(), l.Width())

	for _, f := range l.Fields() {
		offset, width, err := l.Offset(f.Name)
		if err != nil {
			panic(err)
		}

		fmt.Fprintf(w, "  %4d  %-24s %2d\n", offset, f.Name, width)
	}
}
