package cmd

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cdctrg/frontend"
)

var errBadHitFlag = errors.New("hit must be given as wire:timing")

var packCmd = &cobra.Command{
	Use:   "pack <board type>",
	Short: "Pack one board tick from hand-written wire timings.",
	Long: "`pack InnerInside --hit 16:3 --hit 31:0` marks board wires 16 " +
		"and 31 as hit with fine timings 3 and 0 and prints the packed " +
		"output word.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t, err := frontend.ParseBoardType(args[0])
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		hitFlags, _ := cmd.Flags().GetStringArray("hit")
		outerSP, _ := cmd.Flags().GetBool("outer-second-priority")
		showInput, _ := cmd.Flags().GetBool("input")

		hits, err := parseHits(hitFlags)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		in, err := frontend.Input(t, hits)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		out, err := frontend.Pack(t, in,
			frontend.Options{OuterSecondPriority: outerSP})
		if err != nil {
			log.Fatalf("Error packing: %v", err)
		}

		w := cmd.OutOrStdout()
		if showInput {
			fmt.Fprint(w, in.Dump())
		}
		fmt.Fprint(w, out.Dump())
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringArray("hit", nil, "A hit wire as wire:timing")
	packCmd.Flags().Bool("outer-second-priority", false,
		"Include the second priority stage on OuterInside boards")
	packCmd.Flags().Bool("input", false, "Also print the input word")
}

// parseHits turns wire:timing pairs into the hit map of frontend.Input.
func parseHits(flags []string) (map[int]uint8, error) {
	hits := make(map[int]uint8, len(flags))

	for _, f := range flags {
		w, t, ok := strings.Cut(f, ":")
		if !ok {
			return nil, errors.Wrapf(errBadHitFlag, "%q", f)
		}

		wireIndex, err := strconv.Atoi(w)
		if err != nil {
			return nil, errors.Wrapf(errBadHitFlag, "%q", f)
		}

		fine, err := strconv.ParseUint(t, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(errBadHitFlag, "%q", f)
		}

		hits[wireIndex] = uint8(fine)
	}

	return hits, nil
}
