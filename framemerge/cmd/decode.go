package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/framemerge/runctrl"
)

var decodeCmd = &cobra.Command{
	Use:   "decode-cmd WORD|STATE...",
	Short: "Decode run-control command words, or encode state names.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		for _, arg := range args {
			line, err := describeCommand(arg)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.OutOrStdout(), line)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

// describeCommand decodes a numeric command word, or encodes a state name.
func describeCommand(arg string) (string, error) {
	if v, err := strconv.ParseUint(arg, 0, 16); err == nil {
		s := runctrl.Decode(runctrl.Command(v))
		return fmt.Sprintf("0x%03x -> %s (forces reset: %t)",
			v, s, s.ForcesReset()), nil
	}

	s, err := runctrl.ParseState(arg)
	if err != nil {
		return "", err
	}

	cmd, err := runctrl.Encode(s)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s -> 0x%03x", s, uint16(cmd)), nil
}
