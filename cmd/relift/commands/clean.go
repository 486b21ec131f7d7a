package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gophersatwork/relift"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [flags]",
		Short: "Remove cache marker directories or prune old entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, _ := cmd.Flags().GetStringArray("dir")
			cacheRoot, _ := cmd.Flags().GetString("cache-root")
			olderThan, _ := cmd.Flags().GetDuration("older-than")

			abs, err := absAll(dirs)
			if err != nil {
				return err
			}

			store := relift.NewStore(
				relift.WithStoreCacheRoot(cacheRoot),
				relift.WithStoreLogger(c.logger),
			)

			if cmd.Flags().Changed("older-than") {
				n, err := store.Prune(abs, olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned %d cache entries\n", n)
				return nil
			}

			n, err := store.Clear(abs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache directories\n", n)
			return nil
		},
	}
	cmd.Flags().StringArrayP("dir", "d", []string{"."}, "Directory to clean under (repeatable)")
	cmd.Flags().String("cache-root", "", "Cache root to clean instead of colocated markers")
	cmd.Flags().Duration("older-than", 0, "Prune entries older than this duration instead of removing everything")
	return cmd
}

// absAll normalizes the flag directories to absolute paths.
func absAll(dirs []string) ([]string, error) {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("bad directory %q: %w", d, err)
		}
		out = append(out, abs)
	}
	return out, nil
}
