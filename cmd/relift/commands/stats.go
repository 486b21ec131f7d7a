package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gophersatwork/relift"
)

func (c *CLI) newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [flags]",
		Short: "Show cache entry statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, _ := cmd.Flags().GetStringArray("dir")
			cacheRoot, _ := cmd.Flags().GetString("cache-root")
			listEntries, _ := cmd.Flags().GetBool("entries")

			abs, err := absAll(dirs)
			if err != nil {
				return err
			}

			store := relift.NewStore(
				relift.WithStoreCacheRoot(cacheRoot),
				relift.WithStoreLogger(c.logger),
			)
			stats, err := store.Stats(abs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "total size: %d bytes\n", stats.TotalSize)
			if stats.Entries > 0 {
				fmt.Fprintf(out, "oldest: %s ago\n", stats.OldestEntry.Round(0))
				fmt.Fprintf(out, "newest: %s ago\n", stats.NewestEntry.Round(0))
			}

			if listEntries {
				entries, err := store.Scan(abs)
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s\t%s\t%d bytes\n", e.Path, e.ConfigTag, e.Size)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayP("dir", "d", []string{"."}, "Directory to scan under (repeatable)")
	cmd.Flags().String("cache-root", "", "Cache root to scan instead of colocated markers")
	cmd.Flags().Bool("entries", false, "List individual cache entries")
	return cmd
}
