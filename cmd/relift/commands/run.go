package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gophersatwork/relift"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] (FILE | -m MODULE) [args...]",
		Short: "Run a Go source file or module, rewriting managed modules on load",
		Long: `Run a Go source file through the yaegi interpreter. Source files under
the managed directories (default: the target's directory) are rewritten by
the configured rules before execution; rewritten text is cached next to the
source in ` + relift.CacheDirName + ` so repeat runs skip the rewrite.

With -m, the target is a module name resolved against the managed
directories (default: the current directory) instead of a file path, and
every positional argument is passed to the module.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, _ := cmd.Flags().GetStringArray("dir")
			fix, _ := cmd.Flags().GetStringArray("fix")
			nofix, _ := cmd.Flags().GetStringArray("nofix")
			cacheRoot, _ := cmd.Flags().GetString("cache-root")
			module, _ := cmd.Flags().GetString("module")

			var target string
			scriptArgs := args
			argv0 := module
			if module == "" {
				if len(args) == 0 {
					return fmt.Errorf("requires a FILE argument or -m MODULE")
				}
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("bad target %q: %w", args[0], err)
				}
				if info, err := os.Stat(abs); err != nil || info.IsDir() {
					return fmt.Errorf("target not found: %s", args[0])
				}
				target = abs
				argv0 = args[0]
				scriptArgs = args[1:]
				if len(dirs) == 0 {
					dirs = []string{filepath.Dir(abs)}
				}
			} else if len(dirs) == 0 {
				dirs = []string{"."}
			}

			executor := relift.NewYaegiExecutor(
				relift.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
				relift.WithArgs(append([]string{argv0}, scriptArgs...)...),
				relift.WithUnrestricted(),
			)

			reg := relift.New(
				relift.WithLogger(c.logger),
				relift.WithExecutor(executor),
				relift.WithCacheRoot(cacheRoot),
			)
			if err := reg.Install(dirs, relift.Config{Fix: fix, NoFix: nofix}); err != nil {
				return err
			}
			defer reg.Uninstall()

			var err error
			if module != "" {
				_, err = reg.Load(cmd.Context(), module)
			} else {
				_, err = reg.LoadFile(cmd.Context(), target)
			}
			return err
		},
	}
	// Everything after FILE belongs to the script, not to relift.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringP("module", "m", "", "Module name to run instead of a file, resolved against the managed directories")
	cmd.Flags().StringArrayP("dir", "d", nil, "Directory to rewrite under (repeatable; default: target's directory)")
	cmd.Flags().StringArrayP("fix", "f", nil, "Rule to apply (repeatable; default: all)")
	cmd.Flags().StringArrayP("nofix", "x", nil, "Rule to disable (repeatable)")
	cmd.Flags().String("cache-root", "", "Store cache entries under this root instead of next to the source")
	return cmd
}
