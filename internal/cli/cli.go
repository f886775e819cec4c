// Package cli builds the cobra command shared by every converter binary.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/KyungWonPark/mtxconv/internal/config"
	"github.com/KyungWonPark/mtxconv/internal/convert"
)

// Exit codes
const (
	ExitOK = iota
	ExitFailure
	ExitSourceNotFound
	ExitAlreadyExists
	ExitUnsupportedFormat
)

// NewCommand returns the root command for converter c
func NewCommand(c *convert.Converter, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   c.Name + " <source>",
		Short: short,
		Long: short + "\n\nsource is a " + c.SourceExt + " file, or a directory when --recursive is set.\n" +
			"Without --target the " + c.TargetExt + " file is written next to the source.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, c, args[0])
		},
	}

	cmd.Flags().StringP("target", "t", "", "target file or directory")
	cmd.Flags().BoolP("recursive", "r", false, "convert all files in the source directory")
	cmd.Flags().BoolP("skip", "s", false, "skip existing files")
	cmd.Flags().Bool("compress", false, "deflate npz members")
	cmd.Flags().String("config", "", "TOML file with default settings")
	cmd.Flags().String("log-level", "", "debug | info | warn | error")
	cmd.Flags().Bool("no-color", false, "disable colored error output")

	return cmd
}

func run(cmd *cobra.Command, c *convert.Converter, source string) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	flags := cmd.Flags()

	noColor, _ := flags.GetBool("no-color")
	color.NoColor = noColor || !ColorEnabled(os.Stderr)

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts := convert.Options{
		Skip:      cfg.Skip,
		Recursive: cfg.Recursive,
		Compress:  cfg.Compress,
	}
	opts.Target, _ = flags.GetString("target")
	if flags.Changed("skip") {
		opts.Skip, _ = flags.GetBool("skip")
	}
	if flags.Changed("recursive") {
		opts.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("compress") {
		opts.Compress, _ = flags.GetBool("compress")
	}

	levelName := cfg.LogLevel
	if flags.Changed("log-level") {
		levelName, _ = flags.GetString("log-level")
	}
	level, err := config.ParseLevel(levelName)
	if err != nil {
		return err
	}

	log := NewLogger(cmd.ErrOrStderr(), level).With("cmd", c.Name)
	c.Logger = log

	log.Info("Running " + strings.Join(os.Args, " "))
	if err := c.Run(source, opts); err != nil {
		return err
	}
	log.Info("Done!")

	return nil
}

// NewLogger returns a text logger with second-resolution timestamps
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}))
}

// ExitCode maps an error returned by a converter to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, convert.ErrSourceNotFound):
		return ExitSourceNotFound
	case errors.Is(err, convert.ErrAlreadyExists):
		return ExitAlreadyExists
	case errors.Is(err, convert.ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	}

	return ExitFailure
}

// PrintError writes err to w, the command name in red
func PrintError(w io.Writer, name string, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(w, "%s:", name)
	fmt.Fprintf(w, " %v\n", err)
}

// ColorEnabled reports whether f is a terminal that should get colored output.
// NO_COLOR and TERM=dumb turn color off.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}

	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Main executes cmd and exits with the status ExitCode gives
func Main(cmd *cobra.Command) {
	color.NoColor = !ColorEnabled(os.Stderr)
	if err := cmd.Execute(); err != nil {
		PrintError(os.Stderr, cmd.Name(), err)
		os.Exit(ExitCode(err))
	}
}
