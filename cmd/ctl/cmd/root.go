package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/blockcodec.go/pkg/codec"
	"github.com/jpfielding/blockcodec.go/pkg/config"
	"github.com/jpfielding/blockcodec.go/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	var logCloser io.Closer
	cmd := &cobra.Command{
		Use:           "codecctl",
		Short:         "a CLI to encode, decode and compare block-coded video",
		Long:          "Encodes raw 4:2:0 planar video into a side-information stream and a residual stream, decodes them back, and measures the result.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			logFile, _ := cmd.Flags().GetString("log-file")

			// Parse log level
			var level slog.Level
			levelErr := level.UnmarshalText([]byte(strings.ToUpper(logLevel)))
			if levelErr != nil {
				level = slog.LevelInfo
			}
			var out io.Writer = os.Stdout
			if logFile != "" {
				rf := logging.RotatingFile(logFile)
				logCloser = rf
				out = io.MultiWriter(os.Stdout, rf)
			}
			slog.SetDefault(logging.Logger(out, logJSON, level))

			if levelErr != nil {
				slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", logLevel, "error", levelErr)
			}
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser == nil {
				return nil
			}
			slog.SetDefault(logging.Logger(os.Stdout, false, slog.LevelInfo))
			err := logCloser.Close()
			logCloser = nil
			return err
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewEncodeCmd(ctx),
		NewDecodeCmd(ctx),
		NewCompareCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "emit JSON log records")
	pf.String("log-file", "", "also write logs to this size-rotated file")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// addOptionFlags registers the flags every coding command shares.
func addOptionFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.StringP("config", "c", "", "key=value option file")
	pf.StringArray("set", nil, "override an option (key=value), repeatable")
	pf.String("side", "side.bin", "side-information stream path")
	pf.String("res", "res.bin", "residual stream path")
	pf.String("debug-dir", ".", "directory for debug dumps")
}

func loadOptions(cmd *cobra.Command, p config.Purpose) (codec.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return codec.Options{}, fmt.Errorf("an option file is required, use --config")
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	return config.Load(path, sets, p)
}

// closeAll closes every closer and keeps the first error.
func closeAll(err *error, cs ...io.Closer) {
	for _, c := range cs {
		if c == nil {
			continue
		}
		if cerr := c.Close(); *err == nil {
			*err = cerr
		}
	}
}
