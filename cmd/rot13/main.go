package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyne/rot13/internal/action"
	"github.com/dyne/rot13/internal/config"
	"github.com/dyne/rot13/internal/inspect"
	"github.com/dyne/rot13/internal/log"
	"github.com/dyne/rot13/internal/mask"
	"github.com/dyne/rot13/internal/plan"
	"github.com/dyne/rot13/internal/rot13"
	"github.com/dyne/rot13/internal/transform"
)

type globalOptions struct {
	Verbose bool
	Plugins []string
}

func main() {
	rootOpts := &globalOptions{}
	root := &cobra.Command{
		Use:   "rot13",
		Short: "ROT-13 letter substitution for text, CI actions, and SQLite columns",
	}

	root.PersistentFlags().BoolVar(&rootOpts.Verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().StringSliceVar(&rootOpts.Plugins, "plugin", nil, "plugin .so path (repeatable)")

	root.AddCommand(actionCmd(rootOpts))
	root.AddCommand(textCmd(rootOpts))
	root.AddCommand(dbCmd(rootOpts))
	root.AddCommand(planCmd(rootOpts))
	root.AddCommand(inspectCmd(rootOpts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(rootOpts *globalOptions, cmd *cobra.Command) *log.Logger {
	level := log.LevelInfo
	if rootOpts.Verbose {
		level = log.LevelDebug
	}
	return log.New(level, cmd.OutOrStdout())
}

func actionCmd(rootOpts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "action",
		Short: "Run as a CI action (inputs from the runner environment)",
		RunE: func(cmd *cobra.Command, args []string) error {
			core := action.NewEnvCore(newLogger(rootOpts, cmd))
			return action.Run(core)
		},
	}
}

func textCmd(rootOpts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "text [strings...]",
		Short: "Rotate arguments, or stdin when no arguments are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), rot13.Transform(strings.Join(args, " ")))
				return nil
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), rot13.Transform(string(data)))
			return err
		},
	}
}

func dbCmd(rootOpts *globalOptions) *cobra.Command {
	var inPath string
	var outPath string
	var cfgPath string
	var fkMode string
	var jobs int
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Copy a SQLite database rotating configured text columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := transform.LoadPlugins(rootOpts.Plugins); err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			opts := mask.Options{
				InPath:  inPath,
				OutPath: outPath,
				Config:  cfg,
				FKMode:  fkMode,
				Jobs:    jobs,
				Logger:  newLogger(rootOpts, cmd),
			}
			return mask.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input SQLite file")
	cmd.Flags().StringVar(&outPath, "out", "", "output SQLite file")
	cmd.Flags().StringVar(&cfgPath, "config", "", "column configuration file")
	cmd.Flags().StringVar(&fkMode, "fk", "on", "foreign key enforcement (on|off)")
	cmd.Flags().IntVar(&jobs, "jobs", 4, "row transform parallelism")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func planCmd(rootOpts *globalOptions) *cobra.Command {
	var inPath string
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which columns would be rotated",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := transform.LoadPlugins(rootOpts.Plugins); err != nil {
				return err
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return plan.Run(cmd.Context(), inPath, cfg, newLogger(rootOpts, cmd))
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input SQLite file")
	cmd.Flags().StringVar(&cfgPath, "config", "", "column configuration file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func inspectCmd(rootOpts *globalOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List tables and rotation-eligible text columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect.Run(cmd.Context(), inPath, newLogger(rootOpts, cmd))
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input SQLite file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
