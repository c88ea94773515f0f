package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/navcore/internal/catalog"
	"github.com/dgallion1/navcore/internal/flatten"
	"github.com/dgallion1/navcore/internal/navtree"
	"github.com/dgallion1/navcore/internal/observer"
	"github.com/dgallion1/navcore/internal/observer/fswatch"
	"github.com/dgallion1/navcore/internal/parser"
	"github.com/dgallion1/navcore/internal/secondary"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "navctl",
		Short:         "Inspect navigation sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newFlattenCmd(opts),
		newSecondaryCmd(opts),
		newSourcesCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFlattenCmd(root *rootOptions) *cobra.Command {
	cfg := flatten.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "flatten FILE",
		Short: "Print the flattened navigation tree of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadComponent(args[0])
			if err != nil {
				return err
			}
			cfg.SelectedJurisdiction = strings.ToUpper(cfg.SelectedJurisdiction)
			if err := checkJurisdiction(cfg.SelectedJurisdiction); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), flatten.Flatten(c.Items(), cfg))
		},
	}
	cmd.Flags().IntVarP(&cfg.MaxDepth, "max-depth", "d", cfg.MaxDepth, "deepest level to emit (0-based)")
	cmd.Flags().StringVarP(&cfg.SelectedJurisdiction, "jurisdiction", "j", "", "selected jurisdiction code, e.g. NC01")
	cmd.Flags().StringVar(&cfg.LabelSeparator, "separator", cfg.LabelSeparator, "analytics label separator")
	return cmd
}

func newSecondaryCmd(root *rootOptions) *cobra.Command {
	var req secondary.Request
	cmd := &cobra.Command{
		Use:   "secondary FILE",
		Short: "Print the secondary navigation for a page path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Pathname == "" {
				return fmt.Errorf("--path is required")
			}
			req.Jurisdiction = strings.ToUpper(req.Jurisdiction)
			req.Segment = strings.ToUpper(req.Segment)
			if err := checkJurisdiction(req.Jurisdiction); err != nil {
				return err
			}
			log := root.logger(cmd.ErrOrStderr())

			if strings.EqualFold(filepath.Ext(args[0]), ".json") {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), secondary.ResolveJSON(raw, req, log))
			}
			c, err := loadComponent(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), secondary.Resolve(c, req, log))
		},
	}
	cmd.Flags().StringVarP(&req.Pathname, "path", "p", "", "current page path")
	cmd.Flags().StringVarP(&req.Jurisdiction, "jurisdiction", "j", "", "selected jurisdiction code")
	cmd.Flags().StringVarP(&req.Segment, "segment", "s", "", "user segment (RES or BUS)")
	return cmd
}

func newSourcesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources DIR",
		Short: "List the navigation sources found in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.New(catalog.WithLogger(root.logger(cmd.ErrOrStderr())))
			_, loadErr := cat.LoadDir(args[0])
			if err := printJSON(cmd.OutOrStdout(), cat.List()); err != nil {
				return err
			}
			return loadErr
		},
	}
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	var debounce string
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Load a sources directory and log reloads until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd.ErrOrStderr())
			pool := observer.NewPool(fswatch.Factory(log), observer.WithLogger(log))
			defer pool.Reset()

			cat := catalog.New(
				catalog.WithLogger(log),
				catalog.WithObserver(pool, observer.Options{fswatch.OptionDebounce: debounce}),
			)
			if _, err := cat.LoadDir(args[0]); err != nil {
				log.Warn("some sources failed to load", "error", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := cat.Watch(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "watching %d sources in %s\n", len(cat.List()), args[0])
			<-ctx.Done()
			return printJSON(cmd.OutOrStdout(), cat.Stats())
		},
	}
	cmd.Flags().StringVar(&debounce, "debounce", "250ms", "collapse change bursts within this window")
	return cmd
}

func loadComponent(path string) (*navtree.Component, error) {
	p, err := parser.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func checkJurisdiction(code string) error {
	if code != "" && !navtree.IsKnownJurisdiction(code) {
		return fmt.Errorf("unknown jurisdiction %q (known: %s)", code, strings.Join(navtree.Jurisdictions, ", "))
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
