package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"senars/internal/config"
	"senars/internal/embedding"
	"senars/internal/events"
	"senars/internal/lm"
	"senars/internal/logging"
	"senars/internal/nal"
	"senars/internal/pipeline"
	"senars/internal/rules"
	"senars/internal/term"
)

func newRunCmd() *cobra.Command {
	var (
		flagWatch    bool
		flagMax      int
		flagDuration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run the reasoner over a Narsese-lite input file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()

			inputPath := ""
			if len(args) == 1 {
				inputPath = args[0]
			}
			if flagWatch && inputPath == "" {
				return fmt.Errorf("--watch requires an input file")
			}
			return runReasoner(cmd, cfg, inputPath, flagWatch, flagMax, flagDuration)
		},
	}
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "reload the input file on change and feed new tasks")
	cmd.Flags().IntVar(&flagMax, "max", 0, "stop after N derivations (0 = unbounded)")
	cmd.Flags().DurationVar(&flagDuration, "duration", 0, "stop after this long (0 = unbounded)")
	return cmd
}

func runReasoner(cmd *cobra.Command, cfg *config.Config, inputPath string, watch bool, maxDerivations int, duration time.Duration) error {
	bus := events.NewBus()
	defer bus.Close()
	factory := term.NewFactory(cfg.Terms.MaxCacheSize, bus)
	opts := pipeline.ReasonerOptions{Bus: bus, Factory: factory}

	if cfg.LM.Provider != "" {
		model, err := lm.NewModel(lm.Config{
			Provider: cfg.LM.Provider,
			Model:    cfg.LM.Model,
			Endpoint: cfg.LM.Endpoint,
			APIKey:   cfg.LM.APIKey,
		})
		if err != nil {
			return fmt.Errorf("lm backend: %w", err)
		}
		opts.LMRules = []*rules.LMRule{hypothesisRule(cfg, model, factory)}
	}

	var index *embedding.Index
	if cfg.Embedding.Provider != "" {
		engine, err := embedding.NewEngine(embedding.Config{
			Provider: cfg.Embedding.Provider,
			Endpoint: cfg.Embedding.Endpoint,
			Model:    cfg.Embedding.Model,
			APIKey:   cfg.Embedding.APIKey,
		})
		if err != nil {
			return fmt.Errorf("embedding backend: %w", err)
		}
		index = embedding.NewIndex(engine)
		opts.Embedding = index
	}

	r := pipeline.NewReasoner(cfg, opts)
	parser := nal.NewParser(r.Factory)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	feed := func(path string) (int, error) {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		tasks, err := parser.ParseAll(f)
		if err != nil {
			return 0, err
		}
		for _, t := range tasks {
			r.AddInput(t)
			if index != nil {
				if err := index.Add(ctx, t.Term.Name()); err != nil {
					logging.Get(logging.CategoryEmbedding).Warnf("index %q: %v", t.Term.Name(), err)
				}
			}
		}
		return len(tasks), nil
	}

	if inputPath != "" {
		n, err := feed(inputPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tasks from %s\n", n, inputPath)
	} else {
		tasks, err := parser.ParseAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		for _, t := range tasks {
			r.AddInput(t)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d tasks from stdin\n", len(tasks))
	}

	if watch {
		stop, err := watchInput(ctx, inputPath, func() {
			if n, err := feed(inputPath); err != nil {
				logging.Get(logging.CategoryConfig).Warnf("reload %s: %v", inputPath, err)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "reloaded %d tasks from %s\n", n, inputPath)
			}
		})
		if err != nil {
			return err
		}
		defer stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if duration > 0 {
		go func() {
			select {
			case <-time.After(duration):
				r.Stop()
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.OutOrStdout(), "interrupted, draining...")
			r.Stop()
		case <-ctx.Done():
		}
	}()

	stream := r.Start(ctx)
	count := 0
	for d := range stream {
		count++
		fmt.Fprintf(cmd.OutOrStdout(), "derived: %s  [%s depth=%d]\n", nal.FormatTask(d), d.Stamp.Source(), d.Stamp.Depth())
		if maxDerivations > 0 && count >= maxDerivations {
			r.Stop()
			for range stream {
			}
			break
		}
	}

	m := r.Runner.Metrics()
	fmt.Fprintf(cmd.OutOrStdout(), "done: %d derivations, %.1f/s, throttle %v\n",
		m.TotalDerivations, m.Throughput, m.CPUThrottleInterval)
	return nil
}
