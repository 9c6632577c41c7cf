package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"rulekit/config"
	"rulekit/core"
	"rulekit/exprtemplate"
	"rulekit/metrics"
	"rulekit/ruleset"
	"rulekit/storage/sqlite"
)

// Fact is one JSON object read from the input stream.
type Fact map[string]any

// Result is written for every evaluated fact.
type Result struct {
	Matched bool   `json:"matched"`
	Output  string `json:"output,omitempty"`
}

// StdLogger implements core.Logger on standard error so that standard
// output carries only results.
type StdLogger struct {
	debug bool
}

func (l *StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+msg+"\n", args...)
	}
}
func (l *StdLogger) Info(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[INFO] "+msg+"\n", args...)
}
func (l *StdLogger) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] "+msg+"\n", args...)
}
func (l *StdLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "rulekit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := &StdLogger{debug: cfg.Debug}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	reg, m := metrics.NewRegistry()
	repo := metrics.InstrumentRepository(store, m)

	executer := core.NewExecuter[Fact, string]()
	executer.SetLogger(logger)
	exec := metrics.InstrumentExecuter[Fact, string](executer, m)

	factory := exprtemplate.NewFactory[Fact, string]()
	factory.SetLogger(logger)

	setupCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	rc, err := openContext(setupCtx, cfg, exec, repo, factory, logger)
	if err != nil {
		return err
	}
	logger.Info("Evaluating facts against context %s (%d rules)", rc.ID(), exec.RuleCount())

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics listener stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		logger.Info("Serving metrics on %s/metrics", cfg.MetricsAddr)
	}

	return evaluate(ctx, in, out, rc)
}

// openContext loads the configured context, or creates one and seeds it
// from the configured rule file.
func openContext(ctx context.Context, cfg config.Config, exec core.RuleExecuter[Fact, string], repo core.Repository, factory core.TemplateFactory[Fact, string], logger core.Logger) (*core.RuleContext[Fact, string], error) {
	if cfg.ContextID != uuid.Nil {
		if cfg.RulesetPath != "" {
			logger.Warn("Ignoring rule file %s for existing context %s", cfg.RulesetPath, cfg.ContextID)
		}
		return core.LoadContext[Fact, string](ctx, cfg.ContextID, exec, repo, factory, core.WithLogger(logger))
	}

	rc, err := core.CreateContext[Fact, string](ctx, exec, repo, factory, core.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if cfg.RulesetPath == "" {
		return rc, nil
	}

	set, err := ruleset.Load(cfg.RulesetPath)
	if err != nil {
		return nil, err
	}
	ids, err := set.Apply(ctx, rc)
	if err != nil {
		return nil, err
	}
	logger.Info("Applied %d rules from %s", len(ids), cfg.RulesetPath)
	return rc, nil
}

// evaluate decodes a stream of JSON facts and writes one Result per fact.
func evaluate(ctx context.Context, in io.Reader, out io.Writer, rc *core.RuleContext[Fact, string]) error {
	decoder := json.NewDecoder(in)
	encoder := json.NewEncoder(out)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var fact Fact
		if err := decoder.Decode(&fact); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode fact: %w", err)
		}
		output, matched := rc.ExecuteFact(fact)
		if err := encoder.Encode(Result{Matched: matched, Output: output}); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
}
