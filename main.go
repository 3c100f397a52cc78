package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/llehouerou/tunesearch/internal/config"
	"github.com/llehouerou/tunesearch/internal/errmsg"
	"github.com/llehouerou/tunesearch/internal/importer"
	"github.com/llehouerou/tunesearch/internal/library"
	"github.com/llehouerou/tunesearch/internal/query"
	"github.com/llehouerou/tunesearch/internal/ui/searchbox"
)

type options struct {
	configPath string
	scan       bool
	watch      bool
	query      string
	queryMode  bool
	grammar    bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("tunesearch", flag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", "", "config file read after the default locations")
	fs.BoolVar(&o.scan, "scan", false, "scan the import directory before searching")
	fs.BoolVarP(&o.watch, "watch", "w", false, "watch the import directory while the search box runs")
	fs.StringVarP(&o.query, "query", "q", "", "print the tracks matching `QUERY` and exit")
	fs.BoolVar(&o.grammar, "grammar", false, "print the query grammar and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.queryMode = fs.Changed("query")
	return o, nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.grammar {
		fmt.Print(query.NewGrammar().Describe())
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpLogOpen, cfg.LogFile, err))
	}
	defer closeLog()

	lib, err := library.Open(cfg.LibraryDB, log)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLibraryLoad, err))
	}
	defer lib.Close()
	lib.SetWorkers(cfg.Workers())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	im := importer.New(lib, cfg.ImportPath, log)
	if opts.scan {
		stats, err := im.Scan(ctx)
		if err != nil {
			return errors.New(errmsg.Format(errmsg.OpLibraryScan, err))
		}
		fmt.Fprintf(os.Stderr, "scan: %d added, %d updated, %d removed\n",
			len(stats.Added), len(stats.Updated), len(stats.Removed))
	}

	if opts.queryMode {
		return printMatches(ctx, lib, opts.query, cfg.Matcher())
	}

	m := searchbox.New(lib, query.NewParser(cfg.CacheSize()), cfg.Matcher())
	p := tea.NewProgram(m, tea.WithAltScreen())

	if opts.watch {
		im.OnChange(func() { p.Send(searchbox.LibraryChangedMsg{}) })
		go func() {
			if err := im.Watch(ctx); err != nil {
				log.WithError(err).Error(errmsg.FormatWith(errmsg.OpImportWatch, cfg.ImportPath, err))
			}
		}()
	}

	final, err := p.Run()
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	if fm, ok := final.(searchbox.Model); ok {
		if t, ok := fm.Chosen(); ok {
			fmt.Println(t.Path)
		}
	}
	return nil
}

// newLogger writes to the configured log file. Without one, logs are
// discarded so they never reach the terminal UI.
func newLogger(cfg *config.Config) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetLevel(cfg.Level())
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})

	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(f)
	return log, func() { f.Close() }, nil
}

func printMatches(ctx context.Context, lib *library.Library, input string, m query.Matcher) error {
	tracks, err := lib.Search(ctx, query.Parse(input), m)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpSearch, err))
	}
	for _, t := range tracks {
		fmt.Printf("%s\t%s\t%s\t%s\n", t.ID, t.Artist, t.Title, t.Path)
	}
	return nil
}
