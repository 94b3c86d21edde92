package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"braidsim/config"
	"braidsim/db"
	"braidsim/export"
	"braidsim/handlers"
	"braidsim/logger"
	"braidsim/models"
	"braidsim/repository"
	"braidsim/routers"
	"braidsim/runner"
	"braidsim/sim"
	"braidsim/stats"
)

type options struct {
	serve    bool
	runs     int
	parallel int
	csvPath  string
	dotPath  string
	dotFrom  int
	dotTo    int
	save     bool
}

func main() {
	fs := pflag.NewFlagSet("braidsim", pflag.ExitOnError)
	configPath := fs.String("config", config.DefaultPath, "config file")
	var opts options
	fs.BoolVar(&opts.serve, "serve", false, "serve the run API instead of running once")
	fs.IntVar(&opts.runs, "runs", 1, "independent runs with seeds seed, seed+1, ...")
	fs.IntVar(&opts.parallel, "parallel", 0, "concurrent runs in a sweep, 0 for no limit")
	fs.StringVar(&opts.csvPath, "csv", "", "write per-height series of the run to this file")
	fs.StringVar(&opts.dotPath, "dot", "", "write a Graphviz rendering of the run to this file")
	fs.IntVar(&opts.dotFrom, "dot-from", 0, "first height rendered by --dot")
	fs.IntVar(&opts.dotTo, "dot-to", 200, "height after the last one rendered by --dot")
	fs.BoolVar(&opts.save, "save", false, "archive the run in LevelDB")
	fs.String("log-level", "", "log level")
	fs.String("log-file", "", "log file, empty for stdout")
	fs.String("leveldb", "", "LevelDB directory")
	fs.Int("port", 0, "HTTP port")
	fs.Int("blocks", 0, "blocks per run")
	fs.Uint64("seed", 0, "random seed")
	fs.String("strategy", "", "difficulty strategy: nbnc, parents or sma")
	fs.Int("lookback", 0, "look-back size Nb, 0 derives it")
	fs.Int("finality-depth", 0, "blocks behind the tip after which flags are final")
	fs.Parse(os.Args[1:])

	// Load config
	if err := config.Load(*configPath, fs); err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}

	appLogFile := viper.GetString("log.app_log_file")
	logLevel := viper.GetString("log.level")

	if err := logger.InitLogger(appLogFile, logLevel); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}

	cfg, err := config.Simulation()
	if err != nil {
		logger.Logger.Fatal("Failed to decode simulation config", zap.Error(err))
	}

	if opts.serve {
		serve(cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, opts); err != nil {
		logger.Logger.Fatal("Simulation failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg sim.Config, opts options) error {
	if opts.runs > 1 {
		return sweep(ctx, cfg, opts)
	}

	s, err := sim.New(cfg)
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printParams(os.Stdout, res.Config)
	fmt.Println()
	sum := res.Summary()
	stats.WriteSummary(os.Stdout, sum)
	fmt.Printf("\n%s blocks in %s, %d clamped targets, %d late flag writes\n",
		humanize.Comma(int64(sum.Blocks)), res.Elapsed.Round(time.Millisecond), res.Clamps, sum.LateFlagWrites)

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error {
			return export.WriteCSV(w, res.Store, stats.RollingSeries(res.Store, stats.RollingWindow))
		}); err != nil {
			return err
		}
	}
	if opts.dotPath != "" {
		if err := writeFile(opts.dotPath, func(w io.Writer) error {
			_, err := io.WriteString(w, export.DOT(res.Store, opts.dotFrom, opts.dotTo))
			return err
		}); err != nil {
			return err
		}
	}

	if opts.save {
		ldb, err := db.NewLevelDB(viper.GetString("leveldb.path"))
		if err != nil {
			return err
		}
		defer ldb.Close()
		svc, err := runner.NewService(repository.NewRunRepository(ldb), 1, 0)
		if err != nil {
			return err
		}
		archived, err := svc.Archive(res)
		if err != nil {
			return err
		}
		fmt.Println("Archived run", archived.ID)
	}
	return nil
}

func sweep(ctx context.Context, cfg sim.Config, opts options) error {
	bar := progressbar.NewOptions(opts.runs,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("%s runs", cfg.Strategy)),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
	results, err := sim.Sweep(ctx, cfg, opts.runs, opts.parallel, func(*sim.Result) {
		bar.Add(1)
	})
	if err != nil {
		return err
	}

	printParams(os.Stdout, results[0].Config)
	fmt.Println()
	seeds := make([]uint64, len(results))
	sums := make([]models.Summary, len(results))
	for i, r := range results {
		seeds[i] = r.Config.Seed
		sums[i] = r.Summary()
	}
	stats.WriteSweep(os.Stdout, seeds, sums)
	return nil
}

func printParams(w io.Writer, c sim.Config) {
	stats.WriteParams(w,
		[]string{"strategy", "Nb", "buffer", "latency", "hashrate", "desired parents", "filter"},
		[]string{
			c.Strategy,
			fmt.Sprint(c.Lookback),
			fmt.Sprint(c.Buffer),
			fmt.Sprint(c.Network.BaseLatency),
			fmt.Sprint(c.Network.BaseHashrate),
			fmt.Sprint(c.Difficulty.DesiredParents),
			fmt.Sprint(filterOf(c)),
		})
}

func filterOf(c sim.Config) float64 {
	switch c.Strategy {
	case "nbnc":
		return c.Difficulty.FilterNbNc
	case "sma":
		return float64(c.Difficulty.SMAWindow)
	}
	return c.Difficulty.FilterParents
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	logger.Logger.Info("Wrote file", zap.String("path", path))
	return f.Close()
}

func serve(cfg sim.Config) {
	logger.Logger.Info("Starting braidsim server...")

	// Connect to LevelDB
	leveldbPath := viper.GetString("leveldb.path")
	ldb, err := db.NewLevelDB(leveldbPath)
	if err != nil {
		logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
	}
	defer ldb.Close()

	// Initialize repository
	runRepo := repository.NewRunRepository(ldb)

	// Initialize run service with repository
	svc, err := runner.NewService(runRepo, viper.GetInt("server.cache_size"), viper.GetInt("server.max_blocks"))
	if err != nil {
		logger.Logger.Fatal("Failed to create run service", zap.Error(err))
	}

	// Initialize HTTP handlers
	h := handlers.NewHandler(svc, cfg)

	// Setup router
	r := mux.NewRouter()
	routers.RegisterRoutes(r, h)

	// HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Logger.Info("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", viper.GetInt("server.port")))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server shutdown failed", zap.Error(err))
	}
}
