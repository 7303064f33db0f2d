package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/darkchamp11/Captcha-Solver/internal/config"
	"github.com/darkchamp11/Captcha-Solver/internal/pipeline"
	"github.com/darkchamp11/Captcha-Solver/internal/raster"
	"github.com/darkchamp11/Captcha-Solver/internal/recognize"
	"github.com/darkchamp11/Captcha-Solver/internal/server"
	"github.com/darkchamp11/Captcha-Solver/internal/solver"
	"github.com/darkchamp11/Captcha-Solver/internal/synth"
	"github.com/darkchamp11/Captcha-Solver/internal/transform"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		imagePath   = flag.String("image", "", "solve a single captcha image file")
		imageURL    = flag.String("url", "", "fetch a captcha over HTTP and solve it")
		batchGlob   = flag.String("batch", "", "solve every image matching the glob")
		configPath  = flag.String("config", "", "JSON configuration file")
		threshold   = flag.Float64("threshold", 0, "confidence threshold override (0..100)")
		steps       = flag.String("steps", "", "replace the configured pipelines with this step list, e.g. grayscale,denoise:median:3,threshold:otsu")
		saveDir     = flag.String("save-processed", "", "save preprocessed rasters into this directory")
		outputPath  = flag.String("output", "", "write the result JSON to this file instead of stdout")
		showStats   = flag.Bool("stats", false, "print run statistics after solving")
		selfTest    = flag.Bool("self-test", false, "solve synthetic captchas to check the installation")
		engineInfo  = flag.Bool("engine-info", false, "print OCR engine availability and exit")
		serve       = flag.Bool("serve", false, "run as an MCP stdio server")
		verbose     = flag.Bool("verbose", false, "debug logging")
		quiet       = flag.Bool("quiet", false, "errors only")
		logFile     = flag.String("log-file", "", "append logs to this file instead of stderr")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("captcha-solver %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}

	// A .env file is optional; a missing one is not an error.
	_ = godotenv.Load()

	logger := newLogger(*verbose, *quiet, *logFile)

	if *engineInfo {
		if err := emit(recognize.Probe(), *outputPath); err != nil {
			logger.Fatal().Err(err).Msg("failed to write engine info")
		}
		return
	}

	cfg, err := loadConfig(*configPath, *threshold, *steps, *saveDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration rejected")
	}

	sol, err := buildSolver(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("solver construction failed")
	}

	modes := 0
	for _, on := range []bool{*serve, *selfTest, *imagePath != "", *imageURL != "", *batchGlob != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		logger.Fatal().Msg("choose exactly one of --serve, --self-test, --image, --url, --batch")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *serve:
		err = server.New(cfg, sol, logger).Run()
	case *selfTest:
		err = runSelfTest(ctx, sol, logger)
	case *imagePath != "":
		err = solveFile(ctx, sol, *imagePath, *outputPath)
	case *imageURL != "":
		err = solveURL(ctx, sol, *imageURL, *outputPath)
	case *batchGlob != "":
		err = solveBatch(ctx, sol, *batchGlob, *outputPath)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}

	if *showStats {
		if err := emit(sol.Statistics(), ""); err != nil {
			logger.Fatal().Err(err).Msg("failed to print statistics")
		}
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "captcha-solver - text captcha recognition")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage: captcha-solver [options]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  CAPTCHA_THRESHOLD, CAPTCHA_LANGUAGE, CAPTCHA_BATCH_WORKERS,")
	fmt.Fprintln(out, "  CAPTCHA_TESSDATA_PREFIX and CAPTCHA_SAVE_DIR override the configuration.")
	fmt.Fprintln(out, "  A .env file in the working directory is loaded when present.")
}

// newLogger writes human-readable logs to stderr, or plain JSON to a file
// when --log-file is set. Stdout stays clean for results and the MCP
// protocol.
func newLogger(verbose, quiet bool, logFile string) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
			os.Exit(1)
		}
		out = f
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// loadConfig layers the configuration sources: defaults, then the config
// file, then CAPTCHA_* environment variables, then command-line flags.
func loadConfig(path string, threshold float64, steps, saveDir string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := cfg.ApplyEnv()
	if err != nil {
		return config.Config{}, err
	}

	if threshold != 0 {
		cfg.Threshold = threshold
	}
	if saveDir != "" {
		cfg.SaveDir = saveDir
	}
	if steps != "" {
		p, err := parseSteps(steps)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Pipelines = []pipeline.Config{p}
	}

	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// parseSteps builds a pipeline from a comma-separated step list. Each entry
// is a step name, optionally followed by :mode and :kernel, e.g.
// "grayscale,denoise:median:3,threshold:otsu,deskew". Anything beyond that
// needs a config file.
func parseSteps(list string) (pipeline.Config, error) {
	var steps []transform.Step
	for _, spec := range strings.Split(list, ",") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.Split(spec, ":")
		step := transform.Step{Name: parts[0]}
		if len(parts) > 1 {
			step.Mode = parts[1]
		}
		if len(parts) > 2 {
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return pipeline.Config{}, fmt.Errorf("step %q: kernel %q is not a number", spec, parts[2])
			}
			step.Kernel = n
		}
		steps = append(steps, step)
	}
	return pipeline.Config{ID: "cli", Steps: steps}, nil
}

func buildSolver(cfg config.Config, logger zerolog.Logger) (*solver.Solver, error) {
	engine := &recognize.Tesseract{TessdataPrefix: cfg.TessdataPrefix}
	runner := recognize.NewRunner(engine, logger)

	opts := solver.Options{
		Threshold: cfg.Threshold,
		Workers:   cfg.BatchWorkers,
	}
	if cfg.SaveDir != "" {
		opts.Sink = &pipeline.FileSink{Dir: cfg.SaveDir}
	}
	return solver.New(logger, runner, solver.NewPlan(cfg.Pipelines, cfg.Recognizers), opts)
}

func solveFile(ctx context.Context, sol *solver.Solver, path, outputPath string) error {
	r, err := raster.Load(path)
	if err != nil {
		return err
	}
	out, err := sol.Resolve(ctx, r)
	if err != nil {
		return err
	}
	return emit(out, outputPath)
}

func solveURL(ctx context.Context, sol *solver.Solver, url, outputPath string) error {
	r, err := raster.Fetch(ctx, url)
	if err != nil {
		return err
	}
	out, err := sol.Resolve(ctx, r)
	if err != nil {
		return err
	}
	return emit(out, outputPath)
}

// fileResult pairs one batch input file with its outcome or failure.
type fileResult struct {
	File    string          `json:"file"`
	Outcome *solver.Outcome `json:"outcome,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func solveBatch(ctx context.Context, sol *solver.Solver, glob, outputPath string) error {
	files, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("bad glob %q: %w", glob, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %q", glob)
	}

	// Unreadable files stay in the report; the rest still get solved.
	results := make([]fileResult, len(files))
	var (
		rasters []*raster.Raster
		pos     []int
	)
	for i, f := range files {
		results[i].File = f
		r, err := raster.Load(f)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		rasters = append(rasters, r)
		pos = append(pos, i)
	}

	for j, res := range sol.ResolveBatch(ctx, rasters) {
		i := pos[j]
		if res.Err != nil {
			results[i].Error = res.Err.Error()
			continue
		}
		results[i].Outcome = res.Outcome
	}
	return emit(results, outputPath)
}

// runSelfTest renders synthetic captchas and runs them through the full
// stack. Results are reported, not asserted: OCR accuracy varies across
// tesseract versions and training data.
func runSelfTest(ctx context.Context, sol *solver.Solver, logger zerolog.Logger) error {
	probe := recognize.Probe()
	if !probe.Available {
		return fmt.Errorf("ocr engine unavailable: %s", probe.Error)
	}
	logger.Info().Str("tesseract", probe.Version).Msg("engine probe passed")

	samples := []struct {
		text   string
		render func() *raster.Raster
	}{
		{"A3K9", func() *raster.Raster { return synth.Clean("A3K9", 180, 60) }},
		{"HX7T", func() *raster.Raster { return synth.Clean("HX7T", 180, 60) }},
		{"2QZ8", func() *raster.Raster { return synth.Captcha("2QZ8", 180, 60, 11) }},
	}

	pass := 0
	for _, sample := range samples {
		out, err := sol.Resolve(ctx, sample.render())
		if err != nil {
			return err
		}
		match := strings.EqualFold(out.Text, sample.text)
		if match {
			pass++
		}
		logger.Info().
			Str("expected", sample.text).
			Str("got", out.Text).
			Float64("confidence", out.Confidence).
			Bool("match", match).
			Msg("self-test sample")
	}

	if pass == 0 {
		logger.Warn().Msg("no self-test sample was recognized; check training data")
	}
	logger.Info().Int("passed", pass).Int("total", len(samples)).Msg("self-test finished")
	return nil
}

// emit writes v as indented JSON to the output file, or stdout when none
// is set.
func emit(v interface{}, outputPath string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	data = append(data, '\n')
	if outputPath != "" {
		return os.WriteFile(outputPath, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}
