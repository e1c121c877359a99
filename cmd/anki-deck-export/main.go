package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/tverlann/anki-deck-export/internal/app/exporter"
	"github.com/tverlann/anki-deck-export/internal/app/jobs"
	"github.com/tverlann/anki-deck-export/internal/infra/collection"
	"github.com/tverlann/anki-deck-export/internal/infra/config"
)

func main() {
	var collectionPath string
	var outputDir string
	var format string
	var configPath string
	var mediaDir string

	flag.StringVar(&collectionPath, "collection", "collection.anki2", "Path to the Anki collection file")
	flag.StringVar(&outputDir, "out", "./deck-export", "Destination directory for the export")
	flag.StringVar(&format, "format", "html", "Export format: html or apkg")
	flag.StringVar(&configPath, "config", "", "Optional config file (yaml/json)")
	flag.StringVar(&mediaDir, "media", "", "Media directory (default: <collection>.media next to the collection)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Warnw("config not loaded, using defaults", "path", configPath, "error", err)
	}

	col, err := collection.Open(collectionPath, mediaDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open collection: %v\n", err)
		os.Exit(1)
	}
	defer col.Close()

	var work func() (exporter.Result, error)
	switch format {
	case "html":
		exp := exporter.NewHTMLExporter(col, cfg, log)
		work = func() (exporter.Result, error) { return exp.ExportAll(outputDir) }
	case "apkg":
		exp := exporter.NewPackageExporter(col, cfg, log)
		work = func() (exporter.Result, error) { return exp.ExportAll(outputDir) }
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q (want html or apkg)\n", format)
		os.Exit(2)
	}

	var result exporter.Result
	var runErr error
	runner := jobs.NewRunner()
	jobs.Submit(runner, work, func(res exporter.Result, err error) {
		result, runErr = res, err
	})
	runner.Wait()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("exported %d of %d decks (%d failed)\n", result.Success, result.Total, result.Failed)
	for _, d := range result.Decks {
		if !d.OK {
			fmt.Printf("  failed %s: %s\n", d.Name, d.Err)
		}
	}
	if result.LogFile != "" {
		fmt.Printf("deck hierarchy log: %s\n", result.LogFile)
		if cfg.Logging.AutoOpenLog {
			openInViewer(result.LogFile)
		}
	}
}

// openInViewer asks the OS default viewer to show the file. Best
// effort: failures are ignored.
func openInViewer(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	_ = cmd.Start()
}
