package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/handiism/antenati-downloader/internal/config"
	"github.com/handiism/antenati-downloader/internal/download"
	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	"github.com/handiism/antenati-downloader/internal/iiif"
	ioutils "github.com/handiism/antenati-downloader/internal/io"
	"github.com/handiism/antenati-downloader/internal/logging"
	"github.com/handiism/antenati-downloader/internal/model"
	"github.com/handiism/antenati-downloader/internal/plan"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First interrupt cancels the run, the second one exits right away.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCanceling...")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		if errors.Is(err, download.ErrCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Download cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "antenati-dl",
		Usage:     "Download galleries from Portale Antenati",
		Version:   version,
		ArgsUsage: "<gallery URL>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "nthreads", Aliases: []string{"n"}, Usage: "max number of pages downloaded at once"},
			&cli.IntFlag{Name: "nconns", Aliases: []string{"c"}, Usage: "max number of open HTTP connections"},
			&cli.StringFlag{Name: "pages", Aliases: []string{"p"}, Usage: "pages to download, e.g. 1,3-5,7 (default: all)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "directory the gallery folder is created in"},
			&cli.StringFlag{Name: "config", Usage: "path to config file"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "reuse an existing gallery folder without asking"},
			&cli.BoolFlag{Name: "info", Usage: "print gallery information and exit"},
			&cli.BoolFlag{Name: "verbose", Usage: "show per-page messages and debug logs"},
			&cli.BoolFlag{Name: "log-json", Usage: "write logs as JSON"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one gallery URL, got %d arguments", cmd.NArg())
	}
	galleryURL := cmd.Args().First()

	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(settings.Verbose, settings.LogJSON)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Reject a bad selection before touching the network.
	sel, err := plan.ParseSelection(cmd.String("pages"))
	if err != nil {
		return err
	}

	client := antenatihttp.NewClient(settings.ToHTTPConfig())
	gallery, err := iiif.NewResolver(client, logger).Resolve(ctx, galleryURL)
	if err != nil {
		return err
	}

	printGallery(os.Stdout, gallery)
	if cmd.Bool("info") {
		return nil
	}

	pages, err := plan.Build(gallery, sel)
	if err != nil {
		return err
	}

	dirName, err := gallery.DirName()
	if err != nil {
		return err
	}
	outputDir := filepath.Join(settings.OutputRoot, dirName)

	confirm := func(path string) bool { return settings.AssumeYes || askYesNo(os.Stdin, os.Stdout, path) }
	if err := ioutils.PrepareDir(outputDir, confirm); err != nil {
		return err
	}

	return downloadPages(ctx, settings, outputDir, pages, logger)
}

// downloadPages runs the manager with a progress bar on stderr.
func downloadPages(ctx context.Context, settings *config.Settings, outputDir string, pages []*model.Page, logger *zap.Logger) error {
	bar := progressbar.NewOptions(len(pages),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Downloading"),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	manager := download.NewManager(settings, outputDir, logger, func(event download.ProgressEvent) {
		if event.Message != "" && (event.Level != download.LevelVerbose || settings.Verbose) {
			bar.Clear()
			fmt.Fprintln(os.Stderr, event.Message)
		}
		if event.Kind == download.EventPage {
			bar.Set(event.Processed)
		}
	})

	summary, err := manager.Run(ctx, pages)
	if err != nil {
		return err
	}

	if failed := summary.Failed(); failed > 0 {
		fmt.Printf("%d of %d pages failed.\n", failed, summary.Total)
	}
	fmt.Printf("Done. Total size: %s\n", humanize.Bytes(uint64(summary.Bytes)))
	return nil
}

// loadSettings reads the config file and environment, then applies flags
// the user set explicitly.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("nthreads") {
		settings.Workers = int(cmd.Int("nthreads"))
	}
	if cmd.IsSet("nconns") {
		settings.Connections = int(cmd.Int("nconns"))
	}
	if cmd.IsSet("output") {
		settings.OutputRoot = cmd.String("output")
	}
	if cmd.Bool("yes") {
		settings.AssumeYes = true
	}
	if cmd.Bool("verbose") {
		settings.Verbose = true
	}
	if cmd.Bool("log-json") {
		settings.LogJSON = true
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func printGallery(w io.Writer, gallery *model.Gallery) {
	for _, entry := range gallery.Metadata {
		fmt.Fprintf(w, "%-25s%s\n", entry.Label, entry.Value)
	}
	fmt.Fprintf(w, "%d images found.\n", gallery.Len())
}

// askYesNo asks whether to reuse the existing directory path. Anything but
// an explicit yes declines.
func askYesNo(in io.Reader, out io.Writer, path string) bool {
	fmt.Fprintf(out, "Directory %s already exists. Continue? [y/N] ", path)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
