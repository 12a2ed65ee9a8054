package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	figmapdf "github.com/kataras/figma-pdf-exporter"
	"github.com/kataras/figma-pdf-exporter/pkg/config"
	"github.com/kataras/figma-pdf-exporter/pkg/figma"
	"github.com/kataras/figma-pdf-exporter/pkg/validate"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const version = figma.Version

var (
	figmaURL       string
	accessToken    string
	nodeIDs        string
	configFile     string
	outputFile     string
	framesDir      string
	eventsFile     string
	exportType     string
	qualityScale   float64
	journalPath    string
	deepValidation bool
	noPNGFallback  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "figma-pdf-export",
		Short: "Export Figma frames to a single PDF",
		Long:  "A tool that exports Figma frames to PDF, keeping vector output where it is faithful and rasterizing only what has to be",
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export frames to a PDF",
		RunE:  runExport,
	}
	addSourceFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output PDF file (default from config, frames.pdf)")
	exportCmd.Flags().StringVar(&framesDir, "frames-dir", "", "Also write every frame to its own file in this directory")
	exportCmd.Flags().StringVar(&eventsFile, "events", "", "Write every controller notification as JSON lines to this file")
	exportCmd.Flags().StringVar(&exportType, "type", "", "Export type: vector or raster")
	exportCmd.Flags().Float64Var(&qualityScale, "scale", 0, "Raster quality scale (0 < scale <= 4)")
	exportCmd.Flags().StringVar(&journalPath, "journal", "", "SQLite journal used to restore frames after an interrupted export")
	exportCmd.Flags().BoolVar(&deepValidation, "deep-validation", false, "Parse every exported PDF with pdfcpu")
	exportCmd.Flags().BoolVar(&noPNGFallback, "no-png-fallback", false, "Report unusable frames as failed instead of re-exporting them as PNG")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Report the export strategy of every frame without exporting",
		RunE:  runAnalyze,
	}
	addSourceFlags(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the markdown report to this file instead of stdout")

	validateCmd := &cobra.Command{
		Use:   "validate <file.pdf>...",
		Short: "Check PDF files for structural problems",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("figma-pdf-export version %s\n", version)
		},
	}

	rootCmd.AddCommand(exportCmd, analyzeCmd, validateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&figmaURL, "url", "u", "", "Figma file URL (required)")
	cmd.Flags().StringVarP(&accessToken, "token", "t", "", "Figma Personal Access Token (default $FIGMA_TOKEN)")
	cmd.Flags().StringVarP(&nodeIDs, "node-ids", "n", "", "Comma-separated frame IDs (default: node ids of the URL, then every top-level frame)")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	cmd.MarkFlagRequired("url")
}

// loadOptions merges the configuration file with the flags that were set.
func loadOptions(cmd *cobra.Command) (figmapdf.Options, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return figmapdf.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("type") {
		cfg.ExportType = exportType
	}
	if flags.Changed("scale") {
		cfg.QualityScale = qualityScale
	}
	if flags.Changed("journal") {
		cfg.JournalPath = journalPath
	}
	if flags.Changed("deep-validation") {
		cfg.DeepValidation = deepValidation
	}
	if flags.Changed("no-png-fallback") {
		cfg.PNGFallback = !noPNGFallback
	}
	if flags.Changed("output") {
		cfg.Output = outputFile
	}
	if flags.Changed("events") {
		cfg.EventsPath = eventsFile
	}
	if err := cfg.Validate(); err != nil {
		return figmapdf.Options{}, err
	}

	token := accessToken
	if token == "" {
		token = os.Getenv("FIGMA_TOKEN")
	}
	if token == "" {
		return figmapdf.Options{}, fmt.Errorf("an access token is required: pass --token or set FIGMA_TOKEN")
	}

	opts := figmapdf.Options{
		AccessToken: token,
		FileURL:     figmaURL,
		Config:      cfg,
		Logger:      &cliLogger{},
	}
	if nodeIDs != "" {
		opts.NodeIDs = figmapdf.ParseNodeIDs(nodeIDs)
	}
	return opts, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	cyan.Println("\n📄 Figma PDF Export")
	cyan.Println("====================")
	cyan.Println()

	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	cfg := opts.Config

	if cfg.EventsPath != "" {
		f, err := os.Create(cfg.EventsPath)
		if err != nil {
			return fmt.Errorf("create events file: %w", err)
		}
		defer f.Close()
		opts.Events = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := figmapdf.Export(ctx, opts)
	if err != nil {
		red.Printf("Error: %v\n", err)
		return err
	}

	cyan.Println("\n📊 Export Summary:")
	for _, s := range res.Summaries {
		fmt.Printf("  • Run %s: %d/%d frame(s) exported (%d vector, %d raster, %d segmented)\n",
			s.RunID, s.Succeeded, s.Total, s.Vector, s.Raster, s.Segmented)
		if s.Invalid > 0 {
			fmt.Printf("  • Buffers failing validation: %d\n", s.Invalid)
		}
	}
	fmt.Printf("  • Pages: %d\n", len(res.Pages))
	if len(res.Connections) > 0 {
		fmt.Printf("  • Connections: %d\n", len(res.Connections))
	}
	for _, f := range res.Failed {
		red.Printf("  ✗ %s (%s): %s\n", displayName(f.Name, f.FrameID), f.FrameID, f.Reason)
	}

	if framesDir != "" {
		names, err := res.WriteFrames(framesDir)
		if err != nil {
			red.Printf("Error: %v\n", err)
			return err
		}
		fmt.Printf("  • Frame files: %d in %s\n", len(names), framesDir)
	}

	green.Printf("\n💾 Writing to %s... ", cfg.Output)
	out, err := os.Create(cfg.Output)
	if err == nil {
		err = res.WritePDF(out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		red.Printf("✗\n")
		red.Printf("Error: %v\n", err)
		return err
	}
	green.Println("✓")

	green.Printf("\n✨ Exported %d frame(s) to %s\n\n", len(res.Pages), cfg.Output)
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	report, md, err := figmapdf.Analyze(cmd.Context(), opts)
	if err != nil {
		color.New(color.FgRed).Printf("Error: %v\n", err)
		return err
	}

	if outputFile == "" {
		fmt.Print(md)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(md), 0o644); err != nil {
		return err
	}
	color.New(color.FgGreen).Printf("✨ Analysed %d frame(s), report written to %s\n", len(report.Frames), outputFile)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	invalid := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		r := validate.Deep(data, path)
		if r.IsValid {
			green.Printf("✓ %s\n", path)
		} else {
			invalid++
			red.Printf("✗ %s\n", path)
		}
		for _, e := range r.Errors {
			red.Printf("    %s\n", e)
		}
		for _, w := range r.Warnings {
			yellow.Printf("    ⚠ %s\n", w)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", invalid, len(args))
	}
	return nil
}

func displayName(name, id string) string {
	if strings.TrimSpace(name) == "" {
		return id
	}
	return name
}

// cliLogger implements figmapdf.Logger with colored terminal output.
type cliLogger struct{}

func (l *cliLogger) Infof(format string, args ...any) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}

func (l *cliLogger) Warnf(format string, args ...any) {
	color.New(color.FgYellow).Printf("⚠ "+format+"\n", args...)
}

func (l *cliLogger) Errorf(format string, args ...any) {
	color.New(color.FgRed).Printf("✗ "+format+"\n", args...)
}
