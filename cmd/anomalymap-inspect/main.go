package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chrissnell/anomalymap/internal/app"
	"github.com/chrissnell/anomalymap/internal/dashboard"
	"github.com/chrissnell/anomalymap/internal/dataset"
	"github.com/chrissnell/anomalymap/internal/log"
	"github.com/chrissnell/anomalymap/internal/scale"
	"github.com/chrissnell/anomalymap/internal/scene"
	"github.com/chrissnell/anomalymap/pkg/config"
	"github.com/chrissnell/anomalymap/pkg/responseformat"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	cfgBackend string
	debug      bool
	year       int
	kind       string
	format     string
	measure    string
	bins       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "anomalymap-inspect",
		Short: "inspect scales, years and scenes without starting the server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "configuration source")
	rootCmd.PersistentFlags().StringVar(&cfgBackend, "config-backend", "yaml", "configuration backend: yaml or sqlite")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "turn on debugging output")

	ticksCmd := &cobra.Command{
		Use:   "ticks",
		Short: "print the classes, colors and tick labels of both scales",
		RunE:  runTicks,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "validate the configuration and scales",
		RunE:  runValidate,
	}

	yearsCmd := &cobra.Command{
		Use:   "years",
		Short: "list the years in the dataset with their row counts",
		RunE:  runYears,
	}

	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "compose a scene and write it to stdout",
		RunE:  runScene,
	}
	sceneCmd.Flags().IntVar(&year, "year", dashboard.DefaultYear, "year to compose")
	sceneCmd.Flags().StringVar(&kind, "kind", dashboard.SceneMap, "scene kind: map or distribution")
	sceneCmd.Flags().StringVar(&format, "format", "json", "output format: json or msgpack")

	histCmd := &cobra.Command{
		Use:   "histogram",
		Short: "plot the anomaly histogram of one measure for a year",
		RunE:  runHistogram,
	}
	histCmd.Flags().IntVar(&year, "year", dashboard.DefaultYear, "year to plot")
	histCmd.Flags().StringVar(&measure, "measure", dataset.SpringANPP.Column(), "measure column")
	histCmd.Flags().IntVar(&bins, "bins", 30, "number of histogram bins")

	rootCmd.AddCommand(ticksCmd, validateCmd, yearsCmd, sceneCmd, histCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s", cfgBackend)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func loadContext() (*dashboard.Context, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.NewDashboardContext(cfg)
}

func runTicks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	anomaly, precipitation, err := app.LoadScales(cfg.Scales)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, s := range []*scale.Scale{anomaly, precipitation} {
		fmt.Fprintf(w, "%s\n", s.Name)
		fmt.Fprintf(w, "CLASS\tCOLOR\tTICK\tLABEL\n")
		for k, t := range s.Ticks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", k, s.ClassColor(k), strconv.FormatFloat(t.Position, 'g', -1, 64), t.Label)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, _, err := app.LoadScales(cfg.Scales); err != nil {
		return err
	}
	fmt.Println("configuration OK")
	return nil
}

func runYears(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "YEAR\tROWS\n")
	for _, y := range ctx.Dataset.Years() {
		rows, _ := ctx.Dataset.SliceByYear(y)
		fmt.Fprintf(w, "%d\t%d\n", y, len(rows))
	}
	return w.Flush()
}

func runScene(cmd *cobra.Command, args []string) error {
	var useMsgPack bool
	switch format {
	case "json":
	case "msgpack":
		useMsgPack = true
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	ctx, err := loadContext()
	if err != nil {
		return err
	}

	c := dashboard.NewController(ctx, log.Named("inspect"))
	fig, err := c.SceneForYear(kind, year)
	if err != nil {
		return err
	}

	data, err := responseformat.NewFormatter().Encode(fig, useMsgPack)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runHistogram(cmd *cobra.Command, args []string) error {
	m, ok := dataset.ParseMeasure(measure)
	if !ok {
		return fmt.Errorf("unknown measure %q", measure)
	}

	ctx, err := loadContext()
	if err != nil {
		return err
	}

	rows, err := ctx.Dataset.SliceByYear(year)
	if err != nil {
		return err
	}

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Delta(m)
	}

	h := scene.NewHistogram(values, bins)
	if len(h.Counts) == 0 {
		return fmt.Errorf("no finite values for %s in %d", m.Column(), year)
	}

	caption := fmt.Sprintf("%s %d  [%s, %s]", m.Title(), year,
		strconv.FormatFloat(h.Edges[0], 'f', 1, 64),
		strconv.FormatFloat(h.Edges[len(h.Edges)-1], 'f', 1, 64))

	graph := asciigraph.Plot(h.Counts,
		asciigraph.Height(15),
		asciigraph.Width(int(math.Max(float64(len(h.Counts)), 60))),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println(strings.Repeat("-", 20))
	fmt.Printf("rows: %d\n", len(rows))
	return nil
}
