package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"marketselect/internal/config"
	"marketselect/internal/database"
	"marketselect/internal/feasibility"
	"marketselect/internal/geo"
	"marketselect/internal/kpi"
	"marketselect/internal/loader"
	"marketselect/internal/rank"
	"marketselect/internal/report"
	"marketselect/internal/types"
)

func main() {
	var (
		configPath = flag.String("config", "marketselect.yml", "path to yaml config")
		source     = flag.String("source", "file", "data source: file or db")
		dataFile   = flag.String("data", "", "override market data file (csv/txt/xlsx)")
		metroPath  = flag.String("metro", "", "override metro boundary shapefile")
		cityName   = flag.String("city", "", "model this city instead of the top-ranked one")
		outDir     = flag.String("out", "", "override report output directory")
		serveMode  = flag.Bool("serve", false, "serve results as a JSON API instead of the interactive loop")
		noExport   = flag.Bool("no-export", false, "skip CSV/Excel report export")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.SetupLogger()

	if *dataFile != "" {
		cfg.Paths.DataFile = *dataFile
	}
	if *metroPath != "" {
		cfg.Paths.MetroShapefile = *metroPath
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	start := time.Now()
	records, db, err := loadRecords(cfg, *source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load market data: %v\n", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}
	fmt.Printf("Market data loaded in %v (%d records)\n", time.Since(start).Truncate(time.Millisecond), len(records))

	res, err := runPipeline(cfg, records, *cityName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if db != nil {
		res.History = db
	}

	report.RenderRanking(os.Stdout, res.Ranked, res.Excluded)
	report.RenderProForma(os.Stdout, res.ProForma)
	report.RenderSensitivity(os.Stdout, res.Sensitivity)

	if !*noExport {
		exportReports(cfg, res)
	}

	if *serveMode {
		if err := serve(cfg.Server.Addr, res); err != nil {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Interactive loop for further city lookups.
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter city, 'browse', 'shortlist' (blank to quit): ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			break
		}
		if strings.EqualFold(input, "browse") {
			browseRanking(cfg, res)
			continue
		}
		if strings.EqualFold(input, "shortlist") {
			showShortlist(cfg, res)
			continue
		}
		modelAndRender(cfg, res, input, true)
	}
}

// loadRecords reads market records from the configured source. For the
// database source the open handle is returned too, so interactive lookups can
// query single-city history later; the caller closes it.
func loadRecords(cfg *config.Config, source string) ([]types.MarketRecord, *database.Database, error) {
	switch source {
	case "file":
		records, err := loader.LoadFile(cfg.Paths.DataFile)
		return records, nil, err
	case "db":
		if cfg.Database.Password == "" {
			pw, err := promptPassword(cfg.Database.Username)
			if err != nil {
				return nil, nil, err
			}
			cfg.Database.Password = pw
		}
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		records, err := db.QueryMarketRecords(context.Background())
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return records, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q (want file or db)", source)
	}
}

// promptPassword reads the database password without echoing it.
func promptPassword(username string) (string, error) {
	fmt.Printf("Password for %s: ", username)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// runPipeline executes KPI calculation, ranking, feasibility, and sensitivity
// and bundles the outputs.
func runPipeline(cfg *config.Config, records []types.MarketRecord, cityOverride string) (*Results, error) {
	kpis, excluded := kpi.Compute(records)

	if cfg.Paths.MetroShapefile != "" {
		metro, err := geo.LoadMetro(cfg.Paths.MetroShapefile)
		if err != nil {
			return nil, fmt.Errorf("failed to load metro boundary: %w", err)
		}
		kpis = metro.FilterKPIs(kpis)
	}

	ranked := rank.Rank(kpis, cfg.Weights)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("no cities survived KPI calculation; nothing to rank")
	}
	res := &Results{Ranked: ranked, Excluded: excluded}

	target, _ := rank.Top(ranked)
	if cityOverride != "" {
		r, ok := res.findCity(cityOverride)
		if !ok {
			return nil, fmt.Errorf("city %q not present in the ranking", cityOverride)
		}
		target = r
	}
	slog.Info("selected market", "city", target.City, "rank", target.Rank, "composite", target.Composite)

	assumptions := cityAssumptions(cfg.Assumptions, target.CityKPI)
	res.ProForma = feasibility.Run(assumptions)
	res.Sensitivity = feasibility.Sensitivity(assumptions, cfg.Sensitivity)
	return res, nil
}

// cityAssumptions merges the configured financial assumptions with the
// selected city's observed KPIs: rent growth, vacancy, and expense ratio come
// from the market data, everything else from configuration.
func cityAssumptions(base types.Assumptions, k types.CityKPI) types.Assumptions {
	a := base
	a.City = k.City
	a.RentGrowth = k.RentCAGR
	a.VacancyRate = k.AvgVacancy
	if k.AvgExpenseRatio > 0 {
		a.ExpenseRatio = k.AvgExpenseRatio
	}
	return a
}

// modelAndRender runs the feasibility model for the named city and displays
// the pro forma. With askSave set it offers to add the city to the shortlist.
func modelAndRender(cfg *config.Config, res *Results, city string, askSave bool) {
	r, ok := res.findCity(city)
	if !ok {
		fmt.Printf("No ranked city matching: %s\n", city)
		return
	}
	k := refreshedKPI(res.History, r.CityKPI)
	pf := feasibility.Run(cityAssumptions(cfg.Assumptions, k))
	report.RenderProForma(os.Stdout, pf)

	if askSave {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Save to shortlist? (y/N): ")
		resp, _ := reader.ReadString('\n')
		resp = strings.ToLower(strings.TrimSpace(resp))
		if resp == "y" || resp == "yes" {
			if err := saveShortlisted(cfg.Paths.Shortlist, r.City); err != nil {
				fmt.Printf("Failed to save shortlist entry: %v\n", err)
			} else {
				fmt.Println("City shortlisted.")
			}
		}
	}
}

// browseRanking opens the arrow-key browser over the full ranking.
func browseRanking(cfg *config.Config, res *Results) {
	var cities, lines []string
	for _, r := range res.Ranked {
		cities = append(cities, r.City)
		lines = append(lines, fmt.Sprintf("%2d. %-20s | score %.4f | CAGR %5.2f%% | vac %5.2f%%",
			r.Rank, r.City, r.Composite, r.RentCAGR*100, r.AvgVacancy*100))
	}
	fmt.Println("Use ↑/↓ and Enter for the pro forma, Esc to exit.")
	interactiveSelect(cities, lines, func(city string) {
		modelAndRender(cfg, res, city, true)
	})
}

// exportReports writes the CSV files and the Excel workbook. Export failures
// are warnings; the on-screen report already happened.
func exportReports(cfg *config.Config, res *Results) {
	w := report.NewCSVWriter(cfg.Paths.OutputDir)
	if err := w.WriteRanking(res.Ranked); err != nil {
		slog.Warn("ranking export failed", "error", err)
	}
	if err := w.WriteProForma(res.ProForma); err != nil {
		slog.Warn("pro forma export failed", "error", err)
	}
	if err := w.WriteSensitivity(res.Sensitivity); err != nil {
		slog.Warn("sensitivity export failed", "error", err)
	}
	if err := report.WriteWorkbook(cfg.Paths.OutputDir, res.Ranked, res.ProForma, res.Sensitivity); err != nil {
		slog.Warn("workbook export failed", "error", err)
	}
}
