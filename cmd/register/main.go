package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/propertyregister/internal/analysis"
	"github.com/propertyregister/internal/config"
	"github.com/propertyregister/internal/db"
	"github.com/propertyregister/internal/importer"
	"github.com/propertyregister/internal/matcher"
	"github.com/propertyregister/internal/register"
	"github.com/propertyregister/internal/store"
)

var (
	dbConn *db.Connection
	log    *logrus.Logger
)

func main() {
	config.LoadEnv()

	log = logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "register",
		Short: "Property register matching and price analysis",
		Long:  `Imports property price register extracts and answers address match, price history and locality analysis queries`,
	}

	rootCmd.AddCommand(createInitCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createHistoryCmd())
	rootCmd.AddCommand(createAnalysisCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createInitCmd creates the schema bootstrap command
func createInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the property register table and indexes",
		Run: func(cmd *cobra.Command, args []string) {
			if err := dbConn.InitSchema(); err != nil {
				log.Fatalf("Failed to initialize schema: %v", err)
			}
			fmt.Println("Schema ready")
		},
	}
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Database connection successful!")

			recordStore := store.NewPostgresStore(dbConn.DB)
			count, err := recordStore.Count()
			if err != nil {
				log.Printf("Error counting register records: %v", err)
				return
			}
			fmt.Printf("Register records loaded: %d\n", count)
		},
	}
}

func createImportCmd() *cobra.Command {
	var year int

	importCmd := &cobra.Command{
		Use:   "import [filename]",
		Short: "Import a yearly register CSV extract",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				log.Fatalf("Failed to read %s: %v", args[0], err)
			}

			im := importer.NewImporter(store.NewPostgresStore(dbConn.DB), log)
			imported, err := im.ImportBatch(string(data), year)
			if err != nil {
				log.Fatalf("Import failed after %d records: %v", imported, err)
			}
			fmt.Printf("Imported %d records\n", imported)
		},
	}
	importCmd.Flags().IntVar(&year, "year", 0, "source extract year (informational)")
	return importCmd
}

func createSearchCmd() *cobra.Command {
	var (
		county  string
		eircode string
		fuzzy   bool
	)

	searchCmd := &cobra.Command{
		Use:   "search [address]",
		Short: "Find sale records matching an address",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			recordStore := store.NewPostgresStore(dbConn.DB)
			q := resolveQuery(args[0], county, eircode)

			var engine matcher.Matcher
			if fuzzy {
				engine = matcher.NewFuzzyEngine(recordStore, log)
			} else {
				engine = matcher.NewTieredEngine(recordStore, log)
			}

			records, err := engine.Match(q.Address, q.County, q.Eircode)
			if err != nil {
				log.Fatalf("Search failed: %v", err)
			}

			fmt.Printf("Found %d records\n", len(records))
			for _, rec := range records {
				fmt.Printf("  %s  €%.0f  %s\n",
					rec.SaleDate.Format("2006-01-02"), rec.PriceEuros(), rec.Address)
			}
		},
	}
	searchCmd.Flags().StringVar(&county, "county", "", "restrict matching to a county")
	searchCmd.Flags().StringVar(&eircode, "eircode", "", "exact eircode to match first")
	searchCmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "use the edit-distance scoring engine")
	return searchCmd
}

func createHistoryCmd() *cobra.Command {
	var (
		county  string
		eircode string
		fuzzy   bool
	)

	historyCmd := &cobra.Command{
		Use:   "history [address]",
		Short: "Show the per-year average price for an address match set",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			recordStore := store.NewPostgresStore(dbConn.DB)
			q := resolveQuery(args[0], county, eircode)

			var (
				records []register.SaleRecord
				err     error
			)
			if fuzzy {
				engine := matcher.NewFuzzyEngine(recordStore, log)
				records, err = engine.Match(q.Address, q.County, q.Eircode)
				if err == nil {
					records = matcher.FilterMarketBand(records)
				}
			} else {
				records, err = matcher.NewTieredEngine(recordStore, log).Match(q.Address, q.County, q.Eircode)
			}
			if err != nil {
				log.Fatalf("Search failed: %v", err)
			}

			history := analysis.YearOverYear(analysis.PriceHistory(records))
			for _, year := range history {
				change := ""
				if year.Change != "" {
					change = fmt.Sprintf("  (%s vs prev year)", year.Change)
				}
				fmt.Printf("  %d: €%d from %d sales%s\n",
					year.Year, year.AveragePriceEuros, year.Count, change)
			}
		},
	}
	historyCmd.Flags().StringVar(&county, "county", "", "restrict matching to a county")
	historyCmd.Flags().StringVar(&eircode, "eircode", "", "exact eircode to match first")
	historyCmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "use the edit-distance scoring engine with the market sanity band")
	return historyCmd
}

func createAnalysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analysis [locality] [year]",
		Short: "Average price of the top 20 sales for a locality and year",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			var year int
			if _, err := fmt.Sscanf(args[1], "%d", &year); err != nil {
				log.Fatalf("Invalid year %q", args[1])
			}

			analyzer := analysis.NewAnalyzer(store.NewPostgresStore(dbConn.DB), log)
			result, err := analyzer.Analyze(args[0], year)
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}

			fmt.Printf("%s (%d): €%d average over top %d sales\n",
				result.Locality, result.Year, result.AveragePriceEuros, result.Count)
			for _, rec := range result.TopRecords {
				fmt.Printf("  €%.0f  %s\n", rec.PriceEuros(), rec.Address)
			}
		},
	}
}

// resolveQuery merges explicit flags with whatever can be extracted from the
// free-text address.
func resolveQuery(address, county, eircode string) register.Query {
	q := register.ParseQuery(address)
	if c := register.CanonicalCounty(county); c != "" {
		q.County = c
	}
	if eircode != "" {
		q.Eircode = register.NormalizeEircode(eircode)
	}
	return q
}
