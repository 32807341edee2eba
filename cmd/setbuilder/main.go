package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/northlane/contentpool/internal/app"
)

type categoryList []string

func (l *categoryList) String() string { return strings.Join(*l, ",") }
func (l *categoryList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// setbuilder runs one Set Builder batch synchronously (spec §4.1),
// bypassing the Temporal workflow for local runs and backfills.
func main() {
	var categories categoryList
	var numSetsPerCategory, itemsPerSet int
	flag.Var(&categories, "category", "category id to build (repeatable; default: every category in the table)")
	flag.IntVar(&numSetsPerCategory, "num-sets", 10, "sets to build per category")
	flag.IntVar(&itemsPerSet, "items-per-set", 5, "items per set")
	flag.Parse()

	if numSetsPerCategory <= 0 || itemsPerSet <= 0 {
		fmt.Println("num-sets and items-per-set must be positive")
		os.Exit(1)
	}

	a, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(2)
	}
	defer a.Close()

	categoryIDs := []string(categories)
	if len(categoryIDs) == 0 {
		categoryIDs = a.Core.Categories.All()
	}
	if len(categoryIDs) == 0 {
		fmt.Println("no categories to build; pass -category or populate the category table")
		os.Exit(1)
	}

	report, err := a.Core.Builder.Build(context.Background(), categoryIDs, numSetsPerCategory, itemsPerSet)
	if err != nil {
		fmt.Printf("build failed: %v\n", err)
		os.Exit(2)
	}

	failed := false
	for _, categoryID := range categoryIDs {
		cr, ok := report.PerCategory[categoryID]
		if !ok {
			continue
		}
		switch {
		case cr.Err != nil:
			failed = true
			fmt.Printf("%s: error: %v\n", categoryID, cr.Err)
		case cr.Shortfall:
			fmt.Printf("%s: shortfall, watermark=%s\n", categoryID, cr.Watermark)
		default:
			fmt.Printf("%s: emitted %d sets, watermark=%s\n", categoryID, cr.SetsEmitted, cr.Watermark)
		}
	}
	if failed {
		os.Exit(2)
	}
}
