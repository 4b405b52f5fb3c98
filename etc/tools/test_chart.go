package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sales-analysis/internal/features/charts"
	"sales-analysis/internal/sales"
)

// go run etc/tools/test_chart.go
// writes a random etc/charts/sales_data.csv and renders the four charts next to it
func main() {
	rows := flag.Int("rows", 60, "number of generated records")
	missing := flag.Float64("missing", 0.05, "share of blank Sales/Profit cells")
	dir := flag.String("dir", filepath.Join("etc", "charts"), "output directory")
	flag.Parse()

	fmt.Println("Generating test data...")

	dataPath := filepath.Join(*dir, "sales_data.csv")
	if err := writeSample(dataPath, *rows, *missing); err != nil {
		fmt.Printf("Error generating data: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Data generated successfully: %s\n", dataPath)

	table, err := sales.Load(dataPath, sales.DefaultLoadOptions())
	if err != nil {
		fmt.Printf("Error loading data: %v\n", err)
		os.Exit(1)
	}
	table, _ = sales.Clean(table, sales.DefaultCleanOptions())

	renderer := charts.NewRenderer(charts.DefaultStyle(), *dir)
	for _, res := range renderer.RenderAll(context.Background(), table) {
		if res.Err != nil {
			fmt.Printf("Error generating %s chart: %v\n", res.View, res.Err)
			continue
		}
		fmt.Printf("Chart generated successfully: %s\n", res.Path)
	}
	fmt.Println("Open the files to see the result!")
}

func writeSample(path string, rows int, missing float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// West gets the highest base so the fixed observation holds
	regions := []string{"East", "North", "South", "West"}
	base := map[string]float64{"East": 180, "North": 150, "South": 200, "West": 260}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	w := csv.NewWriter(f)
	w.Write([]string{sales.ColumnDate, sales.ColumnRegion, sales.ColumnSales, sales.ColumnProfit})
	for i := 0; i < rows; i++ {
		region := regions[rnd.Intn(len(regions))]
		amount := base[region] + rnd.NormFloat64()*40
		profit := amount*0.2 + rnd.NormFloat64()*15

		salesCell := strconv.FormatFloat(amount, 'f', 2, 64)
		profitCell := strconv.FormatFloat(profit, 'f', 2, 64)
		if rnd.Float64() < missing {
			salesCell = ""
		}
		if rnd.Float64() < missing {
			profitCell = ""
		}
		w.Write([]string{start.AddDate(0, 0, i).Format(sales.DateLayout), region, salesCell, profitCell})
	}
	w.Flush()
	return w.Error()
}
