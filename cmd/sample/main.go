// Command sample demonstrates building a Table by hand and by import
// against a small CSV file, then printing the result.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lychee-technology/gridstore"
	"github.com/lychee-technology/gridstore/internal/importer"
	"github.com/lychee-technology/gridstore/internal/pagestore"
)

func intColumn(vs ...int64) pagestore.Values {
	return pagestore.Values{Type: pagestore.Int64, Int64s: vs}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sample:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := gridstore.DefaultEngineConfig()
	cfg.ColdStore.DBPath = ":memory:"
	cfg.Logging.Level = "warn"

	engine, err := gridstore.Open(cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()

	if err := buildTableByHand(engine); err != nil {
		return fmt.Errorf("build by hand: %w", err)
	}

	if err := importCSVTable(ctx, engine); err != nil {
		return fmt.Errorf("import csv: %w", err)
	}

	zap.S().Infow("sample: done", "tables", engine.SavedTables())
	return nil
}

func buildTableByHand(engine *gridstore.Engine) error {
	tbl, err := engine.NewTable("manual")
	if err != nil {
		return err
	}
	if err := tbl.AddColumn("id", intColumn(1, 2, 3)); err != nil {
		return err
	}
	fmt.Println("manual table columns:", tbl.ColumnNames())
	return nil
}

func importCSVTable(ctx context.Context, engine *gridstore.Engine) error {
	path, cleanup, err := writeSampleCSV()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	imp, err := engine.Importer(":memory:")
	if err != nil {
		return err
	}

	icfg := importer.Config{
		SourcePath: path,
		SourceSize: info.Size(),
		Delimiter:  ",",
		Newline:    "\n",
		HasHeader:  true,
		Columns: []importer.ColumnSelection{
			{Name: "id", Index: 0, ElementType: "int64"},
			{Name: "name", Index: 1, ElementType: "string"},
		},
		WorkerCount:   2,
		WorkingMemory: 1 << 20,
	}

	tbl, err := engine.ImportTable(ctx, imp, "imported", "sample-import", icfg)
	if err != nil {
		return err
	}
	fmt.Println("imported table columns:", tbl.ColumnNames())
	return nil
}

func writeSampleCSV() (string, func(), error) {
	f, err := os.CreateTemp("", "gridstore-sample-*.csv")
	if err != nil {
		return "", nil, err
	}
	if _, err := f.WriteString("id,name\n1,alice\n2,bob\n3,carol\n"); err != nil {
		f.Close()
		return "", nil, err
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}
