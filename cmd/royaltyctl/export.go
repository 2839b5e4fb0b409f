package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"royaltyhub/config"
	"royaltyhub/integrations/exports"
	"royaltyhub/native/royalty"
	"royaltyhub/storage"
)

type exportOptions struct {
	driver  string
	dsn     string
	what    string
	format  string
	listing string
	out     string
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet(exportCommand, flag.ContinueOnError)
	configPath := fs.String("config", "", "royaltyd configuration to read the storage section from")
	opts := exportOptions{}
	fs.StringVar(&opts.driver, "driver", "", "storage driver (sqlite, postgres, leveldb)")
	fs.StringVar(&opts.dsn, "dsn", "", "storage dsn or leveldb directory")
	fs.StringVar(&opts.what, "what", "sales", "dataset to export: claims or sales")
	fs.StringVar(&opts.format, "format", "csv", "output format: csv, jsonl or parquet")
	fs.StringVar(&opts.listing, "listing", "", "restrict the export to one royalty listing")
	fs.StringVar(&opts.out, "out", "", "output file (stdout when empty; required for parquet)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath != "" {
		if _, err := os.Stat(*configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		if opts.driver == "" {
			opts.driver = cfg.Storage.Driver
		}
		if opts.dsn == "" {
			opts.dsn = cfg.Storage.DSN
		}
	}
	if opts.driver == "" {
		return errors.New("-driver or -config is required")
	}

	db, err := storage.Open(opts.driver, opts.dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := royalty.NewEngine()
	engine.SetStore(db)
	return export(context.Background(), engine, opts, out)
}

func export(ctx context.Context, engine *royalty.Engine, opts exportOptions, out io.Writer) error {
	var listing [20]byte
	if opts.listing != "" {
		addr, err := parseFlagAddress("listing", opts.listing)
		if err != nil {
			return err
		}
		listing = addr
	}
	if opts.format == "parquet" && opts.out == "" {
		return errors.New("-out is required for parquet exports")
	}

	var (
		data     []byte
		checksum string
		rows     int
		err      error
	)
	switch opts.what {
	case "claims":
		claims, listErr := engine.ListClaims(ctx, listing)
		if listErr != nil {
			return listErr
		}
		rows = len(claims)
		switch opts.format {
		case "csv":
			data, checksum, err = exports.ClaimsCSV(claims)
		case "jsonl":
			data, checksum, err = exports.ClaimsJSONL(claims)
		case "parquet":
			checksum, err = exports.WriteClaimsParquet(opts.out, claims)
		default:
			return fmt.Errorf("unknown -format %q", opts.format)
		}
	case "sales":
		sales, listErr := engine.ListSales(ctx, listing)
		if listErr != nil {
			return listErr
		}
		rows = len(sales)
		switch opts.format {
		case "csv":
			data, checksum, err = exports.SalesCSV(sales)
		case "jsonl":
			data, checksum, err = exports.SalesJSONL(sales)
		case "parquet":
			checksum, err = exports.WriteSalesParquet(opts.out, sales)
		default:
			return fmt.Errorf("unknown -format %q", opts.format)
		}
	default:
		return fmt.Errorf("unknown -what %q", opts.what)
	}
	if err != nil {
		return err
	}

	if opts.format != "parquet" {
		if opts.out == "" {
			_, err := out.Write(data)
			return err
		}
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "wrote %d %s to %s (blake3 %s)\n", rows, opts.what, opts.out, checksum)
	return nil
}
