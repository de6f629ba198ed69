package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"sif/clip"
	"sif/export"
	"sif/info"
	"sif/merge"
)

type CmdArgs struct {
	Merge  *merge.Config  `arg:"subcommand:merge" help:"Merge batches of IPF point files"`
	Clip   *clip.Config   `arg:"subcommand:clip" help:"Clip an IDF raster to an extent"`
	Info   *info.Config   `arg:"subcommand:info" help:"Write a CSV inventory of IDF/IPF files"`
	Export *export.Config `arg:"subcommand:export" help:"Export IPF timeseries to Postgres"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Only the export subcommand needs credentials (SIF_DB_CONN_STRING),
	// so a missing .env is not an error here
	if err := godotenv.Load(); err != nil {
		slog.Debug(fmt.Sprintf("No .env file loaded: %v", err))
	}

	var args CmdArgs
	parser := arg.MustParse(&args)

	var err error
	switch {
	case args.Merge != nil:
		err = args.Merge.Execute()
	case args.Clip != nil:
		err = args.Clip.Execute()
	case args.Info != nil:
		err = args.Info.Execute()
	case args.Export != nil:
		err = args.Export.Execute()
	default:
		fmt.Println("Error: passing a subcommand is required.")
		fmt.Println()
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
