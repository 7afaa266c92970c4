package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stephenfire/go-xlbook"
	"github.com/urfave/cli/v2"
)

var log = logrus.New()

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "load settings from the TOML `FILE`",
		Aliases: []string{"c"},
	}

	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Usage:   "log debug messages",
		Aliases: []string{"v"},
	}

	tempDirFlag = &cli.StringFlag{
		Name:  "temp-dir",
		Usage: "stage workbooks and sheet exports under `DIR`",
	}

	converterFlag = &cli.StringFlag{
		Name:  "converter",
		Usage: "sheet exporter: native or soffice",
	}

	sofficeFlag = &cli.StringFlag{
		Name:  "soffice",
		Usage: "LibreOffice binary `PATH` for the soffice converter",
	}

	charsetFlag = &cli.BoolFlag{
		Name:  "detect-charset",
		Usage: "detect and transcode CSV that is not UTF-8",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "print JSON instead of text",
	}

	tablesFlag = &cli.BoolFlag{
		Name:  "tables",
		Usage: "print the tables as JSON arrays of rows",
	}

	sheetFlag = &cli.StringFlag{
		Name:    "sheet",
		Usage:   "sheet `NAME`, the first sheet when omitted",
		Aliases: []string{"s"},
	}

	rowFlag = &cli.IntFlag{
		Name:     "row",
		Usage:    "zero-based `ROW`",
		Required: true,
		Aliases:  []string{"r"},
	}

	colFlag = &cli.IntFlag{
		Name:     "col",
		Usage:    "zero-based `COLUMN`",
		Required: true,
		Aliases:  []string{"k"},
	}

	allFlags = []cli.Flag{
		configFlag,
		verboseFlag,
		tempDirFlag,
		converterFlag,
		sofficeFlag,
		charsetFlag,
	}
)

func main() {
	app := &cli.App{
		Name:      "xlbook",
		Usage:     "read spreadsheets and CSV files as xlrd style workbooks",
		Version:   xlbook.Version,
		Copyright: xlbook.Copyright,
		Flags:     allFlags,
		Commands: []*cli.Command{
			{
				Name:      "sheets",
				Usage:     "list sheet names in workbook order",
				ArgsUsage: "FILE",
				Action:    listSheets,
			},
			{
				Name:      "dump",
				Usage:     "print every non-empty cell",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{jsonFlag},
				Action:    dump,
			},
			{
				Name:      "cell",
				Usage:     "print one cell value",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{sheetFlag, rowFlag, colFlag},
				Action:    cell,
			},
			{
				Name:      "text",
				Usage:     "print the text of a Word document, led by a form feed",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{tablesFlag},
				Action:    docText,
			},
			{
				Name:      "sniff",
				Usage:     "report the Office container type of a file",
				ArgsUsage: "FILE",
				Action:    sniff,
			},
		},
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	sort.Sort(cli.FlagsByName(app.Flags))
	for _, cmd := range app.Commands {
		sort.Sort(cli.FlagsByName(cmd.Flags))
	}
	var canceled atomic.Bool
	baseCtx, cancel := context.WithCancel(context.Background())
	go func() {
		defer func() {
			if canceled.CompareAndSwap(false, true) {
				cancel()
			}
		}()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		ss := <-sigs
		log.Warnf("GOT A SYSTEM SIGNAL[%s]", ss.String())
	}()
	if err := app.RunContext(baseCtx, os.Args); err != nil {
		log.Errorf("exit from main: %v", err)
		if canceled.CompareAndSwap(false, true) {
			cancel()
		}
		os.Exit(1)
	}
}

// loadConfig merges the config file and the global flags.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg, err := LoadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(verboseFlag.Name) {
		cfg.Verbose = ctx.Bool(verboseFlag.Name)
	}
	if ctx.IsSet(tempDirFlag.Name) {
		cfg.TempDir = ctx.String(tempDirFlag.Name)
	}
	if ctx.IsSet(converterFlag.Name) {
		cfg.Converter = ctx.String(converterFlag.Name)
	}
	if ctx.IsSet(sofficeFlag.Name) {
		cfg.Soffice.Path = ctx.String(sofficeFlag.Name)
	}
	if ctx.IsSet(charsetFlag.Name) {
		cfg.DetectCharset = ctx.Bool(charsetFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func options(cfg *Config) []xlbook.Option {
	log.SetOutput(os.Stderr)
	if cfg.Verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	opts := []xlbook.Option{xlbook.WithLogger(log), xlbook.WithTempDir(cfg.TempDir)}
	if cfg.DetectCharset {
		opts = append(opts, xlbook.WithCharsetDetection())
	}
	switch cfg.Converter {
	case converterSoffice:
		opts = append(opts, xlbook.WithConverter(&xlbook.SofficeConverter{
			Path:    cfg.Soffice.Path,
			Timeout: time.Duration(cfg.Soffice.TimeoutSeconds) * time.Second,
			Logger:  log,
		}))
	default:
		opts = append(opts, xlbook.WithConverter(&xlbook.NativeConverter{Logger: log}))
	}
	return opts
}

func openBook(ctx *cli.Context) (*xlbook.Book, error) {
	filename := ctx.Args().First()
	if filename == "" {
		return nil, cli.Exit("missing FILE argument", 2)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	book, err := xlbook.Open(ctx.Context, filename, options(cfg)...)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("%s: no sheets", filename)
	}
	return book, nil
}

func listSheets(ctx *cli.Context) error {
	book, err := openBook(ctx)
	if err != nil {
		return err
	}
	for i, name := range book.SheetNames() {
		fmt.Printf("%4d: %s\n", i, name)
	}
	return nil
}

type (
	jsonCell struct {
		Row   int    `json:"row"`
		Col   int    `json:"col"`
		Value string `json:"value"`
	}

	jsonSheet struct {
		Name  string     `json:"name"`
		Cells []jsonCell `json:"cells"`
	}
)

func dump(ctx *cli.Context) error {
	book, err := openBook(ctx)
	if err != nil {
		return err
	}
	if !ctx.Bool(jsonFlag.Name) {
		fmt.Print(book.String())
		return nil
	}

	sheets := make([]jsonSheet, 0, book.NSheets())
	for _, sheet := range book.Sheets() {
		js := jsonSheet{Name: sheet.Name(), Cells: []jsonCell{}}
		for _, c := range sheet.Cells().Coords() {
			v, _ := sheet.Cells().Get(c.Row, c.Col)
			js.Cells = append(js.Cells, jsonCell{Row: c.Row, Col: c.Col, Value: v})
		}
		sheets = append(sheets, js)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sheets)
}

func cell(ctx *cli.Context) error {
	book, err := openBook(ctx)
	if err != nil {
		return err
	}
	var sheet *xlbook.Sheet
	if name := ctx.String(sheetFlag.Name); name != "" {
		sheet, err = book.SheetByName(name)
	} else {
		sheet, err = book.SheetByIndex(0)
	}
	if err != nil {
		return err
	}
	v, err := sheet.CellValue(ctx.Int(rowFlag.Name), ctx.Int(colFlag.Name))
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

// docText prints nothing for files that are not Word documents. A .doc
// needs the soffice converter.
func docText(ctx *cli.Context) error {
	filename := ctx.Args().First()
	if filename == "" {
		return cli.Exit("missing FILE argument", 2)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	doc, err := xlbook.ReadDocument(ctx.Context, filename, options(cfg)...)
	if err != nil || doc == nil {
		return err
	}
	if ctx.Bool(tablesFlag.Name) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc.Tables)
	}
	fmt.Print("\f" + doc.Text + "\n")
	return nil
}

func sniff(ctx *cli.Context) error {
	filename := ctx.Args().First()
	if filename == "" {
		return cli.Exit("missing FILE argument", 2)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	fmt.Printf("office: %t\nkind: %s\n", xlbook.IsOfficeFile(data), xlbook.ProbeOffice(data))
	return nil
}
