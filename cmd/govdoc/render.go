package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"govdoc/internal/asset"
	"govdoc/internal/convert"
	"govdoc/internal/domain/issuance"
	"govdoc/internal/layout"
	"govdoc/pkg/logger"
)

var renderCmd = &cobra.Command{
	Use:   "render [request.json]",
	Short: "Render a document request",
	Long: `Renders an issuance request (JSON, "-" for stdin) to PDF. Numbers are
allocated from the local database; asset keys refer to blobs stored with
"govdoc asset put". --format html prints the conversion markup and any other
format is produced by the external converter.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

// render flags
var (
	renderOut       string
	renderFormat    string
	renderGeometry  string
	renderConverter string
	assetTimeout    time.Duration
)

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "-", `Output file ("-" for stdout)`)
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "pdf", "Output format: pdf, html, docx, odt, doc or rtf")
	renderCmd.Flags().StringVar(&renderGeometry, "geometry", "", "TOML file overriding page geometry and letterhead")
	renderCmd.Flags().StringVar(&renderConverter, "converter", "soffice", "Conversion program for editable formats")
	renderCmd.Flags().DurationVar(&assetTimeout, "asset-timeout", 3*time.Second, "Per-image fetch timeout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	raw, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	var req issuance.Request
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	cfg, err := layout.LoadConfig(renderGeometry)
	if err != nil {
		return err
	}
	engine, err := layout.NewEngine(cfg)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	numbers, err := numberingService(store)
	if err != nil {
		return err
	}

	convCfg := convert.DefaultExecConfig()
	convCfg.Binary = renderConverter

	svc := issuance.NewService(cfg, issuance.Deps{
		Engine:    engine,
		Numbers:   numbers,
		Assets:    asset.NewFetcher(store.Blobs(), assetTimeout),
		Converter: convert.NewExecConverter(convCfg),
	})

	var out []byte
	switch format := strings.ToLower(renderFormat); format {
	case "pdf":
		doc, err := svc.Issue(ctx, req)
		if err != nil {
			return err
		}
		logger.Info(ctx, "document rendered", "pages", doc.PageCount, "number", doc.Number)
		out = doc.Bytes
	case "html":
		out, err = svc.Markup(ctx, req)
	default:
		out, err = svc.Convert(ctx, req, format)
	}
	if err != nil {
		return err
	}

	if renderOut == "-" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(renderOut, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	cmd.PrintErrf("wrote %s (%d bytes)\n", renderOut, len(out))
	return nil
}
