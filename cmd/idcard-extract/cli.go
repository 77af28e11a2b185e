package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/document"
	"github.com/a3tai/mcp-idcard-reader/internal/parser"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

var errNotVerified = errors.New("claims do not match the document")

// serviceFactory builds the document service for a configuration.
type serviceFactory func(ctx context.Context, cfg *config.Config) (*document.Service, io.Closer, error)

type cli struct {
	cfg        *config.Config
	format     string
	password   string
	debug      bool
	newService serviceFactory
}

// fileResult is the outcome for one input file.
type fileResult struct {
	File   string         `json:"file" yaml:"file"`
	Kind   string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Pages  int            `json:"pages,omitempty" yaml:"pages,omitempty"`
	Locked bool           `json:"locked,omitempty" yaml:"locked,omitempty"`
	Record *parser.Record `json:"record,omitempty" yaml:"record,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRootCommand(newService serviceFactory) *cobra.Command {
	c := &cli{cfg: config.DefaultConfig(), newService: newService}

	root := &cobra.Command{
		Use:   "idcard-extract [flags] <file>...",
		Short: "Extract structured records from identity card images and PDFs",
		Long: `Reads identity card images with OCR and e-card PDFs through their embedded
text, then prints the parsed record. With one file the bare record is printed;
with several, one entry per file.`,
		Example: `  idcard-extract front.jpg
  idcard-extract --format yaml --script telugu scans/*.png
  idcard-extract --password RAJE1990 ecard.pdf`,
		Args:              cobra.MinimumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: c.prepare,
		RunE:              c.runExtract,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.format, "format", "f", formatJSON, "Output format: json, yaml or text")
	flags.BoolVar(&c.debug, "debug", false, "Log extraction details to stderr")
	flags.StringVar(&c.cfg.Script, "script", c.cfg.Script, "Regional script printed on cards ("+strings.Join(parser.ScriptNames(), ", ")+")")
	flags.StringVar(&c.cfg.OCREngine, "ocr-engine", c.cfg.OCREngine, "OCR engine: tesseract or vision")
	flags.StringVar(&c.cfg.VisionCredentialsFile, "vision-credentials", "", "Google Cloud credentials file for the vision engine")
	flags.IntVar(&c.cfg.PageSegMode, "psm", c.cfg.PageSegMode, "Tesseract page segmentation mode")
	flags.DurationVar(&c.cfg.OCRTimeout, "ocr-timeout", c.cfg.OCRTimeout, "Deadline for a single file")
	flags.Int64Var(&c.cfg.MaxFileSize, "maxfilesize", c.cfg.MaxFileSize, "Maximum file size in bytes")
	flags.StringVar(&c.cfg.LockedPolicy, "locked-policy", c.cfg.LockedPolicy, "Locked PDF handling: fail or partial")
	flags.StringVarP(&c.password, "password", "p", "", "Password for protected PDFs")

	root.AddCommand(c.newParseCommand(), c.newVerifyCommand())
	return root
}

// prepare validates flags and routes logs before any subcommand runs.
func (c *cli) prepare(cmd *cobra.Command, _ []string) error {
	switch c.format {
	case formatJSON, formatYAML, formatText:
	default:
		return fmt.Errorf("unknown output format %q (must be json, yaml or text)", c.format)
	}

	c.cfg.Script = strings.ToLower(c.cfg.Script)
	c.cfg.OCREngine = strings.ToLower(c.cfg.OCREngine)
	c.cfg.LockedPolicy = strings.ToLower(c.cfg.LockedPolicy)
	if c.debug {
		c.cfg.LogLevel = "debug"
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		log.SetOutput(io.Discard)
	}

	return c.cfg.Validate()
}

func (c *cli) runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	service, closer, err := c.newService(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	results := make([]fileResult, len(args))
	var g errgroup.Group
	for i, path := range args {
		g.Go(func() error {
			results[i] = extractFile(ctx, service, path, c.password)
			return nil
		})
	}
	_ = g.Wait()

	if len(results) == 1 {
		if results[0].Error != "" {
			return errors.New(results[0].Error)
		}
		return c.write(cmd.OutOrStdout(), *results[0].Record, func(w io.Writer) { writeRecordText(w, *results[0].Record) })
	}

	if err := c.write(cmd.OutOrStdout(), results, func(w io.Writer) { writeResultsText(w, results) }); err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("one or more files failed")
		}
	}
	return nil
}

func extractFile(ctx context.Context, service *document.Service, path, password string) fileResult {
	result := fileResult{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	extracted, err := service.Extract(ctx, data, document.IsPaginated(path, data), password)
	if err != nil {
		result.Error = fmt.Sprintf("%s: %v", path, err)
		return result
	}

	result.Kind = extracted.Kind
	result.Pages = extracted.Pages
	result.Locked = extracted.Locked
	result.Record = &extracted.Record
	return result
}

func (c *cli) newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [text-file]",
		Short: "Parse already extracted card text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read text: %w", err)
			}

			record := parser.New(parser.WithScript(c.cfg.ScriptDefinition())).Parse(string(text))
			return c.write(cmd.OutOrStdout(), record, func(w io.Writer) { writeRecordText(w, record) })
		},
	}
}

func (c *cli) newVerifyCommand() *cobra.Command {
	var claims document.Claims

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check claimed values against a card; exits non-zero when they do not match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if claims.IsEmpty() {
				return document.ErrNoClaims
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			service, closer, err := c.newService(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			result, err := service.Verify(cmd.Context(), data, document.IsPaginated(args[0], data), c.password, claims)
			if err != nil {
				return err
			}
			result.Path = args[0]

			if err := c.write(cmd.OutOrStdout(), result, func(w io.Writer) { writeVerifyText(w, result) }); err != nil {
				return err
			}
			if !result.Verified {
				return errNotVerified
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&claims.Name, "name", "", "Claimed name")
	cmd.Flags().StringVar(&claims.IDNumber, "id-number", "", "Claimed id number")
	cmd.Flags().StringVar(&claims.DateOfBirth, "dob", "", "Claimed date of birth")
	return cmd
}

// write renders v in the selected format; text uses the supplied writer.
func (c *cli) write(w io.Writer, v any, text func(io.Writer)) error {
	switch c.format {
	case formatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case formatText:
		text(w)
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func writeRecordText(w io.Writer, record parser.Record) {
	for _, f := range record.Fields() {
		value := f.Value
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(w, "%-20s %s\n", f.Name+":", value)
	}
}

func writeResultsText(w io.Writer, results []fileResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s\n", r.File)
		if r.Error != "" {
			fmt.Fprintf(w, "error: %s\n", r.Error)
			continue
		}
		if r.Locked {
			fmt.Fprintln(w, "locked: document could not be unlocked")
		}
		writeRecordText(w, *r.Record)
	}
}

func writeVerifyText(w io.Writer, result *document.VerifyResult) {
	status := "not verified"
	if result.Verified {
		status = "verified"
	}
	fmt.Fprintf(w, "%s: %s\n", result.Path, status)
	for _, check := range result.Checks {
		mark := "no match"
		if check.Match {
			mark = "match"
		}
		fmt.Fprintf(w, "  %-14s %-8s score %.2f  claimed %q  card %q\n",
			check.Field, mark, check.Score, check.Claimed, check.Extracted)
	}
}
