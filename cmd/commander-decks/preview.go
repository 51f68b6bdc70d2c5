package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/deckimport"
	"github.com/ramonehamilton/commander-decks/internal/importer"
)

type previewOptions struct {
	url      string
	lands    bool
	deckSize int
	asJSON   bool
}

func newPreviewCmd(c *cli) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview [file|-]",
		Short: "Parse and resolve a deck list",
		Long: `Parses a deck list from a file, standard input ("-"), or a deck URL,
resolves every card against the catalog, and prints the import preview.`,
		Example: `  commander-decks preview deck.txt --lands
  pbpaste | commander-decks preview -
  commander-decks preview --url https://www.moxfield.com/decks/abc123 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := importer.Request{
				URL:            opts.url,
				SuggestLands:   opts.lands,
				TargetDeckSize: opts.deckSize,
			}
			if len(args) == 1 {
				text, err := readDeckList(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				req.Text = text
			}
			return c.preview(cmd, req, opts.asJSON)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "import from an Archidekt, Moxfield or MTGGoldfish deck URL")
	cmd.Flags().BoolVar(&opts.lands, "lands", false, "suggest basic lands")
	cmd.Flags().IntVar(&opts.deckSize, "deck-size", 0, "deck size basic lands fill up to (default: import.default_deck_size)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the preview as JSON")
	return cmd
}

func readDeckList(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read deck list: %w", err)
	}
	return string(data), nil
}

func (c *cli) preview(cmd *cobra.Command, req importer.Request, asJSON bool) error {
	p, err := newPipeline(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			c.logger.Warn("Error closing card cache", zap.Error(err))
		}
	}()

	preview, err := p.importer.Preview(cmd.Context(), req)
	if err != nil {
		var srcErr *deckimport.SourceError
		if errors.As(err, &srcErr) {
			return fmt.Errorf("could not fetch deck (%s): %w", srcErr.Code, srcErr.Err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(preview)
	}
	printPreview(out, preview)
	return nil
}

func printPreview(w io.Writer, p *deckimport.ImportPreview) {
	if p.DeckName != "" {
		fmt.Fprintf(w, "%s (%s)\n\n", p.DeckName, p.Source)
	}

	fmt.Fprint(w, p.DeckList())

	if len(p.Unresolved) > 0 {
		fmt.Fprintf(w, "\nUnresolved (%d)\n", len(p.Unresolved))
		for _, res := range p.Unresolved {
			fmt.Fprintf(w, "  line %d: %s", res.Query.LineNumber, res.Query.Name)
			if res.Error != nil {
				fmt.Fprintf(w, " [%s] %s", res.Error.Code, res.Error.Message)
			}
			if len(res.Candidates) > 0 {
				names := make([]string, 0, len(res.Candidates))
				for _, cand := range res.Candidates {
					names = append(names, cand.Name)
				}
				fmt.Fprintf(w, " (did you mean: %s?)", strings.Join(names, ", "))
			}
			fmt.Fprintln(w)
		}
	}

	if len(p.LineErrors) > 0 {
		fmt.Fprintf(w, "\nLine errors (%d)\n", len(p.LineErrors))
		for _, le := range p.LineErrors {
			fmt.Fprintf(w, "  line %d: [%s] %s\n", le.LineNumber, le.Code, le.Message)
		}
	}

	for _, warning := range p.Warnings {
		fmt.Fprintf(w, "\nWarning: line %d: %s\n", warning.LineNumber, warning.Message)
	}

	if p.SuggestedLands != nil {
		fmt.Fprintln(w)
		printLands(w, *p.SuggestedLands)
	}
}

func printLands(w io.Writer, lands deckimport.BasicLands) {
	fmt.Fprintf(w, "Suggested basic lands (%d)\n", lands.Total())
	for _, l := range []struct {
		name  string
		count int
	}{
		{"Plains", lands.Plains},
		{"Island", lands.Island},
		{"Swamp", lands.Swamp},
		{"Mountain", lands.Mountain},
		{"Forest", lands.Forest},
		{"Wastes", lands.Wastes},
	} {
		if l.count > 0 {
			fmt.Fprintf(w, "%d %s\n", l.count, l.name)
		}
	}
}
