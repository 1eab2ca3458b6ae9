package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/refbase/internal/citations"
	"github.com/mrlokans/refbase/internal/clipboard"
	"github.com/mrlokans/refbase/internal/config"
	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/entities"
)

// CiteCommand renders citations or a bibliography for stored items.
type CiteCommand struct {
	DatabasePath     string
	Keys             []string
	Style            string
	Locale           string
	AsHTML           bool
	CitationOnly     bool
	ClipboardCommand string
}

func NewCiteCommand() *CiteCommand {
	return &CiteCommand{}
}

func (cmd *CiteCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cite", flag.ExitOnError)

	var keys string
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&keys, "keys", "", "Comma-separated item keys to cite (required)")
	fs.StringVar(&cmd.Style, "style", citations.StyleAuthorDate, "Citation style identifier")
	fs.StringVar(&cmd.Locale, "locale", "en-US", "Rendering locale")
	fs.BoolVar(&cmd.AsHTML, "html", false, "Emit markup in the plain flavor as well")
	fs.BoolVar(&cmd.CitationOnly, "citation", false, "Render an in-text citation instead of a bibliography")
	fs.StringVar(&cmd.ClipboardCommand, "clipboard", "", "Pipe the plain flavor to this command (e.g. pbcopy)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cite -keys <K1,K2,...> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Render stored items as a citation or bibliography. The plain flavor\n")
		fmt.Fprintf(os.Stderr, "is printed to stdout; use -clipboard to copy it instead.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, key := range strings.Split(keys, ",") {
		if key = strings.TrimSpace(key); key != "" {
			cmd.Keys = append(cmd.Keys, key)
		}
	}
	if len(cmd.Keys) == 0 {
		return fmt.Errorf("required flag -keys not provided")
	}

	return nil
}

func (cmd *CiteCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	itemsRepo := items.NewRepository(db)
	stored, err := itemsRepo.GetByKeys(cmd.Keys)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	if len(stored) != len(cmd.Keys) {
		return fmt.Errorf("found %d of %d requested items", len(stored), len(cmd.Keys))
	}

	refs := make([]*entities.Item, len(stored))
	for i := range stored {
		refs[i] = &stored[i]
	}

	formatter := citations.NewFormatter()
	out, err := formatter.Render(refs, cmd.Style, cmd.Locale, cmd.AsHTML, cmd.CitationOnly)
	if err != nil {
		return err
	}

	if cmd.ClipboardCommand != "" {
		parts := strings.Fields(cmd.ClipboardCommand)
		sink := clipboard.NewCommandSink(parts[0], parts[1:]...)
		if err := sink.Write(out.RichText, out.PlainText); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Copied to clipboard")
		return nil
	}

	fmt.Print(out.PlainText)
	if !strings.HasSuffix(out.PlainText, "\n") {
		fmt.Println()
	}
	return nil
}
