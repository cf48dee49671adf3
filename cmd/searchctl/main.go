package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/parsisearch/jostoju/pkg/compression"
	"github.com/parsisearch/jostoju/pkg/corpus"
	"github.com/parsisearch/jostoju/pkg/index"
	"github.com/parsisearch/jostoju/pkg/query"
	"github.com/parsisearch/jostoju/pkg/rank"
)

const (
	version = "0.1.0"
	banner  = `
╔══════════════════════════════════════╗
║        jostoju searchctl v%s     ║
║  Ad hoc query console                 ║
╚══════════════════════════════════════╝

Type 'help' for available commands
Type 'exit' or 'quit' to exit

`
)

// CLI queries an index artifact directly, without going through the HTTP
// service, for ad hoc relevance debugging.
type CLI struct {
	snap     *index.Snapshot
	meta     corpus.Metadata
	opts     rank.Options
	scanner  *bufio.Scanner
	commandHistory []string
}

func NewCLI(indexPath, metadataPath string) (*CLI, error) {
	store, err := index.Open(indexPath, compression.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open index artifact: %w", err)
	}
	defer store.Close()

	snap, err := store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to materialize index snapshot: %w", err)
	}

	meta, err := corpus.LoadMetadata(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	return &CLI{
		snap:           snap,
		meta:           meta,
		opts:           rank.DefaultOptions(),
		scanner:        bufio.NewScanner(os.Stdin),
		commandHistory: make([]string, 0),
	}, nil
}

func (c *CLI) Run() error {
	fmt.Printf(banner, version)
	fmt.Printf("loaded %d documents, %d unique terms\n\n", c.snap.N, len(c.snap.Index))

	for {
		fmt.Print("jostoju> ")

		if !c.scanner.Scan() {
			break
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		c.commandHistory = append(c.commandHistory, line)

		if err := c.executeCommand(line); err != nil {
			if err.Error() == "exit" {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}

	return c.scanner.Err()
}

func (c *CLI) executeCommand(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "help", "?":
		return c.showHelp()
	case "exit", "quit":
		return fmt.Errorf("exit")
	case "set":
		return c.setOption(parts)
	case "show":
		return c.showOptions()
	case "clear":
		fmt.Print("\033[H\033[2J")
		return nil
	case "version":
		fmt.Printf("searchctl version %s\n", version)
		return nil
	default:
		return c.runQuery(line)
	}
}

func (c *CLI) showHelp() error {
	help := `
jostoju searchctl commands:

  help, ?                        Show this help message
  exit, quit                     Exit the console
  clear                          Clear the screen
  version                        Show console version
  show                           Show current ranking options
  set <option> <value>           Override a ranking option for this session
                                  (title_weight, body_weight, span_boost_factor,
                                  proximity_power, max_span_dist, top_k)

Anything else is run as a search query, e.g.:

  جستجوی وب
  "موتور جستجوی فارسی"
`
	fmt.Println(help)
	return nil
}

func (c *CLI) showOptions() error {
	fmt.Printf("title_weight=%.2f body_weight=%.2f span_boost_factor=%.2f proximity_power=%.2f max_span_dist=%d top_k=%d\n",
		c.opts.TitleWeight, c.opts.BodyWeight, c.opts.SpanBoostFactor, c.opts.ProximityPower, c.opts.MaxSpanDist, c.opts.TopK)
	return nil
}

func (c *CLI) setOption(parts []string) error {
	if len(parts) != 3 {
		return fmt.Errorf("usage: set <option> <value>")
	}

	var f float64
	var n int
	var err error

	switch parts[1] {
	case "title_weight":
		f, err = parseFloat(parts[2])
		c.opts.TitleWeight = f
	case "body_weight":
		f, err = parseFloat(parts[2])
		c.opts.BodyWeight = f
	case "span_boost_factor":
		f, err = parseFloat(parts[2])
		c.opts.SpanBoostFactor = f
	case "proximity_power":
		f, err = parseFloat(parts[2])
		c.opts.ProximityPower = f
	case "max_span_dist":
		n, err = parseInt(parts[2])
		c.opts.MaxSpanDist = n
	case "top_k":
		n, err = parseInt(parts[2])
		c.opts.TopK = n
	default:
		return fmt.Errorf("unknown option: %s", parts[1])
	}
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	fmt.Println("ok")
	return nil
}

func (c *CLI) runQuery(raw string) error {
	parsed := query.Parse(raw)
	results, terms := rank.Search(c.snap, parsed, c.opts)
	results = rank.Assemble(results, c.opts)

	fmt.Printf("matched terms: %v\n", terms)
	fmt.Printf("%d result(s):\n", len(results))
	for i, r := range results {
		entry := c.meta[r.DocID]
		fmt.Printf("  [%d] %.4f  %s  %s\n", i+1, r.Score, entry.Title, entry.URL)
	}

	return nil
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func main() {
	indexPath := flag.String("index", "./data/index.bin", "Path to the index artifact")
	metadataPath := flag.String("metadata", "./data/metadata.json", "Path to the metadata side-output")
	flag.Parse()

	cli, err := NewCLI(*indexPath, *metadataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
