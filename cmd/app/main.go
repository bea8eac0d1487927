package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/halvard/muninn/internal"
	"github.com/halvard/muninn/internal/capture"
	"github.com/halvard/muninn/internal/daemon"
	"github.com/halvard/muninn/internal/dropfolder"
	"github.com/halvard/muninn/internal/importer"
	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/mcpserver"
	"github.com/halvard/muninn/internal/store"
	pkgconfig "github.com/halvard/muninn/pkg/config"
)

func brainFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "brain",
		Aliases: []string{"b"},
		Usage:   "Path to the brain directory",
		Value:   "brain",
		Sources: cli.EnvVars("MUNINN_BRAIN"),
	}
}

// openStore resolves the --brain flag into an initialized store.
func openStore(cmd *cli.Command) (*store.Store, error) {
	s, err := store.New(cmd.String("brain"))
	if err != nil {
		return nil, err
	}
	if !s.IsInitialized() {
		return nil, fmt.Errorf("no brain found at %s (run init first)", s.Root())
	}
	return s, nil
}

// loadConfig reads brain.yaml over the defaults.
func loadConfig(s *store.Store) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := filepath.Join(s.Root(), "brain.yaml")
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// parseIndices parses 1-based index arguments, accepting both space and
// comma separation.
func parseIndices(args []string) ([]int, error) {
	var indices []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", part)
			}
			indices = append(indices, n)
		}
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("at least one index is required")
	}
	return indices, nil
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	s, err := store.New(cmd.String("brain"))
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	fmt.Printf("initialized brain at %s\n", s.Root())
	return nil
}

func captureURLAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	path, err := capture.FromURL(inbox.New(s),
		cmd.String("url"), cmd.String("title"), cmd.String("summary"),
		cmd.StringSlice("tag"), cmd.String("domain"))
	if err != nil {
		return err
	}
	fmt.Printf("captured to %s\n", path)
	return nil
}

func inboxListAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	entries, err := inbox.New(s).List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("inbox is empty")
		return nil
	}
	for i, e := range entries {
		preview := e.Item.Body
		if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
			preview = preview[:idx]
		}
		fmt.Printf("%3d. [%s] %s -> %s\n", i+1, e.Item.Kind, preview, e.Item.SuggestedDomain)
	}
	return nil
}

func daemonRunAction(ctx context.Context, cmd *cli.Command) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(s)
	if err != nil {
		return err
	}
	if err := daemon.WritePID(s.Root(), os.Getpid()); err != nil {
		return err
	}
	defer func() { _ = daemon.RemovePID(s.Root()) }()

	return internal.Run(ctx,
		internal.WithConfig(cfg),
		internal.WithBrainRoot(s.Root()),
	)
}

func main() {
	cmd := &cli.Command{
		Name:  "muninn",
		Usage: "Personal knowledge brain with ambient capture, inbox review, and MCP integration",
		Flags: []cli.Flag{brainFlag()},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Initialize a new brain directory",
				Action: initAction,
			},
			{
				Name:  "capture",
				Usage: "Capture knowledge into the inbox",
				Commands: []*cli.Command{
					{
						Name:  "url",
						Usage: "Capture a knowledge item from a URL",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "url", Required: true, Usage: "The URL being captured"},
							&cli.StringFlag{Name: "title", Required: true, Usage: "Title for the captured content"},
							&cli.StringFlag{Name: "summary", Usage: "Summary of the content"},
							&cli.StringSliceFlag{Name: "tag", Usage: "Tag to attach (repeatable)"},
							&cli.StringFlag{Name: "domain", Usage: "Domain to file under"},
						},
						Action: captureURLAction,
					},
					{
						Name:      "text",
						Usage:     "Capture a plain text knowledge item",
						ArgsUsage: "<text>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "source", Usage: "Source attribution"},
							&cli.StringFlag{Name: "domain", Usage: "Domain to file under"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							text := strings.Join(cmd.Args().Slice(), " ")
							if strings.TrimSpace(text) == "" {
								return fmt.Errorf("text is required")
							}
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							path, err := capture.FromText(inbox.New(s), text, cmd.String("source"), cmd.String("domain"))
							if err != nil {
								return err
							}
							fmt.Printf("captured to %s\n", path)
							return nil
						},
					},
				},
			},
			{
				Name:  "inbox",
				Usage: "Review pending captures",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List pending inbox items, oldest first",
						Action: inboxListAction,
					},
					{
						Name:      "accept",
						Usage:     "Accept inbox items by 1-based index, filing them into their domains",
						ArgsUsage: "<index>...",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							indices, err := parseIndices(cmd.Args().Slice())
							if err != nil {
								return err
							}
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							paths, err := inbox.New(s).AcceptByIndices(indices)
							if err != nil {
								return err
							}
							for _, p := range paths {
								fmt.Printf("filed %s\n", p)
							}
							return nil
						},
					},
					{
						Name:      "reject",
						Usage:     "Reject and delete inbox items by 1-based index",
						ArgsUsage: "<index>...",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							indices, err := parseIndices(cmd.Args().Slice())
							if err != nil {
								return err
							}
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							if err := inbox.New(s).RejectByIndices(indices); err != nil {
								return err
							}
							fmt.Printf("rejected %d item(s)\n", len(indices))
							return nil
						},
					},
				},
			},
			{
				Name:  "domains",
				Usage: "Manage knowledge domains",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List all domains with item counts",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							domains, err := s.ListDomains()
							if err != nil {
								return err
							}
							for _, d := range domains {
								fmt.Printf("%s (%d)\n", d, s.CountKnowledge(d))
							}
							return nil
						},
					},
					{
						Name:      "add",
						Usage:     "Create a new domain",
						ArgsUsage: "<name>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "description", Usage: "Domain description"},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							name := cmd.Args().First()
							if name == "" {
								return fmt.Errorf("domain name is required")
							}
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							path, err := s.AddDomain(name, cmd.String("description"))
							if err != nil {
								return err
							}
							fmt.Printf("created domain at %s\n", path)
							return nil
						},
					},
				},
			},
			{
				Name:  "import",
				Usage: "Import external exports into the inbox",
				Commands: []*cli.Command{
					{
						Name:      "notion",
						Usage:     "Import markdown pages from a Notion export directory",
						ArgsUsage: "<export-dir>",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							dir := cmd.Args().First()
							if dir == "" {
								return fmt.Errorf("export directory is required")
							}
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							summary, err := importer.ImportNotion(inbox.New(s), dir)
							if err != nil {
								return err
							}
							fmt.Printf("imported %d, skipped %d\n", summary.Imported, summary.Skipped)
							return nil
						},
					},
				},
			},
			{
				Name:  "daemon",
				Usage: "Control the background clipboard capture daemon",
				Commands: []*cli.Command{
					{
						Name:   "run",
						Usage:  "Run the capture daemon in the foreground",
						Action: daemonRunAction,
					},
					{
						Name:  "start",
						Usage: "Start the capture daemon in the background",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							pid, err := daemon.Start(s.Root())
							if err != nil {
								return err
							}
							fmt.Printf("daemon started (pid %d)\n", pid)
							return nil
						},
					},
					{
						Name:  "stop",
						Usage: "Stop the running capture daemon",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							if err := daemon.Stop(s.Root()); err != nil {
								return err
							}
							fmt.Println("daemon stopped")
							return nil
						},
					},
					{
						Name:  "status",
						Usage: "Show whether the capture daemon is running",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							s, err := openStore(cmd)
							if err != nil {
								return err
							}
							running, pid, err := daemon.Status(s.Root())
							if err != nil {
								return err
							}
							if running {
								fmt.Printf("daemon running (pid %d)\n", pid)
							} else {
								fmt.Println("daemon not running")
							}
							return nil
						},
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Watch a drop folder and stage new files into the inbox",
				ArgsUsage: "<dir>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					dir := cmd.Args().First()
					if dir == "" {
						return fmt.Errorf("directory to watch is required")
					}
					s, err := openStore(cmd)
					if err != nil {
						return err
					}
					watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
					defer stop()
					return dropfolder.Watch(watchCtx, inbox.New(s), dir, slog.Default())
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the brain over MCP on stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := openStore(cmd)
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "muninn mcp: serving brain at %s\n", s.Root())
					return mcpserver.New(s).ServeStdio()
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
