// Command ministryctl runs one-shot maintenance against the configured store.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/MrSnakeDoc/ministry/internal/app"
	"github.com/MrSnakeDoc/ministry/internal/auth"
	"github.com/MrSnakeDoc/ministry/internal/config"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/migrate"
	"github.com/MrSnakeDoc/ministry/internal/sources/homepage"
	"github.com/MrSnakeDoc/ministry/internal/utils"
	"github.com/MrSnakeDoc/ministry/internal/version"
)

// errUsage marks bad flags; the flag package already printed why.
var errUsage = errors.New("usage")

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `usage: ministryctl <command> [flags]

commands:
  sweep           run one retention sweep
  purge           delete obsolete key prefixes (-dry-run, -plan file, -prefix p)
  import-links    add Homepage services.yaml entries to the link page (-file, -dry-run)
  hash-password   print a bcrypt hash for MINISTRY_ADMIN_PASSWORD_HASH
  version         print build information
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "sweep":
		err = sweep(ctx, stdout)
	case "purge":
		err = purge(ctx, args[1:], stdout, stderr)
	case "import-links":
		err = importLinks(ctx, args[1:], stdout, stderr)
	case "hash-password":
		err = hashPassword(stdin, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version.Get())
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) || errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "❌ %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// withCore opens the configured store for the duration of fn.
func withCore(ctx context.Context, fn func(*app.Core, logger.Logger) error) error {
	cfg := config.LoadTool()
	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer utils.MustClose(st, log, cfg.StoreBackend+" store")

	core, err := app.NewCore(cfg, st, log)
	if err != nil {
		return err
	}
	return fn(core, log)
}

func sweep(ctx context.Context, stdout io.Writer) error {
	return withCore(ctx, func(core *app.Core, _ logger.Logger) error {
		return printJSON(stdout, core.Sweeper.Sweep(ctx))
	})
}

func purge(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("dry-run", false, "count matching keys without deleting them")
	planFile := fs.String("plan", "", "YAML plan file (defaults to the purge section of MINISTRY_CONFIG_FILE)")
	var prefixes []string
	fs.Func("prefix", "prefix to delete, slash separated (repeatable, overrides -plan)", func(s string) error {
		prefixes = append(prefixes, s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}

	return withCore(ctx, func(core *app.Core, log logger.Logger) error {
		plan, err := selectPlan(prefixes, *planFile)
		if err != nil {
			return err
		}
		results, err := migrate.NewPurger(core.Store, log).Purge(ctx, plan, *dryRun)
		if perr := printJSON(stdout, results); perr != nil && err == nil {
			err = perr
		}
		return err
	})
}

// selectPlan prefers explicit prefixes, then a plan file, then the
// configured plan.
func selectPlan(prefixes []string, planFile string) (migrate.Plan, error) {
	switch {
	case len(prefixes) > 0:
		return migrate.Plan{Prefixes: prefixes}, nil
	case planFile != "":
		return migrate.LoadPlan(planFile)
	default:
		return config.LoadTool().PurgePlan, nil
	}
}

func importLinks(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("import-links", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "Homepage services.yaml to import")
	dryRun := fs.Bool("dry-run", false, "report what would be created without writing")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if *file == "" {
		fmt.Fprintln(stderr, "-file is required")
		return errUsage
	}

	services, err := homepage.NewLoader(*file).Load()
	if err != nil {
		return err
	}
	inputs, err := homepage.MapLinks(services)
	if err != nil {
		return err
	}

	return withCore(ctx, func(core *app.Core, log logger.Logger) error {
		res, err := homepage.NewImporter(core.Repos.Links, log).Import(ctx, inputs, *dryRun)
		if err != nil {
			return err
		}
		return printJSON(stdout, res)
	})
}

func hashPassword(stdin *os.File, stdout, stderr io.Writer) error {
	password, err := promptPassword(stdin, stderr)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}

// promptPassword reads without echo on a terminal, asking twice. Piped
// input is read as one line.
func promptPassword(stdin *os.File, stderr io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	read := func(prompt string) (string, error) {
		fmt.Fprint(stderr, prompt)
		b, err := readPassword(fd)
		fmt.Fprintln(stderr)
		return string(b), err
	}
	first, err := read("Password: ")
	if err != nil {
		return "", err
	}
	second, err := read("Confirm: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
