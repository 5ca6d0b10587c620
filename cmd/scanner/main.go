package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Domenick1991/matchtickets/config"
	"github.com/Domenick1991/matchtickets/internal/bootstrap"
	"github.com/Domenick1991/matchtickets/internal/logger"
	"github.com/Domenick1991/matchtickets/internal/service/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

type options struct {
	code    string
	image   string
	confirm bool
}

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("scanner", pflag.ExitOnError)
	cfgPath := fs.String("config", envOr("CONFIG_PATH", "config.yaml"), "path to config file")
	var opts options
	fs.StringVar(&opts.code, "code", "", "ticket code to check (ticket_uuid or id)")
	fs.StringVar(&opts.image, "image", "", "PNG or JPEG image of the ticket QR code")
	fs.BoolVar(&opts.confirm, "confirm", false, "mark a valid ticket used without asking")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(exitError)
	}
	log := logger.NewWithWriter(cfg.Env, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrap:", err)
		os.Exit(exitError)
	}

	code := run(ctx, validation.NewScanner(app.Validation), opts, os.Stdin, os.Stdout)
	_ = app.Close()
	os.Exit(code)
}

func run(ctx context.Context, sc *validation.Scanner, opts options, in io.Reader, out io.Writer) int {
	if (opts.code == "") == (opts.image == "") {
		fmt.Fprintln(out, "exactly one of --code or --image is required")
		return exitError
	}

	var (
		verdict *validation.Verdict
		err     error
	)
	if opts.image != "" {
		f, ferr := os.Open(opts.image)
		if ferr != nil {
			fmt.Fprintln(out, "open image:", ferr)
			return exitError
		}
		verdict, err = sc.Scan(ctx, f)
		f.Close()
	} else {
		verdict, err = sc.Check(ctx, opts.code)
	}
	if err != nil {
		fmt.Fprintln(out, "verification failed:", err)
		return exitError
	}
	printVerdict(out, verdict)

	if !verdict.Valid() {
		return exitInvalid
	}
	if !opts.confirm && !ask(in, out, "Mark this ticket as used? [y/N] ") {
		fmt.Fprintln(out, "left unused")
		return exitOK
	}

	c, err := sc.Confirm(ctx)
	if err != nil {
		if errors.Is(err, validation.ErrRejected) && c != nil {
			fmt.Fprintln(out, "rejected:", c.Message)
			return exitInvalid
		}
		fmt.Fprintln(out, "confirmation failed:", err)
		return exitError
	}
	fmt.Fprintf(out, "%s (%s)\n", c.Message, c.Source)
	printVerdict(out, sc.Verdict())
	return exitOK
}

func printVerdict(out io.Writer, v *validation.Verdict) {
	fmt.Fprintf(out, "%s: %s\n", v.State, v.Message)
	if v.Ticket != nil {
		t := v.Ticket
		if v.Minimal {
			fmt.Fprintf(out, "  ticket %s\n", t.Reference())
		} else {
			fmt.Fprintf(out, "  ticket %s  %s  %s\n", t.Reference(), t.EventDetails.Title(), t.Kind())
		}
	}
	if v.UsedAt != nil {
		fmt.Fprintf(out, "  used at %s\n", v.UsedAt.Format("2006-01-02 15:04:05"))
	}
}

func ask(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
