// Command userflat flattens one user record from a file or stdin.
//
//	userflat -in input.json -out output.json [-strict-titlecase] [-require-username]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"userflat/internal/flatten"
	"userflat/internal/flatten/service"
	"userflat/internal/platform/config"
	"userflat/internal/platform/logger"
	"userflat/internal/sink/file"
	dErrors "userflat/pkg/domain-errors"
)

const stdio = "-"

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
	exitIO      = 3
)

type options struct {
	in              string
	out             string
	strictTitleCase bool
	requireUsername bool
	logLevel        string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("userflat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", stdio, "input JSON file, - for stdin")
	fs.StringVar(&opts.out, "out", stdio, "output JSON file, - for stdout")
	fs.BoolVar(&opts.strictTitleCase, "strict-titlecase", false, "title-case every name segment fully")
	fs.BoolVar(&opts.requireUsername, "require-username", false, "fail when Username is missing")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	level, err := config.ParseLogLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	log := logger.NewWithWriter(stderr, level)

	mode := flatten.TitleCaseLegacy
	if opts.strictTitleCase {
		mode = flatten.TitleCaseStrict
	}
	svc := service.New(
		flatten.New(flatten.WithTitleCaseMode(mode), flatten.WithRequireUsername(opts.requireUsername)),
		service.WithLogger(log),
	)

	body, err := readInput(opts.in, stdin)
	if err != nil {
		log.Error("failed to read input", "path", opts.in, "error", err)
		return exitIO
	}

	record, err := svc.FlattenJSON(ctx, body)
	if err != nil {
		log.Error("failed to flatten user record",
			"code", string(dErrors.CodeOf(err)),
			"error", dErrors.MessageOf(err),
		)
		return exitInvalid
	}

	if err := writeOutput(opts.out, stdout, func(w io.Writer) error { return file.Encode(w, record) }); err != nil {
		log.Error("failed to write output", "path", opts.out, "error", err)
		return exitIO
	}
	return exitOK
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == stdio {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == stdio {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
