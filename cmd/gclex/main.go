package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/xplshn/gclex/pkg/cli"
	"github.com/xplshn/gclex/pkg/config"
	"github.com/xplshn/gclex/pkg/dump"
	"github.com/xplshn/gclex/pkg/lexer"
	"github.com/xplshn/gclex/pkg/token"
	"github.com/xplshn/gclex/pkg/util"
)

// fileResult is one tokenized input. Tokens are detached from the
// worker's scratch buffer.
type fileResult struct {
	file    util.SourceFile
	toks    []token.Token
	skipped string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("gclex: ")

	app := cli.NewApp("gclex")
	app.Synopsis = "[options] <input.c> ..."
	app.Description = "Tokenize C-like source files and print their token streams. Lexical errors are reported with their location and do not stop scanning."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/gclex>"

	cfg := config.NewConfig()
	var (
		wall    bool
		verbose bool
	)

	fs := app.FlagSet
	fs.String(&cfg.Format, "format", "f", cfg.Format, "Output format: text or json.", "format")
	fs.Int(&cfg.ScratchSize, "scratch", "s", cfg.ScratchSize, "Capacity in bytes of the decode buffer for identifiers and literals.", "bytes")
	fs.Int(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Number of files to tokenize in parallel.", "n")
	fs.Int(&cfg.MaxErrors, "max-errors", "", 0, "Stop printing errors after <n> (0 means no limit).", "n")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&verbose, "verbose", "v", false, "Log progress to stderr.")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputs []string) error {
		rep := configure(cfg, warningFlags, featureFlags, wall, os.Stderr)

		if err := cfg.Validate(); err != nil {
			rep.Fatalf("%v", err)
			return err
		}
		if len(inputs) == 0 {
			rep.Fatalf("no input files specified.")
			return errors.New("no input files")
		}

		files, err := readInputs(inputs, os.Stdin)
		if err != nil {
			rep.Fatalf("%v", err)
			return err
		}
		if verbose {
			log.Printf("tokenizing %d file(s) with %d job(s)", len(files), cfg.Jobs)
		}

		results := tokenizeAll(files, cfg)
		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()
		for _, res := range results {
			if res.skipped != "" {
				if verbose {
					log.Printf("skipping %s: %s", res.file.Name, res.skipped)
				}
				continue
			}
			if err := writeResult(out, res, cfg); err != nil {
				rep.Fatalf("writing output: %v", err)
				return err
			}
			checkTokens(rep, res.file, res.toks)
		}

		if n := rep.Suppressed(); n > 0 {
			log.Printf("%d more error(s) not shown", n)
		}
		if rep.Errors() > 0 {
			return fmt.Errorf("%d error(s)", rep.Errors())
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// configure applies the parsed flag groups, -Wall and GCLEXFLAGS to cfg,
// in that order, then builds the reporter from the result.
func configure(cfg *config.Config, warningFlags, featureFlags []cli.FlagGroupEntry, wall bool, w io.Writer) *util.Reporter {
	cfg.ApplyFlagGroups(warningFlags, featureFlags)
	if wall {
		cfg.ApplyFlag("-Wall")
	}
	applyEnvFlags(cfg)
	return util.NewReporter(w, cfg)
}

// applyEnvFlags applies space-separated -W/-F flags from GCLEXFLAGS.
func applyEnvFlags(cfg *config.Config) {
	for _, flag := range strings.Fields(os.Getenv("GCLEXFLAGS")) {
		if !cfg.ApplyFlag(flag) && cfg.IsWarningEnabled(config.WarnExtra) {
			log.Printf("warning: ignoring unknown flag '%s' in GCLEXFLAGS [-Wextra]", flag)
		}
	}
}

func readInputs(paths []string, stdin io.Reader) ([]util.SourceFile, error) {
	files := make([]util.SourceFile, 0, len(paths))
	for _, path := range paths {
		var content []byte
		var err error
		if path == "-" {
			content, err = io.ReadAll(stdin)
			path = "<stdin>"
		} else {
			content, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		files = append(files, util.SourceFile{Name: path, Content: content})
	}
	return files, nil
}

// tokenizeAll fans files out to cfg.Jobs workers, each with its own
// scratch buffer, and returns the results in input order.
func tokenizeAll(files []util.SourceFile, cfg *config.Config) []fileResult {
	results := make([]fileResult, len(files))
	tasks := make(chan int, len(files))

	seen := make(map[string]string)
	for i, file := range files {
		results[i].file = file
		if cfg.IsFeatureEnabled(config.FeatDedupe) {
			hash := dump.ContentHash(file.Content)
			if original, ok := seen[hash]; ok {
				results[i].skipped = fmt.Sprintf("content is identical to %s", original)
				continue
			}
			seen[hash] = file.Name
		}
		tasks <- i
	}
	close(tasks)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := lexer.NewScratch(cfg.ScratchSize)
			for i := range tasks {
				results[i].toks = lexer.Tokenize(results[i].file.Content, scratch)
			}
		}()
	}
	wg.Wait()
	return results
}

func writeResult(w io.Writer, res fileResult, cfg *config.Config) error {
	opts := dump.Options{
		Locations: cfg.IsFeatureEnabled(config.FeatLocations),
		Spans:     cfg.IsFeatureEnabled(config.FeatSpans),
	}
	if cfg.Format == "json" {
		if err := dump.WriteJSON(w, res.file.Content, res.toks, opts); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(w, "== %s\n", res.file.Name); err != nil {
			return err
		}
		if err := dump.WriteText(w, res.file.Content, res.toks, opts); err != nil {
			return err
		}
	}
	if cfg.IsFeatureEnabled(config.FeatFingerprint) {
		_, err := fmt.Fprintf(w, "fingerprint %s %016x\n", res.file.Name, dump.Fingerprint(res.toks))
		return err
	}
	return nil
}

// checkTokens reports error tokens and the enabled lexical warnings.
func checkTokens(rep *util.Reporter, file util.SourceFile, toks []token.Token) {
	for _, tok := range toks {
		switch tok.Kind {
		case token.Error:
			rep.Error(file, tok.Span, "invalid token %s", excerpt(file.Content, tok.Span))
		case token.EOF:
			if rest := len(file.Content) - tok.Span.Start; rest > 0 {
				rep.Warn(config.WarnNul, file, tok.Span, "NUL byte ends the token stream, %d trailing byte(s) ignored", rest)
			}
		case token.Int:
			if v, _ := tok.Int(); v == math.MaxInt64 && overflows(file.Content[tok.Span.Start:tok.Span.End]) {
				rep.Warn(config.WarnOverflow, file, tok.Span, "integer literal %s does not fit in 64 bits", excerpt(file.Content, tok.Span))
			}
		case token.CharLit:
			if text, _ := tok.Text(); len(text) != 1 {
				rep.Warn(config.WarnMultiChar, file, tok.Span, "character literal decodes to %d bytes", len(text))
			}
		}
	}
}

// excerpt quotes the source text of span, shortened for display.
func excerpt(src []byte, span token.Span) string {
	const limit = 24
	text := src[span.Start:span.End]
	if len(text) > limit {
		return strconv.Quote(string(text[:limit])) + "..."
	}
	return strconv.Quote(string(text))
}

// overflows re-reads an integer literal's spelling to tell a saturated
// value from a literal that is exactly math.MaxInt64.
func overflows(spelling []byte) bool {
	s := strings.TrimRight(string(spelling), "uUlL")
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "0b"):
		s, base = s[2:], 2
	case len(s) > 1 && s[0] == '0':
		s, base = s[1:], 8
	}
	_, err := strconv.ParseInt(s, base, 64)
	return errors.Is(err, strconv.ErrRange)
}
