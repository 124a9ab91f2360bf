// gtest checks the lexer against golden token streams stored next to the
// test sources as .<name>.json.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/gclex/pkg/dump"
	"github.com/xplshn/gclex/pkg/lexer"
)

type Golden struct {
	SourceHash  string        `json:"source_hash"`
	ScratchSize int           `json:"scratch_size"`
	Tokens      []dump.Record `json:"tokens"`
}

type FileTestResult struct {
	File    string `json:"file"`
	Status  string `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string `json:"message,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

var (
	generateGolden = flag.String("generate-golden", "", "Generate golden .json files for the given source files (space-separated).")
	testFiles      = flag.String("test-files", "tests/*.c", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	scratchSize    = flag.Int("scratch", 4096, "Scratch buffer size used when generating golden files.")
	locations      = flag.Bool("locations", true, "Record line and column in golden files.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	if *jobs < 1 {
		*jobs = 1
	}
	setupInterruptHandler()

	if *generateGolden != "" {
		for _, file := range strings.Fields(*generateGolden) {
			if err := writeGolden(file); err != nil {
				log.Fatalf("%s[ERROR]%s %v\n", cRed, cNone, err)
			}
			log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenPath(file))
		}
		return
	}

	if !runTestSuite() {
		os.Exit(1)
	}
}

func setupInterruptHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled.\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func goldenPath(sourceFile string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

func tokenizeFile(src []byte, scratch int) []dump.Record {
	toks := lexer.Tokenize(src, lexer.NewScratch(scratch))
	return dump.Records(src, toks, dump.Options{Locations: *locations})
}

func writeGolden(sourceFile string) error {
	src, err := os.ReadFile(sourceFile)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", sourceFile, err)
	}
	golden := Golden{
		SourceHash:  dump.ContentHash(src),
		ScratchSize: *scratchSize,
		Tokens:      tokenizeFile(src, *scratchSize),
	}
	data, err := json.MarshalIndent(golden, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal golden data for %s: %w", sourceFile, err)
	}
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", *jsonDir, err)
		}
	}
	return os.WriteFile(goldenPath(sourceFile), data, 0644)
}

// testFile compares the current token stream of file with its golden copy.
func testFile(file string) *FileTestResult {
	goldenData, err := os.ReadFile(goldenPath(file))
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "No golden file; run with -generate-golden"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file: %v", err)}
	}
	var golden Golden
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file: %v", err)}
	}

	src, err := os.ReadFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read source: %v", err)}
	}
	if golden.ScratchSize < 1 {
		golden.ScratchSize = *scratchSize
	}

	got := tokenizeFile(src, golden.ScratchSize)
	if diff := cmp.Diff(golden.Tokens, got); diff != "" {
		msg := "Token stream differs from golden file"
		if golden.SourceHash != dump.ContentHash(src) {
			msg += " (source changed since the golden file was generated)"
		}
		return &FileTestResult{File: file, Status: "FAIL", Message: msg, Diff: "(-golden +current)\n" + diff}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: fmt.Sprintf("%d tokens match", len(got))}
}

func runTestSuite() bool {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return true
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				if *verbose {
					log.Printf("%s[RUN]%s %s", cCyan, cNone, file)
				}
				resultsChan <- testFile(file)
			}
		}()
	}

	// Files with identical content only need to be checked once
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		src, err := os.ReadFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		hash := dump.ContentHash(src)
		if original, seen := seenHashes[hash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", original)}
			continue
		}
		seenHashes[hash] = file
		tasks <- file
	}
	close(tasks)
	wg.Wait()
	close(resultsChan)

	var results []*FileTestResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })

	printSummary(results)
	if err := writeJSONReport(results); err != nil {
		log.Printf("%s[WARN]%s Could not write report: %v\n", cYellow, cNone, err)
	}
	for _, r := range results {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			return false
		}
	}
	return true
}

func expandGlobPatterns(patterns string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

func printSummary(results []*FileTestResult) {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Status]++
		color := cGreen
		switch r.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}
		if r.Status != "PASS" || *verbose {
			fmt.Printf("%s[%s]%s %s: %s\n", color, r.Status, cNone, r.File, r.Message)
		}
		if r.Diff != "" {
			fmt.Println(r.Diff)
		}
	}
	fmt.Printf("\n%d passed, %d failed, %d errors, %d skipped\n", counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"])
}

func writeJSONReport(results []*FileTestResult) error {
	report := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		report[r.File] = r
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	path := *outputJSON
	if *jsonDir != "" {
		path = filepath.Join(*jsonDir, *outputJSON)
	}
	return os.WriteFile(path, data, 0644)
}
