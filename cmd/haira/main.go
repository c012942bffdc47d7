// Command haira is the compiler CLI: build/run/check/inspect/test, per
// spec §6. Grounded on the teacher's cmd/ailang/main.go flag-based
// dispatch (stdlib flag, not cobra — the teacher carries cobra only as
// an indirect dependency of stretchr/testify, never imports it itself)
// and its fatih/color helper set for terminal output.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/sunholo/haira/internal/aiengine"
	"github.com/sunholo/haira/internal/build"
	"github.com/sunholo/haira/internal/cache"
	"github.com/sunholo/haira/internal/config"
	"github.com/sunholo/haira/internal/herrors"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		outFlag        = flag.String("o", "", "output path")
		offlineFlag    = flag.Bool("offline", false, "forbid live AI calls; a cache miss is fatal")
		refreshAIFlag  = flag.Bool("refresh-ai", false, "bypass the cache and re-call the AI for every symbol")
		verifyAIFlag   = flag.Bool("verify-ai", false, "re-call the AI and fail if bytes differ from haira.lock")
		aiModelFlag    = flag.String("ai-model", "", "override the configured AI model id")
		aiEndpointFlag = flag.String("ai-endpoint", "", "override the configured AI endpoint URL")
		helpFlag       = flag.Bool("help", false, "show this help message")
	)
	flag.Parse()

	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	cfg, err := config.Load("haira.yml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		os.Exit(2)
	}
	if *aiModelFlag != "" {
		cfg.AIModel = *aiModelFlag
	}
	if *aiEndpointFlag != "" {
		cfg.AIEndpoint = *aiEndpointFlag
	}

	mode := aiengine.ModeNormal
	switch {
	case *offlineFlag:
		mode = aiengine.ModeOffline
	case *refreshAIFlag:
		mode = aiengine.ModeRefreshAI
	case *verifyAIFlag:
		mode = aiengine.ModeVerifyAI
	}

	// A SIGINT between phases (or mid AI call) cancels ctx; build.Run
	// checks it at every phase boundary and threads it into the AI
	// engine's network calls, per spec §5's cancellation model.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "build":
		os.Exit(runBuild(ctx, cfg, mode, *outFlag, rest, build.StageLink))
	case "run":
		os.Exit(runAndExecute(ctx, cfg, mode, *outFlag, rest))
	case "check":
		os.Exit(runBuild(ctx, cfg, mode, "", rest, build.StageCheck))
	case "test":
		os.Exit(runTest(ctx, cfg, mode, rest))
	case "inspect":
		os.Exit(runInspect(cfg, rest))
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), cmd)
		printHelp()
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, cfg config.Config, mode aiengine.Mode, out string, paths []string, stage build.Stage) int {
	sources, err := loadSources(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}

	client, err := aiClient(ctx, cfg, mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}

	bcfg := build.Config{
		Stage: stage, OutPath: out, CacheDir: cfg.CacheDir, LockPath: "haira.lock",
		AIModel: cfg.AIModel, AIEndpoint: cfg.AIEndpoint, AIClient: client, Mode: mode,
	}

	res, err := build.Run(ctx, bcfg, sources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	printDiagnostics(res.Diagnostics)
	if res.ExitCode() == 0 {
		fmt.Printf("%s build succeeded\n", green("✓"))
	}
	return res.ExitCode()
}

// runAndExecute implements `run`: build to a temporary executable, then
// run it with the compiler's own stdio wired straight through (spec §6:
// "run [FILE] — build then execute").
func runAndExecute(ctx context.Context, cfg config.Config, mode aiengine.Mode, out string, paths []string) int {
	if out == "" {
		tmp, err := os.CreateTemp("", "haira-run-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
			return 2
		}
		out = tmp.Name()
		tmp.Close()
		defer os.Remove(out)
	}
	if code := runBuild(ctx, cfg, mode, out, paths, build.StageLink); code != 0 {
		return code
	}
	if err := os.Chmod(out, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	cmd := exec.CommandContext(ctx, out)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	return 0
}

func runTest(ctx context.Context, cfg config.Config, mode aiengine.Mode, paths []string) int {
	var testPaths []string
	for _, p := range paths {
		matches, _ := filepath.Glob(filepath.Join(p, "*_test.haira"))
		testPaths = append(testPaths, matches...)
	}
	if len(testPaths) == 0 {
		fmt.Printf("%s no *_test.haira files found\n", yellow("Warning"))
		return 0
	}
	return runAndExecute(ctx, cfg, mode, "", testPaths)
}

func runInspect(cfg config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "%s: inspect requires a symbol name\n", red("Error"))
		return 1
	}
	name := args[0]

	store, err := cache.NewStore(cfg.CacheDir, "ai", ".cir")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}

	lf, err := cache.Load("haira.lock")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	entry, ok := lf.Get(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: %q has no lock entry\n", red("Error"), name)
		return 1
	}

	// The AI store is keyed by context cache key, not by the lock digest,
	// so find the blob recorded under name whose digest matches the lock.
	keys, err := store.FindByName(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 2
	}
	var data []byte
	for _, k := range keys {
		if blob, err := store.Read(k); err == nil && cache.Digest(blob, entry.Model, entry.CIRVersion) == entry.Digest {
			data = blob
			break
		}
	}
	if data == nil {
		fmt.Fprintf(os.Stderr, "%s: no cached CIR for %q matches its lock digest\n", red("Error"), name)
		return 2
	}
	var pretty map[string]any
	_ = json.Unmarshal(data, &pretty)
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	fmt.Printf("%s model=%s cir_version=%s confidence=%.2f (%s)\n",
		cyan("provenance:"), entry.Model, entry.CIRVersion, entry.Confidence, confidenceTier(entry.Confidence))
	return 0
}

// confidenceTier labels a raw score with the §4.4 tier name so
// `inspect` output reads the same way a build diagnostic would.
func confidenceTier(confidence float64) string {
	switch {
	case confidence >= 0.90:
		return "accepted"
	case confidence >= 0.70:
		return "accepted, info"
	case confidence >= 0.50:
		return "accepted, warned"
	default:
		return "rejected"
	}
}

func aiClient(ctx context.Context, cfg config.Config, mode aiengine.Mode) (aiengine.Client, error) {
	if mode == aiengine.ModeOffline {
		return nil, nil
	}
	apiKey := os.Getenv("GEMINI_API_KEY")
	return aiengine.NewGenaiClient(ctx, apiKey, cfg.AIEndpoint)
}

func loadSources(paths []string) ([]build.Source, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	var sources []build.Source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if info.IsDir() {
			matches, _ := filepath.Glob(filepath.Join(p, "*.haira"))
			for _, m := range matches {
				src, err := readSource(m)
				if err != nil {
					return nil, err
				}
				sources = append(sources, src)
			}
			continue
		}
		src, err := readSource(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func readSource(path string) (build.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return build.Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return build.Source{Path: path, Code: string(data)}, nil
}

func printDiagnostics(diags []*herrors.Diagnostic) {
	for _, d := range diags {
		label := red("error")
		switch d.Severity {
		case herrors.SevWarning:
			label = yellow("warning")
		case herrors.SevInfo:
			label = cyan("info")
		}
		loc := ""
		if d.Primary != nil {
			loc = d.Primary.String() + ": "
		}
		fmt.Fprintf(os.Stderr, "%s%s[%s]: %s\n", loc, label, d.Code, d.Message)
		if d.Hint != "" {
			fmt.Fprintf(os.Stderr, "  %s %s\n", bold("hint:"), d.Hint)
		}
	}
}

func printHelp() {
	fmt.Println(bold("Haira — a statically-typed language with AI-synthesized functions"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  haira <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s [FILE|DIR]   Compile to an object/executable\n", cyan("build"))
	fmt.Printf("  %s [FILE]       Build then execute\n", cyan("run"))
	fmt.Printf("  %s [FILE|DIR]   Stop after inference\n", cyan("check"))
	fmt.Printf("  %s NAME      Print cached CIR for a symbol\n", cyan("inspect"))
	fmt.Printf("  %s [DIR]        Build and run *_test.haira\n", cyan("test"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -o OUT           output path")
	fmt.Println("  --offline        forbid live AI calls")
	fmt.Println("  --refresh-ai     bypass cache, re-call AI for every symbol")
	fmt.Println("  --verify-ai      re-call AI and fail on digest mismatch")
	fmt.Println("  --ai-model ID    override configured AI model")
	fmt.Println("  --ai-endpoint URL override configured AI endpoint")
	fmt.Println()
	fmt.Println("Environment: HAIRA_AI_ENDPOINT, HAIRA_AI_MODEL, HAIRA_CACHE_DIR")
}
