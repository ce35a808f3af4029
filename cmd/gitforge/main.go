package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/evanmoss/gitforge/internal/config"
	"github.com/evanmoss/gitforge/internal/provider"
	"github.com/evanmoss/gitforge/internal/registry"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "detect":
		runDetect(os.Args[2:])
	case "auth":
		runAuth(os.Args[2:])
	case "mr":
		runMR(os.Args[2:])
	case "version":
		fmt.Printf("gitforge v%s\n", version)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: gitforge <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  detect   Detect the hosting provider of a repository")
	fmt.Println("  auth     Check provider authentication")
	fmt.Println("  mr       Merge request operations (create, status, list, comments)")
	fmt.Println("  version  Print version information")
}

// setup resolves configuration and the logger shared by all commands.
func setup(configPath, envFile string) (*config.Config, zerolog.Logger) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not load env file %s: %v\n", envFile, err)
		}
	} else {
		godotenv.Load(".env")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	return cfg, log
}

func commonFlags(fs *flag.FlagSet) (configPath, envFile, repoPath *string) {
	configPath = fs.String("config", "", "Path to config file (optional)")
	envFile = fs.String("env-file", "", "Path to .env file (optional)")
	repoPath = fs.String("repo", ".", "Path to the local git repository")
	return
}

func runDetect(args []string) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	_, _, repoPath := commonFlags(fs)
	fs.Parse(args)

	ptype, repo, err := provider.Detect(*repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("provider: %s\n", ptype)
	fmt.Printf("repo:     %s\n", repo.FullPath())
	if repo.Host != "" {
		fmt.Printf("host:     %s\n", repo.Host)
	}
}

func runAuth(args []string) {
	fs := flag.NewFlagSet("auth", flag.ExitOnError)
	configPath, envFile, repoPath := commonFlags(fs)
	fs.Parse(args)

	cfg, log := setup(*configPath, *envFile)

	p, err := registry.FromPath(*repoPath, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := p.CheckAuth(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: authenticated\n", p.ProviderType())
}

func runMR(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: gitforge mr <create|status|list|comments> [options]")
		os.Exit(1)
	}

	switch args[0] {
	case "create":
		runMRCreate(args[1:])
	case "status":
		runMRStatus(args[1:])
	case "list":
		runMRList(args[1:])
	case "comments":
		runMRComments(args[1:])
	default:
		fmt.Printf("Unknown mr command: %s\n", args[0])
		os.Exit(1)
	}
}

// resolve builds the provider and identifier for a repository path.
func resolve(repoPath string, cfg *config.Config, log zerolog.Logger) (provider.GitProvider, provider.RepoIdentifier) {
	ptype, repo, err := provider.Detect(repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	p, err := registry.FromType(ptype, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return p, repo
}

func runMRCreate(args []string) {
	fs := flag.NewFlagSet("mr create", flag.ExitOnError)
	configPath, envFile, repoPath := commonFlags(fs)
	title := fs.String("title", "", "Merge request title (required)")
	body := fs.String("body", "", "Merge request description")
	head := fs.String("head", "", "Source branch (required)")
	base := fs.String("base", "main", "Target branch")
	draft := fs.Bool("draft", false, "Create as draft")
	fs.Parse(args)

	if *title == "" || *head == "" {
		fmt.Fprintln(os.Stderr, "mr create requires --title and --head")
		os.Exit(1)
	}

	cfg, log := setup(*configPath, *envFile)
	p, repo := resolve(*repoPath, cfg, log)

	info, err := p.CreateMergeRequest(context.Background(), repo, provider.CreateMRRequest{
		Title:      *title,
		Body:       *body,
		HeadBranch: *head,
		BaseBranch: *base,
		Draft:      *draft,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("!%d %s\n", info.Number, info.URL)
}

func runMRStatus(args []string) {
	fs := flag.NewFlagSet("mr status", flag.ExitOnError)
	configPath, envFile, repoPath := commonFlags(fs)
	number := fs.Int64("number", 0, "Merge request number (required)")
	fs.Parse(args)

	if *number == 0 {
		fmt.Fprintln(os.Stderr, "mr status requires --number")
		os.Exit(1)
	}

	cfg, log := setup(*configPath, *envFile)
	p, repo := resolve(*repoPath, cfg, log)

	info, err := p.GetMRStatus(context.Background(), repo, *number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	printJSON(info)
}

func runMRList(args []string) {
	fs := flag.NewFlagSet("mr list", flag.ExitOnError)
	configPath, envFile, repoPath := commonFlags(fs)
	branch := fs.String("branch", "", "Source branch (required)")
	fs.Parse(args)

	if *branch == "" {
		fmt.Fprintln(os.Stderr, "mr list requires --branch")
		os.Exit(1)
	}

	cfg, log := setup(*configPath, *envFile)
	p, repo := resolve(*repoPath, cfg, log)

	infos, err := p.ListMRsForBranch(context.Background(), repo, *branch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	printJSON(infos)
}

func runMRComments(args []string) {
	fs := flag.NewFlagSet("mr comments", flag.ExitOnError)
	configPath, envFile, repoPath := commonFlags(fs)
	number := fs.Int64("number", 0, "Merge request number (required)")
	fs.Parse(args)

	if *number == 0 {
		fmt.Fprintln(os.Stderr, "mr comments requires --number")
		os.Exit(1)
	}

	cfg, log := setup(*configPath, *envFile)
	p, repo := resolve(*repoPath, cfg, log)

	comments, err := p.GetComments(context.Background(), repo, *number)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	printJSON(comments)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
