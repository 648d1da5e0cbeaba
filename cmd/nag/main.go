// Command nag is the thin CLI front-end over internal/nagcore: each
// subcommand other than init (which creates the repository at its path
// argument) resolves the repository handle once (via nagcore.DiscoverRepo,
// the only place in this program allowed to consult the working directory
// implicitly) and calls straight into the corresponding porcelain operation.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nagvcs/nag/internal/nagcli"
	"github.com/nagvcs/nag/internal/nagcore"
)

const version = "0.1.0"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app := nagcli.NewApp("nag", version)
	registerCommands(app)
	os.Exit(app.Run(os.Args[1:]))
}

func registerCommands(app *nagcli.App) {
	app.Register(&nagcli.Command{
		Name:    "init",
		Summary: "create a new repository (in the current directory by default)",
		Usage:   "nag init [path]",
		Run:     cmdInit,
	})
	app.Register(&nagcli.Command{
		Name:    "add",
		Summary: "stage a file or directory",
		Usage:   "nag add <path>",
		Run:     cmdAdd,
	})
	app.Register(&nagcli.Command{
		Name:    "commit",
		Summary: "record the staged index as a new commit",
		Usage:   "nag commit -m <message>",
		Run:     cmdCommit,
	})
	app.Register(&nagcli.Command{
		Name:    "status",
		Summary: "show the working tree's six-bucket classification",
		Usage:   "nag status [--verbose]",
		Run:     cmdStatus,
	})
	app.Register(&nagcli.Command{
		Name:    "branch",
		Summary: "list or create branches",
		Usage:   "nag branch [-l | --list | name]",
		Run:     cmdBranch,
	})
	app.Register(&nagcli.Command{
		Name:    "checkout",
		Summary: "switch the working tree to another branch",
		Usage:   "nag checkout <branch>",
		Run:     cmdCheckout,
	})
	app.Register(&nagcli.Command{
		Name:    "restore",
		Summary: "restore a path from HEAD",
		Usage:   "nag restore <path>",
		Run:     cmdRestore,
	})
	app.Register(&nagcli.Command{
		Name:    "merge",
		Summary: "merge another branch into the current branch",
		Usage:   "nag merge <branch>",
		Run:     cmdMerge,
	})
	app.Register(&nagcli.Command{
		Name:    "tag",
		Summary: "create, list, or delete tags",
		Usage:   "nag tag [-a] [-d] [-m message] [name] [oid]",
		Run:     cmdTag,
	})
	app.Register(&nagcli.Command{
		Name:    "remote",
		Summary: "add or remove a remote",
		Usage:   "nag remote add|remove <name> [url]",
		Run:     cmdRemote,
	})
	app.Register(&nagcli.Command{
		Name:    "fetch",
		Summary: "copy reachable objects from a remote",
		Usage:   "nag fetch <remote>",
		Run:     cmdFetch,
	})
	app.Register(&nagcli.Command{
		Name:    "resolve",
		Summary: "mark a conflicted path resolved from its working-tree bytes",
		Usage:   "nag resolve <path>",
		Run:     cmdResolve,
	})
}

func openRepo() (*nagcore.RepoHandle, *nagcore.ObjectStore, nagcore.IgnoreOracle, error) {
	h, err := nagcore.DiscoverRepo(".")
	if err != nil {
		return nil, nil, nil, err
	}
	oracle, err := nagcore.LoadIgnoreOracle(h)
	if err != nil {
		return nil, nil, nil, err
	}
	return h, nagcore.NewObjectStore(h), oracle, nil
}

func fail(err error) int {
	switch {
	case errors.Is(err, nagcore.ErrNotFound):
		fmt.Fprintln(os.Stderr, "nag: not found:", err)
	case errors.Is(err, nagcore.ErrAlreadyExists):
		fmt.Fprintln(os.Stderr, "nag: already exists:", err)
	case errors.Is(err, nagcore.ErrDirtyWorkingTree):
		fmt.Fprintln(os.Stderr, "nag: working tree has uncommitted changes:", err)
	case errors.Is(err, nagcore.ErrDetachedHeadForbidden):
		fmt.Fprintln(os.Stderr, "nag: HEAD is detached:", err)
	default:
		var conflictErr *nagcore.ConflictError
		if errors.As(err, &conflictErr) {
			fmt.Fprintln(os.Stderr, "nag: merge conflict in:")
			for _, p := range conflictErr.Paths {
				fmt.Fprintln(os.Stderr, " ", p)
			}
		} else {
			fmt.Fprintln(os.Stderr, "nag:", err)
		}
	}
	return 1
}

func cmdInit(args []string) int {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	h, reinit, err := nagcore.Init(path)
	if err != nil {
		return fail(err)
	}
	if !reinit {
		cfg, err := nagcore.LoadConfig(h)
		if err != nil {
			return fail(err)
		}
		if err := nagcore.ApplyDefaultBranch(h, cfg.Init.DefaultBranch); err != nil {
			return fail(err)
		}
	}
	if reinit {
		fmt.Println("Reinitialized existing repository")
	} else {
		fmt.Println("Initialized empty repository")
	}
	return 0
}

func cmdAdd(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag add <path>")
		return 1
	}
	h, store, oracle, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if err := nagcore.Add(h, store, oracle, args[0]); err != nil {
		return fail(err)
	}
	return 0
}

func cmdCommit(args []string) int {
	message := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "-m" && i+1 < len(args) {
			message = args[i+1]
			i++
		}
	}
	if message == "" {
		fmt.Fprintln(os.Stderr, "usage: nag commit -m <message>")
		return 1
	}
	h, store, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	oid, err := nagcore.Commit(h, store, message)
	if err != nil {
		return fail(err)
	}
	fmt.Println(oid)
	return 0
}

func cmdStatus(args []string) int {
	verbose := false
	for _, a := range args {
		if a == "--verbose" || a == "-v" {
			verbose = true
		}
	}

	h, store, oracle, err := openRepo()
	if err != nil {
		return fail(err)
	}
	status, err := nagcore.Status(h, store, oracle)
	if err != nil {
		return fail(err)
	}
	printBucket("Untracked", status.Untracked)
	printBucket("Modified", status.Modified)
	printBucket("Deleted", status.Deleted)
	printBucket("Added", status.Added)
	printBucket("Staged", status.Staged)
	printBucket("Staged for deletion", status.StagedDelete)
	if status.IsClean() {
		fmt.Println("nothing to commit, working tree clean")
	}

	if verbose {
		if err := printVerboseDiffs(h, store, status); err != nil {
			return fail(err)
		}
	}
	return 0
}

// printVerboseDiffs is status --verbose's line-diff detail: a unified diff
// per Modified path (working tree vs index) and per Staged path (index vs
// HEAD), built from internal/nagcore's sergi/go-diff-backed line differ.
func printVerboseDiffs(h *nagcore.RepoHandle, store *nagcore.ObjectStore, status *nagcore.StatusResult) error {
	if len(status.Modified) == 0 && len(status.Staged) == 0 {
		return nil
	}

	index, err := nagcore.ReadIndex(h)
	if err != nil {
		return err
	}

	for _, path := range status.Modified {
		diff, err := nagcore.DiffWorkingVsIndex(h, store, index, path)
		if err != nil {
			return err
		}
		fmt.Printf("\n--- %s (working tree vs index) ---\n%s", path, diff)
	}

	if len(status.Staged) > 0 {
		headTree, err := nagcore.HeadTreeIndex(h, store)
		if err != nil {
			return err
		}
		for _, path := range status.Staged {
			diff, err := nagcore.DiffIndexVsHead(store, headTree, index, path)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- %s (index vs HEAD) ---\n%s", path, diff)
		}
	}

	return nil
}

func printBucket(title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Printf("%s:\n", title)
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
	}
}

func cmdBranch(args []string) int {
	h, _, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if len(args) == 0 || args[0] == "-l" || args[0] == "--list" {
		names, current, err := nagcore.ListBranches(h)
		if err != nil {
			return fail(err)
		}
		fmt.Print(nagcore.FormatBranchList(names, current))
		return 0
	}
	if err := nagcore.CreateBranch(h, args[0], nil); err != nil {
		return fail(err)
	}
	return 0
}

func cmdCheckout(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag checkout <branch>")
		return 1
	}
	h, store, oracle, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if err := nagcore.Checkout(h, store, oracle, args[0]); err != nil {
		return fail(err)
	}
	return 0
}

func cmdRestore(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag restore <path>")
		return 1
	}
	h, store, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if err := nagcore.Restore(h, store, args[0]); err != nil {
		return fail(err)
	}
	return 0
}

func cmdMerge(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag merge <branch>")
		return 1
	}
	h, store, oracle, err := openRepo()
	if err != nil {
		return fail(err)
	}
	result, err := nagcore.Merge(h, store, oracle, args[0])
	if err != nil {
		var conflictErr *nagcore.ConflictError
		if errors.As(err, &conflictErr) {
			fmt.Println("Merge produced conflicts in:")
			for _, p := range conflictErr.Paths {
				fmt.Println(" ", p)
			}
			return 1
		}
		return fail(err)
	}
	switch {
	case result.FastForward:
		fmt.Println("Fast-forward")
	case result.AlreadyUpToDate:
		fmt.Println("Already up to date")
	default:
		fmt.Println("Merge completed")
	}
	return 0
}

func cmdTag(args []string) int {
	h, store, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if len(args) == 0 {
		names, err := nagcore.ListTags(h)
		if err != nil {
			return fail(err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return 0
	}

	annotated := false
	deleteTag := false
	message := ""
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-a":
			annotated = true
		case "-d":
			deleteTag = true
		case "-m":
			if i+1 < len(args) {
				message = args[i+1]
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: nag tag [-a] [-d] [-m message] <name> [oid]")
		return 1
	}

	name := rest[0]
	if deleteTag {
		if err := nagcore.DeleteTag(h, name); err != nil {
			return fail(err)
		}
		return 0
	}

	oid := ""
	if len(rest) > 1 {
		oid = rest[1]
	} else {
		_, headOID, err := nagcore.ResolveHead(h)
		if err != nil {
			return fail(err)
		}
		oid = headOID
	}

	if annotated {
		if err := nagcore.CreateAnnotatedTag(h, store, name, oid, message); err != nil {
			return fail(err)
		}
		return 0
	}
	if err := nagcore.CreateLightweightTag(h, name, oid); err != nil {
		return fail(err)
	}
	return 0
}

func cmdRemote(args []string) int {
	h, _, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: nag remote add|remove <name> [url]")
		return 1
	}
	switch args[0] {
	case "add":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: nag remote add <name> <url>")
			return 1
		}
		if err := nagcore.AddRemote(h, args[1], args[2]); err != nil {
			return fail(err)
		}
	case "rm", "remove":
		if err := nagcore.RemoveRemote(h, args[1]); err != nil {
			return fail(err)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: nag remote add|remove <name> [url]")
		return 1
	}
	return 0
}

func cmdFetch(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag fetch <remote>")
		return 1
	}
	h, store, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if err := nagcore.Fetch(h, store, args[0]); err != nil {
		return fail(err)
	}
	return 0
}

func cmdResolve(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nag resolve <path>")
		return 1
	}
	h, store, _, err := openRepo()
	if err != nil {
		return fail(err)
	}
	if err := nagcore.Resolve(h, store, args[0]); err != nil {
		return fail(err)
	}
	return 0
}
