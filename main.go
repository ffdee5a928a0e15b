package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/passvault/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "add":
		runAdd(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "show":
		runShow(ctx, os.Args[2:])
	case "edit":
		runEdit(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "export":
		runExport(ctx, os.Args[2:])
	case "decrypt":
		runDecrypt(ctx, os.Args[2:])
	case "master":
		runMaster(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "destroy":
		runDestroy(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse parses flags anywhere on the command line, returning the positional arguments
func parse(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		if fs.NArg() == 0 {
			return positional
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// exactArgs exits with usage unless exactly n positional arguments were given
func exactArgs(args []string, n int, usage string) {
	if len(args) != n {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
}

func runInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	exactArgs(parse(fs, args), 0, "passvault init")

	cmd.Init(ctx)
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	title := fs.String("title", "", "Record title")
	username := fs.String("username", "", "Record username")
	notes := fs.String("notes", "", "Record notes")
	exactArgs(parse(fs, args), 0, "passvault add [-title T] [-username U] [-notes N]")

	// Notes are absent unless the flag was given, even as ""
	var notesPtr *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "notes" {
			notesPtr = notes
		}
	})

	cmd.Add(ctx, *title, *username, notesPtr)
}

func runLs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	quiet := fs.Bool("q", false, "Print record IDs only")
	exactArgs(parse(fs, args), 0, "passvault ls [-q]")

	cmd.Ls(ctx, *quiet)
}

func runShow(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	rest := parse(fs, args)
	exactArgs(rest, 1, "passvault show <id>")

	cmd.Show(ctx, rest[0])
}

func runEdit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	title := fs.String("title", "", "New title")
	username := fs.String("username", "", "New username")
	password := fs.Bool("password", false, "Prompt for a new record password")
	notes := fs.String("notes", "", "New notes")
	clearNotes := fs.Bool("clear-notes", false, "Remove notes")
	rest := parse(fs, args)
	exactArgs(rest, 1, "passvault edit <id> [-title T] [-username U] [-password] [-notes N|-clear-notes]")

	opts := cmd.EditOptions{Password: *password, ClearNotes: *clearNotes}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			opts.Title = title
		case "username":
			opts.Username = username
		case "notes":
			opts.Notes = notes
		}
	})
	if opts.Notes != nil && opts.ClearNotes {
		fmt.Fprintf(os.Stderr, "error: -notes and -clear-notes are mutually exclusive\n")
		os.Exit(1)
	}

	cmd.Edit(ctx, rest[0], opts)
}

func runRm(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)

	cmd.Remove(ctx, parse(fs, args))
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	exactArgs(parse(fs, args), 0, "passvault passwd")

	cmd.Passwd(ctx)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	exactArgs(parse(fs, args), 0, "passvault status")

	cmd.Status(ctx)
}

func runExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	rest := parse(fs, args)
	exactArgs(rest, 1, "passvault export <file>")

	cmd.Export(ctx, rest[0])
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	rest := parse(fs, args)
	exactArgs(rest, 1, "passvault decrypt <file>")

	cmd.Decrypt(ctx, rest[0])
}

func runMaster(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: passvault master <set|check|clear>")
		os.Exit(1)
	}
	switch args[0] {
	case "set":
		cmd.MasterSet(ctx)
	case "check":
		cmd.MasterCheck()
	case "clear":
		cmd.MasterClear()
	default:
		fmt.Fprintf(os.Stderr, "Unknown master command: %s\n", args[0])
		os.Exit(1)
	}
}

func runKeyring(_ context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: passvault keyring <save|delete|status>")
		os.Exit(1)
	}
	switch args[0] {
	case "save":
		cmd.KeyringSave()
	case "delete":
		cmd.KeyringDelete()
	case "status":
		cmd.KeyringStatus()
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompact(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	exactArgs(parse(fs, args), 0, "passvault compact")

	cmd.Compact(ctx)
}

func runDestroy(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("destroy", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation")
	exactArgs(parse(fs, args), 0, "passvault destroy [-force]")

	cmd.Destroy(ctx, *force)
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: passvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("passvault - Local, passphrase-protected credential vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  passvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create a vault and set its password")
	fmt.Println("  add         Add a record")
	fmt.Println("  ls          List records (without passwords)")
	fmt.Println("  show        Show a record including its password")
	fmt.Println("  edit        Change a record")
	fmt.Println("  rm          Remove records")
	fmt.Println("  passwd      Change vault password")
	fmt.Println("  status      Show vault status")
	fmt.Println("  export      Copy the sealed vault to a file")
	fmt.Println("  decrypt     Decrypt an exported vault file")
	fmt.Println("  master      Manage the master password")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  compact     Compact vault to reclaim disk space")
	fmt.Println("  destroy     Delete the vault and its passwords")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  passvault init                          # Create new vault")
	fmt.Println("  passvault add -title mail -username me  # Add a record")
	fmt.Println("  passvault ls                            # List records")
	fmt.Println("  passvault passwd                        # Re-encrypt under a new password")
	fmt.Println()
	fmt.Println("Configuration: passvault.yaml or PASSVAULT_CONFIG, overridden by")
	fmt.Println("PASSVAULT_PATH, PASSVAULT_BACKEND, PASSVAULT_SECRETS,")
	fmt.Println("PASSVAULT_KEYRING_SERVICE and PASSVAULT_LOG_LEVEL.")
	fmt.Println()
	fmt.Println("Use 'passvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("passvault init")
		fmt.Println()
		fmt.Println("Creates the vault and sets its first password.")
		fmt.Println("The password is not stored anywhere - you must remember it.")
		fmt.Println("Reads PASSVAULT_PASSWORD when set, otherwise prompts twice.")
	case "add":
		fmt.Println("passvault add [-title T] [-username U] [-notes N]")
		fmt.Println()
		fmt.Println("Adds a record. Missing title and username are prompted for;")
		fmt.Println("the record password is always read from the terminal or stdin.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  passvault add -title mail -username alice")
		fmt.Println("  passvault add -title bank -username alice -notes \"branch 12\"")
	case "ls":
		fmt.Println("passvault ls [-q]")
		fmt.Println()
		fmt.Println("Lists record IDs, titles and usernames. Passwords are never shown.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -q    Print record IDs only")
	case "show":
		fmt.Println("passvault show <id>")
		fmt.Println()
		fmt.Println("Prints one record including its password and notes.")
	case "edit":
		fmt.Println("passvault edit <id> [-title T] [-username U] [-password] [-notes N|-clear-notes]")
		fmt.Println()
		fmt.Println("Changes the given fields of a record and prints what changed.")
		fmt.Println("Notes changes are shown as a line diff; passwords are never printed.")
	case "rm":
		fmt.Println("passvault rm <id> [id...]")
		fmt.Println()
		fmt.Println("Removes records from the vault.")
	case "passwd":
		fmt.Println("passvault passwd")
		fmt.Println()
		fmt.Println("Changes the vault password.")
		fmt.Println("Requires both the current and new passwords.")
		fmt.Println("Re-encrypts the vault; on any failure the old password keeps working.")
	case "status":
		fmt.Println("passvault status")
		fmt.Println()
		fmt.Println("Shows backend, vault ID, timestamps and which passwords are set.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "export":
		fmt.Println("passvault export <file>")
		fmt.Println()
		fmt.Println("Copies the sealed vault to a file. The copy stays encrypted.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "decrypt":
		fmt.Println("passvault decrypt <file>")
		fmt.Println()
		fmt.Println("Decrypts an exported vault file and prints its records as JSON.")
	case "master":
		fmt.Println("passvault master <set|check|clear>")
		fmt.Println()
		fmt.Println("Manages the master password, kept apart from the vault password.")
	case "keyring":
		fmt.Println("passvault keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Caches the vault password in the OS keyring so commands stop prompting.")
	case "compact":
		fmt.Println("passvault compact")
		fmt.Println()
		fmt.Println("Compacts the vault database to reclaim unused disk space.")
		fmt.Println("This is automatically done after 'rm' and 'passwd' commands.")
		fmt.Println("Only the bolt backend supports compaction.")
	case "destroy":
		fmt.Println("passvault destroy [-force]")
		fmt.Println()
		fmt.Println("Deletes the sealed vault, the vault and master password verifiers")
		fmt.Println("and any password cached in the keyring. Asks for confirmation")
		fmt.Println("unless -force is given. 'passvault init' can start over afterwards.")
	case "completion":
		fmt.Println("passvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(passvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(passvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  passvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
