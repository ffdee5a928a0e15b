package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_passvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init add ls show edit rm passwd status export decrypt master keyring compact destroy help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            COMPREPLY=($(compgen -W "-title -username -notes" -- "$cur"))
            ;;
        ls)
            COMPREPLY=($(compgen -W "-q" -- "$cur"))
            ;;
        show|rm)
            # Record IDs, only when the vault opens without a prompt
            local ids
            ids=$(passvault ls -q 2>/dev/null </dev/null)
            COMPREPLY=($(compgen -W "$ids" -- "$cur"))
            ;;
        edit)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-title -username -password -notes -clear-notes" -- "$cur"))
            else
                local ids
                ids=$(passvault ls -q 2>/dev/null </dev/null)
                COMPREPLY=($(compgen -W "$ids" -- "$cur"))
            fi
            ;;
        export|decrypt)
            _filedir
            ;;
        master)
            COMPREPLY=($(compgen -W "set check clear" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _passvault passvault
`

const zshCompletion = `#compdef passvault

_passvault() {
    local -a commands
    commands=(
        'init:Create a vault and set its password'
        'add:Add a record'
        'ls:List records'
        'show:Show a record including its password'
        'edit:Change a record'
        'rm:Remove records'
        'passwd:Change vault password'
        'status:Show vault status'
        'export:Copy the sealed vault to a file'
        'decrypt:Decrypt an exported vault file'
        'master:Manage the master password'
        'keyring:Manage password in OS keyring'
        'compact:Compact vault to reclaim disk space'
        'destroy:Delete the vault and its passwords'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'passvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _arguments \
                        '-title[Record title]:title:' \
                        '-username[Record username]:username:' \
                        '-notes[Record notes]:notes:'
                    ;;
                ls)
                    _arguments '-q[Print record IDs only]'
                    ;;
                show|rm)
                    _arguments '*:record:_passvault_records'
                    ;;
                edit)
                    _arguments \
                        '-title[New title]:title:' \
                        '-username[New username]:username:' \
                        '-password[Prompt for a new record password]' \
                        '-notes[New notes]:notes:' \
                        '-clear-notes[Remove notes]' \
                        '1:record:_passvault_records'
                    ;;
                export|decrypt)
                    _arguments '1:file:_files'
                    ;;
                master)
                    _values 'subcommand' set check clear
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'passvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_passvault_records() {
    local -a ids
    ids=(${(f)"$(passvault ls -q 2>/dev/null </dev/null)"})
    _describe -t records 'record IDs' ids
}

_passvault "$@"
`

const fishCompletion = `# passvault fish completions

set -l commands init add ls show edit rm passwd status export decrypt master keyring compact destroy help completion

complete -c passvault -f

# Commands
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add a record'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List records'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a show -d 'Show a record'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a edit -d 'Change a record'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove records'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change vault password'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a export -d 'Copy sealed vault to a file'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt an exported vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a master -d 'Manage master password'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a destroy -d 'Delete the vault'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c passvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# flags
complete -c passvault -n "__fish_seen_subcommand_from add" -o title -o username -o notes
complete -c passvault -n "__fish_seen_subcommand_from ls" -o q -d 'IDs only'
complete -c passvault -n "__fish_seen_subcommand_from edit" -o title -o username -o password -o notes -o clear-notes

# record IDs
complete -c passvault -n "__fish_seen_subcommand_from show edit rm" -a "(passvault ls -q 2>/dev/null </dev/null)"

# files
complete -c passvault -n "__fish_seen_subcommand_from export decrypt" -F

# subcommands
complete -c passvault -n "__fish_seen_subcommand_from master" -a "set check clear"
complete -c passvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c passvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c passvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
