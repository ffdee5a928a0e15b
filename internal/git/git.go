package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Status contains git status information for a vault file
type Status struct {
	IsRepo  bool
	Tracked bool // Sealed copies end up in history (warning)
	Ignored bool // Kept out of the repository (good)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// Check reports how git sees the vault at vaultPath. A vault outside any
// work tree yields a zero Status.
func Check(vaultPath string) (*Status, error) {
	absPath, err := filepath.Abs(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	workDir, name := filepath.Dir(absPath), filepath.Base(absPath)

	status := &Status{}
	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true
	status.Tracked = IsTracked(workDir, name)
	status.Ignored = IsIgnored(workDir, name)
	return status, nil
}

// FormatStatus formats git status for display
func FormatStatus(status *Status, vaultPath string) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit:\n")

	switch {
	case status.Tracked:
		result.WriteString(fmt.Sprintf("   warning: %s is tracked by git\n", vaultPath))
		result.WriteString("      history keeps every sealed copy, including ones under old passwords\n")
		result.WriteString(fmt.Sprintf("      (run: git rm --cached %s)\n", vaultPath))
	case status.Ignored:
		result.WriteString(fmt.Sprintf("   ok: %s is in .gitignore\n", vaultPath))
	default:
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", vaultPath))
	}

	return result.String()
}
