// Package git reports how a surrounding git repository treats the vault file.
//
// A committed vault keeps every sealed copy in history, so changing the
// password does not retire the old one. Status checks whether the vault is
// tracked by git (should not be) and whether it is in .gitignore (should be).
package git
