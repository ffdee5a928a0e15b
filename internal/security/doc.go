// Package security confines file access for directory-backed blob stores
// to a single directory.
package security
