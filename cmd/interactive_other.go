//go:build !windows
// +build !windows

package main

// enableVT is a no-op outside Windows; Unix terminals interpret ANSI escape
// sequences natively.
func enableVT() {}
