//go:build !linux

package main

// stderrIsTerminal is only detected on linux; elsewhere auto logging falls
// back to the text format.
func stderrIsTerminal() bool { return false }
