// Package models contains the data structures used throughout gowake.
package models

// WakeConfig holds the settings for a wake run.
type WakeConfig struct {
	BroadcastIP string // destination for the magic packets
	Port        int    // UDP destination port
	AliasFile   string // path to the JSON alias table
}

// WakeResult holds the outcome for a single target token.
type WakeResult struct {
	Target     string // the token as given (alias or literal MAC)
	MAC        string // the MAC string after alias resolution
	PacketSent bool
	Error      error
}

// RunSummary aggregates the results of one invocation.
type RunSummary struct {
	Sent    int
	Skipped int
	Results []WakeResult
}
