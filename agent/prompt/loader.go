package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// SystemPolicy returns the fixed system prompt for the agent. The deletion
// policy lives here for the model's benefit, but the tools enforce it
// independently; a prompt injection cannot skip the confirmation gate.
// Safe to call concurrently; the embed is compile-time and trimming is cheap.
func SystemPolicy() string {
	return strings.TrimSpace(systemRaw)
}
