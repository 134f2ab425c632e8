package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/system.txt
var systemRaw string

// System returns the fixed system directive that opens every grounded
// prompt. Safe to call concurrently; the embed is compile-time.
func System() string {
	return strings.TrimSpace(systemRaw)
}
