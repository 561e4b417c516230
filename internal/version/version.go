package version

import (
	"os"
	"strings"
)

// Resolve returns the build version. The deploy pipeline writes a VERSION
// file next to the binary; local builds report "dev".
func Resolve() string {
	data, err := os.ReadFile("VERSION")
	if err != nil {
		return "dev"
	}

	v := strings.TrimSpace(string(data))
	if v == "" {
		return "dev"
	}
	return v
}
