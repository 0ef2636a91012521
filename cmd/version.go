package cmd

import (
	"fmt"
	"os"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

// runVersion prints version and credential status.
func runVersion() {
	fmt.Printf("CampusBot %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey != "" && len(geminiKey) >= 8 {
		fmt.Printf("GEMINI_API_KEY: %s...%s (configured)\n",
			geminiKey[:4], geminiKey[len(geminiKey)-4:])
	} else if geminiKey != "" {
		fmt.Println("GEMINI_API_KEY: configured")
	} else {
		fmt.Println("GEMINI_API_KEY: Not set")
		fmt.Println()
		fmt.Println("Hint: export GEMINI_API_KEY=your-api-key")
	}
}
