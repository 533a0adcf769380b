package commands

import (
	"fmt"

	"github.com/circuitlens/circuitlens/config"
	"github.com/circuitlens/circuitlens/logger"
	"github.com/circuitlens/circuitlens/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *config.Config, dbPath string) {
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔══════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                          ║\n")
	fmt.Printf("   ║   ◉──◉   c i r c u i t l e n s   ◉──◉    ║\n")
	fmt.Printf("   ║    \\  \\                         /  /     ║\n")
	fmt.Printf("   ║     ◉──◉──◉─────◉─────◉──◉───◉──◉        ║\n")
	fmt.Printf("   ║        attention-head inspection         ║\n")
	fmt.Printf("   ║                                          ║\n")
	fmt.Printf("   ╚══════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ circuitlens ───────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuildTime)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Backend:   %s (model %s)\n", green, reset, cfg.Backend.BaseURL, cfg.Backend.DefaultModel)
	if dbPath != "" {
		fmt.Printf("%s│%s Groups DB: %s\n", green, reset, dbPath)
	}
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%s✨ Select heads and group them into circuits to see live graph updates%s\n", yellow, bold, reset)
	fmt.Printf("%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}
