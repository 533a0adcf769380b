package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/circuitlens/circuitlens/attention"
	"github.com/circuitlens/circuitlens/config"
	"github.com/circuitlens/circuitlens/errors"
)

// SampleCmd writes synthetic sample datasets for offline mode
var SampleCmd = &cobra.Command{
	Use:   "sample [model...]",
	Short: "Write synthetic sample attention datasets",
	Long: `Generate deterministic sample attention datasets so the server can
run without the inference backend. With no arguments, samples are
written for every known model.`,
	RunE: runSample,
}

var sampleDir string

func init() {
	SampleCmd.Flags().StringVar(&sampleDir, "dir", "", "Output directory (defaults to the configured sample dir)")
}

func runSample(cmd *cobra.Command, args []string) error {
	dir := sampleDir
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		dir = cfg.Sample.Dir
	}

	models := args
	if len(models) == 0 {
		for model := range attention.SampleModels {
			models = append(models, model)
		}
		sort.Strings(models)
	}

	for _, model := range models {
		path, err := attention.WriteSampleFile(dir, model)
		if err != nil {
			return errors.Wrapf(err, "failed to write sample for %s", model)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
