package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/config/envvar"
)

type dependency struct {
	bin         string
	envOverride string
	purpose     string
}

var dependencies = []dependency{
	{bin: config.SpleeterBin, envOverride: envvar.SPLEETER_BIN_PATH, purpose: "stem separation"},
	{bin: config.FFmpegBin, envOverride: envvar.FFMPEG_BIN_PATH, purpose: "transcoding and fallback filters"},
}

func newDepsCommand(options Options) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that the external audio tools can be found",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := [][]string{}
			missing := []string{}

			for _, dep := range dependencies {
				target := envvar.Get(dep.envOverride, dep.bin)
				binPath, err := options.FindBin(target)

				status := "ok"
				if err != nil {
					status = "missing"
					binPath = "-"
					missing = append(missing, dep.bin)
				}

				rows = append(rows, []string{dep.bin, dep.purpose, binPath, status})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Binary", "Used for", "Path", "Status"}, rows))

			if len(missing) > 0 {
				return errors.Newf("missing binaries: %v", missing)
			}

			return nil
		},
	}
}
