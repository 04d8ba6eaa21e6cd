package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/veedubyou/stem-splitter/src/shared/config"
	"github.com/veedubyou/stem-splitter/src/shared/config/envvar"
	"github.com/veedubyou/stem-splitter/src/shared/lib/cerr"
	dynamolib "github.com/veedubyou/stem-splitter/src/shared/lib/dynamo"
	"github.com/veedubyou/stem-splitter/src/shared/retention"
	sessionentity "github.com/veedubyou/stem-splitter/src/shared/session/entity"
	sessionstorage "github.com/veedubyou/stem-splitter/src/shared/session/storage"
)

func newSweepCommand(options Options) *cobra.Command {
	var (
		uploadRoot string
		outputRoot string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired session directories once",
		RunE: func(cmd *cobra.Command, args []string) error {
			janitor := retention.NewJanitor(retention.Config{
				UploadRoot: uploadRoot,
				OutputRoot: outputRoot,
				TTL:        ttl,
			}, options.SessionStore())

			report, err := janitor.Sweep(cmd.Context())
			if err != nil {
				return cerr.Wrap(err).Error("Sweep failed")
			}

			out := cmd.OutOrStdout()
			if report.Skipped {
				fmt.Fprintln(out, "Another sweep holds the lock, nothing done")
				return nil
			}

			sort.Strings(report.RemovedSessions)
			rows := [][]string{}
			for _, sessionID := range report.RemovedSessions {
				rows = append(rows, []string{sessionID})
			}

			fmt.Fprintln(out, renderTable([]string{"Removed session"}, rows))
			fmt.Fprintln(out, renderTable(
				[]string{"Removed", "Failures"},
				[][]string{{strconv.Itoa(len(report.RemovedSessions)), strconv.Itoa(report.Failures)}},
			))

			return nil
		},
	}

	cmd.Flags().StringVar(&uploadRoot, "upload-root", envvar.Get(envvar.UPLOAD_ROOT, "/tmp/uploads"), "Upload root directory")
	cmd.Flags().StringVar(&outputRoot, "output-root", envvar.Get(envvar.OUTPUT_ROOT, "/tmp/separated"), "Output root directory")
	cmd.Flags().DurationVar(&ttl, "ttl", envvar.MustGetDuration(envvar.SESSION_TTL, 24*time.Hour), "Age after which a session expires")

	return cmd
}

// sessionStoreFromEnv matches the server: DynamoDB when a region is configured, otherwise nothing persists
func sessionStoreFromEnv() sessionentity.Store {
	dynamoConfig := config.Dynamo{
		AccessKeyID:     envvar.Get(envvar.AWS_ACCESS_KEY_ID, ""),
		SecretAccessKey: envvar.Get(envvar.AWS_SECRET_ACCESS_KEY, ""),
		Region:          envvar.Get(envvar.DYNAMO_REGION, ""),
		Host:            envvar.Get(envvar.DYNAMO_HOST, ""),
	}

	if !dynamoConfig.Enabled() {
		return sessionstorage.NewMemory()
	}

	return sessionstorage.NewDB(dynamolib.NewDynamoDBFromConfig(dynamoConfig))
}
