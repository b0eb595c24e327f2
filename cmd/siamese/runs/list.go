package runscmder

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/storage"
	"github.com/papercomputeco/siamese/pkg/utils"
)

type listCommander struct {
	store
	limit int
	out   io.Writer
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List training runs, most recent first",
		Args:    cobra.NoArgs,
		PreRunE: cmder.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().IntVar(&cmder.limit, "limit", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}

func (c *listCommander) run(ctx context.Context) error {
	d, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	runs, err := d.ListRuns(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(c.out, "  %s No training runs recorded.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			utils.Truncate(r.ID, 8),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			string(r.Status),
			r.Dataset,
			r.Metric,
			strconv.Itoa(r.Epochs),
			runDuration(r),
		}
	}
	fmt.Fprint(c.out, cliui.Table(c.out, []string{"RUN", "STARTED", "STATUS", "DATASET", "METRIC", "EPOCHS", "DURATION"}, rows))
	return nil
}

func runDuration(r *storage.Run) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return cliui.FormatClock(r.FinishedAt.Sub(r.StartedAt))
}
