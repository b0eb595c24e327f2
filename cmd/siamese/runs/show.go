package runscmder

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/storage"
)

// latest selects the most recently started run.
const latest = "latest"

type showCommander struct {
	store
	markdown bool
	out      io.Writer
}

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:     "show <run-id|latest>",
		Short:   "Show a training run and its epoch metrics",
		Args:    cobra.ExactArgs(1),
		PreRunE: cmder.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context(), args[0])
		},
	}

	cmder.addFlags(cmd)
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Print the report as markdown")

	return cmd
}

func (c *showCommander) run(ctx context.Context, id string) error {
	d, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	run, err := findRun(ctx, d, id)
	if err != nil {
		return err
	}
	epochs, err := d.Epochs(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("loading epochs: %w", err)
	}

	report := Report(run, epochs)
	if c.markdown {
		fmt.Fprint(c.out, report)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(c.out, report)
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

func findRun(ctx context.Context, d storage.Driver, id string) (*storage.Run, error) {
	if id != latest {
		return d.GetRun(ctx, id)
	}

	runs, err := d.ListRuns(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound{}
	}
	return runs[0], nil
}

// Report renders run and its epochs as a markdown document.
func Report(run *storage.Run, epochs []storage.EpochRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, v)
		}
	}
	row("Status", string(run.Status))
	row("Error", run.Error)
	row("Started", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		row("Duration", cliui.FormatClock(run.FinishedAt.Sub(run.StartedAt)))
	}
	row("Dataset", fmt.Sprintf("%s (%s)", run.Dataset, run.DataFile))
	row("Embeddings", run.EmbeddingFile)
	row("Output", run.OutputDir)
	row("Metric", run.Metric)
	row("Max length", strconv.Itoa(run.MaxLen))
	row("Hidden size", strconv.Itoa(run.HiddenSize))
	row("Batch size", strconv.Itoa(run.BatchSize))
	row("Epochs", strconv.Itoa(run.Epochs))
	row("Learning rate", strconv.FormatFloat(run.LearningRate, 'g', -1, 64))
	row("Pairs", fmt.Sprintf("%d train, %d validation", run.TrainSamples, run.ValSamples))

	if len(epochs) == 0 {
		b.WriteString("\nNo epochs recorded.\n")
		return b.String()
	}

	b.WriteString("\n## Epochs\n\n")
	b.WriteString("| Epoch | Loss | Accuracy | Val loss | Val accuracy | Time |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	for _, e := range epochs {
		valLoss, valAcc := "-", "-"
		if e.HasValidation {
			valLoss = fmt.Sprintf("%.4f", e.ValLoss)
			valAcc = fmt.Sprintf("%.4f", e.ValAccuracy)
		}
		fmt.Fprintf(&b, "| %d | %.4f | %.4f | %s | %s | %s |\n",
			e.Epoch, e.Loss, e.Accuracy, valLoss, valAcc, cliui.FormatDuration(e.Duration))
	}
	return b.String()
}
