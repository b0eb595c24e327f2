// Package searchcmder provides the search command for similarity search over
// indexed sentences.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apisearch "github.com/papercomputeco/siamese/api/search"
	"github.com/papercomputeco/siamese/cmd/siamese/vectorstore"
	"github.com/papercomputeco/siamese/pkg/artifact"
	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/config"
	embeddingutils "github.com/papercomputeco/siamese/pkg/embeddings/utils"
	"github.com/papercomputeco/siamese/pkg/logger"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	queryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

type searchCommander struct {
	query     string
	topK      int
	quiet     bool
	jsonOut   bool
	apiTarget string
	modelDir  string

	configDir string
	debug     bool
	viper     *viper.Viper
	out       io.Writer
	logger    *slog.Logger
}

const searchLongDesc string = `Search indexed sentences by similarity.

The query is encoded with the model, candidates are fetched from the vector
store, and results are ranked by the model's own similarity score.

Search runs locally against the configured model and vector store, or against
a running "siamese serve" API with --api-target.

Use --quiet to print only the matching sentences, one per line.

Examples:
  siamese search "a man is playing a guitar"
  siamese search "a man is playing a guitar" --top 10
  siamese search "kids on a trampoline" --api-target http://localhost:8081
  siamese search "the dog runs" --json`

const searchShortDesc string = "Search indexed sentences"

var searchFlags = []string{
	config.FlagModelDir,
	config.FlagVectorProvider,
	config.FlagVectorTarget,
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	var provider, target string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, searchFlags)
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.out = cmd.OutOrStdout()
			cmder.modelDir = cmder.viper.GetString("output.dir")
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", apisearch.DefaultTopK, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only matching sentences, one per line")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the results as JSON")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "", "Search through a running siamese API server instead of locally")
	config.AddStringFlag(cmd, config.Flags, config.FlagModelDir, &cmder.modelDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &provider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &target)

	return cmd
}

func (c *searchCommander) run(ctx context.Context) error {
	c.logger = logger.ForCLI(c.debug)

	var (
		output *apisearch.SearchOutput
		err    error
	)
	if c.apiTarget != "" {
		output, err = SearchAPI(ctx, c.apiTarget, c.query, c.topK)
	} else {
		output, err = c.searchLocal(ctx)
	}
	if err != nil {
		return err
	}

	switch {
	case c.jsonOut:
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(output)

	case c.quiet:
		for _, r := range output.Results {
			fmt.Fprintln(c.out, r.Text)
		}
		return nil

	case output.Count == 0:
		fmt.Fprintln(c.out, "No results found.")
		return nil
	}

	fmt.Fprintf(c.out, "\n%s %s %s\n\n",
		headerStyle.Render("Search results for:"),
		queryStyle.Render(fmt.Sprintf("%q", output.Query)),
		cliui.DimStyle.Render("("+output.Metric+")"),
	)

	rows := make([][]string, len(output.Results))
	for i, r := range output.Results {
		rows[i] = []string{
			fmt.Sprintf("#%d", i+1),
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.4f", r.IndexScore),
			r.Text,
		}
	}
	fmt.Fprint(c.out, cliui.Table(c.out, []string{"RANK", "SCORE", "INDEX", "SENTENCE"}, rows))
	return nil
}

func (c *searchCommander) searchLocal(ctx context.Context) (*apisearch.SearchOutput, error) {
	bundle, err := artifact.Load(c.modelDir)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	driver, err := vectorstore.Open(ctx, c.viper, c.configDir, bundle, c.logger)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	defer driver.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: embeddingutils.ProviderModel,
		Source:       artifact.NewHolder(bundle),
	})
	if err != nil {
		return nil, err
	}
	defer embedder.Close()

	return apisearch.Search(ctx, c.query, c.topK, bundle.Model.Config().Metric, embedder, driver, c.logger)
}

// SearchAPI calls the siamese search API and returns the parsed output.
func SearchAPI(ctx context.Context, apiTarget, query string, topK int) (*apisearch.SearchOutput, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/search"
	q := searchURL.Query()
	q.Set("query", query)
	q.Set("top_k", strconv.Itoa(topK))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to siamese API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output apisearch.SearchOutput
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
