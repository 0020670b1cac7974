package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
)

// result is the output of a one-shot command: styled text for the terminal
// and the value printed by --json.
type result struct {
	text  string
	value any
}

// loader fetches the data for a one-shot command.
type loader func(ctx context.Context, cat core.Catalog) (result, error)

// listOutput is the --json shape of popular and search.
type listOutput struct {
	Query        string             `json:"query,omitempty"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
	Results      []catalog.CardView `json:"results"`
	Message      string             `json:"message,omitempty"`
}

func newPopularCmd() *cobra.Command {
	var (
		page   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "popular",
		Short:   "List popular movies",
		Example: "  moviedeck popular --page 2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOneShot(cmd.OutOrStdout(), "Loading popular movies...", asJSON, popularLoader(page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		page   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [title]",
		Short: "Search movies by title",
		Example: `  moviedeck search dune
  moviedeck search "the matrix" --page 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runOneShot(cmd.OutOrStdout(), "Searching...", asJSON, searchLoader(query, page))
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func newShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "show [tmdb-id]",
		Short:   "Show movie details, cast and trailers",
		Example: "  moviedeck show 438631",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid movie id %q: must be a number", args[0])
			}
			return runOneShot(cmd.OutOrStdout(), "Loading details...", asJSON, showLoader(id))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func popularLoader(page int) loader {
	return func(ctx context.Context, cat core.Catalog) (result, error) {
		p, err := cat.ListPopular(ctx, page)
		if err != nil {
			return result{}, err
		}
		return listResult("", p), nil
	}
}

func searchLoader(query string, page int) loader {
	return func(ctx context.Context, cat core.Catalog) (result, error) {
		p, err := cat.Search(ctx, query, page)
		if err != nil {
			return result{}, err
		}
		return listResult(strings.TrimSpace(query), p), nil
	}
}

func showLoader(id int) loader {
	return func(ctx context.Context, cat core.Catalog) (result, error) {
		d, err := cat.GetDetail(ctx, id)
		if err != nil {
			return result{}, err
		}
		v := catalog.ShapeDetail(d)
		return result{text: renderDetail(v, 0), value: v}, nil
	}
}

func listResult(query string, p *catalog.Page) result {
	out := listOutput{
		Query:        query,
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      catalog.ShapeCards(p.Results),
	}
	if query != "" && len(out.Results) == 0 {
		out.Message = catalog.NoResults(query)
		return result{text: styleDim.Render(out.Message) + "\n", value: out}
	}
	return result{text: renderList(pageHeader(query, p.Page, p.TotalPages), out.Results, 1), value: out}
}

// runOneShot loads configuration, runs load once and prints the result.
// Logs go to stderr so stdout stays clean for --json.
func runOneShot(out io.Writer, label string, asJSON bool, load loader) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App, os.Stderr)
	cat, err := initCatalog(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if asJSON {
		res, err := load(ctx, cat)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.value)
	}

	p := tea.NewProgram(newOneShotModel(ctx, cat, label, load), tea.WithOutput(out))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", label, err)
	}

	om, ok := m.(oneShotModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if om.err != nil {
		return fmt.Errorf("%w: %w", errReported, om.err)
	}
	return nil
}

// loadedMsg carries the loader outcome back to the TUI.
type loadedMsg struct {
	res result
	err error
}

type oneShotModel struct {
	ctx     context.Context
	catalog core.Catalog
	label   string
	load    loader
	spinner spinner.Model
	res     result
	err     error
	done    bool
}

func newOneShotModel(ctx context.Context, cat core.Catalog, label string, load loader) oneShotModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return oneShotModel{
		ctx:     ctx,
		catalog: cat,
		label:   label,
		load:    load,
		spinner: s,
	}
}

func (m oneShotModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m oneShotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case loadedMsg:
		m.res = msg.res
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m oneShotModel) View() string {
	if m.done {
		if m.err != nil {
			return styleError.Render(catalog.Message(m.err)) + "\n"
		}
		return m.res.text
	}
	return m.spinner.View() + styleDim.Render(" "+m.label) + "\n"
}

func (m oneShotModel) fetch() tea.Cmd {
	return func() tea.Msg {
		res, err := m.load(m.ctx, m.catalog)
		return loadedMsg{res: res, err: err}
	}
}
