package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/browse"
	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
)

// nearBottomRows is how close to the end of the feed the cursor must be
// before the next page is requested.
const nearBottomRows = 3

// newBrowseCmd returns the "browse" subcommand for the full-screen browser.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse popular movies and search interactively",
		Long: "Open a full-screen movie browser.\n" +
			"j/k move, enter opens details, / searches, n/p change search pages,\n" +
			"r retries after an error, esc goes back, q quits.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse starts the Bubble Tea browser. Logs go to the configured file or
// nowhere, since the terminal belongs to the UI.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(cfg.App, nil)
	cat, err := initCatalog(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := tea.NewProgram(newBrowseModel(ctx, cat), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// screen is the part of the browser currently shown.
type screen int

const (
	screenFeed screen = iota
	screenSearch
	screenDetail
)

// pageLoadedMsg carries a finished page fetch back to the session that issued it.
type pageLoadedMsg struct {
	session *browse.Session
	req     browse.Request
	page    *catalog.Page
	err     error
}

// detailLoadedMsg carries a finished detail fetch. seq discards stale ones.
type detailLoadedMsg struct {
	seq    uint64
	id     int
	detail *catalog.Detail
	err    error
}

// browseModel is the Bubble Tea model for the interactive browser.
type browseModel struct {
	ctx     context.Context
	catalog core.Catalog

	feed   *browse.Session
	search *browse.Session

	screen     screen
	back       screen // list screen to return to from detail
	feedRow    int
	searchRow  int
	inputOpen  bool
	textinput  textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	detailID   int
	detailSeq  uint64
	detail     *catalog.DetailView
	detailBusy bool
	detailErr  string

	width  int
	height int
	ready  bool
}

func newBrowseModel(ctx context.Context, cat core.Catalog) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.CharLimit = 200
	ti.Prompt = "/ "

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:       ctx,
		catalog:   cat,
		feed:      browse.NewFeed(browse.Popular(cat)),
		search:    browse.NewSearch(browse.Search(cat)),
		textinput: ti,
		spinner:   s,
	}
}

// Init requests the first page of the feed.
func (m browseModel) Init() tea.Cmd {
	req, ok := m.feed.RequestNextPage()
	if !ok {
		return nil
	}
	return tea.Batch(m.fetchPage(m.feed, req), m.spinner.Tick)
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pageLoadedMsg:
		m.handlePage(msg)
		return m, nil

	case detailLoadedMsg:
		m.handleDetail(msg)
		return m, nil

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.inputOpen {
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// busy reports whether anything on screen is waiting for the network.
func (m browseModel) busy() bool {
	switch m.screen {
	case screenDetail:
		return m.detailBusy
	case screenSearch:
		return m.search.Snapshot().Loading()
	default:
		return m.feed.Snapshot().Loading()
	}
}

// handleResize sizes the detail viewport and the search input.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	vpHeight := max(m.height-3, 1)
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	if m.detail != nil {
		m.viewport.SetContent(renderDetail(*m.detail, m.width-2))
	}
	m.textinput.Width = m.width - 4
}

// handleKey dispatches key events for the active screen.
func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputOpen {
		return m.handleInputKey(msg)
	}
	if m.screen == screenDetail {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "/":
		m.screen = screenSearch
		m.inputOpen = true
		return m, m.textinput.Focus()
	case "enter":
		return m.openDetail()
	case "n":
		return m.changePage(1)
	case "p":
		return m.changePage(-1)
	case "r":
		return m.retry()
	case "esc":
		if m.screen == screenSearch {
			m.screen = screenFeed
		}
		return m, nil
	}
	return m, nil
}

func (m browseModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputOpen = false
		m.textinput.Blur()
		return m, nil
	case "enter":
		m.inputOpen = false
		m.textinput.Blur()
		m.searchRow = 0
		req, ok := m.search.ResetForNewQuery(m.textinput.Value())
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.fetchPage(m.search, req), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m browseModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = m.back
		m.detailSeq++
		m.detailBusy = false
		return m, nil
	case "r":
		if m.detailErr != "" {
			return m.loadDetail(m.detailID)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// activeSession returns the session and cursor of the list on screen.
func (m *browseModel) activeSession() (*browse.Session, *int) {
	if m.screen == screenSearch {
		return m.search, &m.searchRow
	}
	return m.feed, &m.feedRow
}

// moveCursor moves the selection. Reaching the last rows of the feed asks
// for the next page.
func (m browseModel) moveCursor(delta int) (tea.Model, tea.Cmd) {
	session, row := m.activeSession()
	snap := session.Snapshot()
	if len(snap.Items) == 0 {
		return m, nil
	}
	*row = min(max(*row+delta, 0), len(snap.Items)-1)

	if snap.Mode != browse.ModeAppend || len(snap.Items)-1-*row >= nearBottomRows {
		return m, nil
	}
	req, ok := session.RequestNextPage()
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.fetchPage(session, req), m.spinner.Tick)
}

// changePage moves between search result pages.
func (m browseModel) changePage(delta int) (tea.Model, tea.Cmd) {
	if m.screen != screenSearch {
		return m, nil
	}
	req, ok := m.search.GoToPage(m.search.Snapshot().LoadedPage + delta)
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.fetchPage(m.search, req), m.spinner.Tick)
}

func (m browseModel) retry() (tea.Model, tea.Cmd) {
	session, _ := m.activeSession()
	req, ok := session.Retry()
	if !ok {
		return m, nil
	}
	return m, tea.Batch(m.fetchPage(session, req), m.spinner.Tick)
}

// handlePage hands a finished fetch to its session. Stale results are dropped there.
func (m *browseModel) handlePage(msg pageLoadedMsg) {
	if !msg.session.Complete(msg.req, msg.page, msg.err) {
		return
	}
	snap := msg.session.Snapshot()
	if snap.Mode == browse.ModeReplace && snap.State == browse.StateLoaded {
		m.searchRow = 0
	}
}

func (m browseModel) openDetail() (tea.Model, tea.Cmd) {
	session, row := m.activeSession()
	snap := session.Snapshot()
	if *row >= len(snap.Items) {
		return m, nil
	}
	m.back = m.screen
	m.screen = screenDetail
	return m.loadDetail(snap.Items[*row].ID)
}

func (m browseModel) loadDetail(id int) (tea.Model, tea.Cmd) {
	m.detailSeq++
	m.detailID = id
	m.detail = nil
	m.detailErr = ""
	m.detailBusy = true
	m.viewport.SetContent("")
	return m, tea.Batch(m.fetchDetail(m.detailSeq, id), m.spinner.Tick)
}

func (m *browseModel) handleDetail(msg detailLoadedMsg) {
	if msg.seq != m.detailSeq {
		return
	}
	m.detailBusy = false
	if msg.err != nil {
		m.detailErr = catalog.Message(msg.err)
		return
	}
	v := catalog.ShapeDetail(msg.detail)
	m.detail = &v
	m.viewport.SetContent(renderDetail(v, m.width-2))
	m.viewport.GotoTop()
}

// View renders the active screen.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("5")).
		Render("MovieDeck")

	if m.screen == screenDetail {
		return title + "\n" + m.detailView() + "\n" +
			styleDim.Render("↑/↓ scroll · esc back · q quit")
	}

	var body string
	if m.screen == screenSearch {
		body = m.searchView()
	} else {
		body = m.feedView()
	}

	footer := styleDim.Render("j/k move · enter details · / search · esc back · q quit")
	if m.inputOpen {
		inputBorder := lipgloss.NewStyle().
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8"))
		footer = inputBorder.Render(m.textinput.View())
	}
	return title + "\n" + body + "\n" + footer
}

func (m browseModel) feedView() string {
	snap := m.feed.Snapshot()
	header := "Popular movies"
	if snap.TotalKnown {
		header = fmt.Sprintf("Popular movies (%d of %d pages loaded)", snap.LoadedPage, snap.TotalPages)
	}
	status := m.statusLine(snap)
	if status == "" && snap.Exhausted() {
		status = styleDim.Render("End of list")
	}
	return m.listView(header, snap, m.feedRow, status)
}

func (m browseModel) searchView() string {
	snap := m.search.Snapshot()
	if snap.Query == "" {
		return styleDim.Render("Press / to search for a title.") + "\n"
	}
	header := fmt.Sprintf("Results for %q", snap.Query)
	if snap.TotalKnown && snap.TotalPages > 0 {
		header = pageHeader(snap.Query, snap.LoadedPage, snap.TotalPages)
	}
	status := m.statusLine(snap)
	switch {
	case snap.NoResults():
		status = styleDim.Render(catalog.NoResults(snap.Query))
	case status == "" && (snap.HasPrev() || snap.HasNext()):
		status = styleDim.Render("n next page · p previous page")
	}
	return m.listView(header, snap, m.searchRow, status)
}

// statusLine renders the loading and error states shared by both lists.
func (m browseModel) statusLine(snap browse.Snapshot) string {
	switch snap.State {
	case browse.StateLoading:
		return m.spinner.View() + styleDim.Render(" Loading...")
	case browse.StateError:
		return styleError.Render(snap.LastError) + styleDim.Render(" (r to retry)")
	}
	return ""
}

// listView renders the rows that fit on screen, scrolled to keep row visible.
func (m browseModel) listView(header string, snap browse.Snapshot, row int, status string) string {
	var sb strings.Builder
	sb.WriteString(styleHeader.Render(header))
	sb.WriteString("\n")

	rows := max(m.height-7, 1)
	start := max(row-rows+1, 0)
	end := min(start+rows, len(snap.Items))
	for i := start; i < end; i++ {
		sb.WriteString(renderCard(i+1, catalog.ShapeCard(snap.Items[i]), i == row))
		sb.WriteString("\n")
	}
	if status != "" {
		sb.WriteString(status)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m browseModel) detailView() string {
	switch {
	case m.detailBusy:
		return m.spinner.View() + styleDim.Render(" Loading details...")
	case m.detailErr != "":
		return styleError.Render(m.detailErr) + styleDim.Render(" (r to retry)")
	}
	return m.viewport.View()
}

// fetchPage runs req for session off the event loop.
func (m browseModel) fetchPage(session *browse.Session, req browse.Request) tea.Cmd {
	return func() tea.Msg {
		page, err := session.Fetch(m.ctx, req)
		return pageLoadedMsg{session: session, req: req, page: page, err: err}
	}
}

func (m browseModel) fetchDetail(seq uint64, id int) tea.Cmd {
	return func() tea.Msg {
		d, err := m.catalog.GetDetail(m.ctx, id)
		return detailLoadedMsg{seq: seq, id: id, detail: d, err: err}
	}
}
