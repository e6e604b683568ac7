// Package tui provides a Bubble Tea terminal user interface for antenati-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/antenati-downloader/internal/config"
	"github.com/handiism/antenati-downloader/internal/download"
	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	"github.com/handiism/antenati-downloader/internal/iiif"
	ioutils "github.com/handiism/antenati-downloader/internal/io"
	"github.com/handiism/antenati-downloader/internal/model"
	"github.com/handiism/antenati-downloader/internal/plan"
	"go.uber.org/zap"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#C9A227")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	galleryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// logSink collects progress events from the download goroutines until the
// next tick drains them.
type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (s *logSink) add(event download.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, LogEntry{Message: event.Message, Level: event.Level})
}

func (s *logSink) drain() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.entries
	s.entries = nil
	return out
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state      State
	urlInput   textinput.Model
	pagesInput textinput.Model
	spinner    spinner.Model
	progress   progress.Model
	settings   *config.Settings
	configPath string
	logger     *zap.Logger
	logs       []LogEntry
	sink       *logSink
	err        error
	notice     string

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	// Resolved run
	gallery   *model.Gallery
	pages     []*model.Page
	outputDir string
	manager   *download.Manager
	summary   *download.Summary

	// Download progress
	processed int
	total     int
	bytes     int64

	width  int
	height int
}

// NewModel creates a new TUI model using settings, which are saved to
// configPath when the user asks for it.
func NewModel(settings *config.Settings, configPath string, logger *zap.Logger) Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://antenati.cultura.gov.it/ark:/12657/an_ua18772719/"
	urlInput.Focus()
	urlInput.CharLimit = 500
	urlInput.Width = 60

	pagesInput := textinput.New()
	pagesInput.Placeholder = "all pages (e.g. 1,3-5,7)"
	pagesInput.CharLimit = 200
	pagesInput.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C9A227"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = zap.NewNop()
	}

	return Model{
		state:      StateInput,
		urlInput:   urlInput,
		pagesInput: pagesInput,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		configPath: configPath,
		logger:     logger,
		sink:       &logSink{},
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when the gallery has been resolved.
	InitDoneMsg struct {
		Gallery   *model.Gallery
		Pages     []*model.Page
		OutputDir string
		Manager   *download.Manager
		Err       error
	}

	// DownloadDoneMsg is sent when the run ends.
	DownloadDoneMsg struct {
		Summary *download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
			}

		case "tab", "shift+tab":
			if m.state == StateInput {
				if m.urlInput.Focused() {
					m.urlInput.Blur()
					cmds = append(cmds, m.pagesInput.Focus())
				} else {
					m.pagesInput.Blur()
					cmds = append(cmds, m.urlInput.Focus())
				}
				return m, tea.Batch(cmds...)
			}

		case "enter":
			if m.state == StateInput && m.urlInput.Value() != "" {
				m.state = StateInitializing
				m.notice = ""
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick)
			}

		case "ctrl+y":
			if m.state == StateInput {
				m.settings.AssumeYes = !m.settings.AssumeYes
				return m, nil
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.settings.Verbose = !m.settings.Verbose
				return m, nil
			}

		case "ctrl+s":
			if m.state == StateInput {
				if err := m.settings.Save(m.configPath); err != nil {
					m.notice = errorStyle.Render(fmt.Sprintf("Could not save settings: %v", err))
				} else {
					m.notice = successStyle.Render(fmt.Sprintf("Settings saved to %s", m.configPath))
				}
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.gallery = nil
				m.pages = nil
				m.manager = nil
				m.summary = nil
				m.processed, m.total, m.bytes = 0, 0, 0
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.urlInput.SetValue("")
				m.pagesInput.SetValue("")
				m.pagesInput.Blur()
				return m, m.urlInput.Focus()
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.gallery = msg.Gallery
			m.pages = msg.Pages
			m.outputDir = msg.OutputDir
			m.manager = msg.Manager
			m.total = len(msg.Pages)
			m.state = StateDownloading
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		m.appendLogs(m.sink.drain())
		m.summary = msg.Summary
		if msg.Summary != nil {
			m.processed = msg.Summary.Processed
			m.bytes = msg.Summary.Bytes
		}
		switch {
		case errors.Is(msg.Err, download.ErrCancelled):
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.processed, m.total, m.bytes = m.manager.GetProgress()
			if m.manager.State() == download.StateRunning {
				m.appendLogs(m.sink.drain())
			}

			var percent float64
			if m.total > 0 {
				percent = float64(m.processed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.urlInput, cmd = m.urlInput.Update(msg)
		cmds = append(cmds, cmd)
		m.pagesInput, cmd = m.pagesInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLogs(entries []LogEntry) {
	for _, entry := range entries {
		if entry.Level == download.LevelVerbose && !m.settings.Verbose {
			continue
		}
		m.logs = append(m.logs, entry)
	}
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Antenati Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download galleries from Portale Antenati"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Gallery URL:"))
	b.WriteString("\n")
	b.WriteString(m.urlInput.View())
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Pages:"))
	b.WriteString("\n")
	b.WriteString(m.pagesInput.View())
	b.WriteString("\n\n")

	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Reuse existing directory (ctrl+y)\n", check(m.settings.AssumeYes)))
	b.WriteString(fmt.Sprintf("  %s Verbose output (ctrl+v)\n", check(m.settings.Verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Workers: %d | Connections: %d | Output: %s",
		m.settings.Workers, m.settings.Connections, m.settings.OutputRoot)))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.notice)
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Fetching gallery manifest..."))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.gallery != nil {
		title, _ := m.gallery.MetadataValue(model.LabelTitle)
		b.WriteString(galleryStyle.Render(fmt.Sprintf("%s (%d of %d pages)", title, len(m.pages), m.gallery.Len())))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.outputDir))
		b.WriteString("\n\n")
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Images: %d/%d | Downloaded: %s",
		m.processed,
		m.total,
		humanize.Bytes(uint64(m.bytes)),
	)))
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	succeeded, failed := m.processed, 0
	if m.summary != nil {
		succeeded, failed = m.summary.Succeeded, m.summary.Failed()
	}

	box := boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Images: %d\n"+
			"Failed: %d\n"+
			"Size: %s\n"+
			"Directory: %s",
		succeeded,
		failed,
		humanize.Bytes(uint64(m.bytes)),
		m.outputDir,
	))
	b.WriteString(box)
	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: switch field • ctrl+y: reuse dir • ctrl+v: verbose • ctrl+s: save settings • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// initializeDownload resolves the gallery, builds the work plan and prepares
// the output directory.
func (m *Model) initializeDownload() tea.Cmd {
	ctx := m.ctx
	settings := *m.settings
	galleryURL := strings.TrimSpace(m.urlInput.Value())
	selection := m.pagesInput.Value()
	logger := m.logger
	sink := m.sink

	return func() tea.Msg {
		sel, err := plan.ParseSelection(selection)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		client := antenatihttp.NewClient(settings.ToHTTPConfig())
		gallery, err := iiif.NewResolver(client, logger).Resolve(ctx, galleryURL)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		pages, err := plan.Build(gallery, sel)
		if err != nil {
			return InitDoneMsg{Err: err}
		}

		dirName, err := gallery.DirName()
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		outputDir := filepath.Join(settings.OutputRoot, dirName)
		if err := ioutils.PrepareDir(outputDir, func(string) bool { return settings.AssumeYes }); err != nil {
			return InitDoneMsg{Err: err}
		}

		manager := download.NewManager(&settings, outputDir, logger, sink.add)
		return InitDoneMsg{
			Gallery:   gallery,
			Pages:     pages,
			OutputDir: outputDir,
			Manager:   manager,
		}
	}
}

// startDownload runs the manager in the background.
func (m *Model) startDownload() tea.Cmd {
	ctx := m.ctx
	manager := m.manager
	pages := m.pages

	return func() tea.Msg {
		summary, err := manager.Run(ctx, pages)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// DefaultConfigPath is where the TUI saves its settings.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "antenati.json"
	}
	return filepath.Join(home, ".config", "antenati", "antenati.json")
}

// Run starts the TUI application.
func Run(settings *config.Settings, configPath string, logger *zap.Logger) error {
	p := tea.NewProgram(NewModel(settings, configPath, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
