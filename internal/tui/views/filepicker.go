package views

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pablasso/plannah/internal/tui/components"
	"github.com/pablasso/plannah/internal/tui/msgs"
	"github.com/pablasso/plannah/internal/tui/styles"
)

// ImportTypes are the plan document extensions the picker offers.
var ImportTypes = []string{".yaml", ".yml", ".json", ".toml"}

// FilePickerModel is the model for the import file picker.
type FilePickerModel struct {
	picker filepicker.Model
	root   string
	width  int
	height int
	err    error
}

// NewFilePickerModel creates a FilePickerModel starting in dir.
func NewFilePickerModel(dir string) FilePickerModel {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = ImportTypes
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.DirAllowed = false
	fp.FileAllowed = true

	return FilePickerModel{
		picker: fp,
		root:   dir,
	}
}

// Init implements tea.Model.
func (m FilePickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements tea.Model.
func (m FilePickerModel) Update(msg tea.Msg) (FilePickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, emit(msgs.GoToPlanMsg{})
		case "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		absPath, err := filepath.Abs(path)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, emit(msgs.FileSelectedMsg{Path: absPath})
	}

	return m, cmd
}

// View implements tea.Model.
func (m FilePickerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := styles.TitleStyle.Render("Import Plan")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	b.WriteString("\n")
	b.WriteString(styles.SubtleStyle.Render("Replaces the whole plan and its saved task progress."))
	b.WriteString("\n\n")

	b.WriteString(m.picker.View())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(m.err.Error()))
	}

	lines := strings.Count(b.String(), "\n") + 1
	if remaining := m.height - lines - 1; remaining > 0 {
		b.WriteString(strings.Repeat("\n", remaining))
	}

	hints := []string{"↑↓ Navigate", "Enter Select", "← Up a directory", "Esc Back"}
	b.WriteString(components.NewStatusBar().Render(m.width, hints))

	return b.String()
}

// SetSize updates the model dimensions. Four lines go to the title and
// one to the status bar.
func (m *FilePickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.picker.Height = max(height-6, 1)
}

// CurrentDirectory returns the directory being displayed.
func (m FilePickerModel) CurrentDirectory() string {
	return m.picker.CurrentDirectory
}

// Root returns the directory the picker started in.
func (m FilePickerModel) Root() string {
	return m.root
}

// Err returns any error that occurred.
func (m FilePickerModel) Err() error {
	return m.err
}
