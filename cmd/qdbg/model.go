package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hlalwani/qdbg/checker"
	"github.com/hlalwani/qdbg/ddadapter"
	"github.com/hlalwani/qdbg/diagnostics"
	"github.com/hlalwani/qdbg/engine"
)

// Model is the debugger REPL's Bubble Tea program state: an Engine
// stepping through the loaded (and editable) source, a cursor line for setting
// breakpoints, and whatever an explain request last turned up.
type Model struct {
	e       *engine.Engine
	tracker *diagnostics.Tracker
	seed    int64

	source    string
	lines     []string
	lineStart []int // byte offset each line starts at, for id->line lookup

	cursorLine int
	width      int
	height     int

	// breakpointLines tracks which source lines carry a breakpoint, kept
	// in the Model since Engine only exposes set-one/clear-all.
	breakpointLines map[int]bool

	// editor holds the source for in-place editing; lastSource is what
	// the engine last loaded, so an unchanged buffer skips the reload.
	editor     textarea.Model
	editing    bool
	lastSource string

	statusMsg string
	causes    []diagnostics.ErrorCause
	quitting  bool
}

// newEngine wires up a fresh Engine with a dense kernel, the assertion
// checker, and a diagnostics tracker as the execution observer.
func newEngine(src string, seed int64) (*engine.Engine, *diagnostics.Tracker, error) {
	tracker := diagnostics.NewTracker()
	var e *engine.Engine
	if seed != 0 {
		e = engine.NewSeeded(ddadapter.NewDenseKernel(), tracker, seed)
	} else {
		e = engine.New(ddadapter.NewDenseKernel(), tracker)
	}
	e.SetChecker(checker.New())

	if err := e.LoadCode(src); err != nil {
		return nil, nil, err
	}
	return e, tracker, nil
}

// newModel builds a Model ready to debug src.
func newModel(src string, seed int64) (Model, error) {
	e, tracker, err := newEngine(src, seed)
	if err != nil {
		return Model{}, err
	}

	ta := textarea.New()
	ta.Placeholder = "Edit program here..."
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.SetValue(src)

	m := Model{
		e:               e,
		tracker:         tracker,
		seed:            seed,
		breakpointLines: map[int]bool{},
		editor:          ta,
		lastSource:      src,
		statusMsg:       "ready",
	}
	m.setSource(src)
	return m, nil
}

// setSource replaces the displayed source and its line-offset index.
func (m *Model) setSource(src string) {
	m.source = src
	m.lines = strings.Split(src, "\n")
	m.lineStart = make([]int, len(m.lines))
	offset := 0
	for i, l := range m.lines {
		m.lineStart[i] = offset
		offset += len(l) + 1
	}
	if m.cursorLine >= len(m.lines) {
		m.cursorLine = len(m.lines) - 1
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(m.width*3/5 - 4)
		m.editor.SetHeight(m.height - 8)
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursorLine > 0 {
				m.cursorLine--
			}
		case "down", "j":
			if m.cursorLine < len(m.lines)-1 {
				m.cursorLine++
			}

		case "n":
			m.step(m.e.StepForward)
		case "p":
			m.step(m.e.StepBackward)
		case "o":
			m.step(m.e.StepOverForward)
		case "O":
			m.step(m.e.StepOverBackward)
		case "shift+up":
			m.step(m.e.StepOutBackward)
		case "shift+down":
			m.step(m.e.StepOutForward)
		case "c":
			m.step(m.e.RunSimulation)
		case "C":
			m.step(m.e.RunSimulationBackward)

		case "b":
			m.toggleBreakpoint()
		case "r":
			m.e.ResetSimulation()
			m.causes = nil
			m.statusMsg = "reset"

		case "e":
			m.explain()

		case "i":
			m.editor.SetValue(m.source)
			m.editing = true
			m.statusMsg = "editing (ctrl+s reload, esc cancel)"
			return m, m.editor.Focus()
		}
	}
	return m, nil
}

// updateEditing routes keys to the source editor until the edit is
// committed (ctrl+s, which reloads the engine) or abandoned (esc).
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.editor.Blur()
		m.statusMsg = "edit cancelled"
		return m, nil
	case "ctrl+s":
		m.editing = false
		m.editor.Blur()
		m.reloadSource(m.editor.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// reloadSource replaces the running program, building a fresh Engine
// over the edited source. Breakpoints don't survive a reload: the line
// they were set on may no longer hold the same instruction.
func (m *Model) reloadSource(src string) {
	if src == m.lastSource {
		m.statusMsg = "source unchanged"
		return
	}
	e, tracker, err := newEngine(src, m.seed)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.e.Destroy()
	m.e = e
	m.tracker = tracker
	m.lastSource = src
	m.breakpointLines = map[int]bool{}
	m.causes = nil
	m.setSource(src)
	m.statusMsg = "source reloaded"
}

// step runs a stepper transition and refreshes the cursor line and
// status message from its outcome.
func (m *Model) step(fn func() error) {
	if err := fn(); err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.causes = nil
	id := m.e.GetCurrentInstruction()
	if id < m.e.GetInstructionCount() {
		if line := m.lineForInstruction(id); line >= 0 {
			m.cursorLine = line
		}
	}

	switch {
	case m.e.DidAssertionFail():
		m.statusMsg = "assertion failed, press e to explain"
	case m.e.WasBreakpointHit():
		m.statusMsg = "breakpoint hit"
	case m.e.IsFinished():
		m.statusMsg = "program finished"
	default:
		m.statusMsg = "ok"
	}
}

func (m *Model) toggleBreakpoint() {
	line := m.cursorLine
	if m.breakpointLines[line] {
		delete(m.breakpointLines, line)
		m.rebuildBreakpoints()
		m.statusMsg = fmt.Sprintf("breakpoint cleared at line %d", line+1)
		return
	}
	if _, err := m.e.SetBreakpoint(m.lineStart[line]); err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.breakpointLines[line] = true
	m.statusMsg = fmt.Sprintf("breakpoint set at line %d", line+1)
}

// rebuildBreakpoints replays breakpointLines into the engine, since
// Engine.ClearBreakpoints (the only removal primitive) clears all of
// them at once.
func (m *Model) rebuildBreakpoints() {
	m.e.ClearBreakpoints()
	for line := range m.breakpointLines {
		_, _ = m.e.SetBreakpoint(m.lineStart[line])
	}
}

func (m *Model) explain() {
	if !m.e.DidAssertionFail() {
		m.statusMsg = "no failed assertion at the current instruction"
		return
	}
	causes, err := diagnostics.PotentialErrorCauses(m.e, m.tracker, m.e.GetCurrentInstruction(), cfg.Diagnostics.MaxErrorCauses)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.causes = causes
	m.statusMsg = "explained"
}

// lineForInstruction maps an instruction id back to a 0-indexed source
// line via its SourceStart offset.
func (m *Model) lineForInstruction(id int) int {
	start, _, err := m.e.GetInstructionPosition(id)
	if err != nil {
		return -1
	}
	line := 0
	for i, s := range m.lineStart {
		if s > start {
			break
		}
		line = i
	}
	return line
}
