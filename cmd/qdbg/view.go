package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hlalwani/qdbg/diagnostics"
)

func (m Model) View() string {
	if m.quitting {
		return "\n"
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	height := m.height
	if height <= 0 {
		height = 30
	}

	leftW := width * 3 / 5
	rightW := width - leftW - 2

	left := m.renderSource()
	if m.editing {
		left = titleStyle.Render("Edit") + "\n\n" + m.editor.View()
	}
	source := sourceStyle.Width(leftW).Height(height - 6).Render(left)
	right := lipgloss.JoinVertical(lipgloss.Top,
		stateStyle.Width(rightW).Height((height-6)/2).Render(m.renderState()),
		stackStyle.Width(rightW).Height((height-6)/2).Render(m.renderStack()),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top, source, right)
	bottom := statusStyle.Width(width).Render(m.renderStatus())

	return lipgloss.JoinVertical(lipgloss.Top, top, bottom)
}

func (m Model) renderSource() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Source"))
	sb.WriteString("\n\n")

	currentLine := -1
	if id := m.e.GetCurrentInstruction(); id < m.e.GetInstructionCount() {
		currentLine = m.currentLine(id)
	}

	for i, l := range m.lines {
		marker := "  "
		switch {
		case m.breakpointLines[i] && i == currentLine:
			marker = breakpointStyle.Render("●") + currentLineStyle.Render(">")
		case m.breakpointLines[i]:
			marker = breakpointStyle.Render("●") + " "
		case i == currentLine:
			marker = " " + currentLineStyle.Render(">")
		}

		lineNo := fmt.Sprintf("%3d", i+1)
		text := l
		if i == currentLine {
			text = currentLineStyle.Render(l)
		} else if i == m.cursorLine {
			text = cursorLineStyle.Render(l)
		}

		cursor := " "
		if i == m.cursorLine {
			cursor = cursorLineStyle.Render("»")
		}
		sb.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, marker, dimStyle.Render(lineNo), text))
	}
	return sb.String()
}

func (m Model) currentLine(id int) int {
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

func (m Model) renderState() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("State"))
	sb.WriteString("\n\n")

	n := m.e.GetNumQubits()
	fmt.Fprintf(&sb, "qubits: %d\n", n)

	if n <= 5 {
		full := m.e.GetStateVectorFull()
		for i, amp := range full {
			if amp == 0 {
				continue
			}
			fmt.Fprintf(&sb, "%s  %.3f%+.3fi\n", bitstring(i, n), real(amp), imag(amp))
		}
	} else {
		sb.WriteString(dimStyle.Render("(state vector too large to display)\n"))
	}

	return sb.String()
}

func bitstring(i, n int) string {
	var sb strings.Builder
	sb.WriteByte('|')
	for q := n - 1; q >= 0; q-- {
		if i&(1<<q) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteByte('>')
	return sb.String()
}

func (m Model) renderStack() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Call stack"))
	sb.WriteString("\n\n")

	depth := m.e.GetStackDepth()
	trace := m.e.GetStackTrace(depth)
	for _, id := range trace {
		if id < 0 {
			continue
		}
		line := m.currentLine(id)
		fmt.Fprintf(&sb, "#%d line %d\n", id, line+1)
	}
	return sb.String()
}

func (m Model) renderStatus() string {
	var sb strings.Builder
	sb.WriteString(m.statusMsg)

	if m.e.DidAssertionFail() {
		sb.WriteString("  " + failStyle.Render("FAILED"))
	} else if m.e.IsFinished() {
		sb.WriteString("  " + passStyle.Render("FINISHED"))
	}

	for _, c := range m.causes {
		switch c.Kind {
		case diagnostics.ZeroControl:
			sb.WriteString("\n  cause: instruction " + strconv.Itoa(c.Instruction) + "'s control qubit " + strconv.Itoa(c.Qubits[0]) + " was always |0>")
		case diagnostics.MissingInteraction:
			sb.WriteString("\n  cause: qubits " + strconv.Itoa(c.Qubits[0]) + " and " + strconv.Itoa(c.Qubits[1]) + " never interacted")
		}
	}

	help := "n/p step  o/O step-over  shift+↑/↓ step-out  c/C run  b breakpoint  r reset  e explain  i edit  q quit"
	if m.editing {
		help = "ctrl+s reload  esc cancel"
	}
	sb.WriteString("\n" + dimStyle.Render(help))
	return sb.String()
}
