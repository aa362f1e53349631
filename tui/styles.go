package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bassamadnan/mailsort/triage"
)

var (
	AppStyle = lipgloss.NewStyle().Padding(0, 0)

	ContentBoxStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(0, 1)
	TitleStyle      = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("63")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	HeaderKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	HeaderValStyle  = lipgloss.NewStyle()
	BodyStyle       = lipgloss.NewStyle().MarginTop(1)
	PendingStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"})
	LoadingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	// Status Bar
	StatusBarSuccessStyle = lipgloss.NewStyle().Background(lipgloss.Color("28")).Foreground(lipgloss.Color("255")).Padding(0, 1)
	StatusBarNormalStyle  = lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("250")).Padding(0, 1)
	StatusBarErrorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("196")).Foreground(lipgloss.Color("255")).Padding(0, 1)
)

var dispositionColors = map[triage.Disposition]lipgloss.Color{
	triage.Inbox:       lipgloss.Color("250"),
	triage.FollowUp:    lipgloss.Color("214"),
	triage.ReadThrough: lipgloss.Color("39"),
	triage.Archive:     lipgloss.Color("242"),
}

func dispositionStyle(d triage.Disposition) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(dispositionColors[d])
}
