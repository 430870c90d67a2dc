// Package cards renders profile, achievement and calendar summaries for
// the terminal.
package cards

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	achievementdto "sacredsound/internal/modules/achievement/dto"
	analyticsdto "sacredsound/internal/modules/analytics/dto"
	profiledto "sacredsound/internal/modules/profile/dto"
	"sacredsound/internal/ui/theme"
)

const barWidth = 24

// ProgressBar draws a fixed-width bar; target <= 0 renders a full bar.
func ProgressBar(current, target, width int) string {
	if width <= 0 {
		return ""
	}
	filled := width
	if target > 0 {
		filled = min(max(current, 0)*width/target, width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.Label.Render(label), value)
}

func Profile(p profiledto.ProfileOutput) string {
	level := fmt.Sprintf("%d · %s", p.Level, p.LevelName)
	xp := fmt.Sprintf("%d XP (max level)", p.XP)
	if !p.MaxLevel {
		xp = fmt.Sprintf("%s %d/%d XP", ProgressBar(p.XP, p.NextLevelXP, barWidth), p.XP, p.NextLevelXP)
	}
	user := p.UserID
	if user == "" {
		user = theme.Muted.Render("not linked")
	}
	s := p.Stats
	last := theme.Muted.Render("never")
	if !s.LastSessionDate.IsZero() {
		last = s.LastSessionDate.Local().Format("2006-01-02 15:04")
	}
	lines := []string{
		theme.Title.Render("Sacred Sound"),
		row("user", user),
		row("level", theme.Hot.Render(level)),
		row("xp", xp),
		"",
		row("sessions", fmt.Sprintf("%d (%d min)", s.TotalSessions, s.TotalMinutes)),
		row("breathwork", fmt.Sprintf("%d min", s.BreathworkMinutes)),
		row("sound healing", fmt.Sprintf("%d min", s.SoundHealingMinutes)),
		row("guided", fmt.Sprintf("%d min", s.GuidedSessionMinutes)),
		row("streak", theme.Good.Render(fmt.Sprintf("%d days", s.CurrentStreak))+theme.Muted.Render(fmt.Sprintf("  best %d", s.LongestStreak))),
		row("this week", fmt.Sprint(s.SessionsThisWeek)),
		row("this month", fmt.Sprint(s.SessionsThisMonth)),
		row("last session", last),
	}
	if s.FavoriteTimeOfDay != "" {
		lines = append(lines, row("favorite time", s.FavoriteTimeOfDay))
	}
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func Achievements(list achievementdto.ListOutput) string {
	lines := []string{theme.Title.Render(fmt.Sprintf("Achievements %d/%d", list.Unlocked, list.Total))}
	for _, a := range list.Achievements {
		if a.Unlocked {
			lines = append(lines, theme.Badge.Render("★ "+a.Name)+theme.Muted.Render(fmt.Sprintf("  +%d XP  %s", a.XPBonus, a.UnlockedAt.Local().Format("2006-01-02"))))
			continue
		}
		progress := fmt.Sprintf("  %s %d/%d", ProgressBar(a.Progress, a.Target, 10), a.Progress, a.Target)
		lines = append(lines, "☆ "+a.Name+theme.Muted.Render(progress))
		lines = append(lines, theme.Muted.Render("    "+a.Description))
	}
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Calendar draws a month as rows of seven days, marking practiced days.
func Calendar(out analyticsdto.CalendarOutput, firstWeekday, daysInMonth int) string {
	minutes := map[int]int{}
	for _, day := range out.Days {
		minutes[day.Day] = day.TotalMinutes
	}
	header := theme.Title.Render(fmt.Sprintf("%04d-%02d", out.Year, out.Month))
	var b strings.Builder
	b.WriteString(theme.Muted.Render(" Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("   ", firstWeekday))
	col := firstWeekday
	for day := 1; day <= daysInMonth; day++ {
		cell := fmt.Sprintf(" %2d", day)
		if m, ok := minutes[day]; ok {
			if m >= 30 {
				cell = theme.Hot.Render(cell)
			} else {
				cell = theme.Good.Render(cell)
			}
		}
		b.WriteString(cell)
		col++
		if col == 7 && day < daysInMonth {
			b.WriteString("\n")
			col = 0
		}
	}
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, header, b.String()))
}
