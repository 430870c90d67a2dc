package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sacredsound/internal/bootstrap"
	sessiondto "sacredsound/internal/modules/session/dto"
	"sacredsound/internal/platform/config"
	"sacredsound/internal/platform/events"
	"sacredsound/internal/ui/cards"
)

const dayLayout = "2006-01-02"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir string
	offline bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "sacredsound",
		Short:         "Offline-first breathwork and sound healing companion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", defaultDataDir(), "data directory")
	root.PersistentFlags().BoolVar(&flags.offline, "offline", false, "never contact the backend")

	root.AddCommand(newProfileCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newAchievementsCmd(flags))
	root.AddCommand(newAnalyticsCmd(flags))
	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newBackupCmd(flags))
	return root
}

func defaultDataDir() string {
	if v := strings.TrimSpace(os.Getenv("SACREDSOUND_DATA")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func loadApp(ctx context.Context, flags *rootFlags) (*bootstrap.App, error) {
	cfg, err := config.Load(flags.dataDir)
	if err != nil {
		return nil, err
	}
	if flags.offline {
		cfg.Offline = true
	}
	return bootstrap.New(ctx, cfg)
}

// withApp runs fn against a freshly wired app and releases it afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := loadApp(ctx, flags)
	if err != nil {
		return err
	}
	runErr := fn(ctx, app)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return day, nil
}

func printSession(w io.Writer, s sessiondto.SessionOutput) {
	detail := s.Pattern
	if detail == "" {
		detail = s.GuidedSession
	}
	if detail == "" {
		detail = strings.Join(s.Sounds, ",")
	}
	mood := ""
	if s.MoodBefore != nil && s.MoodAfter != nil {
		mood = fmt.Sprintf(" mood=%d->%d", *s.MoodBefore, *s.MoodAfter)
	}
	_, _ = fmt.Fprintf(w, "%s %s type=%s detail=%q duration=%dmin completed=%t%s\n", s.ID, s.Date.Local().Format("2006-01-02 15:04"), s.Type, detail, s.Duration, s.Completed, mood)
}

// ---- profile ----

func newProfileCmd(flags *rootFlags) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Profile, level and preferences"}

	var plain bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show level, xp and practice stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ProfileCLI.Show(ctx)
				if err != nil {
					return err
				}
				if plain {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user=%s level=%d name=%q xp=%d next=%d sessions=%d minutes=%d streak=%d longest=%d\n",
						out.UserID, out.Level, out.LevelName, out.XP, out.NextLevelXP, out.Stats.TotalSessions, out.Stats.TotalMinutes, out.Stats.CurrentStreak, out.Stats.LongestStreak)
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cards.Profile(out))
				return nil
			})
		},
	}
	show.Flags().BoolVar(&plain, "plain", false, "single-line output")

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update one preference (value may be JSON)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.ProfileCLI.SetPreference(ctx, args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "preference updated: %s\n", args[0])
				return nil
			})
		},
	}

	favorite := &cobra.Command{Use: "favorite", Short: "Manage favorite patterns, sounds and guided sessions"}
	favorite.AddCommand(&cobra.Command{
		Use:   "add <pattern|sound|guided> <item>",
		Short: "Add a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.ProfileCLI.AddFavorite(ctx, args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "favorite added: %s %s\n", args[0], args[1])
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "remove <pattern|sound|guided> <item>",
		Short: "Remove a favorite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.ProfileCLI.RemoveFavorite(ctx, args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "favorite removed: %s %s\n", args[0], args[1])
				return nil
			})
		},
	})

	var confirm bool
	reset := &cobra.Command{
		Use:   "reset --yes",
		Short: "Reset level, xp and stats to a fresh profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("--yes is required to reset the profile")
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if _, err := app.ProfileCLI.Reset(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "profile reset")
				return nil
			})
		},
	}
	reset.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")

	login := &cobra.Command{
		Use:   "login",
		Short: "Link this device with the backend user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ProfileCLI.Login(ctx)
				if err != nil {
					return err
				}
				if out.UserID == "" {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "backend unreachable, profile stays local")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", out.UserID)
				return nil
			})
		},
	}

	profile.AddCommand(show, set, favorite, reset, login)
	return profile
}

// ---- sessions ----

func newSessionCmd(flags *rootFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Record and browse practice sessions"}

	var (
		in                    sessiondto.SaveInput
		at                    string
		moodBefore, moodAfter int
		incomplete            bool
	)
	save := &cobra.Command{
		Use:   "save --type <breathwork|sound|guided> --duration <minutes>",
		Short: "Record a finished session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(in.Type) == "" {
				return fmt.Errorf("--type is required")
			}
			if strings.TrimSpace(at) != "" {
				when, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at %q (want RFC3339)", at)
				}
				in.Date = when
			}
			if cmd.Flags().Changed("mood-before") {
				in.MoodBefore = &moodBefore
			}
			if cmd.Flags().Changed("mood-after") {
				in.MoodAfter = &moodAfter
			}
			in.Completed = !incomplete
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Save(ctx, in)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "session saved: %s xp=+%d level=%d\n", out.Session.ID, out.XPGained, out.Level)
				if out.Duplicate {
					_, _ = fmt.Fprintln(w, "already recorded, stats unchanged")
				}
				if out.LevelUp {
					_, _ = fmt.Fprintf(w, "level up! now level %d\n", out.Level)
				}
				for _, id := range out.Achievements {
					_, _ = fmt.Fprintf(w, "achievement unlocked: %s\n", id)
				}
				return nil
			})
		},
	}
	save.Flags().StringVar(&in.Type, "type", "", "session type: breathwork|sound|guided")
	save.Flags().StringVar(&in.Pattern, "pattern", "", "breath pattern id")
	save.Flags().StringVar(&in.GuidedSession, "guided", "", "guided session id")
	save.Flags().StringVar(&in.Name, "name", "", "display name")
	save.Flags().IntVar(&in.Duration, "duration", 0, "duration in minutes")
	save.Flags().IntVar(&moodBefore, "mood-before", 0, "mood before (1-10)")
	save.Flags().IntVar(&moodAfter, "mood-after", 0, "mood after (1-10)")
	save.Flags().StringSliceVar(&in.Sounds, "sound", nil, "sound id (repeatable)")
	save.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	save.Flags().StringVar(&at, "at", "", "start time (RFC3339, defaults to now)")
	save.Flags().BoolVar(&incomplete, "incomplete", false, "mark the session as not completed")

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				sessions, err := app.SessionCLI.List(ctx)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				if limit > 0 && len(sessions) > limit {
					sessions = sessions[:limit]
				}
				for _, s := range sessions {
					printSession(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum sessions to print (0 for all)")

	var from, to string
	rangeCmd := &cobra.Command{
		Use:   "range --from <YYYY-MM-DD> --to <YYYY-MM-DD>",
		Short: "List sessions between two days (inclusive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDay(from)
			if err != nil {
				return err
			}
			end, err := parseDay(to)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				sessions, err := app.SessionCLI.Range(ctx, start, end.AddDate(0, 0, 1).Add(-time.Millisecond))
				if err != nil {
					return err
				}
				for _, s := range sessions {
					printSession(cmd.OutOrStdout(), s)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d sessions\n", len(sessions))
				return nil
			})
		},
	}
	rangeCmd.Flags().StringVar(&from, "from", "", "first day")
	rangeCmd.Flags().StringVar(&to, "to", "", "last day")

	date := &cobra.Command{
		Use:   "date [YYYY-MM-DD]",
		Short: "List sessions of one calendar day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now()
			if len(args) == 1 {
				parsed, err := parseDay(args[0])
				if err != nil {
					return err
				}
				day = parsed
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				sessions, err := app.SessionCLI.ForDate(ctx, day)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				for _, s := range sessions {
					printSession(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session deleted: %s\n", args[0])
				return nil
			})
		},
	}

	session.AddCommand(save, list, rangeCmd, date, del, newCustomSessionCmd(flags))
	return session
}

func newCustomSessionCmd(flags *rootFlags) *cobra.Command {
	custom := &cobra.Command{Use: "custom", Short: "Saved session templates"}

	var in sessiondto.CustomSessionInput
	save := &cobra.Command{
		Use:   "save <name> --type <type>",
		Short: "Create or update a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.SaveCustom(ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "template saved: %s\n", out.ID)
				return nil
			})
		},
	}
	save.Flags().StringVar(&in.Type, "type", "", "session type: breathwork|sound|guided")
	save.Flags().StringVar(&in.Pattern, "pattern", "", "breath pattern id")
	save.Flags().IntVar(&in.Duration, "duration", 0, "duration in minutes")
	save.Flags().StringSliceVar(&in.Sounds, "sound", nil, "sound id (repeatable)")
	save.Flags().StringVar(&in.Description, "description", "", "description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				items, err := app.SessionCLI.ListCustom(ctx)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no templates")
					return nil
				}
				for _, item := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s name=%q type=%s pattern=%s duration=%dmin sounds=%s\n", item.ID, item.Name, item.Type, item.Pattern, item.Duration, strings.Join(item.Sounds, ","))
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.SessionCLI.DeleteCustom(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "template deleted: %s\n", args[0])
				return nil
			})
		},
	}

	custom.AddCommand(save, list, del)
	return custom
}

// ---- achievements ----

func newAchievementsCmd(flags *rootFlags) *cobra.Command {
	achievements := &cobra.Command{Use: "achievements", Short: "Achievement progress and unlocks"}

	achievements.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every achievement with progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AchievementCLI.List(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cards.Achievements(out))
				return nil
			})
		},
	})

	achievements.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Evaluate every rule against recorded sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AchievementCLI.Check(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "checked=%d unlocked=%d xp=+%d\n", out.Checked, len(out.Unlocked), out.XPAwarded)
				for _, u := range out.Unlocked {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unlocked: %s (%s) +%d XP\n", u.Name, u.ID, u.XPBonus)
				}
				return nil
			})
		},
	})

	achievements.AddCommand(&cobra.Command{
		Use:   "unlock <achievement-id>",
		Short: "Unlock an achievement by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AchievementCLI.Unlock(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "unlocked: %s +%d XP at %s\n", out.Name, out.XPBonus, out.UnlockedAt.Local().Format(time.RFC3339))
				return nil
			})
		},
	})
	return achievements
}

// ---- analytics ----

func newAnalyticsCmd(flags *rootFlags) *cobra.Command {
	analytics := &cobra.Command{Use: "analytics", Short: "Insights computed from local history"}

	analytics.AddCommand(&cobra.Command{
		Use:   "mood",
		Short: "Average mood improvement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AnalyticsCLI.Mood(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "average=%+.2f sessions=%d\n", out.Average, out.Total)
				for _, t := range out.ByType {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s average=%+.2f sessions=%d\n", t.Type, t.Average, t.Count)
				}
				return nil
			})
		},
	})

	var month string
	calendar := &cobra.Command{
		Use:   "calendar [--month YYYY-MM]",
		Short: "Practice calendar for one month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			year, mon := now.Year(), int(now.Month())
			if strings.TrimSpace(month) != "" {
				parsed, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid --month %q (want YYYY-MM)", month)
				}
				year, mon = parsed.Year(), int(parsed.Month())
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AnalyticsCLI.Calendar(ctx, year, mon)
				if err != nil {
					return err
				}
				first := time.Date(year, time.Month(mon), 1, 0, 0, 0, 0, time.UTC)
				days := first.AddDate(0, 1, -1).Day()
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cards.Calendar(out, int(first.Weekday()), days))
				return nil
			})
		},
	}
	calendar.Flags().StringVar(&month, "month", "", "month to show (default current)")

	analytics.AddCommand(calendar, &cobra.Command{
		Use:   "time",
		Short: "Sessions per time of day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				slots, err := app.AnalyticsCLI.TimeOfDay(ctx)
				if err != nil {
					return err
				}
				for _, slot := range slots {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-14s %d\n", slot.Name, slot.Label, slot.Count)
				}
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "most-used",
		Short: "Most used patterns, sounds and guided sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AnalyticsCLI.MostUsed(ctx)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(w, "patterns:")
				for _, u := range out.Patterns {
					_, _ = fmt.Fprintf(w, "  %s %d\n", u.Name, u.Count)
				}
				_, _ = fmt.Fprintln(w, "sounds:")
				for _, u := range out.Sounds {
					_, _ = fmt.Fprintf(w, "  %s %d\n", u.Name, u.Count)
				}
				_, _ = fmt.Fprintln(w, "guided:")
				for _, u := range out.GuidedSessions {
					_, _ = fmt.Fprintf(w, "  %s %d\n", u.Name, u.Count)
				}
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "streak",
		Short: "Current and longest streak from session history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AnalyticsCLI.Streak(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "current=%d longest=%d\n", out.CurrentStreak, out.LongestStreak)
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "recommend",
		Short: "Suggest what to practice next",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				recs, err := app.AnalyticsCLI.Recommendations(ctx)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no recommendations")
					return nil
				}
				for _, r := range recs {
					target := r.Pattern
					if target == "" {
						target = r.Session
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", r.Type, target, r.Reason)
				}
				return nil
			})
		},
	})

	var csvOut string
	csvCmd := &cobra.Command{
		Use:   "csv [--out file]",
		Short: "Export session history as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				w := cmd.OutOrStdout()
				if csvOut != "" {
					f, err := os.Create(csvOut)
					if err != nil {
						return fmt.Errorf("create %s: %w", csvOut, err)
					}
					defer f.Close()
					w = f
				}
				n, err := app.AnalyticsCLI.ExportCSV(ctx, w)
				if err != nil {
					return err
				}
				if csvOut != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d sessions to %s\n", n, csvOut)
				}
				return nil
			})
		},
	}
	csvCmd.Flags().StringVar(&csvOut, "out", "", "output file (default stdout)")
	analytics.AddCommand(csvCmd)
	return analytics
}

// ---- sync ----

func newSyncCmd(flags *rootFlags) *cobra.Command {
	syncCmd := &cobra.Command{Use: "sync", Short: "Offline queue and backend connectivity"}

	syncCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show connectivity and pending writes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				st := app.SyncCLI.Status(ctx)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "online=%t backend=%t pending=%d parked=%d\n", st.Online, st.BackendAvailable, st.Pending, st.Parked)
				for collection, n := range st.ByCollection {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s=%d\n", collection, n)
				}
				return nil
			})
		},
	})

	syncCmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Replay queued writes now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SyncCLI.Flush(ctx)
				if err != nil {
					return err
				}
				if out.Skipped {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "backend unavailable, nothing sent")
					return nil
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d applied=%d failed=%d parked=%d remaining=%d aborted=%t\n", out.Attempted, out.Applied, out.Failed, out.Parked, out.Remaining, out.Aborted)
				return nil
			})
		},
	})

	syncCmd.AddCommand(&cobra.Command{
		Use:   "requeue",
		Short: "Give parked entries a fresh retry budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				n, err := app.SyncCLI.RequeueParked(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "requeued %d entries\n", n)
				return nil
			})
		},
	})

	syncCmd.AddCommand(&cobra.Command{
		Use:   "queue",
		Short: "List queued writes in replay order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				entries := app.SyncCLI.Queue(ctx)
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "queue empty")
					return nil
				}
				for _, e := range entries {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "#%d %s %s/%s retries=%d parked=%t", e.Seq, e.Action, e.Collection, e.Key, e.RetryCount, e.Parked)
					if e.LastError != "" {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", e.LastError)
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				return nil
			})
		},
	})

	syncCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Keep probing the backend and draining until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				unsubscribe := app.Events.Subscribe(func(e events.Event) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %v\n", e.OccurredAt.Local().Format(time.TimeOnly), e.Kind, e.Data)
				})
				defer unsubscribe()
				app.Scheduler.Start()
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "watching sync queue, ctrl-c to stop")
				<-ctx.Done()
				return nil
			})
		},
	})
	return syncCmd
}

// ---- backup ----

func newBackupCmd(flags *rootFlags) *cobra.Command {
	backup := &cobra.Command{Use: "backup", Short: "Export and restore local data"}

	var format, out string
	export := &cobra.Command{
		Use:   "export [--format json|yaml] [--out file]",
		Short: "Write every local collection to one document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.BackupCLI.Export(ctx, format)
				if err != nil {
					return err
				}
				if out == "" {
					_, err := cmd.OutOrStdout().Write(result.Data)
					return err
				}
				if err := os.WriteFile(out, result.Data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				total := 0
				for _, n := range result.Records {
					total += n
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d records (%s) to %s\n", total, result.Format, out)
				return nil
			})
		},
	}
	export.Flags().StringVar(&format, "format", "json", "json|yaml")
	export.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	var replace bool
	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore records from a backup document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.BackupCLI.Import(ctx, data, replace)
				if err != nil {
					return err
				}
				for collection, n := range result.Imported {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%d\n", collection, n)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skipped=%d replaced=%t\n", result.Skipped, result.Replaced)
				return nil
			})
		},
	}
	importCmd.Flags().BoolVar(&replace, "replace", false, "clear local data before importing")

	var pushFormat string
	push := &cobra.Command{
		Use:   "push [--format json|yaml]",
		Short: "Upload a backup to the configured bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.BackupCLI.Upload(ctx, pushFormat)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\n", result.Archive.Name, result.Archive.Size)
				return nil
			})
		},
	}
	push.Flags().StringVar(&pushFormat, "format", "json", "json|yaml")

	var pullReplace bool
	pull := &cobra.Command{
		Use:   "pull [name]",
		Short: "Restore a backup from the bucket (default newest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.BackupCLI.Restore(ctx, name, pullReplace)
				if err != nil {
					return err
				}
				total := 0
				for _, n := range result.Import.Imported {
					total += n
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restored %s: imported=%d skipped=%d replaced=%t\n", result.Name, total, result.Import.Skipped, result.Import.Replaced)
				return nil
			})
		},
	}
	pull.Flags().BoolVar(&pullReplace, "replace", false, "clear local data before importing")

	archives := &cobra.Command{
		Use:   "archives",
		Short: "List backups stored in the bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(ctx context.Context, app *bootstrap.App) error {
				items, err := app.BackupCLI.Archives(ctx)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no archived backups")
					return nil
				}
				for _, item := range items {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d bytes %s\n", item.Name, item.Size, item.Modified.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}

	backup.AddCommand(export, importCmd, push, pull, archives)
	return backup
}
