// Package main provides the CLI entrypoint for dozycal.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/dozycal/internal/agenda"
	"github.com/verte-zerg/dozycal/internal/agendaui"
	"github.com/verte-zerg/dozycal/internal/calendar"
	"github.com/verte-zerg/dozycal/internal/config"
	"github.com/verte-zerg/dozycal/internal/engine"
	"github.com/verte-zerg/dozycal/internal/ics"
	appLog "github.com/verte-zerg/dozycal/internal/log"
	"github.com/verte-zerg/dozycal/internal/model"
	"github.com/verte-zerg/dozycal/internal/store"
	"github.com/verte-zerg/dozycal/internal/tui"
	"github.com/verte-zerg/dozycal/internal/window"
)

const (
	defaultStyle         = "month"
	defaultWeekStart     = "sun"
	defaultMinDays       = 1
	defaultAxis          = "vertical"
	defaultColumnSpacing = 1.0
	defaultLogLevel      = "info"
	defaultImportMonths  = 12
	defaultAgendaDays    = 14
	defaultGridWidth     = 80
	maxGridWidth         = 64

	debugEnv = "DOZYCAL_DEBUG"
)

var (
	calStyle         string
	calDynamicRows   bool
	calWeekStart     string
	calMinDays       int
	calAxis          string
	calFrom          string
	calTo            string
	calDate          string
	calTZ            string
	calEdgeDistance  int
	calMaxBounded    int
	calRowSpacing    float64
	calColumnSpacing float64
	calSectionPad    float64
	calLogLevel      string

	importSource string
	importMonths int

	agendaDays   int
	agendaSource string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dozycal",
		Short:         "Scrolling terminal calendar",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runCalendarCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&calStyle, "style", defaultStyle, "section style: week or month")
	flags.BoolVar(&calDynamicRows, "dynamic-rows", false, "size month grids to the weeks they span")
	flags.StringVar(&calWeekStart, "week-start", defaultWeekStart, "first weekday column (sun..sat)")
	flags.IntVar(&calMinDays, "min-days-first-week", defaultMinDays, "days of a new year the first week must contain (1-7)")
	flags.StringVar(&calAxis, "axis", defaultAxis, "scroll axis: vertical or horizontal")
	flags.StringVar(&calFrom, "from", "", "first date of a bounded range (YYYY-MM-DD)")
	flags.StringVar(&calTo, "to", "", "last date of a bounded range (YYYY-MM-DD)")
	flags.StringVar(&calDate, "date", "", "initial date (YYYY-MM-DD, default: today)")
	flags.StringVar(&calTZ, "tz", "", "IANA time zone (default: local)")
	flags.IntVar(&calEdgeDistance, "edge-distance", window.DefaultEdgeDistance, "sections kept on each side of the focus")
	flags.IntVar(&calMaxBounded, "max-bounded-sections", window.DefaultMaxBoundedSections, "cap for fully built bounded ranges (negative: unlimited)")
	flags.Float64Var(&calRowSpacing, "row-spacing", 0, "blank lines between grid rows")
	flags.Float64Var(&calColumnSpacing, "column-spacing", defaultColumnSpacing, "blank columns between grid cells")
	flags.Float64Var(&calSectionPad, "section-padding", 0, "blank lines above each section title")
	flags.StringVar(&calLogLevel, "log-level", defaultLogLevel, "log level: debug, info or error")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGridCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newAgendaCmd())
	rootCmd.AddCommand(newSourcesCmd())

	return rootCmd
}

func runCalendarCmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupTUILogging(level)
	if err != nil {
		return err
	}
	defer closeLog()

	var events tui.EventSource
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		appLog.Error("failed to open db; running without events", err, "path", config.DefaultDBPath())
	} else {
		events = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	m := tui.NewModel(cfg.EngineConfig(), events)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// setupTUILogging keeps log lines off the alternate screen. They go to a
// file when DOZYCAL_DEBUG is set and are dropped otherwise. DOZYCAL_DEBUG may
// name a lower level than the configured one.
func setupTUILogging(level appLog.Level) (func(), error) {
	if os.Getenv(debugEnv) == "" {
		appLog.SetOutput(io.Discard)
		return func() {}, nil
	}
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "dozycal")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	appLog.SetOutput(f)
	if lvl, ok := appLog.ParseLevel(os.Getenv(debugEnv)); ok && lvl < level {
		level = lvl
	}
	appLog.SetLevel(level)
	return func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of the debug log.
			_ = cerr
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newGridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grid",
		Short: "Print the section containing --date",
		Args:  cobra.NoArgs,
		RunE:  runGridCmd,
	}
}

func runGridCmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	appLog.SetLevel(level)

	cal := cfg.Calendar
	today := cal.Today(time.Now())
	date := cfg.InitialDate
	if date.IsZero() {
		date = today
	}
	date = cfg.Range.Clamp(date)
	section := cal.Build(cal.SectionID(date, cfg.Style))

	counts := map[calendar.Date]int{}
	if st, err := store.Open(config.DefaultDBPath()); err != nil {
		appLog.Error("failed to open db; printing without events", err)
	} else {
		first, last := section.Span()
		if loaded, err := st.CountByDay(cmd.Context(), first, last); err != nil {
			appLog.Error("failed to load day counts", err)
		} else {
			counts = loaded
		}
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}

	selected := calendar.Date{}
	if calDate != "" {
		selected = date
	}
	lines := tui.RenderSection(cal, section, tui.GridOptions{
		Width:         gridWidth(),
		Today:         today,
		Selected:       selected,
		Counts:         counts,
		RowSpacing:     int(cfg.RowSpacing),
		ColumnSpacing:  int(cfg.ColumnSpacing),
		SectionPadding: int(cfg.SectionPadding),
	})
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return writeLines(cmd.OutOrStdout(), lines)
}

func gridWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = defaultGridWidth
	}
	if width > maxGridWidth {
		width = maxGridWidth
	}
	return width
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE.ics",
		Short: "Import events from an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importSource, "source", "", "source id (default: file name)")
	cmd.Flags().IntVar(&importMonths, "months", defaultImportMonths, "months around today to expand recurrences over")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	appLog.SetLevel(level)
	if importMonths <= 0 {
		return fmt.Errorf("--months must be > 0")
	}

	path := args[0]
	source := strings.TrimSpace(importSource)
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	loc := cfg.Calendar.Location

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	events, err := ics.Parse(source, f, loc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	today := cfg.Calendar.Today(time.Now())
	monthStart := calendar.NewDate(today.Year, today.Month, 1)
	result, err := ics.Expand(events, ics.ExpandConfig{
		Location:   loc,
		RangeStart: calendar.NewDate(monthStart.Year, monthStart.Month-time.Month(importMonths), 1).Time(loc),
		RangeEnd:   calendar.NewDate(monthStart.Year, monthStart.Month+time.Month(importMonths)+1, 1).Time(loc).Add(-time.Nanosecond),
	})
	if err != nil {
		return fmt.Errorf("failed to expand events: %w", err)
	}
	for _, uid := range result.TruncatedEvents {
		logErrf("event %s has more occurrences than were imported\n", uid)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.ReplaceSource(cmd.Context(), source, result.Occurrences, loc); err != nil {
		return fmt.Errorf("failed to store occurrences: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d occurrences of %d events into %q\n",
		len(result.Occurrences), len(events), source); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "List stored events of --date",
		Args:  cobra.NoArgs,
		RunE:  runEventsCmd,
	}
}

func runEventsCmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	appLog.SetLevel(level)

	date := cfg.InitialDate
	if date.IsZero() {
		date = cfg.Calendar.Today(time.Now())
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	occs, err := st.ListByDay(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(occs) == 0 {
		if _, err := fmt.Fprintf(out, "No events on %s\n", date); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	rows := make([][]string, 0, len(occs))
	for _, occ := range occs {
		rows = append(rows, agenda.OccurrenceRow(occ, cfg.Calendar.Location))
	}
	return writeLines(out, agenda.FormatTable([]string{"Time", "Event", "Location", "Source"}, rows, nil))
}

func newAgendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Browse stored events from --date on",
		Args:  cobra.NoArgs,
		RunE:  runAgendaCmd,
	}
	cmd.Flags().IntVar(&agendaDays, "days", defaultAgendaDays, "number of days to show")
	cmd.Flags().StringVar(&agendaSource, "source", "", "only show one imported calendar")
	return cmd
}

func runAgendaCmd(cmd *cobra.Command, _ []string) error {
	cfg, level, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if agendaDays <= 0 {
		return fmt.Errorf("--days must be > 0")
	}
	closeLog, err := setupTUILogging(level)
	if err != nil {
		return err
	}
	defer closeLog()

	from := cfg.InitialDate
	if from.IsZero() {
		from = cfg.Calendar.Today(time.Now())
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	m := agendaui.NewModel(st, model.AgendaConfig{
		From:   from,
		Days:   agendaDays,
		Source: strings.TrimSpace(agendaSource),
	}, cfg.Calendar.Location)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run agenda TUI: %w", err)
	}
	return nil
}

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List imported calendars",
		Args:  cobra.NoArgs,
		RunE:  runSourcesCmd,
	}
}

func runSourcesCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	sources, err := st.ListSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	if len(sources) == 0 {
		logErrln("No calendars imported yet. Import one with: dozycal import FILE.ics")
		return nil
	}
	rows := make([][]string, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, []string{
			src.ID,
			strconv.Itoa(src.Occurrences),
			src.ImportedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return writeLines(cmd.OutOrStdout(), agenda.FormatTable([]string{"Calendar", "Events", "Imported"}, rows, map[int]bool{1: true}))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// resolveConfig merges the config file into flags the user did not set and
// validates the result.
func resolveConfig(cmd *cobra.Command) (model.Config, appLog.Level, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, 0, fmt.Errorf("failed to load config: %w", err)
	}
	c := fileCfg.Calendar
	applyStringConfig(cmd, "style", &calStyle, c.Style)
	applyBoolConfig(cmd, "dynamic-rows", &calDynamicRows, c.DynamicRows)
	applyStringConfig(cmd, "week-start", &calWeekStart, c.WeekStart)
	applyIntConfig(cmd, "min-days-first-week", &calMinDays, c.MinDaysFirstWeek)
	applyStringConfig(cmd, "axis", &calAxis, c.Axis)
	applyStringConfig(cmd, "from", &calFrom, c.From)
	applyStringConfig(cmd, "to", &calTo, c.To)
	applyStringConfig(cmd, "tz", &calTZ, c.TZ)
	applyIntConfig(cmd, "edge-distance", &calEdgeDistance, c.EdgeDistance)
	applyIntConfig(cmd, "max-bounded-sections", &calMaxBounded, c.MaxBounded)
	applyFloatConfig(cmd, "row-spacing", &calRowSpacing, c.RowSpacing)
	applyFloatConfig(cmd, "column-spacing", &calColumnSpacing, c.ColumnSpacing)
	applyFloatConfig(cmd, "section-padding", &calSectionPad, c.SectionPadding)
	applyStringConfig(cmd, "log-level", &calLogLevel, c.LogLevel)

	level, ok := appLog.ParseLevel(calLogLevel)
	if !ok {
		return model.Config{}, 0, fmt.Errorf("--log-level must be debug, info or error")
	}
	cfg, err := buildConfig()
	if err != nil {
		return model.Config{}, 0, err
	}
	return cfg, level, nil
}

func buildConfig() (model.Config, error) {
	loc := time.Local
	if tz := strings.TrimSpace(calTZ); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --tz value: %w", err)
		}
		loc = l
	}

	var style calendar.Style
	switch strings.ToLower(strings.TrimSpace(calStyle)) {
	case "month":
		style = calendar.Month(calDynamicRows)
	case "week":
		style = calendar.Week()
	default:
		return model.Config{}, fmt.Errorf("--style must be week or month")
	}

	weekStart, ok := calendar.ParseWeekday(calWeekStart)
	if !ok {
		return model.Config{}, fmt.Errorf("--week-start must be a weekday name")
	}

	var axis engine.Axis
	switch strings.ToLower(strings.TrimSpace(calAxis)) {
	case "vertical":
		axis = engine.Vertical
	case "horizontal":
		axis = engine.Horizontal
	default:
		return model.Config{}, fmt.Errorf("--axis must be vertical or horizontal")
	}

	rng := window.Infinite()
	if calFrom != "" || calTo != "" {
		if calFrom == "" || calTo == "" {
			return model.Config{}, fmt.Errorf("--from and --to must be set together")
		}
		from, err := calendar.ParseDate(calFrom)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --from value: %w", err)
		}
		to, err := calendar.ParseDate(calTo)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --to value: %w", err)
		}
		rng = window.Bounded(from, to)
	}

	var initial calendar.Date
	if calDate != "" {
		d, err := calendar.ParseDate(calDate)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --date value: %w", err)
		}
		initial = d
	}

	cfg := model.Config{
		Calendar: calendar.Calendar{
			Location:           loc,
			FirstWeekday:       weekStart,
			MinDaysInFirstWeek: calMinDays,
		},
		Style:              style,
		Range:              rng,
		Axis:               axis,
		InitialDate:        initial,
		EdgeDistance:       calEdgeDistance,
		MaxBoundedSections: calMaxBounded,
		RowSpacing:         calRowSpacing,
		ColumnSpacing:      calColumnSpacing,
		SectionPadding:     calSectionPad,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Calendar.MinDaysInFirstWeek < 1 || cfg.Calendar.MinDaysInFirstWeek > 7 {
		return fmt.Errorf("--min-days-first-week must be between 1 and 7")
	}
	if cfg.Range.IsBounded() {
		from, to := cfg.Range.Bounds()
		if from.After(to) {
			return fmt.Errorf("--from must not be after --to")
		}
	}
	if cfg.EdgeDistance <= 0 {
		return fmt.Errorf("--edge-distance must be > 0")
	}
	if cfg.MaxBoundedSections == 0 {
		return fmt.Errorf("--max-bounded-sections must not be 0")
	}
	if cfg.RowSpacing < 0 {
		return fmt.Errorf("--row-spacing must be >= 0")
	}
	if cfg.ColumnSpacing < 0 {
		return fmt.Errorf("--column-spacing must be >= 0")
	}
	if cfg.SectionPadding < 0 {
		return fmt.Errorf("--section-padding must be >= 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# dozycal configuration
# Uncomment a value to enable it. CLI flags override config values.

[calendar]
# style = %q                 # "week" or "month"
# dynamic-rows = false          # Size month grids to the weeks they span
# week-start = %q              # First weekday column
# min-days-first-week = %d       # Days of a new year the first week must contain (1-7)
# axis = %q             # "vertical" or "horizontal"
# from = "2024-01-01"           # Bounded range start (set together with to)
# to = "2024-12-31"             # Bounded range end
# tz = "Europe/Berlin"          # IANA time zone (default: local)
# edge-distance = %d             # Sections kept on each side of the focus
# max-bounded-sections = %d    # Cap for fully built bounded ranges (negative: unlimited)
# row-spacing = 0               # Blank lines between grid rows
# column-spacing = %.0f            # Blank columns between grid cells
# section-padding = 0           # Blank lines above each section title
# log-level = %q             # "debug", "info" or "error"
`,
		defaultStyle,
		defaultWeekStart,
		defaultMinDays,
		defaultAxis,
		window.DefaultEdgeDistance,
		window.DefaultMaxBoundedSections,
		defaultColumnSpacing,
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
