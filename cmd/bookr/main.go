package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/bookr/internal/calendar"
	"github.com/christopherklint97/bookr/internal/config"
	"github.com/christopherklint97/bookr/internal/guardrail"
	"github.com/christopherklint97/bookr/internal/server"
	"github.com/christopherklint97/bookr/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "bookr",
	Short: "Turn appointment requests into structured bookings",
	Long: "bookr reads a free-text or photographed appointment request, extracts the date, time and department, " +
		"and resolves them to a concrete slot in the configured timezone, asking for clarification when it cannot.",
	SilenceUsage: true,
}

var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Parse a text request (argument or stdin) and print the result as JSON",
	RunE:  runParse,
}

var imageCmd = &cobra.Command{
	Use:   "image <file>",
	Short: "OCR an image of a request and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImage,
}

var bookCmd = &cobra.Command{
	Use:   "book [text]",
	Short: "Parse a request interactively and book it",
	RunE:  runBook,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently parsed requests",
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export booked appointments as an iCalendar file",
	RunE:  runExport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().String("at", "", "Reference instant (RFC3339) used instead of the current time")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/bookr/config.toml)")

	parseCmd.Flags().Bool("report", false, "Print the full pipeline report instead of the result")
	imageCmd.Flags().Bool("report", false, "Print the full pipeline report instead of the result")
	historyCmd.Flags().Int("limit", 20, "Number of records to show")
	exportCmd.Flags().StringP("out", "o", "", "Write to file instead of stdout")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(bookCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runParse(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer e.Close()

	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.AITimeout())
	defer cancel()

	report, err := e.pipeline.ParseText(ctx, text)
	if err != nil {
		return fmt.Errorf("processing text: %w", err)
	}

	if full, _ := cmd.Flags().GetBool("report"); full {
		return printJSON(cmd.OutOrStdout(), report)
	}
	return printJSON(cmd.OutOrStdout(), report.Result)
}

func runImage(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer e.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.AITimeout())
	defer cancel()

	report, err := e.pipeline.ParseImage(ctx, data, detectMIME(args[0], data))
	if err != nil {
		return fmt.Errorf("processing image: %w", err)
	}

	if full, _ := cmd.Flags().GetBool("report"); full {
		return printJSON(cmd.OutOrStdout(), report)
	}
	return printJSON(cmd.OutOrStdout(), report.Result)
}

func runBook(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelError)
	if err != nil {
		return err
	}
	defer e.Close()

	var prefill string
	if len(args) > 0 {
		prefill, _ = readInput(cmd, args)
	}

	app := tui.NewApp(tui.Deps{
		Parser:    e.pipeline,
		Book:      e.book,
		Conflicts: e.conflicts,
		Timeout:   e.cfg.AITimeout(),
	}, e.now(), prefill)

	p := tea.NewProgram(app)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	result := finalModel.(*tui.App).GetResult()
	if result == nil || result.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing booked.")
		return nil
	}
	if result.Booked {
		fmt.Fprintf(cmd.OutOrStdout(), "Booked: %s\n", bookedLine(result.Report.Result.Appointment))
	}
	return nil
}

func bookedLine(a *guardrail.Appointment) string {
	return fmt.Sprintf("%s on %s at %s (%s)", a.Department, a.Date, a.Time, a.TZ)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelInfo)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srv := server.New(e.pipeline, server.Config{
		Addr:            e.cfg.Server.Addr,
		RateLimitRPS:    e.cfg.Server.RateLimitRPS,
		RateLimitBurst:  e.cfg.Server.RateLimitBurst,
		MaxUploadMB:     e.cfg.Server.MaxUploadMB,
		ShutdownTimeout: time.Duration(e.cfg.Server.ShutdownTimeoutSeconds) * time.Second,
	}, e.logger)

	return srv.Run(ctx)
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.db == nil {
		return fmt.Errorf("history is disabled (store.enabled = false)")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := e.db.GetRecent(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No requests recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-8s  %-16s  %-6s  %-20s  %-10s  %-5s  %s\n", "ID", "Created", "Source", "Status", "Date", "Time", "Department")
	fmt.Fprintf(out, "%-8s  %-16s  %-6s  %-20s  %-10s  %-5s  %s\n", "--", "-------", "------", "------", "----", "----", "----------")
	for _, r := range records {
		status := r.Status
		if r.Booked {
			status = "booked"
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(out, "%-8s  %-16s  %-6s  %-20s  %-10s  %-5s  %s\n",
			id,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			status,
			r.Date,
			r.Time,
			r.Department,
		)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd, slog.LevelWarn)
	if err != nil {
		return err
	}
	defer e.Close()

	if e.db == nil {
		return fmt.Errorf("history is disabled (store.enabled = false)")
	}

	records, err := e.db.GetBooked(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching booked appointments: %w", err)
	}

	appts := make([]calendar.Appointment, 0, len(records))
	for _, r := range records {
		a, err := calendar.FromResult(r.ID, &guardrail.Appointment{
			Department: r.Department,
			Date:       r.Date,
			Time:       r.Time,
			TZ:         r.TZ,
		}, e.cfg.AppointmentDuration())
		if err != nil {
			e.logger.Warn("skipping unexportable record", "id", r.ID, "error", err)
			continue
		}
		appts = append(appts, a)
	}

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}

	if err := calendar.Encode(out, appts...); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	if out != cmd.OutOrStdout() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d appointments.\n", len(appts))
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	if _, err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Printf("Opening %s with %s...\n", configPath, editor)

	proc := os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	}
	process, err := os.StartProcess(editor, []string{editor, configPath}, &proc)
	if err != nil {
		// If editor fails, just print the path
		fmt.Printf("Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	_, err = process.Wait()
	return err
}
