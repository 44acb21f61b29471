package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/logtail"
)

var (
	eventsLimit int
	logsLines   int
	logsLevel   string
	logsGrep    string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded analytics events, newest first",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the end of the application log",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

type logOutput struct {
	Time    string            `json:"time,omitempty" yaml:"time,omitempty"`
	Level   string            `json:"level" yaml:"level"`
	Message string            `json:"msg" yaml:"msg"`
	Attrs   map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "maximum number of events (0 for all)")

	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to read")
	logsCmd.Flags().StringVar(&logsLevel, "level", "debug", "minimum level (debug, info, warn, error)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries containing this text")

	rootCmd.AddCommand(eventsCmd, logsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.Events.List(eventsLimit)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(entries) == 0 && outputFmt == formatTable {
		fmt.Fprintln(w, "No events recorded")
		return nil
	}
	return render(w, entries, func(tw *tabwriter.Writer) {
		row(tw, "TIME", "EVENT", "FIELDS")
		for _, e := range entries {
			row(tw, e.At.Local().Format(time.DateTime), e.Name, orDash(formatFields(e.Fields)))
		}
	})
}

func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, fields[k])
	}
	return strings.Join(parts, " ")
}

func runLogs(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logsLevel)); err != nil {
		return fmt.Errorf("invalid --level %q", logsLevel)
	}
	svc, err := openServices(cmd)
	if err != nil {
		return err
	}
	path := svc.Config.LogFile
	svc.Close()

	entries, err := logtail.Tail(path, logsLines)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	entries = logtail.Filter(entries, level, logsGrep)

	out := make([]logOutput, len(entries))
	for i, e := range entries {
		o := logOutput{Level: e.Level.String(), Message: e.Message}
		if !e.Time.IsZero() {
			o.Time = e.Time.Format(time.RFC3339)
		}
		if len(e.Attrs) > 0 {
			o.Attrs = make(map[string]string, len(e.Attrs))
			for _, a := range e.Attrs {
				o.Attrs[a.Key] = a.Value
			}
		}
		out[i] = o
	}

	w := cmd.OutOrStdout()
	if outputFmt == formatTable {
		if len(entries) == 0 {
			fmt.Fprintf(w, "No log entries in %s\n", path)
			return nil
		}
		for _, e := range entries {
			fmt.Fprintln(w, e.Raw)
		}
		return nil
	}
	return render(w, out, nil)
}
