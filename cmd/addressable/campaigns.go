package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/views"
)

var campaignsStatus string

var dashboardCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dashboard counts",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var campaignsCmd = &cobra.Command{
	Use:     "campaigns",
	Aliases: []string{"mailings"},
	Short:   "List mailings",
	Args:    cobra.NoArgs,
	RunE:    runCampaigns,
}

type mailingSummary struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	State      string `json:"state" yaml:"state"`
	Status     string `json:"status" yaml:"status"`
	Recipients int    `json:"recipients" yaml:"recipients"`
	DropDate   string `json:"drop_date,omitempty" yaml:"drop_date,omitempty"`
	Touch      string `json:"touch,omitempty" yaml:"touch,omitempty"`
}

func summarize(m addressable.Mailing) mailingSummary {
	s := mailingSummary{
		ID:         m.ID,
		Name:       m.Name,
		State:      string(m.MailingStatus),
		Status:     string(m.Status()),
		Recipients: m.ActiveRecipientCount,
		Touch:      views.TouchLabel(m),
	}
	if d, ok := m.DropDate(); ok {
		s.DropDate = addressable.FormatDropDate(d)
	}
	return s
}

type countsOutput struct {
	Campaigns    int `json:"campaigns" yaml:"campaigns"`
	Cards        int `json:"cards" yaml:"cards"`
	Calls        int `json:"calls" yaml:"calls"`
	TextMessages int `json:"text_messages" yaml:"text_messages"`
	Untagged     int `json:"untagged" yaml:"untagged"`
}

func init() {
	campaignsCmd.Flags().StringVar(&campaignsStatus, "status", "", "Filter by status (mailed, in process, upcoming, draft, archived, canceled, unknown)")

	rootCmd.AddCommand(dashboardCmd, campaignsCmd)
}

// parseStatus matches a bucket name case-insensitively, ignoring spaces,
// dashes and underscores.
func parseStatus(s string) (addressable.MailingStatus, error) {
	norm := func(v string) string {
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(v))
	}
	want := norm(s)
	if want == "" || want == "all" {
		return "", nil
	}
	for _, st := range addressable.MailingStatuses() {
		if norm(string(st)) == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func runSummary(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	d, err := views.FetchDashboard(cmd.Context(), svc.Client)
	if err != nil {
		return apiError(cmd.Context(), svc, "load dashboard", err)
	}
	c := d.Counts()
	out := countsOutput{
		Campaigns:    c.Campaigns,
		Cards:        c.Cards,
		Calls:        c.Calls,
		TextMessages: c.TextMessages,
		Untagged:     c.Untagged,
	}
	return render(cmd.OutOrStdout(), out, func(tw *tabwriter.Writer) {
		for _, t := range views.Tiles() {
			row(tw, t.String()+":", t.Value(c))
		}
		if c.Untagged > 0 {
			row(tw, "Untagged leads:", c.Untagged)
		}
	})
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	bucket, err := parseStatus(campaignsStatus)
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	mailings, err := svc.Client.Campaigns(cmd.Context())
	if err != nil {
		return apiError(cmd.Context(), svc, "list campaigns", err)
	}
	shown := state.Dashboard{Mailings: mailings}.MailingsIn(bucket)
	out := make([]mailingSummary, len(shown))
	for i, m := range shown {
		out[i] = summarize(m)
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 && outputFmt == formatTable {
		fmt.Fprintln(w, "No mailings")
		return nil
	}
	return render(w, out, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "STATUS", "STATE", "RECIPIENTS", "DROP DATE")
		for _, m := range out {
			row(tw, m.ID, m.Name, m.Status, m.State, m.Recipients, orDash(m.DropDate))
		}
	})
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}
