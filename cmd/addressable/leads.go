package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/app"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/views"
)

var (
	leadsUntagged bool
	tagSpam       bool
	tagInterest   string
	tagRemoval    bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List incoming calls and texts",
	Args:  cobra.NoArgs,
	RunE:  runLeads,
}

var leadsTagCmd = &cobra.Command{
	Use:   "tag <lead_id>",
	Short: "Tag a lead as spam or a person, with interest and removal",
	Args:  cobra.ExactArgs(1),
	RunE:  runLeadsTag,
}

var leadsThreadCmd = &cobra.Command{
	Use:   "thread <lead_id>",
	Short: "Show the text conversation with a lead",
	Args:  cobra.ExactArgs(1),
	RunE:  runLeadsThread,
}

var leadsReplyCmd = &cobra.Command{
	Use:   "reply <lead_id> <message>",
	Short: "Send a text to a lead",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runLeadsReply,
}

type leadOutput struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Number   string `json:"number" yaml:"number"`
	Status   string `json:"status" yaml:"status"`
	Interest string `json:"interest" yaml:"interest"`
	Messages int    `json:"messages" yaml:"messages"`
}

type messageOutput struct {
	Incoming bool   `json:"incoming" yaml:"incoming"`
	At       string `json:"at,omitempty" yaml:"at,omitempty"`
	Body     string `json:"body" yaml:"body"`
}

func init() {
	leadsCmd.Flags().BoolVar(&leadsUntagged, "untagged", false, "only leads nobody has tagged")

	f := leadsTagCmd.Flags()
	f.BoolVar(&tagSpam, "spam", false, "tag as spam")
	f.StringVar(&tagInterest, "interest", "", "interest level (low, fair, lead)")
	f.BoolVar(&tagRemoval, "removal", false, "the caller asked to be removed")

	leadsCmd.AddCommand(leadsTagCmd, leadsThreadCmd, leadsReplyCmd)
	rootCmd.AddCommand(leadsCmd)
}

// openLeads fetches the dashboard so the view has the current leads.
func openLeads(ctx context.Context, svc *app.Services) (*views.Leads, state.Dashboard, error) {
	d, err := views.FetchDashboard(ctx, svc.Client)
	if err != nil {
		return nil, state.Dashboard{}, apiError(ctx, svc, "load leads", err)
	}
	store := &state.Store{}
	store.Update(d, nil)
	l, err := views.NewLeads(views.LeadsOptions{
		API:       svc.Client,
		Store:     store,
		Analytics: svc.Analytics,
		Logger:    svc.Logger.With("component", "cli"),
	})
	if err != nil {
		return nil, state.Dashboard{}, err
	}
	return l, d, nil
}

func leadRow(l addressable.IncomingLead, messages int) leadOutput {
	return leadOutput{
		ID:       l.ID,
		Name:     l.DisplayName(),
		Number:   l.FromNumber,
		Status:   string(l.Status),
		Interest: addressable.InterestFromScore(l.QualityScore).String(),
		Messages: messages,
	}
}

func runLeads(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	l, d, err := openLeads(cmd.Context(), svc)
	if err != nil {
		return err
	}
	defer l.Close()

	leads := l.View().Leads
	if leadsUntagged {
		leads = d.UntaggedLeads()
	}
	out := make([]leadOutput, len(leads))
	for i, lead := range leads {
		out[i] = leadRow(lead, d.IncomingMessages[lead.ID])
	}

	w := cmd.OutOrStdout()
	if len(out) == 0 && outputFmt == formatTable {
		fmt.Fprintln(w, "No leads")
		return nil
	}
	return render(w, out, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "NUMBER", "STATUS", "INTEREST", "MESSAGES")
		for _, o := range out {
			row(tw, o.ID, o.Name, o.Number, o.Status, o.Interest, o.Messages)
		}
	})
}

func findLead(leads []addressable.IncomingLead, id int) (addressable.IncomingLead, bool) {
	for _, l := range leads {
		if l.ID == id {
			return l, true
		}
	}
	return addressable.IncomingLead{}, false
}

func runLeadsTag(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "lead")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	l, _, err := openLeads(ctx, svc)
	if err != nil {
		return err
	}
	defer l.Close()

	lead, ok := findLead(l.View().Leads, id)
	if !ok {
		return fmt.Errorf("lead %d not found", id)
	}
	tag := addressable.TagFromLead(lead)
	flags := cmd.Flags()
	if flags.Changed("spam") {
		tag.Spam = tagSpam
	}
	if flags.Changed("removal") {
		tag.Removal = tagRemoval
	}
	if flags.Changed("interest") {
		if tag.Interest, err = addressable.ParseInterest(strings.ToLower(strings.TrimSpace(tagInterest))); err != nil {
			return err
		}
	}

	updated, err := l.Tag(ctx, lead, tag)
	if err != nil {
		return apiError(ctx, svc, "tag lead", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Lead %d (%s) is now %s, %s\n",
		updated.ID, updated.DisplayName(), updated.Status, addressable.InterestFromScore(updated.QualityScore))
	return nil
}

func renderThread(cmd *cobra.Command, msgs []addressable.LeadMessage) error {
	out := make([]messageOutput, len(msgs))
	for i, m := range msgs {
		out[i] = messageOutput{Incoming: m.IsIncoming, At: deref(m.CreatedAt), Body: m.Body}
	}
	w := cmd.OutOrStdout()
	if len(out) == 0 && outputFmt == formatTable {
		fmt.Fprintln(w, "No messages")
		return nil
	}
	return render(w, out, func(tw *tabwriter.Writer) {
		for _, m := range out {
			who := "you"
			if m.Incoming {
				who = "lead"
			}
			row(tw, orDash(m.At), who, m.Body)
		}
	})
}

func runLeadsThread(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "lead")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	l, err := views.NewLeads(views.LeadsOptions{API: svc.Client, Analytics: svc.Analytics, Logger: svc.Logger})
	if err != nil {
		return err
	}
	defer l.Close()

	msgs, err := l.OpenThread(ctx, id)
	if err != nil {
		return apiError(ctx, svc, "open thread", err)
	}
	return renderThread(cmd, msgs)
}

func runLeadsReply(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "lead")
	if err != nil {
		return err
	}
	body := strings.Join(args[1:], " ")
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	l, err := views.NewLeads(views.LeadsOptions{API: svc.Client, Analytics: svc.Analytics, Logger: svc.Logger})
	if err != nil {
		return err
	}
	defer l.Close()

	// The reply continues the thread's conversation id.
	if _, err := l.OpenThread(ctx, id); err != nil {
		return apiError(ctx, svc, "open thread", err)
	}
	msgs, err := l.Reply(ctx, body)
	if err != nil {
		return apiError(ctx, svc, "send message", err)
	}
	return renderThread(cmd, msgs)
}
