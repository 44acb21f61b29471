package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/app"
	"github.com/five82/addressable/internal/compose"
)

var (
	composeMailing  int
	composeLocation addressable.Location
	composeCover    int
	composeTopic    int
	composeVars     []string
	composeNote     string
	composeDate     string
	composeSend     bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Create or continue a radius mailing",
	Long: `Walk the radius mailing wizard without the dashboard.

A new mailing needs the sale location, a cover and a topic. The wizard stops
while the audience is being built; run the command again with --mailing to
pick up where it left off. Nothing is sent without --send.`,
	Example: `  addressable compose --address "3300 Mayberry Dr" --city Reno --state NV --zip 89509 \
    --cover 2 --topic 1 --var address="3300 Mayberry Dr"
  addressable compose --mailing 104 --date 2026-11-02 --send`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

type composeResult struct {
	MailingID  int    `json:"mailing_id" yaml:"mailing_id"`
	Step       string `json:"step" yaml:"step"`
	Title      string `json:"title" yaml:"title"`
	Status     string `json:"status,omitempty" yaml:"status,omitempty"`
	Recipients int    `json:"recipients" yaml:"recipients"`
	DropDate   string `json:"drop_date,omitempty" yaml:"drop_date,omitempty"`
	Next       string `json:"next,omitempty" yaml:"next,omitempty"`
}

func init() {
	f := composeCmd.Flags()
	f.IntVar(&composeMailing, "mailing", 0, "continue this mailing")
	f.StringVar(&composeLocation.AddressLine1, "address", "", "sale street address")
	f.StringVar(&composeLocation.AddressLine2, "address2", "", "unit or suite")
	f.StringVar(&composeLocation.City, "city", "", "sale city")
	f.StringVar(&composeLocation.State, "state", "", "sale state")
	f.StringVar(&composeLocation.Zipcode, "zip", "", "sale zip code")
	f.StringVar(&composeLocation.Latitude, "lat", "", "latitude of the sale")
	f.StringVar(&composeLocation.Longitude, "lng", "", "longitude of the sale")
	f.IntVar(&composeCover, "cover", 0, "cover id (see addressable covers)")
	f.IntVar(&composeTopic, "topic", 0, "topic id (see addressable topics)")
	f.StringArrayVar(&composeVars, "var", nil, "merge variable as name=value, or 2.name=value for touch two only")
	f.StringVar(&composeNote, "note", "", "replace the touch one note")
	f.StringVar(&composeDate, "date", "", "target drop date (YYYY-MM-DD)")
	f.BoolVar(&composeSend, "send", false, "confirm the audience and send")

	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	accountID := 0
	if user, err := svc.Session.Current(); err == nil && user.AccountID != nil {
		accountID = *user.AccountID
	}
	w, err := compose.New(compose.Options{
		API:       svc.Client,
		Analytics: svc.Analytics,
		Metrics:   svc.Metrics,
		Logger:    svc.Logger.With("component", "compose"),
		AccountID: accountID,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Load(ctx, composeMailing); err != nil {
		return apiError(ctx, svc, "load wizard", err)
	}

	next, err := driveWizard(ctx, svc, w)
	if err != nil {
		return err
	}
	st := w.State()
	res := composeResult{
		MailingID: w.MailingID(),
		Step:      st.Step.String(),
		Title:     st.Title,
		Next:      next,
	}
	if m := st.Mailing; m != nil {
		res.Status = string(m.MailingStatus)
		res.Recipients = m.ActiveRecipientCount
	}
	if st.TargetDate != nil {
		res.DropDate = addressable.FormatDropDate(*st.TargetDate)
	}
	return render(cmd.OutOrStdout(), res, func(tw *tabwriter.Writer) {
		row(tw, "Mailing:", res.MailingID)
		row(tw, "Step:", fmt.Sprintf("%d of %d · %s", st.Step.Number(), len(compose.Steps()), res.Title))
		row(tw, "Status:", orDash(res.Status))
		row(tw, "Recipients:", res.Recipients)
		row(tw, "Drop date:", orDash(res.DropDate))
		if res.Next != "" {
			row(tw, "Next:", res.Next)
		}
	})
}

// driveWizard fills in each step from the flags and advances until the
// wizard needs something the flags do not give. It returns a hint for what
// to do next, empty once the mailing is sent.
func driveWizard(ctx context.Context, svc *app.Services, w *compose.Wizard) (string, error) {
	for range len(compose.Steps()) + 1 {
		st := w.State()
		id := w.MailingID()

		switch st.Step {
		case compose.StepSelectLocation:
			if !composeLocation.IsEmpty() {
				if err := w.SetLocation(ctx, composeLocation); err != nil {
					return "", err
				}
			}
		case compose.StepSelectCard:
			if composeCover != 0 {
				if err := w.SelectCover(composeCover); err != nil {
					return "", fmt.Errorf("%w (choose one of %s)", err, coverIDs(st.Covers))
				}
			}
		case compose.StepChooseTopic:
			if err := applyTopic(ctx, w, st); err != nil {
				return "", err
			}
		case compose.StepAudienceProcessing:
			return fmt.Sprintf("the audience is being built; run addressable compose --mailing %d later", id), nil
		case compose.StepConfirmAudience:
			if !composeSend {
				return fmt.Sprintf("review the audience, then run addressable compose --mailing %d --send", id), nil
			}
		case compose.StepConfirmSend:
			if !composeSend {
				return fmt.Sprintf("run addressable compose --mailing %d --send", id), nil
			}
			if composeDate != "" {
				date, err := addressable.ParseDropDate(composeDate)
				if err != nil {
					return "", fmt.Errorf("invalid --date %q: want YYYY-MM-DD", composeDate)
				}
				w.BeginDateEdit()
				w.EndDateEdit(ctx, date)
			}
		case compose.StepRadiusSent:
			return "", nil
		}

		outcome, err := w.Advance(ctx)
		switch {
		case errors.Is(err, compose.ErrCannotAfford), errors.Is(err, addressable.ErrPaymentRequired):
			acct := w.BuyMore(ctx)
			return "", fmt.Errorf("not enough radius tokens; buy more at %s", svc.Config.TokenOrdersURL(acct))
		case errors.Is(err, compose.ErrIncomplete):
			cur := w.State()
			return "", fmt.Errorf("%s: %s", cur.Title, incompleteHint(cur))
		case err != nil:
			return "", apiError(ctx, svc, st.Title, err)
		}
		if outcome == compose.ExitToDashboard {
			return "", nil
		}
	}
	return "", fmt.Errorf("compose: wizard did not finish")
}

func applyTopic(ctx context.Context, w *compose.Wizard, st compose.State) error {
	if composeTopic != 0 && composeTopic != st.TopicID {
		if err := w.SelectTopic(ctx, composeTopic); err != nil {
			return fmt.Errorf("%w (choose one of %s)", err, topicIDs(st.Topics))
		}
		st = w.State()
	}
	for _, kv := range composeVars {
		if err := applyMergeVar(w, st, kv); err != nil {
			return err
		}
	}
	if composeNote != "" {
		if err := w.SetTouchBody(ctx, 1, composeNote); err != nil {
			return err
		}
	}
	return nil
}

// applyMergeVar sets name=value on every touch that declares name, or only
// on touch N for N.name=value.
func applyMergeVar(w *compose.Wizard, st compose.State, kv string) error {
	name, value, ok := strings.Cut(kv, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("invalid --var %q: want name=value", kv)
	}
	name = strings.TrimSpace(name)
	touches := []int{1, 2}
	if n, rest, found := strings.Cut(name, "."); found {
		if t, err := strconv.Atoi(n); err == nil && (t == 1 || t == 2) {
			touches, name = []int{t}, rest
		}
	}
	set := false
	for _, n := range touches {
		vars := st.TouchOne.MergeVars
		if n == 2 {
			vars = st.TouchTwo.MergeVars
		}
		if _, declared := vars[name]; !declared {
			continue
		}
		if err := w.SetMergeVar(n, name, value); err != nil {
			return err
		}
		set = true
	}
	if !set {
		return fmt.Errorf("no touch declares merge variable %q", name)
	}
	return nil
}

func incompleteHint(st compose.State) string {
	switch st.Step {
	case compose.StepSelectLocation:
		return "give the sale location with --address, --city, --state and --zip"
	case compose.StepSelectCard:
		return "choose a cover with --cover (" + coverIDs(st.Covers) + ")"
	case compose.StepChooseTopic:
		if st.TopicID == 0 {
			return "choose a topic with --topic (" + topicIDs(st.Topics) + ")"
		}
		var missing []string
		for n, t := range []compose.Touch{st.TouchOne, st.TouchTwo} {
			for _, name := range t.VarNames() {
				if t.MergeVars[name] == "" {
					missing = append(missing, fmt.Sprintf("%d.%s", n+1, name))
				}
			}
		}
		return "fill in merge variables with --var: " + strings.Join(missing, ", ")
	case compose.StepConfirmAudience:
		return "the audience has no recipients"
	}
	return "step is incomplete"
}

func coverIDs(covers []addressable.LayoutTemplate) string {
	ids := make([]string, len(covers))
	for i, c := range covers {
		ids[i] = fmt.Sprintf("%d %s", c.ID, deref(c.Name))
	}
	return strings.Join(ids, ", ")
}

func topicIDs(topics []addressable.MultiTouchTopic) string {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = fmt.Sprintf("%d %s", t.ID, t.Name)
	}
	return strings.Join(ids, ", ")
}
