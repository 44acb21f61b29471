package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/app"
	"github.com/five82/addressable/internal/views"
)

var (
	recipientsTab string
	actionYes     bool
	memberRemove  bool
	returnAddr    addressable.ReturnAddress
)

var mailingCmd = &cobra.Command{
	Use:   "mailing",
	Short: "Mailing detail commands",
}

var mailingShowCmd = &cobra.Command{
	Use:   "show <mailing_id>",
	Short: "Show a mailing",
	Args:  cobra.ExactArgs(1),
	RunE:  runMailingShow,
}

var mailingRecipientsCmd = &cobra.Command{
	Use:   "recipients <mailing_id>",
	Short: "List a mailing's recipients",
	Args:  cobra.ExactArgs(1),
	RunE:  runMailingRecipients,
}

var mailingActionCmd = &cobra.Command{
	Use:   "action <mailing_id>",
	Short: "Run the settings action the mailing's state offers",
	Long: `Run the settings action for the mailing's current state: send a draft,
add tokens, revert to draft, send again, clone or cancel. Revert and cancel
need --yes.`,
	Args: cobra.ExactArgs(1),
	RunE: runMailingAction,
}

var mailingMemberCmd = &cobra.Command{
	Use:   "member <mailing_id> <recipient_id>",
	Short: "Add a recipient back to the mailing list, or take it off with --remove",
	Args:  cobra.ExactArgs(2),
	RunE:  runMailingMember,
}

var mailingRemoveCmd = &cobra.Command{
	Use:   "remove <mailing_id> <recipient_id>",
	Short: "Add a recipient's address to the account removal list",
	Args:  cobra.ExactArgs(2),
	RunE:  runMailingRemove,
}

var mailingReturnAddressCmd = &cobra.Command{
	Use:   "return-address <mailing_id>",
	Short: "Set the sender printed on a mailing",
	Long: `Set the sender printed on a mailing. Fields that are not given keep the
mailing's current return address, or the account default.`,
	Args: cobra.ExactArgs(1),
	RunE: runMailingReturnAddress,
}

func init() {
	mailingRecipientsCmd.Flags().StringVar(&recipientsTab, "tab", "all", "Recipient tab (all, mailing-list, removed, unavailable)")
	mailingActionCmd.Flags().BoolVar(&actionYes, "yes", false, "confirm revert and cancel")
	mailingMemberCmd.Flags().BoolVar(&memberRemove, "remove", false, "take the recipient off the mailing list")

	f := mailingReturnAddressCmd.Flags()
	f.StringVar(&returnAddr.FromFirstName, "first-name", "", "sender first name")
	f.StringVar(&returnAddr.FromLastName, "last-name", "", "sender last name")
	f.StringVar(&returnAddr.FromBusinessName, "business", "", "business name")
	f.StringVar(&returnAddr.FromAddressLine1, "address", "", "street address")
	f.StringVar(&returnAddr.FromAddressLine2, "address2", "", "unit or suite")
	f.StringVar(&returnAddr.FromCity, "city", "", "city")
	f.StringVar(&returnAddr.FromState, "state", "", "state")
	f.StringVar(&returnAddr.FromZipcode, "zip", "", "zip code")

	mailingCmd.AddCommand(mailingShowCmd, mailingRecipientsCmd, mailingActionCmd,
		mailingMemberCmd, mailingRemoveCmd, mailingReturnAddressCmd)
	rootCmd.AddCommand(mailingCmd)
}

// openDetail loads mailing id with its recipients.
func openDetail(ctx context.Context, svc *app.Services, id int) (*views.MailingDetail, error) {
	d, err := views.NewMailingDetail(views.DetailOptions{
		API:            svc.Client,
		Analytics:      svc.Analytics,
		Logger:         svc.Logger.With("component", "cli"),
		TokenOrdersURL: svc.Config.TokenOrdersURL,
	})
	if err != nil {
		return nil, err
	}
	if err := d.Load(ctx, id); err != nil {
		d.Close()
		return nil, apiError(ctx, svc, "open mailing", err)
	}
	return d, nil
}

type mailingOutput struct {
	mailingSummary `yaml:",inline"`

	Action        string                     `json:"action,omitempty" yaml:"action,omitempty"`
	Address       string                     `json:"address,omitempty" yaml:"address,omitempty"`
	List          string                     `json:"list_status,omitempty" yaml:"list_status,omitempty"`
	Tabs          map[string]int             `json:"tabs" yaml:"tabs"`
	ReturnAddress *addressable.ReturnAddress `json:"return_address,omitempty" yaml:"return_address,omitempty"`
}

func runMailingShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "mailing")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	d, err := openDetail(cmd.Context(), svc, id)
	if err != nil {
		return err
	}
	defer d.Close()

	v := d.View()
	m := *v.Mailing
	out := mailingOutput{
		mailingSummary: summarize(m),
		Action:         v.ActionLabel,
		Address:        m.SiteAddress(),
		List:           string(m.List()),
		Tabs:           make(map[string]int, len(v.TabCounts)),
		ReturnAddress:  v.ReturnAddress,
	}
	for tab, n := range v.TabCounts {
		out.Tabs[tab.String()] = n
	}

	return render(cmd.OutOrStdout(), out, func(tw *tabwriter.Writer) {
		row(tw, "ID:", out.ID)
		row(tw, "Name:", out.Name)
		row(tw, "Status:", fmt.Sprintf("%s (%s)", out.Status, out.State))
		if out.Touch != "" {
			row(tw, "Touch:", out.Touch)
		}
		row(tw, "Address:", orDash(out.Address))
		row(tw, "Audience:", orDash(out.List))
		row(tw, "Drop date:", orDash(out.DropDate))
		for _, tab := range addressable.RecipientTabs() {
			row(tw, tab.String()+":", v.TabCounts[tab])
		}
		if r := out.ReturnAddress; r != nil {
			row(tw, "From:", formatReturnAddress(*r))
		}
		if out.Action != "" {
			row(tw, "Action:", fmt.Sprintf("%s (addressable mailing action %d)", out.Action, out.ID))
		}
	})
}

func formatReturnAddress(r addressable.ReturnAddress) string {
	parts := []string{}
	if name := strings.TrimSpace(r.FromFirstName + " " + r.FromLastName); name != "" {
		parts = append(parts, name)
	}
	for _, p := range []string{r.FromBusinessName, r.FromAddressLine1, r.FromAddressLine2} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if city := strings.TrimSpace(fmt.Sprintf("%s %s %s", r.FromCity, r.FromState, r.FromZipcode)); city != "" {
		parts = append(parts, city)
	}
	return orDash(strings.Join(parts, ", "))
}

func parseTab(s string) (addressable.RecipientTab, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return addressable.TabAll, nil
	case "mailing-list", "mailing_list", "list", "members":
		return addressable.TabMailingList, nil
	case "removed":
		return addressable.TabRemoved, nil
	case "unavailable":
		return addressable.TabUnavailable, nil
	}
	return addressable.TabAll, fmt.Errorf("unknown tab %q", s)
}

func runMailingRecipients(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "mailing")
	if err != nil {
		return err
	}
	tab, err := parseTab(recipientsTab)
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	d, err := openDetail(cmd.Context(), svc, id)
	if err != nil {
		return err
	}
	defer d.Close()
	d.SetTab(cmd.Context(), tab)

	rs := d.View().Recipients
	w := cmd.OutOrStdout()
	if len(rs) == 0 && outputFmt == formatTable {
		fmt.Fprintf(w, "No recipients on %s\n", tab)
		return nil
	}
	return render(w, rs, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "MEMBERSHIP", "SITE ADDRESS")
		for _, r := range rs {
			row(tw, r.ID, r.FullName, r.ListMembership, orDash(r.SiteAddress))
		}
	})
}

func runMailingAction(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "mailing")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	d, err := openDetail(ctx, svc, id)
	if err != nil {
		return err
	}
	defer d.Close()

	v := d.View()
	if v.Action == addressable.ActionNone {
		return fmt.Errorf("mailing %d offers no action in state %q", id, v.Mailing.MailingStatus)
	}
	if (v.Action == addressable.ActionRevert || v.Action == addressable.ActionCancel) && !actionYes {
		return fmt.Errorf("%s mailing %d: add --yes to confirm", strings.ToLower(v.ActionLabel), id)
	}

	res, err := d.Perform(ctx, v.Action)
	if err != nil {
		return apiError(ctx, svc, v.ActionLabel, err)
	}
	w := cmd.OutOrStdout()
	switch res.Effect {
	case views.EffectOpenCompose:
		fmt.Fprintf(w, "%s: continue with addressable compose --mailing %d\n", v.ActionLabel, res.MailingID)
	case views.EffectOpenURL:
		fmt.Fprintf(w, "Buy tokens at %s\n", res.URL)
	default:
		m := d.View().Mailing
		fmt.Fprintf(w, "Mailing %d is now %s (%s)\n", m.ID, m.Status(), m.MailingStatus)
	}
	return nil
}

func recipientArgs(args []string) (mailingID, recipientID int, err error) {
	if mailingID, err = parseID(args[0], "mailing"); err != nil {
		return 0, 0, err
	}
	if recipientID, err = parseID(args[1], "recipient"); err != nil {
		return 0, 0, err
	}
	return mailingID, recipientID, nil
}

func runMailingMember(cmd *cobra.Command, args []string) error {
	mailingID, recipientID, err := recipientArgs(args)
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	d, err := openDetail(ctx, svc, mailingID)
	if err != nil {
		return err
	}
	defer d.Close()

	membership := addressable.MembershipMember
	if memberRemove {
		membership = addressable.MembershipRemoved
	}
	if err := d.SetMembership(ctx, recipientID, membership); err != nil {
		return apiError(ctx, svc, "update recipient", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recipient %d is now %s\n", recipientID, membership)
	return nil
}

func runMailingRemove(cmd *cobra.Command, args []string) error {
	mailingID, recipientID, err := recipientArgs(args)
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	d, err := openDetail(ctx, svc, mailingID)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.RemovePermanently(ctx, recipientID); err != nil {
		return apiError(ctx, svc, "remove recipient", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recipient %d added to the removal list\n", recipientID)
	return nil
}

func runMailingReturnAddress(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "mailing")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	d, err := openDetail(ctx, svc, id)
	if err != nil {
		return err
	}
	defer d.Close()

	var addr addressable.ReturnAddress
	if cur := d.View().ReturnAddress; cur != nil {
		addr = *cur
	}
	mergeReturnAddress(&addr, cmd, returnAddr)

	if err := d.SetReturnAddress(ctx, addr); err != nil {
		return apiError(ctx, svc, "set return address", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Return address of mailing %d: %s\n", id, formatReturnAddress(addr))
	return nil
}

// mergeReturnAddress copies the fields whose flags were given.
func mergeReturnAddress(dst *addressable.ReturnAddress, cmd *cobra.Command, src addressable.ReturnAddress) {
	fields := []struct {
		flag string
		dst  *string
		src  string
	}{
		{"first-name", &dst.FromFirstName, src.FromFirstName},
		{"last-name", &dst.FromLastName, src.FromLastName},
		{"business", &dst.FromBusinessName, src.FromBusinessName},
		{"address", &dst.FromAddressLine1, src.FromAddressLine1},
		{"address2", &dst.FromAddressLine2, src.FromAddressLine2},
		{"city", &dst.FromCity, src.FromCity},
		{"state", &dst.FromState, src.FromState},
		{"zip", &dst.FromZipcode, src.FromZipcode},
	}
	for _, f := range fields {
		if cmd.Flags().Changed(f.flag) {
			*f.dst = f.src
		}
	}
}
