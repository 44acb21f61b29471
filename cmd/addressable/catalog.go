package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/addressable"
)

var (
	templateTitle string
	templateBody  string

	noteTemplate int
	noteVars     []string
	note         addressable.CustomNote
)

var coversCmd = &cobra.Command{
	Use:   "covers",
	Short: "List card covers",
	Args:  cobra.NoArgs,
	RunE:  runCovers,
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List multi-touch campaign topics",
	Args:  cobra.NoArgs,
	RunE:  runTopics,
}

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "List uploaded audience lists",
	Args:  cobra.NoArgs,
	RunE:  runUploads,
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the account and its token balance",
	Args:  cobra.NoArgs,
	RunE:  runAccount,
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List saved note templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplates,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <template_id>",
	Short: "Show a note template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templatesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Save a new note template",
	Args:  cobra.NoArgs,
	RunE:  runTemplateCreate,
}

var templatesUpdateCmd = &cobra.Command{
	Use:   "update <template_id>",
	Short: "Change a note template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateUpdate,
}

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Order a single handwritten note",
	Args:  cobra.NoArgs,
	RunE:  runNote,
}

func init() {
	for _, c := range []*cobra.Command{templatesCreateCmd, templatesUpdateCmd} {
		c.Flags().StringVar(&templateTitle, "title", "", "template title")
		c.Flags().StringVar(&templateBody, "body", "", "note body, with {{merge_vars}}")
	}
	_ = templatesCreateCmd.MarkFlagRequired("title")
	_ = templatesCreateCmd.MarkFlagRequired("body")

	f := noteCmd.Flags()
	f.IntVar(&noteTemplate, "template", 0, "message template id")
	f.StringArrayVar(&noteVars, "var", nil, "template merge variable as name=value")
	f.StringVar(&note.Body, "body", "", "note body")
	f.StringVar(&note.ToFirstName, "first-name", "", "recipient first name")
	f.StringVar(&note.ToLastName, "last-name", "", "recipient last name")
	f.StringVar(&note.ToAddressLine1, "address", "", "recipient street address")
	f.StringVar(&note.ToAddressLine2, "address2", "", "unit or suite")
	f.StringVar(&note.ToCity, "city", "", "recipient city")
	f.StringVar(&note.ToState, "state", "", "recipient state")
	f.StringVar(&note.ToZipcode, "zip", "", "recipient zip code")
	for _, name := range []string{"address", "city", "state", "zip"} {
		_ = noteCmd.MarkFlagRequired(name)
	}

	templatesCmd.AddCommand(templatesShowCmd, templatesCreateCmd, templatesUpdateCmd)
	rootCmd.AddCommand(coversCmd, topicsCmd, uploadsCmd, accountCmd, templatesCmd, noteCmd)
}

func runCovers(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	covers, err := svc.Client.CoverImages(cmd.Context())
	if err != nil {
		return apiError(cmd.Context(), svc, "list covers", err)
	}
	return render(cmd.OutOrStdout(), covers, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "IMAGE")
		for _, c := range covers {
			row(tw, c.ID, str(c.Name), str(c.ImageURL))
		}
	})
}

func runTopics(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	topics, err := svc.Client.MultiTouchTopics(cmd.Context())
	if err != nil {
		return apiError(cmd.Context(), svc, "list topics", err)
	}
	return render(cmd.OutOrStdout(), topics, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "DAYS", "MERGE VARS")
		for _, t := range topics {
			days := "-"
			if t.Duration != nil {
				days = fmt.Sprint(*t.Duration)
			}
			vars := mergeVarUnion(t.TouchOneTemplate.MergeVars, t.TouchTwoTemplate.MergeVars)
			row(tw, t.ID, t.Name, days, orDash(strings.Join(vars, ", ")))
		}
	})
}

func mergeVarUnion(sets ...map[string]*string) []string {
	seen := map[string]bool{}
	var out []string
	for _, vars := range sets {
		for _, name := range addressable.MergeVarNames(vars) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func runUploads(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	uploads, err := svc.Client.ListUploads(cmd.Context())
	if err != nil {
		return apiError(cmd.Context(), svc, "list uploads", err)
	}
	w := cmd.OutOrStdout()
	if len(uploads) == 0 && outputFmt == formatTable {
		fmt.Fprintln(w, "No uploaded lists")
		return nil
	}
	return render(w, uploads, func(tw *tabwriter.Writer) {
		row(tw, "ID", "NAME", "STATUS", "ACTIVE", "USED BY", "CREATED")
		for _, u := range uploads {
			row(tw, u.ID, u.Name, u.Status, u.ActiveCount, u.MailingUsage, u.CreatedAt)
		}
	})
}

func runAccount(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	user, err := svc.Session.Current()
	if err != nil {
		return err
	}
	if user.AccountID == nil {
		return fmt.Errorf("user %d has no account", user.ID)
	}
	acct, err := svc.Client.Account(cmd.Context(), *user.AccountID)
	if err != nil {
		return apiError(cmd.Context(), svc, "load account", err)
	}
	return render(cmd.OutOrStdout(), acct, func(tw *tabwriter.Writer) {
		row(tw, "ID:", acct.ID)
		row(tw, "Name:", str(acct.Name))
		row(tw, "Radius tokens:", acct.RadiusTokens())
		if acct.TokenCount != nil {
			row(tw, "Tokens:", *acct.TokenCount)
		}
		for _, u := range acct.Users {
			row(tw, "Member:", displayUser(u.FirstName, u.LastName, u.Email))
		}
		row(tw, "Buy tokens:", svc.Config.TokenOrdersURL(acct.ID))
	})
}

func runTemplates(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	templates, err := svc.Client.MessageTemplates(cmd.Context())
	if err != nil {
		return apiError(cmd.Context(), svc, "list templates", err)
	}
	return render(cmd.OutOrStdout(), templates, func(tw *tabwriter.Writer) {
		row(tw, "ID", "TITLE", "MISSING")
		for _, t := range templates {
			row(tw, t.ID, t.Title, orDash(strings.Join(t.MissingMergeVars(), ", ")))
		}
	})
}

func renderTemplate(cmd *cobra.Command, t *addressable.MessageTemplate) error {
	return render(cmd.OutOrStdout(), t, func(tw *tabwriter.Writer) {
		row(tw, "ID:", t.ID)
		row(tw, "Title:", t.Title)
		row(tw, "Body:", t.Body)
		for _, name := range addressable.MergeVarNames(t.MergeVars) {
			row(tw, "{{"+name+"}}:", str(t.MergeVars[name]))
		}
	})
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	t, err := svc.Client.MessageTemplate(cmd.Context(), id)
	if err != nil {
		return apiError(cmd.Context(), svc, "load template", err)
	}
	return renderTemplate(cmd, t)
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	t, err := svc.Client.CreateMessageTemplate(cmd.Context(), addressable.NewMessageTemplate{Title: templateTitle, Body: templateBody})
	if err != nil {
		return apiError(cmd.Context(), svc, "create template", err)
	}
	return renderTemplate(cmd, t)
}

func runTemplateUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "template")
	if err != nil {
		return err
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	cur, err := svc.Client.MessageTemplate(ctx, id)
	if err != nil {
		return apiError(ctx, svc, "load template", err)
	}
	next := addressable.NewMessageTemplate{Title: cur.Title, Body: cur.Body}
	if cmd.Flags().Changed("title") {
		next.Title = templateTitle
	}
	if cmd.Flags().Changed("body") {
		next.Body = templateBody
	}
	t, err := svc.Client.UpdateMessageTemplate(ctx, id, next)
	if err != nil {
		return apiError(ctx, svc, "update template", err)
	}
	return renderTemplate(cmd, t)
}

func runNote(cmd *cobra.Command, args []string) error {
	if noteTemplate == 0 && strings.TrimSpace(note.Body) == "" {
		return fmt.Errorf("give the note with --body or --template")
	}
	svc, err := openSignedIn(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	req := note
	if noteTemplate != 0 {
		t, err := svc.Client.MessageTemplate(ctx, noteTemplate)
		if err != nil {
			return apiError(ctx, svc, "load template", err)
		}
		if err := fillTemplate(t, noteVars); err != nil {
			return err
		}
		if missing := t.MissingMergeVars(); len(missing) > 0 {
			return fmt.Errorf("template %d needs %s (set with --var name=value)", t.ID, strings.Join(missing, ", "))
		}
		id := t.ID
		req.MessageTemplateID = &id
		if !cmd.Flags().Changed("body") {
			req.Body = renderTemplateBody(t)
		}
	} else if len(noteVars) > 0 {
		return fmt.Errorf("--var needs --template")
	}
	resp, err := svc.Client.SendCustomNote(ctx, req)
	if err != nil {
		return apiError(ctx, svc, "order note", err)
	}
	if resp == nil || resp.CustomNote == nil {
		return fmt.Errorf("order note: server returned no receipt")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Note %d ordered (%s)\n", resp.CustomNote.ID, str(resp.CustomNote.Status))
	return nil
}

// fillTemplate sets each name=value on the template's declared merge
// variables.
func fillTemplate(t *addressable.MessageTemplate, kvs []string) error {
	for _, kv := range kvs {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("invalid --var %q: want name=value", kv)
		}
		if _, declared := t.MergeVars[name]; !declared {
			return fmt.Errorf("template %d has no merge variable %q", t.ID, name)
		}
		v := value
		t.MergeVars[name] = &v
	}
	return nil
}

func renderTemplateBody(t *addressable.MessageTemplate) string {
	body := t.Body
	for name, value := range t.MergeVars {
		body = strings.ReplaceAll(body, "{{"+name+"}}", str(value))
	}
	return body
}
