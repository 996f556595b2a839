package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/oauth"
	"github.com/custodia-labs/sercha-intake/internal/connectors"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

const (
	callbackTimeout = 5 * time.Minute

	// Ports tried in order for the local redirect listener. Register one of
	// them as the redirect URI with the provider.
	callbackPortFirst = 18080
	callbackPortLast  = 18099
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth apps used by sources",
	Long: `An OAuth app holds the client ID and secret registered with a provider.
Several sources of the same provider can share one app, e.g. a Gmail and a
Drive source behind one Google app. Sources that accept a personal access
token need no app: pass --token to 'intake source add' instead.

  intake auth add --provider github --client-id ID --client-secret SECRET
  intake source add gmail --auth <app-id>
  intake auth login <source-id>`,
}

var authAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an OAuth app",
	Args:  cobra.NoArgs,
	RunE:  runAuthAdd,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List OAuth apps",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

var authRemoveCmd = &cobra.Command{
	Use:   "remove [app-id]",
	Short: "Remove an OAuth app no source uses",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRemove,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [source-id]",
	Short: "Authorize a source in the browser",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogin,
}

type authOptions struct {
	name         string
	provider     string
	clientID     string
	clientSecret string
	scopes       string
	app          string
}

var authOpts authOptions

func init() {
	f := authAddCmd.Flags()
	f.StringVar(&authOpts.name, "name", "", "Display name (default \"<provider> OAuth App\")")
	f.StringVar(&authOpts.provider, "provider", "", "Provider type; prompted when empty")
	f.StringVar(&authOpts.clientID, "client-id", "", "OAuth client ID")
	f.StringVar(&authOpts.clientSecret, "client-secret", "", "OAuth client secret")
	f.StringVar(&authOpts.scopes, "scopes", "", "Comma-separated scopes; provider defaults when empty")
	authLoginCmd.Flags().StringVar(&authOpts.app, "auth", "", "OAuth app to authorize with (default: the source's app)")

	authCmd.AddCommand(authAddCmd, authListCmd, authRemoveCmd, authLoginCmd)
	rootCmd.AddCommand(authCmd)
}

// prompter reads answers from the command's input.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line(label string) (string, error) {
	p.cmd.Print(label)
	s, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// secret does not echo when reading from a real terminal.
func (p *prompter) secret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if p.cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return p.line(label)
	}
	p.cmd.Print(label)
	b, err := term.ReadPassword(fd)
	p.cmd.Println()
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// choose lists the OAuth-capable providers and reads a 1-based pick.
func (p *prompter) choose() (domain.ProviderType, error) {
	var options []domain.ProviderType
	for _, pt := range providerRegistry.Providers() {
		if providerRegistry.AuthCapability(pt).SupportsOAuth() {
			options = append(options, pt)
		}
	}
	if len(options) == 0 {
		return "", errors.New("no provider supports OAuth")
	}
	for i, pt := range options {
		p.cmd.Printf("  %d) %s  [%s]\n", i+1, pt, strings.Join(providerRegistry.ConnectorsFor(pt), ", "))
	}
	answer, err := p.line("Provider: ")
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return "", fmt.Errorf("invalid selection %q", answer)
	}
	return options[n-1], nil
}

func runAuthAdd(cmd *cobra.Command, _ []string) error {
	if authProviderService == nil || providerRegistry == nil {
		return errors.New("auth services not configured")
	}
	p := newPrompter(cmd)

	provider := domain.ProviderType(authOpts.provider)
	if provider == "" {
		var err error
		if provider, err = p.choose(); err != nil {
			return err
		}
	}
	if !providerRegistry.AuthCapability(provider).SupportsOAuth() {
		return fmt.Errorf("%s does not support OAuth", provider)
	}
	handler, err := connectors.OAuthHandlerFor(provider)
	if err != nil {
		return err
	}

	id, secret := authOpts.clientID, authOpts.clientSecret
	if (id == "" || secret == "") && handler.SetupHint() != "" {
		cmd.Println(handler.SetupHint())
		cmd.Println()
	}
	if id == "" {
		if id, err = p.line("Client ID: "); err != nil {
			return err
		}
	}
	if secret == "" {
		if secret, err = p.secret("Client secret: "); err != nil {
			return err
		}
	}
	if id == "" || secret == "" {
		return errors.New("client ID and client secret are required")
	}

	name := authOpts.name
	if name == "" {
		name = fmt.Sprintf("%s OAuth App", provider)
	}
	app := domain.AuthProvider{
		ID:           uuid.NewString(),
		Name:         name,
		ProviderType: provider,
		AuthMethod:   domain.AuthMethodOAuth,
		OAuth: &domain.OAuthProviderConfig{
			ClientID:     id,
			ClientSecret: secret,
			Scopes:       splitCSV(authOpts.scopes),
		},
	}
	if err := authProviderService.Save(commandContext(cmd), app); err != nil {
		return fmt.Errorf("saving OAuth app: %w", err)
	}

	cmd.Printf("Added %s (%s).\n", app.Name, app.ID)
	cmd.Printf("Attach it with: intake source add <connector> --auth %s\n", app.ID)
	return nil
}

func runAuthList(cmd *cobra.Command, _ []string) error {
	if authProviderService == nil {
		return errors.New("auth services not configured")
	}
	apps, err := authProviderService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("listing OAuth apps: %w", err)
	}
	if len(apps) == 0 {
		cmd.Println("No OAuth apps. Add one with 'intake auth add'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tCLIENT\tSCOPES\tCREATED")
	for i := range apps {
		a := &apps[i]
		client, scopes := "-", "default"
		if a.OAuth != nil {
			client = truncate(a.OAuth.ClientID, 12) + "…"
			if len(a.OAuth.Scopes) > 0 {
				scopes = strings.Join(a.OAuth.Scopes, ",")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.ProviderType,
			client, scopes, a.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}

func runAuthRemove(cmd *cobra.Command, args []string) error {
	if authProviderService == nil {
		return errors.New("auth services not configured")
	}
	ctx := commandContext(cmd)
	app, err := authProviderService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("OAuth app %s: %w", args[0], err)
	}
	err = authProviderService.Delete(ctx, app.ID)
	switch {
	case errors.Is(err, domain.ErrAuthProviderInUse):
		return fmt.Errorf("%s is still attached to a source; remove or re-point the source first: %w", app.Name, err)
	case err != nil:
		return fmt.Errorf("removing OAuth app: %w", err)
	}
	cmd.Printf("Removed %s (%s).\n", app.Name, app.ID)
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	ctx := commandContext(cmd)
	src, err := sourceService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("source %s: %w", args[0], err)
	}
	appID := firstNonEmpty(authOpts.app, src.AuthProviderID)
	if appID == "" {
		return fmt.Errorf("source %s has no OAuth app; pass --auth", src.ID)
	}
	return authorizeSource(ctx, cmd, appID, src.ID)
}

// authorizeSource walks the user through the authorization code flow and
// stores the resulting token against the source.
func authorizeSource(ctx context.Context, cmd *cobra.Command, appID, sourceID string) error {
	if oauthFlowService == nil {
		return errors.New("oauth flow not configured")
	}

	recv, err := oauth.Listen(callbackPortFirst, callbackPortLast)
	if err != nil {
		return err
	}
	defer func() { _ = recv.Close() }()

	flow, err := oauthFlowService.Begin(ctx, appID, recv.RedirectURI())
	if err != nil {
		return err
	}
	recv.Expect(flow.State)

	cmd.Println("Waiting for authorization in the browser...")
	if err := oauth.OpenBrowser(flow.AuthURL); err != nil {
		cmd.Printf("Could not open a browser. Visit:\n  %s\n", flow.AuthURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	code, err := recv.Wait(waitCtx)
	if err != nil {
		return err
	}

	creds, err := oauthFlowService.Complete(ctx, flow, sourceID, code)
	if err != nil {
		return err
	}
	if creds.AccountIdentifier == "" {
		cmd.Println("Authorized.")
	} else {
		cmd.Printf("Authorized as %s.\n", creds.AccountIdentifier)
	}
	return nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
