package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage document sources",
	Long: `Add, list, import and remove the sources documents are pulled from.

Examples:
  intake source add filesystem --name scans -c path=/srv/scans
  intake source add github --token ghp_xxx -c owner=acme -c repo=plant-maintenance
  intake source add gmail --auth <auth-id> -c query="has:attachment"
  intake source import sources.yaml`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add [connector-type]",
	Short: "Add a new source",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source and its sync state",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

var sourceImportCmd = &cobra.Command{
	Use:   "import [file.yaml]",
	Short: "Import source definitions from a YAML file",
	Long: `Import source definitions from a YAML file. Existing source IDs are skipped.

  sources:
    - id: plant-scans
      type: filesystem
      name: Plant scans
      config:
        path: /srv/scans
    - type: github
      token: ghp_xxx
      config:
        owner: acme
        repo: plant-maintenance`,
	Args: cobra.ExactArgs(1),
	RunE: runSourceImport,
}

var connectorCmd = &cobra.Command{
	Use:   "connector",
	Short: "Inspect available connectors",
}

var connectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available connector types",
	RunE:  runConnectorList,
}

// Flags for source add.
var (
	sourceAddName   string
	sourceAddConfig []string
	sourceAddToken  string
	sourceAddAuth   string
)

func init() {
	sourceAddCmd.Flags().StringVar(&sourceAddName, "name", "", "Display name for the source")
	sourceAddCmd.Flags().StringArrayVarP(&sourceAddConfig, "config", "c", nil, "Connector setting as key=value (repeatable)")
	sourceAddCmd.Flags().StringVar(&sourceAddToken, "token", "", "Personal access token for PAT connectors")
	sourceAddCmd.Flags().StringVar(&sourceAddAuth, "auth", "", "OAuth app ID to authorize the source with")

	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	sourceCmd.AddCommand(sourceImportCmd)
	connectorCmd.AddCommand(connectorListCmd)
	rootCmd.AddCommand(sourceCmd)
	rootCmd.AddCommand(connectorCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	if len(args) == 0 {
		printConnectorTypes(cmd)
		return errors.New("connector type required")
	}

	cfg, err := parseConfigFlags(sourceAddConfig)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	src, err := addSource(ctx, domain.Source{Type: args[0], Name: sourceAddName, Config: cfg}, sourceAddToken, sourceAddAuth != "")
	if err != nil {
		return err
	}
	cmd.Printf("Added source: %s (%s)\n", src.ID, src.Type)

	if sourceAddAuth != "" {
		if err := authorizeSource(ctx, cmd, sourceAddAuth, src.ID); err != nil {
			return fmt.Errorf("source added but authorization failed: %w", err)
		}
	}
	return nil
}

// addSource validates, stores the source and binds a PAT when given.
// withOAuth means credentials will be attached by a following OAuth flow.
func addSource(ctx context.Context, src domain.Source, token string, withOAuth bool) (*domain.Source, error) {
	if err := sourceService.ValidateConfig(ctx, src.Type, src.Config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if ct := findConnectorType(src.Type); ct != nil && ct.RequiresAuth() && token == "" && !withOAuth {
		return nil, fmt.Errorf("%w: %s needs --token or --auth (accepts %s)",
			domain.ErrAuthRequired, src.Type, ct.AuthCapability)
	}

	added, err := sourceService.Add(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to add source: %w", err)
	}
	if token == "" {
		return added, nil
	}

	if credentialsService == nil {
		return nil, errors.New("credentials service not configured")
	}
	creds := domain.Credentials{
		ID:       uuid.NewString(),
		SourceID: added.ID,
		PAT:      &domain.PATCredentials{Token: token},
	}
	if err := credentialsService.Save(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	added.CredentialsID = creds.ID
	if err := sourceService.Update(ctx, *added); err != nil {
		return nil, fmt.Errorf("failed to link token: %w", err)
	}
	return added, nil
}

func findConnectorType(id string) *domain.ConnectorType {
	for _, ct := range sourceService.ConnectorTypes() {
		if ct.ID == id {
			return &ct
		}
	}
	return nil
}

// parseConfigFlags turns key=value pairs into a config map.
func parseConfigFlags(pairs []string) (map[string]string, error) {
	cfg := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid config %q: expected key=value", p)
		}
		cfg[k] = v
	}
	return cfg, nil
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No configured sources.")
		cmd.Println("Add one with: intake source add <connector-type>")
		return nil
	}

	cmd.Println("Configured sources:")
	cmd.Println()
	for i := range sources {
		src := &sources[i]
		cmd.Printf("  %s\n", src.ID)
		cmd.Printf("    Name: %s\n", src.DisplayName(""))
		cmd.Printf("    Type: %s\n", src.Type)
		secret := secretKeys(src.Type)
		keys := make([]string, 0, len(src.Config))
		for k := range src.Config {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := src.Config[k]
			if secret[k] {
				v = "********"
			}
			cmd.Printf("    %s: %s\n", k, v)
		}
		if src.CredentialsID != "" {
			cmd.Printf("    Credentials: %s\n", src.CredentialsID)
		}
		cmd.Println()
	}
	return nil
}

func secretKeys(connectorType string) map[string]bool {
	out := map[string]bool{}
	if ct := findConnectorType(connectorType); ct != nil {
		for _, k := range ct.ConfigKeys {
			if k.Secret {
				out[k.Key] = true
			}
		}
	}
	return out
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	if err := sourceService.Remove(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}
	cmd.Printf("Removed source: %s\n", args[0])
	return nil
}

// importedSource is one entry of a source import file.
type importedSource struct {
	domain.Source `yaml:",inline"`
	Token         string `yaml:"token,omitempty"`
}

type sourceFile struct {
	Sources []importedSource `yaml:"sources"`
}

// parseSourceFile decodes and checks a source import file.
func parseSourceFile(r io.Reader) ([]importedSource, error) {
	var f sourceFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty source file", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	for i, s := range f.Sources {
		if s.Type == "" {
			return nil, fmt.Errorf("%w: source %d has no type", domain.ErrInvalidInput, i+1)
		}
	}
	return f.Sources, nil
}

func runSourceImport(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := parseSourceFile(f)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	var imported, skipped int
	var errs []error
	for i := range entries {
		e := entries[i]
		src, err := addSource(ctx, e.Source, e.Token, false)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			cmd.Printf("  skipped %s: already exists\n", e.ID)
			skipped++
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", e.Type, err))
		default:
			cmd.Printf("  imported %s (%s)\n", src.ID, src.Type)
			imported++
		}
	}

	cmd.Printf("Imported %d sources, skipped %d.\n", imported, skipped)
	return errors.Join(errs...)
}

func runConnectorList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}
	printConnectorTypes(cmd)
	return nil
}

func printConnectorTypes(cmd *cobra.Command) {
	types := sourceService.ConnectorTypes()
	if len(types) == 0 {
		cmd.Println("No connectors available.")
		return
	}

	cmd.Println("Available connectors:")
	cmd.Println()
	for i := range types {
		ct := &types[i]
		cmd.Printf("  %s - %s\n", ct.ID, ct.Name)
		if ct.Description != "" {
			cmd.Printf("    %s\n", ct.Description)
		}
		cmd.Printf("    Auth: %s\n", ct.AuthCapability)
		if len(ct.ConfigKeys) > 0 {
			cmd.Println("    Config:")
			for _, k := range ct.ConfigKeys {
				req := ""
				if k.Required {
					req = " (required)"
				}
				cmd.Printf("      -c %s=<%s>%s\n", k.Key, strings.ToLower(k.Label), req)
			}
		}
		cmd.Println()
	}
}
