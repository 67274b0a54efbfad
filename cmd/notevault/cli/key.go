package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/notevault/notevault/internal/secret"
	"github.com/notevault/notevault/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Issue, list, and delete API keys directly against the store, bypassing the HTTP API.",
	}

	cmd.AddCommand(newKeyIssueCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyDeleteCmd())

	return cmd
}

// ---------- key issue ----------

func newKeyIssueCmd() *cobra.Command {
	var (
		name    string
		scope   []string
		email   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new API key",
		Long:  "Issue a new API key. The plaintext credential is shown once and cannot be retrieved again.",
		Example: `  notevault key issue --name "ci" --scope read --email ci@example.com
  notevault key issue --name "deploy" --scope read --scope write --account 4f3c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyIssue(name, scope, email, account)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Label for the key (required)")
	cmd.Flags().StringArrayVar(&scope, "scope", nil, "Scope granted to the key, repeatable (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email for a new account to own the key")
	cmd.Flags().StringVar(&account, "account", "", "Existing account ID to own the key")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("scope")

	return cmd
}

func runKeyIssue(name string, scope []string, email, account string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	authSvc := service.NewAuthService(st, secret.New(viper.GetInt("auth.bcrypt_cost")))

	issued, err := authSvc.IssueKey(context.Background(), service.IssueKeyParams{
		Name:      name,
		Scope:     scope,
		Email:     email,
		AccountID: account,
	})
	if err != nil {
		return fmt.Errorf("issue key: %w", err)
	}

	// Scripts piping the output get only the credential; the banner is for
	// humans.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(issued.Plaintext)
		return nil
	}

	fmt.Printf("API key issued\n\n")
	fmt.Printf("  id:      %s\n", issued.Key.ID)
	fmt.Printf("  account: %s\n", issued.Key.AccountID)
	fmt.Printf("  name:    %s\n", issued.Key.Name)
	fmt.Printf("  scope:   %s\n", strings.Join(issued.Key.Scope, ", "))
	fmt.Printf("  prefix:  %s\n\n", issued.Key.Prefix)
	fmt.Printf("  %s\n\n", issued.Plaintext)
	fmt.Println("Store this key now. It will not be shown again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(account)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account ID (required)")
	cmd.MarkFlagRequired("account")

	return cmd
}

func runKeyList(account string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background(), account)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-20s  %s\n", "ID", "NAME", "SCOPE", "PREFIX")
	for i := range keys {
		fmt.Printf("%-36s  %-20s  %-20s  %s\n",
			keys[i].ID, keys[i].Name, strings.Join(keys[i].Scope, ","), keys[i].Prefix)
	}
	return nil
}

// ---------- key delete ----------

func newKeyDeleteCmd() *cobra.Command {
	var (
		account string
		id      string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one key, or every key owned by an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyDelete(account, id)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Account ID (required)")
	cmd.Flags().StringVar(&id, "id", "", "Key ID (omit to delete all of the account's keys)")
	cmd.MarkFlagRequired("account")

	return cmd
}

func runKeyDelete(account, id string) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if id != "" {
		if err := st.DeleteAPIKey(ctx, account, id); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
		fmt.Printf("Deleted key %s\n", id)
		return nil
	}

	if err := st.DeleteAPIKeys(ctx, account); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	fmt.Printf("Deleted all keys for account %s\n", account)
	return nil
}
