package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.pilab.hu/oauth2/domain"
)

var clientCmd = &cobra.Command{
	Use:     "client",
	Short:   "Manage registered clients",
	Aliases: []string{"clients"},
}

var clientRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new client and print its generated credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, _ := cmd.Flags().GetString("client-id")
		scopes, _ := cmd.Flags().GetStringSlice("scope")
		urls, _ := cmd.Flags().GetStringSlice("allow-url")
		grants, _ := cmd.Flags().GetStringSlice("grant-type")

		model, err := engine.Clients.RegisterClient(cmd.Context(), domain.ClientModel{
			ClientID:          id,
			ContractScopes:    scopes,
			AllowURLs:         urls,
			AllowedGrantTypes: grants,
		})
		if err != nil {
			return fmt.Errorf("client registration failed: %w", err)
		}

		return printRecord(cmd, newClientView(model, true))
	},
}

var clientGetCmd = &cobra.Command{
	Use:   "get CLIENT_ID",
	Short: "Show a registered client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := engine.Clients.GetClient(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printRecord(cmd, newClientView(model, false))
	},
}

var clientRotateSecretCmd = &cobra.Command{
	Use:   "rotate-secret CLIENT_ID",
	Short: "Replace a client's secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := engine.Clients.RotateSecret(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)

		return err
	},
}

var clientDeleteCmd = &cobra.Command{
	Use:   "delete CLIENT_ID",
	Short: "Delete a registered client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return engine.Clients.DeleteClient(cmd.Context(), args[0])
	},
}

var clientTokenCmd = &cobra.Command{
	Use:   "client-token",
	Short: "Client credentials grant",
}

var clientTokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a client token, demoting the current one to the past token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		clientID, secret := credentialsFromFlags(cmd)
		scope, _ := cmd.Flags().GetString("scope")

		if err := engine.Validator.CheckGrantType(ctx, clientID, domain.GrantTypeClientCredentials); err != nil {
			return err
		}

		if _, err := engine.Validator.CheckClientSecretAndScope(ctx, clientID, secret, scope); err != nil {
			return err
		}

		ct, err := engine.Tokens.GenerateClientToken(ctx, clientID, scope)
		if err != nil {
			return err
		}

		return printRecord(cmd, newClientTokenView(ct))
	},
}

var clientTokenInspectCmd = &cobra.Command{
	Use:   "inspect CLIENT_TOKEN",
	Short: "Show a client token, optionally checking that it carries scopes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		scopes, _ := cmd.Flags().GetStringSlice("require-scope")

		ct, err := engine.Validator.CheckClientToken(ctx, args[0])
		if err != nil {
			return err
		}

		if len(scopes) > 0 {
			if err := engine.Validator.CheckClientTokenScope(ctx, args[0], scopes...); err != nil {
				return err
			}
		}

		return printRecord(cmd, newClientTokenView(ct))
	},
}

func init() {
	clientRegisterCmd.Flags().String("client-id", "", "client id (generated when empty)")
	clientRegisterCmd.Flags().StringSlice("scope", nil, "contracted scopes")
	clientRegisterCmd.Flags().StringSlice("allow-url", nil, "allowed redirect URLs")
	clientRegisterCmd.Flags().StringSlice("grant-type", nil, "enabled grant types (all when empty)")

	clientCmd.AddCommand(clientRegisterCmd, clientGetCmd, clientRotateSecretCmd, clientDeleteCmd)

	addCredentialFlags(clientTokenIssueCmd)
	clientTokenIssueCmd.Flags().String("scope", "", "requested scopes, comma or space separated")

	clientTokenInspectCmd.Flags().StringSlice("require-scope", nil, "fail unless the token carries these scopes")

	clientTokenCmd.AddCommand(clientTokenIssueCmd, clientTokenInspectCmd)
	rootCmd.AddCommand(clientCmd, clientTokenCmd)
}
