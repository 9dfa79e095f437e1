package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/internal/audit"
	"go.pilab.hu/oauth2/internal/crypto"
	"go.pilab.hu/oauth2/services"
)

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Issue, refresh, inspect and revoke access tokens",
	Aliases: []string{"tokens"},
}

var tokenImplicitCmd = &cobra.Command{
	Use:   "implicit",
	Short: "Issue an access token directly (implicit grant)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ra, err := requestAuthFromFlags(cmd, domain.ResponseTypeToken)
		if err != nil {
			return err
		}

		if err := authorize(cmd, ra, domain.GrantTypeImplicit); err != nil {
			return err
		}

		at, err := engine.Tokens.IssueAccessToken(cmd.Context(), ra, false)
		if err != nil {
			return err
		}

		location := services.BuildImplicitRedirectURI(ra.RedirectURI, at.AccessToken, ra.State)

		return printRecord(cmd, newTokenView(at, location))
	},
}

var tokenPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Issue an access and refresh token for an authenticated subject (password grant)",
	Long: `Issue an access and refresh token pair for a subject whose credentials
were verified elsewhere. The client must authenticate with its secret.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		clientID, secret := credentialsFromFlags(cmd)
		subject, _ := cmd.Flags().GetString("subject")
		scope, _ := cmd.Flags().GetString("scope")

		if err := engine.Validator.CheckGrantType(ctx, clientID, domain.GrantTypePassword); err != nil {
			return err
		}

		if _, err := engine.Validator.CheckClientSecretAndScope(ctx, clientID, secret, scope); err != nil {
			return err
		}

		at, err := engine.Tokens.IssueAccessToken(ctx, &domain.RequestAuth{
			ClientID:     clientID,
			ResponseType: domain.ResponseTypeToken,
			Scope:        services.NormalizeScope(scope),
			SubjectID:    domain.SubjectID(subject),
		}, true)
		if err != nil {
			return err
		}

		return printRecord(cmd, newTokenView(at, ""))
	},
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh REFRESH_TOKEN",
	Short: "Rotate an access token with a refresh token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clientID, secret := credentialsFromFlags(cmd)

		if err := engine.Validator.CheckGrantType(ctx, clientID, domain.GrantTypeRefreshToken); err != nil {
			return err
		}

		if _, err := engine.Validator.CheckRefreshTokenParam(ctx, clientID, secret, args[0]); err != nil {
			return err
		}

		at, err := engine.Tokens.RefreshAccessToken(ctx, args[0])
		if err != nil {
			return err
		}

		return printRecord(cmd, newTokenView(at, ""))
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke ACCESS_TOKEN",
	Short: "Revoke an access token and its refresh token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clientID, secret := credentialsFromFlags(cmd)

		if _, err := engine.Validator.CheckAccessTokenParam(ctx, clientID, secret, args[0]); err != nil {
			return err
		}

		err := engine.Tokens.RevokeAccessToken(ctx, args[0])
		engine.Audit.Log(ctx, audit.Event{
			Action:   audit.ActionTokenRevoked,
			ClientID: clientID,
			Details:  "token " + crypto.Fingerprint(args[0]),
			Err:      err,
		})
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), "revoked")

		return err
	},
}

var tokenInspectCmd = &cobra.Command{
	Use:   "inspect ACCESS_TOKEN",
	Short: "Show an access token, optionally checking that it carries scopes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		scopes, _ := cmd.Flags().GetStringSlice("require-scope")

		at, err := engine.Validator.CheckAccessToken(ctx, args[0])
		if err != nil {
			return err
		}

		if len(scopes) > 0 {
			if err := engine.Validator.CheckScope(ctx, args[0], scopes...); err != nil {
				return err
			}
		}

		return printRecord(cmd, newTokenView(at, ""))
	},
}

func init() {
	addAuthorizeFlags(tokenImplicitCmd)

	addCredentialFlags(tokenPasswordCmd)
	tokenPasswordCmd.Flags().String("subject", "", "authenticated subject id")
	tokenPasswordCmd.Flags().String("scope", "", "requested scopes, comma or space separated")
	_ = tokenPasswordCmd.MarkFlagRequired("subject")

	addCredentialFlags(tokenRefreshCmd)
	addCredentialFlags(tokenRevokeCmd)

	tokenInspectCmd.Flags().StringSlice("require-scope", nil, "fail unless the token carries these scopes")

	tokenCmd.AddCommand(tokenImplicitCmd, tokenPasswordCmd, tokenRefreshCmd, tokenRevokeCmd, tokenInspectCmd)
	rootCmd.AddCommand(tokenCmd)
}
