package cmd

import (
	"github.com/spf13/cobra"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/services"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Authorization code grant",
}

var codeIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an authorization code for a subject",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		ra, err := requestAuthFromFlags(cmd, domain.ResponseTypeCode)
		if err != nil {
			return err
		}

		if err := authorize(cmd, ra, domain.GrantTypeAuthorizationCode); err != nil {
			return err
		}

		code, err := engine.Tokens.GenerateCode(ctx, ra)
		if err != nil {
			return err
		}

		location := services.BuildRedirectURI(ra.RedirectURI, code.Code, ra.State)

		return printRecord(cmd, newCodeView(code, location))
	},
}

var codeExchangeCmd = &cobra.Command{
	Use:   "exchange CODE",
	Short: "Exchange an authorization code for an access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		clientID, secret := credentialsFromFlags(cmd)
		redirectURI, _ := cmd.Flags().GetString("redirect-uri")

		if err := engine.Validator.CheckGrantType(ctx, clientID, domain.GrantTypeAuthorizationCode); err != nil {
			return err
		}

		if _, err := engine.Validator.CheckGainTokenParam(ctx, args[0], clientID, secret, redirectURI); err != nil {
			return err
		}

		at, err := engine.Tokens.ExchangeCode(ctx, args[0])
		if err != nil {
			return err
		}

		return printRecord(cmd, newTokenView(at, ""))
	},
}

// authorize runs the authorization endpoint checks for ra.
func authorize(cmd *cobra.Command, ra *domain.RequestAuth, grantType string) error {
	ctx := cmd.Context()

	if err := engine.Validator.CheckGrantType(ctx, ra.ClientID, grantType); err != nil {
		return err
	}

	if err := engine.Validator.CheckContract(ctx, ra.ClientID, ra.Scope); err != nil {
		return err
	}

	if err := engine.Validator.CheckRedirectURL(ctx, ra.ClientID, ra.RedirectURI); err != nil {
		return err
	}

	return engine.Tokens.SaveGrantScope(ctx, ra.ClientID, ra.SubjectID, ra.Scope)
}

// requestAuthFromFlags reads the authorization request parameters from the
// command flags.
func requestAuthFromFlags(cmd *cobra.Command, responseType string) (*domain.RequestAuth, error) {
	subject, _ := cmd.Flags().GetString("subject")
	req := services.MapRequest{domain.ParamResponseType: responseType}

	for flag, param := range map[string]string{
		"client-id":    domain.ParamClientID,
		"redirect-uri": domain.ParamRedirectURI,
		"scope":        domain.ParamScope,
		"state":        domain.ParamState,
	} {
		if cmd.Flags().Changed(flag) {
			req[param], _ = cmd.Flags().GetString(flag)
		}
	}

	return services.GenerateRequestAuth(req, domain.SubjectID(subject))
}

func credentialsFromFlags(cmd *cobra.Command) (clientID, secret string) {
	clientID, _ = cmd.Flags().GetString("client-id")
	secret, _ = cmd.Flags().GetString("client-secret")

	return clientID, secret
}

func addAuthorizeFlags(cmd *cobra.Command) {
	cmd.Flags().String("client-id", "", "client id")
	cmd.Flags().String("subject", "", "subject (resource owner) id")
	cmd.Flags().String("redirect-uri", "", "client redirect URI")
	cmd.Flags().String("scope", "", "requested scopes, comma or space separated")
	cmd.Flags().String("state", "", "opaque state echoed to the redirect URI")
	_ = cmd.MarkFlagRequired("subject")
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("client-id", "", "client id")
	cmd.Flags().String("client-secret", "", "client secret")
	_ = cmd.MarkFlagRequired("client-id")
}

func init() {
	addAuthorizeFlags(codeIssueCmd)

	addCredentialFlags(codeExchangeCmd)
	codeExchangeCmd.Flags().String("redirect-uri", "", "redirect URI the code was issued for")

	codeCmd.AddCommand(codeIssueCmd, codeExchangeCmd)
	rootCmd.AddCommand(codeCmd)
}
