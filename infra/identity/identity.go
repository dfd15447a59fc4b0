package identity

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/identityplatform"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// SetupIdentity enables Identity Platform (Firebase Auth). Users sign in with
// email; the uid in the ID token keys every per-user document and secret.
func SetupIdentity(ctx *pulumi.Context, prov *gcp.Provider) (*identityplatform.Config, error) {
	return identityplatform.NewConfig(ctx,
		"identityPlatformConfig",
		&identityplatform.ConfigArgs{
			SignIn: &identityplatform.ConfigSignInArgs{
				AllowDuplicateEmails: pulumi.Bool(false),
				Email: &identityplatform.ConfigSignInEmailArgs{
					Enabled: pulumi.Bool(true),
				},
			},
		},
		pulumi.Provider(prov),
	)
}
