package vertex

import (
	"fmt"

	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupVertex enables the Vertex AI API used by the categorizer and the
// summary insights.
func SetupVertex(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "vertex", &projects.ServiceArgs{
		Service: pulumi.String("aiplatform.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func GrantVertexAccess(ctx *pulumi.Context, prov *gcp.Provider, apiSA *serviceaccount.Account) error {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	_, err := projects.NewIAMMember(ctx, "vertexUser", &projects.IAMMemberArgs{
		Project: pulumi.String(projectID),
		Role:    pulumi.String("roles/aiplatform.user"),
		Member: apiSA.Email.ApplyT(func(email string) string {
			return fmt.Sprintf("serviceAccount:%s", email)
		}).(pulumi.StringOutput),
	},
		pulumi.Provider(prov),
	)
	return err
}
