package docker

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/artifactregistry"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// RepositoryID is the Artifact Registry repo holding the api and worker images.
const RepositoryID = "spendwise"

func CreateCloudrunRepo(ctx *pulumi.Context) (*artifactregistry.Repository, error) {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	return artifactregistry.NewRepository(ctx, "apiRepository", &artifactregistry.RepositoryArgs{
		Format:       pulumi.String("DOCKER"),
		RepositoryId: pulumi.String(RepositoryID),
		Location:     pulumi.String(region),
		Description:  pulumi.String("SpendWise API images"),
		Labels:       pulumi.StringMap{"app": pulumi.String("spendwise")},
	})
}
