package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/spendwise/infra/cloudrun"
	"github.com/GregMSThompson/spendwise/infra/docker"
	"github.com/GregMSThompson/spendwise/infra/firestore"
	"github.com/GregMSThompson/spendwise/infra/identity"
	"github.com/GregMSThompson/spendwise/infra/kms"
	"github.com/GregMSThompson/spendwise/infra/provider"
	"github.com/GregMSThompson/spendwise/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore, create the database and the query indexes
		db, err := firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// key used to seal raw payment mail before it is stored
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyName, err := kms.CreateKey(ctx, prov, "spendwise", "raw-mail")
		if err != nil {
			return err
		}

		vertexSvc, err := vertex.SetupVertex(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx)
		if err != nil {
			return err
		}

		apiSA, err := cloudrun.SetupCloudRun(ctx, prov, keyName, ident, db, kmsSvc, vertexSvc, repo)
		if err != nil {
			return err
		}

		if err := kms.GrantCryptoAccess(ctx, prov, keyName, apiSA); err != nil {
			return err
		}
		if err := vertex.GrantVertexAccess(ctx, prov, apiSA); err != nil {
			return err
		}

		ctx.Export("kmsKeyName", keyName)
		return nil
	})
}
