package firestore

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// SetupFirestore enables Firestore, creates the default database and the
// composite indexes the transaction queries need.
func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider) (*firestore.Database, error) {
	svc, err := enableFireStore(ctx, prov)
	if err != nil {
		return nil, err
	}

	db, err := createDatabase(ctx, prov, svc)
	if err != nil {
		return nil, err
	}

	if err := createIndexes(ctx, prov, db); err != nil {
		return nil, err
	}
	return db, nil
}

func enableFireStore(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "firestore", &projects.ServiceArgs{
		Service: pulumi.String("firestore.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createDatabase(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) (*firestore.Database, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	return firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Project:    pulumi.String(projectID),
		Name:       pulumi.String("(default)"),
		LocationId: pulumi.String(region),
		Type:       pulumi.String("FIRESTORE_NATIVE"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

type indexSpec struct {
	name       string
	collection string
	fields     [][2]string // field path, order
}

// Transaction listings filter by category and order by date. Ledger queries
// touch a single field and need no composite index.
var indexes = []indexSpec{
	{"upiTxCategoryDate", "upi_transactions", [][2]string{{"category", "ASCENDING"}, {"date", "DESCENDING"}}},
}

func createIndexes(ctx *pulumi.Context, prov *gcp.Provider, db *firestore.Database) error {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	for _, ix := range indexes {
		fields := firestore.IndexFieldArray{}
		for _, f := range ix.fields {
			fields = append(fields, &firestore.IndexFieldArgs{
				FieldPath: pulumi.String(f[0]),
				Order:     pulumi.String(f[1]),
			})
		}
		_, err := firestore.NewIndex(ctx, ix.name, &firestore.IndexArgs{
			Project:    pulumi.String(projectID),
			Database:   db.Name,
			Collection: pulumi.String(ix.collection),
			Fields:     fields,
		},
			pulumi.Provider(prov),
			pulumi.DependsOn([]pulumi.Resource{db}),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
