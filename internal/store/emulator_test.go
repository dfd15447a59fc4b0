package store

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const emulatorImage = "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators"

// newEmulatorClient connects to FIRESTORE_EMULATOR_HOST when set, otherwise
// starts an emulator container if SPENDWISE_TESTCONTAINERS=1, otherwise skips.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	ctx := context.Background()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		if os.Getenv("SPENDWISE_TESTCONTAINERS") != "1" {
			t.Skip("FIRESTORE_EMULATOR_HOST not set")
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        emulatorImage,
				ExposedPorts: []string{"8080/tcp"},
				Cmd:          []string{"gcloud", "beta", "emulators", "firestore", "start", "--host-port=0.0.0.0:8080"},
				WaitingFor:   wait.ForLog("Dev App Server is now running").WithStartupTimeout(2 * time.Minute),
			},
			Started: true,
		})
		if err != nil {
			t.Fatalf("start firestore emulator: %v", err)
		}
		t.Cleanup(func() { _ = container.Terminate(context.Background()) })

		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			t.Fatalf("emulator endpoint: %v", err)
		}
		t.Setenv("FIRESTORE_EMULATOR_HOST", endpoint)
	}

	client, err := firestore.NewClient(ctx, "spendwise-test")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// testUID keeps runs against a shared emulator from seeing each other's data.
func testUID() string {
	return "user-" + uuid.NewString()
}
