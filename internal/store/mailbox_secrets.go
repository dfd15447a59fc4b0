package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/spendwise/internal/errs"
)

// Secrets path
// projects/{project}/secrets/spendwise-imap-{uid}/versions/{version}

type mailboxSecretsStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewMailboxSecretsStore(client *secretmanager.Client, projectID string) *mailboxSecretsStore {
	return &mailboxSecretsStore{
		client:    client,
		projectID: projectID,
		prefix:    "spendwise-imap",
	}
}

func (s *mailboxSecretsStore) secretID(uid string) string {
	return fmt.Sprintf("%s-%s", s.prefix, uid)
}

func (s *mailboxSecretsStore) secretName(uid string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(uid))
}

func (s *mailboxSecretsStore) ensureSecret(ctx context.Context, uid string) error {
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: s.secretName(uid)})
	if status.Code(err) == codes.NotFound {
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretID(uid),
			Secret: &secretmanagerpb.Secret{
				Labels: map[string]string{"app": "spendwise", "kind": "imap-password"},
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

func (s *mailboxSecretsStore) StorePassword(ctx context.Context, uid, password string) error {
	if err := s.ensureSecret(ctx, uid); err != nil {
		return errs.NewExternalServiceError("secretmanager", false, "failed to prepare mailbox secret", err)
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(uid),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(password),
		},
	})
	if err != nil {
		return errs.NewExternalServiceError("secretmanager", false, "failed to store mailbox password", err)
	}
	return nil
}

func (s *mailboxSecretsStore) GetPassword(ctx context.Context, uid string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(uid)),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errs.NewNotFoundError("mailbox password not set")
		}
		return "", errs.NewExternalServiceError("secretmanager", true, "failed to read mailbox password", err)
	}
	return string(res.Payload.Data), nil
}
