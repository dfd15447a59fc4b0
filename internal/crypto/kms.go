package crypto

import (
	"context"
	"encoding/base64"

	gcpkms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/spendwise/internal/errs"
)

type kmsAPI interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
}

// KMS seals raw mail text before it is persisted. The owning uid is bound as
// additional authenticated data, so ciphertext copied to another user's
// document will not decrypt.
type KMS struct {
	client  kmsAPI
	keyName string
}

func NewKMS(client *gcpkms.KeyManagementClient, keyName string) *KMS {
	return &KMS{client: client, keyName: keyName}
}

// Seal encrypts plaintext and returns base64 text.
func (k *KMS) Seal(ctx context.Context, uid, plaintext string) (string, error) {
	resp, err := k.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:                        k.keyName,
		Plaintext:                   []byte(plaintext),
		AdditionalAuthenticatedData: []byte(uid),
	})
	if err != nil {
		return "", errs.NewEncryptionError("kms encrypt failed", err)
	}
	return base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

// Open reverses Seal.
func (k *KMS) Open(ctx context.Context, uid, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errs.NewEncryptionError("ciphertext is not base64", err)
	}
	resp, err := k.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:                        k.keyName,
		Ciphertext:                  raw,
		AdditionalAuthenticatedData: []byte(uid),
	})
	if err != nil {
		return "", errs.NewEncryptionError("kms decrypt failed", err)
	}
	return string(resp.Plaintext), nil
}
