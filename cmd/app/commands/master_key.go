package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	cryptoService "github.com/keyfort/keyfort/internal/crypto/service"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption and prints the environment variables to configure it.
// Key material is zeroed from memory after encoding.
//
// When kmsProvider and kmsKeyURI are set, the key is encrypted through the KMS
// keeper and printed as MASTER_KEY_CIPHERTEXT. Without KMS parameters the raw
// key is printed base64-encoded as MASTER_KEY; use that form only for local
// development.
//
// Security: never use the localsecrets provider in production. Use cloud KMS
// providers (gcpkms, awskms, azurekeyvault, hashivault).
func RunCreateMasterKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf("--kms-provider and --kms-key-uri must be set together")
	}

	// Generate a cryptographically secure 32-byte master key
	masterKey := make([]byte, cryptoDomain.MasterKeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}
	defer cryptoDomain.Zero(masterKey)

	if kmsProvider == "" {
		logger.Warn("generating plaintext master key, use a KMS provider in production")

		fmt.Fprintln(writer, "# Master Key Configuration (plaintext mode)")
		fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
		fmt.Fprintln(writer)
		fmt.Fprintf(writer, "MASTER_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(masterKey))
		return nil
	}

	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		closer, ok := keeperInterface.(io.Closer)
		if !ok {
			return
		}
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	// The keeper interface only requires Decrypt; wrapping the new key needs
	// the keeper's Encrypt side as well.
	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return fmt.Errorf("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, masterKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt master key with KMS: %w", err)
	}

	fmt.Fprintln(writer, "# Master Key Configuration (KMS mode)")
	fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	fmt.Fprintf(writer, "MASTER_KEY_CIPHERTEXT=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))

	return nil
}
