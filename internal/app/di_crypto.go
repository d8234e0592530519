package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/keyfort/keyfort/internal/crypto/domain"
	cryptoRepository "github.com/keyfort/keyfort/internal/crypto/repository"
	cryptoService "github.com/keyfort/keyfort/internal/crypto/service"
	cryptoUseCase "github.com/keyfort/keyfort/internal/crypto/usecase"
)

// cryptoComponents groups the envelope encryption dependencies inside the
// container.
type cryptoComponents struct {
	masterKey       *cryptoDomain.MasterKey
	kmsService      cryptoService.KMSService
	aeadManager     cryptoService.AEADManager
	envelopeCipher  cryptoService.EnvelopeCipher
	keyRepo         cryptoUseCase.KeyRepository
	fieldRepo       cryptoUseCase.FieldRepository
	fieldUseCase    cryptoUseCase.FieldUseCase
	rotationUseCase cryptoUseCase.RotationUseCase

	masterKeyInit       sync.Once
	kmsServiceInit      sync.Once
	aeadManagerInit     sync.Once
	envelopeCipherInit  sync.Once
	keyRepoInit         sync.Once
	fieldRepoInit       sync.Once
	fieldUseCaseInit    sync.Once
	rotationUseCaseInit sync.Once
}

// MasterKey returns the master key loaded from the environment or a KMS.
func (c *Container) MasterKey() (*cryptoDomain.MasterKey, error) {
	var err error
	c.crypto.masterKeyInit.Do(func() {
		c.crypto.masterKey, err = c.initMasterKey()
		if err != nil {
			c.initErrors["masterKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKey"]; exists {
		return nil, storedErr
	}
	return c.crypto.masterKey, nil
}

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.crypto.kmsServiceInit.Do(func() {
		c.crypto.kmsService = cryptoService.NewKMSService()
	})
	return c.crypto.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.crypto.aeadManagerInit.Do(func() {
		c.crypto.aeadManager = cryptoService.NewAEADManager()
	})
	return c.crypto.aeadManager
}

// EnvelopeCipher returns the envelope cipher bound to the master key.
func (c *Container) EnvelopeCipher() (cryptoService.EnvelopeCipher, error) {
	var err error
	c.crypto.envelopeCipherInit.Do(func() {
		c.crypto.envelopeCipher, err = c.initEnvelopeCipher()
		if err != nil {
			c.initErrors["envelopeCipher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeCipher"]; exists {
		return nil, storedErr
	}
	return c.crypto.envelopeCipher, nil
}

// KeyRepository returns the encryption key repository based on the database driver.
func (c *Container) KeyRepository() (cryptoUseCase.KeyRepository, error) {
	var err error
	c.crypto.keyRepoInit.Do(func() {
		c.crypto.keyRepo, err = c.initKeyRepository()
		if err != nil {
			c.initErrors["keyRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyRepo"]; exists {
		return nil, storedErr
	}
	return c.crypto.keyRepo, nil
}

// FieldRepository returns the encrypted field repository based on the database driver.
func (c *Container) FieldRepository() (cryptoUseCase.FieldRepository, error) {
	var err error
	c.crypto.fieldRepoInit.Do(func() {
		c.crypto.fieldRepo, err = c.initFieldRepository()
		if err != nil {
			c.initErrors["fieldRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldRepo"]; exists {
		return nil, storedErr
	}
	return c.crypto.fieldRepo, nil
}

// FieldUseCase returns the field encryption use case.
func (c *Container) FieldUseCase() (cryptoUseCase.FieldUseCase, error) {
	var err error
	c.crypto.fieldUseCaseInit.Do(func() {
		c.crypto.fieldUseCase, err = c.initFieldUseCase()
		if err != nil {
			c.initErrors["fieldUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldUseCase"]; exists {
		return nil, storedErr
	}
	return c.crypto.fieldUseCase, nil
}

// RotationUseCase returns the key rotation use case.
func (c *Container) RotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	var err error
	c.crypto.rotationUseCaseInit.Do(func() {
		c.crypto.rotationUseCase, err = c.initRotationUseCase()
		if err != nil {
			c.initErrors["rotationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rotationUseCase"]; exists {
		return nil, storedErr
	}
	return c.crypto.rotationUseCase, nil
}

// initMasterKey loads the master key. When a KMS ciphertext is configured the
// key is unwrapped through the configured keeper, otherwise it is read from
// the MASTER_KEY environment variable.
func (c *Container) initMasterKey() (*cryptoDomain.MasterKey, error) {
	if c.config.MasterKeyCiphertext != "" {
		keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open KMS keeper for master key: %w", err)
		}

		masterKey, err := cryptoDomain.LoadMasterKeyFromKeeper(
			context.Background(),
			keeper,
			c.config.MasterKeyCiphertext,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key from KMS: %w", err)
		}
		return masterKey, nil
	}

	masterKey, err := cryptoDomain.LoadMasterKeyFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load master key from environment: %w", err)
	}
	return masterKey, nil
}

// initEnvelopeCipher creates the envelope cipher using the master key and the
// configured algorithm.
func (c *Container) initEnvelopeCipher() (cryptoService.EnvelopeCipher, error) {
	masterKey, err := c.MasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key for envelope cipher: %w", err)
	}

	algorithm, err := c.encryptionAlgorithm()
	if err != nil {
		return nil, err
	}

	cipher, err := cryptoService.NewEnvelopeCrypto(c.AEADManager(), masterKey, algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to create envelope cipher: %w", err)
	}
	return cipher, nil
}

// initKeyRepository creates the encryption key repository based on the database driver.
func (c *Container) initKeyRepository() (cryptoUseCase.KeyRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for key repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoRepository.NewPostgreSQLKeyRepository(db), nil
	case "mysql":
		return cryptoRepository.NewMySQLKeyRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initFieldRepository creates the encrypted field repository based on the database driver.
func (c *Container) initFieldRepository() (cryptoUseCase.FieldRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for field repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return cryptoRepository.NewPostgreSQLFieldRepository(db), nil
	case "mysql":
		return cryptoRepository.NewMySQLFieldRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initFieldUseCase creates the field encryption use case with all its dependencies.
func (c *Container) initFieldUseCase() (cryptoUseCase.FieldUseCase, error) {
	keyRepo, err := c.KeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key repository for field use case: %w", err)
	}

	fieldRepo, err := c.FieldRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get field repository for field use case: %w", err)
	}

	cipher, err := c.EnvelopeCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope cipher for field use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for field use case: %w", err)
	}

	useCase := cryptoUseCase.NewFieldUseCase(keyRepo, fieldRepo, cipher)
	return cryptoUseCase.NewFieldUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initRotationUseCase creates the key rotation use case with all its dependencies.
func (c *Container) initRotationUseCase() (cryptoUseCase.RotationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rotation use case: %w", err)
	}

	keyRepo, err := c.KeyRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get key repository for rotation use case: %w", err)
	}

	fieldRepo, err := c.FieldRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get field repository for rotation use case: %w", err)
	}

	cipher, err := c.EnvelopeCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope cipher for rotation use case: %w", err)
	}

	algorithm, err := c.encryptionAlgorithm()
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for rotation use case: %w", err)
	}

	useCase := cryptoUseCase.NewRotationUseCase(
		txManager,
		keyRepo,
		fieldRepo,
		cipher,
		c.Logger(),
		algorithm,
		c.config.KeyLifetime,
		c.config.RotationBatchSize,
		c.config.RotationPagePause,
	)
	return cryptoUseCase.NewRotationUseCaseWithMetrics(useCase, businessMetrics), nil
}

// encryptionAlgorithm validates and returns the configured AEAD algorithm.
func (c *Container) encryptionAlgorithm() (cryptoDomain.Algorithm, error) {
	switch c.config.EncryptionAlgorithm {
	case string(cryptoDomain.AESGCM):
		return cryptoDomain.AESGCM, nil
	case string(cryptoDomain.ChaCha20):
		return cryptoDomain.ChaCha20, nil
	default:
		return "", fmt.Errorf("unsupported encryption algorithm: %s", c.config.EncryptionAlgorithm)
	}
}
