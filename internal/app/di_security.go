package app

import (
	"fmt"
	"sync"

	securityRepository "github.com/keyfort/keyfort/internal/security/repository"
	securityService "github.com/keyfort/keyfort/internal/security/service"
	securityUseCase "github.com/keyfort/keyfort/internal/security/usecase"
)

// securityComponents groups the security state dependencies inside the
// container.
type securityComponents struct {
	sessionRepo      securityUseCase.SessionRepository
	eventRepo        securityUseCase.SecurityEventRepository
	userSecurityRepo securityUseCase.UserSecurityRepository
	passwordService  securityService.PasswordService
	monitorUseCase   securityUseCase.MonitorUseCase
	lockUseCase      securityUseCase.AccountLockUseCase
	sessionUseCase   securityUseCase.SessionUseCase
	loginUseCase     securityUseCase.LoginUseCase

	sessionRepoInit      sync.Once
	eventRepoInit        sync.Once
	userSecurityRepoInit sync.Once
	passwordServiceInit  sync.Once
	monitorUseCaseInit   sync.Once
	lockUseCaseInit      sync.Once
	sessionUseCaseInit   sync.Once
	loginUseCaseInit     sync.Once
}

// SessionRepository returns the session repository based on the database driver.
func (c *Container) SessionRepository() (securityUseCase.SessionRepository, error) {
	var err error
	c.security.sessionRepoInit.Do(func() {
		c.security.sessionRepo, err = c.initSessionRepository()
		if err != nil {
			c.initErrors["sessionRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionRepo"]; exists {
		return nil, storedErr
	}
	return c.security.sessionRepo, nil
}

// SecurityEventRepository returns the security event repository based on the database driver.
func (c *Container) SecurityEventRepository() (securityUseCase.SecurityEventRepository, error) {
	var err error
	c.security.eventRepoInit.Do(func() {
		c.security.eventRepo, err = c.initSecurityEventRepository()
		if err != nil {
			c.initErrors["eventRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.security.eventRepo, nil
}

// UserSecurityRepository returns the user security repository based on the database driver.
func (c *Container) UserSecurityRepository() (securityUseCase.UserSecurityRepository, error) {
	var err error
	c.security.userSecurityRepoInit.Do(func() {
		c.security.userSecurityRepo, err = c.initUserSecurityRepository()
		if err != nil {
			c.initErrors["userSecurityRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userSecurityRepo"]; exists {
		return nil, storedErr
	}
	return c.security.userSecurityRepo, nil
}

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() securityService.PasswordService {
	c.security.passwordServiceInit.Do(func() {
		c.security.passwordService = securityService.NewPasswordService()
	})
	return c.security.passwordService
}

// MonitorUseCase returns the security event monitor use case.
func (c *Container) MonitorUseCase() (securityUseCase.MonitorUseCase, error) {
	var err error
	c.security.monitorUseCaseInit.Do(func() {
		c.security.monitorUseCase, err = c.initMonitorUseCase()
		if err != nil {
			c.initErrors["monitorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["monitorUseCase"]; exists {
		return nil, storedErr
	}
	return c.security.monitorUseCase, nil
}

// AccountLockUseCase returns the account lockout use case.
func (c *Container) AccountLockUseCase() (securityUseCase.AccountLockUseCase, error) {
	var err error
	c.security.lockUseCaseInit.Do(func() {
		c.security.lockUseCase, err = c.initAccountLockUseCase()
		if err != nil {
			c.initErrors["lockUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["lockUseCase"]; exists {
		return nil, storedErr
	}
	return c.security.lockUseCase, nil
}

// SessionUseCase returns the session management use case.
func (c *Container) SessionUseCase() (securityUseCase.SessionUseCase, error) {
	var err error
	c.security.sessionUseCaseInit.Do(func() {
		c.security.sessionUseCase, err = c.initSessionUseCase()
		if err != nil {
			c.initErrors["sessionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionUseCase"]; exists {
		return nil, storedErr
	}
	return c.security.sessionUseCase, nil
}

// LoginUseCase returns the login use case.
func (c *Container) LoginUseCase() (securityUseCase.LoginUseCase, error) {
	var err error
	c.security.loginUseCaseInit.Do(func() {
		c.security.loginUseCase, err = c.initLoginUseCase()
		if err != nil {
			c.initErrors["loginUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["loginUseCase"]; exists {
		return nil, storedErr
	}
	return c.security.loginUseCase, nil
}

// initSessionRepository creates the session repository based on the database driver.
func (c *Container) initSessionRepository() (securityUseCase.SessionRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for session repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return securityRepository.NewPostgreSQLSessionRepository(db), nil
	case "mysql":
		return securityRepository.NewMySQLSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSecurityEventRepository creates the security event repository based on the database driver.
func (c *Container) initSecurityEventRepository() (securityUseCase.SecurityEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for security event repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return securityRepository.NewPostgreSQLSecurityEventRepository(db), nil
	case "mysql":
		return securityRepository.NewMySQLSecurityEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initUserSecurityRepository creates the user security repository based on the database driver.
func (c *Container) initUserSecurityRepository() (securityUseCase.UserSecurityRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user security repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return securityRepository.NewPostgreSQLUserSecurityRepository(db), nil
	case "mysql":
		return securityRepository.NewMySQLUserSecurityRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initMonitorUseCase creates the security event monitor with all its dependencies.
func (c *Container) initMonitorUseCase() (securityUseCase.MonitorUseCase, error) {
	eventRepo, err := c.SecurityEventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for monitor use case: %w", err)
	}

	userRepo, err := c.UserSecurityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user security repository for monitor use case: %w", err)
	}

	return securityUseCase.NewMonitorUseCase(
		eventRepo,
		userRepo,
		c.Logger(),
		c.config.SuspiciousWindow,
		c.config.SuspiciousThreshold,
	), nil
}

// initAccountLockUseCase creates the account lockout use case with all its dependencies.
func (c *Container) initAccountLockUseCase() (securityUseCase.AccountLockUseCase, error) {
	userRepo, err := c.UserSecurityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user security repository for lock use case: %w", err)
	}

	monitor, err := c.MonitorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor use case for lock use case: %w", err)
	}

	return securityUseCase.NewAccountLockUseCase(
		userRepo,
		monitor,
		c.Logger(),
		c.config.LockoutMaxAttempts,
		c.config.LockoutDuration,
		c.config.LockoutResetWindow,
	), nil
}

// initSessionUseCase creates the session management use case with all its dependencies.
func (c *Container) initSessionUseCase() (securityUseCase.SessionUseCase, error) {
	sessionRepo, err := c.SessionRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get session repository for session use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for session use case: %w", err)
	}

	monitor, err := c.MonitorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor use case for session use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}

	useCase := securityUseCase.NewSessionUseCase(
		sessionRepo,
		txManager,
		monitor,
		c.Logger(),
		c.config.MaxSessionsPerUser,
		c.config.SessionInactivityWindow,
	)
	return securityUseCase.NewSessionUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initLoginUseCase creates the login use case with all its dependencies.
func (c *Container) initLoginUseCase() (securityUseCase.LoginUseCase, error) {
	userRepo, err := c.UserSecurityRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user security repository for login use case: %w", err)
	}

	lock, err := c.AccountLockUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get lock use case for login use case: %w", err)
	}

	monitor, err := c.MonitorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get monitor use case for login use case: %w", err)
	}

	session, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for login use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for login use case: %w", err)
	}

	useCase := securityUseCase.NewLoginUseCase(
		userRepo,
		lock,
		monitor,
		session,
		c.PasswordService(),
		c.Logger(),
	)
	return securityUseCase.NewLoginUseCaseWithMetrics(useCase, businessMetrics), nil
}
