package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuleni/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrUsernameExists     = errors.New("an account with this username already exists")

	// burnt when the username lookup misses so login timing does not
	// leak account existence
	dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shule.core.user.nosuchaccount"), bcrypt.DefaultCost)
)

type (
	// Repository abstracts the credential store: the `students` and
	// `admins` tables, selected by role.
	Repository interface {
		GetAccountByUsername(ctx context.Context, role, username string) (Account, error)
		GetAccountByID(ctx context.Context, role string, id int) (Account, error)
		CreateAdmin(ctx context.Context, acct Account) (Account, error)
		UpdateAccountPassword(ctx context.Context, acct Account) error
		SetLastLogin(ctx context.Context, acct Account) (Account, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies the credentials against the claimed role's table.
// An unknown username, a wrong password and a role mismatch are
// indistinguishable to the caller: all return ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, username, password, role string) (Account, error) {
	if !ValidRole(role) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return Account{}, ErrInvalidCredentials
	}

	acct, err := svc.repo.GetAccountByUsername(ctx, role, core.CleanString(username, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, errors.Wrap(err, "finding account by username")
	}
	if err = acct.CheckPassword(password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	if !acct.IsActive {
		return Account{}, ErrAccountDeactivated
	}

	acct, err = svc.repo.SetLastLogin(ctx, acct)
	if err != nil {
		return Account{}, errors.Wrap(err, "setting lastLogin")
	}
	return acct, nil
}

func (svc *Service) GetByID(ctx context.Context, role string, id int) (Account, error) {
	if !ValidRole(role) {
		return Account{}, ErrNotFound
	}
	return svc.repo.GetAccountByID(ctx, role, id)
}

func (svc *Service) CreateAdmin(ctx context.Context, na NewAdmin) (Account, error) {
	now := time.Now().UTC()
	acct := Account{
		Name:      na.Name,
		Username:  na.Username,
		Email:     na.Email,
		Role:      RoleAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	return svc.repo.CreateAdmin(ctx, acct)
}

// ResetPassword sets a new password on the account matching role+username.
func (svc *Service) ResetPassword(ctx context.Context, role, username, password string) error {
	if !ValidRole(role) {
		return ErrNotFound
	}
	acct, err := svc.repo.GetAccountByUsername(ctx, role, core.CleanString(username, true /* lower */))
	if err != nil {
		return err
	}
	if err := acct.SetPassword(password); err != nil {
		return err
	}
	return svc.repo.UpdateAccountPassword(ctx, acct)
}

func (svc *Service) checkUsernameUniqueness(username string) error {
	_, err := svc.repo.GetAccountByUsername(context.Background(), RoleAdmin, username)
	if err == nil {
		return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	if errors.Cause(err) == ErrNotFound {
		return nil
	}
	return err
}
