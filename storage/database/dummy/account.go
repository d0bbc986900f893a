package dummy

import (
	"context"
	"time"

	"github.com/shuleni/shule/core/student"
	"github.com/shuleni/shule/core/user"
)

func studentAccount(stu student.Student) user.Account {
	return user.Account{
		ID:           stu.ID,
		Name:         stu.Name,
		Username:     stu.Username,
		Email:        stu.Email.String,
		Role:         user.RoleStudent,
		IsActive:     stu.IsActive,
		PasswordHash: stu.PasswordHash,
		CreatedAt:    stu.CreatedAt,
		UpdatedAt:    stu.UpdatedAt,
	}
}

func (repo *Repository) GetAccountByUsername(ctx context.Context, role, username string) (user.Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if role == user.RoleAdmin {
		for _, acct := range repo.admins {
			if acct.Username == username {
				return acct, nil
			}
		}
		return user.Account{}, user.ErrNotFound
	}
	for _, stu := range repo.students {
		if stu.Username == username {
			acct := studentAccount(stu)
			acct.LastLogin = repo.studentLastLogin[stu.ID]
			return acct, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *Repository) GetAccountByID(ctx context.Context, role string, id int) (user.Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if role == user.RoleAdmin {
		if acct, ok := repo.admins[id]; ok {
			return acct, nil
		}
		return user.Account{}, user.ErrNotFound
	}
	if stu, ok := repo.students[id]; ok {
		acct := studentAccount(stu)
		acct.LastLogin = repo.studentLastLogin[id]
		return acct, nil
	}
	return user.Account{}, user.ErrNotFound
}

func (repo *Repository) CreateAdmin(ctx context.Context, acct user.Account) (user.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acct.ID = repo.nextPK("admins")
	repo.admins[acct.ID] = acct
	return acct, nil
}

func (repo *Repository) UpdateAccountPassword(ctx context.Context, acct user.Account) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if acct.Role == user.RoleAdmin {
		stored, ok := repo.admins[acct.ID]
		if !ok {
			return user.ErrNotFound
		}
		stored.PasswordHash = acct.PasswordHash
		stored.UpdatedAt = time.Now().UTC()
		repo.admins[acct.ID] = stored
		return nil
	}

	stu, ok := repo.students[acct.ID]
	if !ok {
		return user.ErrNotFound
	}
	stu.PasswordHash = acct.PasswordHash
	stu.UpdatedAt = time.Now().UTC()
	repo.students[acct.ID] = stu
	return nil
}

func (repo *Repository) SetLastLogin(ctx context.Context, acct user.Account) (user.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acct.LastLogin = time.Now().UTC()
	if acct.Role == user.RoleAdmin {
		if stored, ok := repo.admins[acct.ID]; ok {
			stored.LastLogin = acct.LastLogin
			repo.admins[acct.ID] = stored
		}
		return acct, nil
	}
	if _, ok := repo.students[acct.ID]; ok {
		repo.studentLastLogin[acct.ID] = acct.LastLogin
	}
	return acct, nil
}
