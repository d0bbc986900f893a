package user_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleni/shule/core"
	"github.com/shuleni/shule/core/student"
	"github.com/shuleni/shule/core/user"
	"github.com/shuleni/shule/storage/database/dummy"
)

func TestMain(m *testing.M) {
	core.Conf = &core.Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "Shule",
	}
	core.InitValidators()
	os.Exit(m.Run())
}

func newSvc(t *testing.T) (*user.Service, *dummy.Repository) {
	t.Helper()
	repo := dummy.NewRepository()
	return user.NewService(repo), repo
}

func seedStudent(t *testing.T, repo *dummy.Repository, name, uname, pwd string, active bool) student.Student {
	t.Helper()
	stuSvc := student.NewService(repo, nil)
	stu, err := stuSvc.Create(context.Background(), student.NewStudent{
		Name:     name,
		Username: uname,
		Password: pwd,
	})
	require.NoError(t, err)
	if !active {
		stu.IsActive = false
		stu, err = repo.UpdateStudent(context.Background(), stu)
		require.NoError(t, err)
	}
	return stu
}

func Test_Service_Authenticate(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()

	stu := seedStudent(t, repo, "Asha Mwangi", "asha", "Sup3rS3cret", true)
	seedStudent(t, repo, "Zuri Deactivated", "zuri", "Sup3rS3cret", false)

	admin, err := svc.CreateAdmin(ctx, user.NewAdmin{
		Name:            "Head Master",
		Username:        "headmaster",
		Password:        "Sup3rS3cret",
		PasswordConfirm: "Sup3rS3cret",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		role     string
		wantID   int
		wantErr  error
	}{
		{name: "student ok", username: "asha", password: "Sup3rS3cret", role: user.RoleStudent, wantID: stu.ID},
		{name: "admin ok", username: "headmaster", password: "Sup3rS3cret", role: user.RoleAdmin, wantID: admin.ID},
		{name: "username cleaned and lowered", username: "  ASHA ", password: "Sup3rS3cret", role: user.RoleStudent, wantID: stu.ID},
		{name: "wrong password", username: "asha", password: "wr0ng", role: user.RoleStudent, wantErr: user.ErrInvalidCredentials},
		{name: "unknown username", username: "nobody", password: "Sup3rS3cret", role: user.RoleStudent, wantErr: user.ErrInvalidCredentials},
		{name: "role mismatch: student in admins", username: "asha", password: "Sup3rS3cret", role: user.RoleAdmin, wantErr: user.ErrInvalidCredentials},
		{name: "role mismatch: admin in students", username: "headmaster", password: "Sup3rS3cret", role: user.RoleStudent, wantErr: user.ErrInvalidCredentials},
		{name: "invalid role", username: "asha", password: "Sup3rS3cret", role: "teacher", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", username: "zuri", password: "Sup3rS3cret", role: user.RoleStudent, wantErr: user.ErrAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct, err := svc.Authenticate(ctx, tt.username, tt.password, tt.role)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, acct.ID)
			assert.Equal(t, tt.role, acct.Role)
			assert.False(t, acct.LastLogin.IsZero(), "LastLogin should be set")
		})
	}

	t.Run("last login is persisted for students too", func(t *testing.T) {
		acct, err := repo.GetAccountByID(ctx, user.RoleStudent, stu.ID)
		require.NoError(t, err)
		assert.False(t, acct.LastLogin.IsZero(), "student LastLogin should survive a reload")
	})
}

func Test_Service_CreateAdmin(t *testing.T) {
	svc, _ := newSvc(t)
	ctx := context.Background()

	na := user.NewAdmin{
		Name:            "Head Master",
		Username:        "headmaster",
		Email:           "hm@shule.test",
		Password:        "Sup3rS3cret",
		PasswordConfirm: "Sup3rS3cret",
	}
	require.NoError(t, na.Validate(svc))

	acct, err := svc.CreateAdmin(ctx, na)
	require.NoError(t, err)
	assert.True(t, acct.IsAdmin())
	assert.True(t, acct.IsActive)
	assert.NoError(t, acct.CheckPassword("Sup3rS3cret"))

	t.Run("duplicate username rejected", func(t *testing.T) {
		dup := user.NewAdmin{
			Name:            "Other",
			Username:        "headmaster",
			Password:        "Sup3rS3cret",
			PasswordConfirm: "Sup3rS3cret",
		}
		err := dup.Validate(svc)
		require.Error(t, err)
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, user.ErrUsernameExists.Error(), verr.Error())
	})

	t.Run("password confirmation mismatch rejected", func(t *testing.T) {
		bad := user.NewAdmin{
			Name:            "Other",
			Username:        "otheradmin",
			Password:        "Sup3rS3cret",
			PasswordConfirm: "d1fferent",
		}
		assert.Error(t, bad.Validate(svc))
	})
}

func Test_Service_ResetPassword(t *testing.T) {
	svc, repo := newSvc(t)
	ctx := context.Background()

	stu := seedStudent(t, repo, "Asha Mwangi", "asha", "0r1ginalPwd", true)

	require.NoError(t, svc.ResetPassword(ctx, user.RoleStudent, "asha", "n3wPassw0rd"))

	acct, err := repo.GetAccountByID(ctx, user.RoleStudent, stu.ID)
	require.NoError(t, err)
	assert.NoError(t, acct.CheckPassword("n3wPassw0rd"))
	assert.Error(t, acct.CheckPassword("0r1ginalPwd"))

	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, user.RoleStudent, "nobody", "n3wPassw0rd"))
	assert.Equal(t, user.ErrNotFound, svc.ResetPassword(ctx, "teacher", "asha", "n3wPassw0rd"))
}
