package department_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-hrpay/internal/department"
	mock_department "go-hrpay/internal/department/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type departmentServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service department.Service
	repo    *mock_department.MockRepository
}

func setupDepartmentServiceTest(t *testing.T) *departmentServiceDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := mock_department.NewMockRepository(ctrl)
	svc := department.NewService(db, repo)

	return &departmentServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestDepartmentService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		req := department.CreateDepartmentRequest{
			Name:        "Engineering",
			Description: "Product engineering",
		}

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().
			WithTx(gomock.Any()).
			Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, d *department.Department) error {
				assert.Equal(t, req.Name, d.Name)
				assert.Equal(t, companyID, d.CompanyID.String())
				return nil
			})

		resp, err := deps.service.Create(ctx, companyID, req)

		assert.NoError(t, err)
		assert.Equal(t, "Engineering", resp.Name)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("repository error rolls back", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().
			WithTx(gomock.Any()).
			Return(deps.repo)
		deps.repo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(errors.New("insert failed"))

		_, err := deps.service.Create(ctx, companyID, department.CreateDepartmentRequest{Name: "HR"})

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestDepartmentService_GetByID(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	deptID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		deps.repo.EXPECT().
			FindByIDAndCompany(ctx, companyID, deptID.String()).
			Return(&department.Department{
				ID:        deptID,
				CompanyID: uuid.MustParse(companyID),
				Name:      "Finance",
			}, nil)

		resp, err := deps.service.GetByID(ctx, companyID, deptID.String())

		assert.NoError(t, err)
		assert.Equal(t, "Finance", resp.Name)
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		deps.repo.EXPECT().
			FindByIDAndCompany(ctx, companyID, deptID.String()).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, companyID, deptID.String())

		assert.ErrorIs(t, err, department.ErrDepartmentNotFound)
	})
}

func TestDepartmentService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	deptID := uuid.New()

	deps := setupDepartmentServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)
	deps.repo.EXPECT().
		WithTx(gomock.Any()).
		Return(deps.repo)
	deps.repo.EXPECT().
		FindByIDAndCompany(ctx, companyID, deptID.String()).
		Return(&department.Department{
			ID:        deptID,
			CompanyID: uuid.MustParse(companyID),
			Name:      "Old Name",
		}, nil)
	deps.repo.EXPECT().
		Update(ctx, gomock.Any()).
		DoAndReturn(func(ctx context.Context, d *department.Department) error {
			assert.Equal(t, "New Name", d.Name)
			return nil
		})

	resp, err := deps.service.Update(ctx, companyID, deptID.String(), department.UpdateDepartmentRequest{Name: "New Name"})

	assert.NoError(t, err)
	assert.Equal(t, "New Name", resp.Name)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestDepartmentService_Delete(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	deptID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.EXPECT().
			WithTx(gomock.Any()).
			Return(deps.repo)
		deps.repo.EXPECT().
			FindByIDAndCompany(ctx, companyID, deptID.String()).
			Return(&department.Department{ID: deptID}, nil)
		deps.repo.EXPECT().
			Delete(ctx, companyID, deptID.String()).
			Return(nil)

		err := deps.service.Delete(ctx, companyID, deptID.String())

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		deps := setupDepartmentServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.EXPECT().
			WithTx(gomock.Any()).
			Return(deps.repo)
		deps.repo.EXPECT().
			FindByIDAndCompany(ctx, companyID, deptID.String()).
			Return(nil, gorm.ErrRecordNotFound)

		err := deps.service.Delete(ctx, companyID, deptID.String())

		assert.ErrorIs(t, err, department.ErrDepartmentNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
