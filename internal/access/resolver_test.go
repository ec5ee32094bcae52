package access_test

import (
	"errors"
	"testing"

	"civicchat/backend/internal/access"
	"civicchat/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectory) FindActiveAdminByWard(wardID uint) (*models.User, error) {
	args := m.Called(wardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectory) FindActiveAdminByZone(zoneID uint) (*models.User, error) {
	args := m.Called(zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func uintPtr(v uint) *uint { return &v }

func citizenWith(ward, zone *uint, ccCode string) *models.User {
	u := &models.User{
		Role:                models.RoleCitizen,
		WardID:              ward,
		ZoneID:              zone,
		CityCorporationCode: ccCode,
	}
	u.ID = 42
	return u
}

// TestResolve_WardAdminWinsOverZone verifies the priority order: an active
// ward ADMIN is returned even when an active zone SUPER_ADMIN exists too.
func TestResolve_WardAdminWinsOverZone(t *testing.T) {
	// Arrange
	dir := new(MockDirectory)
	citizen := citizenWith(uintPtr(7), uintPtr(3), "DSCC")
	wardAdmin := &models.User{Role: models.RoleAdmin, Status: models.StatusActive, WardID: uintPtr(7)}
	wardAdmin.ID = 100

	dir.On("GetUserByID", uint(42)).Return(citizen, nil)
	dir.On("FindActiveAdminByWard", uint(7)).Return(wardAdmin, nil)

	// Act
	got, err := access.NewResolver(dir).Resolve(42)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, wardAdmin, got)
	dir.AssertNotCalled(t, "FindActiveAdminByZone", mock.Anything)
}

// TestResolve_FallsBackToZoneSuperAdmin covers a ward with no active admin:
// resolution must continue to the zone level.
func TestResolve_FallsBackToZoneSuperAdmin(t *testing.T) {
	// Arrange
	dir := new(MockDirectory)
	citizen := citizenWith(uintPtr(9), uintPtr(3), "DSCC")
	superAdmin := &models.User{Role: models.RoleSuperAdmin, Status: models.StatusActive, ZoneID: uintPtr(3)}
	superAdmin.ID = 200

	dir.On("GetUserByID", uint(42)).Return(citizen, nil)
	dir.On("FindActiveAdminByWard", uint(9)).Return(nil, nil)
	dir.On("FindActiveAdminByZone", uint(3)).Return(superAdmin, nil)

	// Act
	got, err := access.NewResolver(dir).Resolve(42)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, superAdmin, got)
}

// TestResolve_NoMatchIsNotAnError: neither level staffed -> (nil, nil).
func TestResolve_NoMatchIsNotAnError(t *testing.T) {
	dir := new(MockDirectory)
	citizen := citizenWith(uintPtr(9), uintPtr(3), "DSCC")

	dir.On("GetUserByID", uint(42)).Return(citizen, nil)
	dir.On("FindActiveAdminByWard", uint(9)).Return(nil, nil)
	dir.On("FindActiveAdminByZone", uint(3)).Return(nil, nil)

	got, err := access.NewResolver(dir).Resolve(42)

	assert.NoError(t, err)
	assert.Nil(t, got, "unstaffed geography must resolve to NONE, not an error")
}

// TestResolve_ZoneOnlyCitizen: a citizen without a ward goes straight to
// the zone lookup.
func TestResolve_ZoneOnlyCitizen(t *testing.T) {
	dir := new(MockDirectory)
	citizen := citizenWith(nil, uintPtr(5), "DNCC")
	superAdmin := &models.User{Role: models.RoleSuperAdmin, Status: models.StatusActive, ZoneID: uintPtr(5)}

	dir.On("GetUserByID", uint(42)).Return(citizen, nil)
	dir.On("FindActiveAdminByZone", uint(5)).Return(superAdmin, nil)

	got, err := access.NewResolver(dir).Resolve(42)

	assert.NoError(t, err)
	assert.Equal(t, superAdmin, got)
	dir.AssertNotCalled(t, "FindActiveAdminByWard", mock.Anything)
}

func TestResolve_UserMissing(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("GetUserByID", uint(42)).Return(nil, nil)

	got, err := access.NewResolver(dir).Resolve(42)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, access.ErrUserNotFound)
}

func TestResolve_NoGeographyAtAll(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("GetUserByID", uint(42)).Return(citizenWith(nil, nil, "DSCC"), nil)

	got, err := access.NewResolver(dir).Resolve(42)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, access.ErrNoAssignment)
}

func TestResolve_DirectoryFailurePropagates(t *testing.T) {
	dir := new(MockDirectory)
	boom := errors.New("connection refused")
	dir.On("GetUserByID", uint(42)).Return(nil, boom)

	_, err := access.NewResolver(dir).Resolve(42)

	assert.ErrorIs(t, err, boom)
}

// TestCheckAccess_Matrix exercises the role/geography authorization table,
// including the asymmetry between MASTER_ADMIN (city-wide reach) and ADMIN
// (exact ward only, even when zones coincide).
func TestCheckAccess_Matrix(t *testing.T) {
	tests := []struct {
		name    string
		admin   *models.User
		citizen *models.User
		want    bool
	}{
		{
			name:    "master admin reaches any citizen of their corporation",
			admin:   &models.User{Role: models.RoleMasterAdmin, CityCorporationCode: "DSCC"},
			citizen: citizenWith(uintPtr(12), uintPtr(8), "DSCC"),
			want:    true,
		},
		{
			name:    "master admin blocked across corporations",
			admin:   &models.User{Role: models.RoleMasterAdmin, CityCorporationCode: "DSCC"},
			citizen: citizenWith(uintPtr(12), uintPtr(8), "DNCC"),
			want:    false,
		},
		{
			name:    "ward admin blocked on neighbouring ward despite shared zone",
			admin:   &models.User{Role: models.RoleAdmin, WardID: uintPtr(5), ZoneID: uintPtr(3)},
			citizen: citizenWith(uintPtr(6), uintPtr(3), "DSCC"),
			want:    false,
		},
		{
			name:    "ward admin allowed on exact ward",
			admin:   &models.User{Role: models.RoleAdmin, WardID: uintPtr(5)},
			citizen: citizenWith(uintPtr(5), uintPtr(3), "DSCC"),
			want:    true,
		},
		{
			name:    "super admin matches on zone",
			admin:   &models.User{Role: models.RoleSuperAdmin, ZoneID: uintPtr(3)},
			citizen: citizenWith(uintPtr(6), uintPtr(3), "DSCC"),
			want:    true,
		},
		{
			name:    "super admin without zone never matches",
			admin:   &models.User{Role: models.RoleSuperAdmin},
			citizen: citizenWith(uintPtr(6), uintPtr(3), "DSCC"),
			want:    false,
		},
		{
			name:    "citizen role is never authorized",
			admin:   citizenWith(uintPtr(5), uintPtr(3), "DSCC"),
			citizen: citizenWith(uintPtr(5), uintPtr(3), "DSCC"),
			want:    false,
		},
		{
			name:    "master admin with empty code matches nothing",
			admin:   &models.User{Role: models.RoleMasterAdmin},
			citizen: citizenWith(uintPtr(5), uintPtr(3), ""),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, access.CheckAccess(tt.admin, tt.citizen))
		})
	}
}

func TestCheckAccess_NilActors(t *testing.T) {
	admin := &models.User{Role: models.RoleAdmin, WardID: uintPtr(1)}
	assert.False(t, access.CheckAccess(nil, citizenWith(uintPtr(1), nil, "")))
	assert.False(t, access.CheckAccess(admin, nil))
}
