package utils_test

import (
	"testing"
	"time"

	"lms/models"
	"lms/models/commerce"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgePasswordResets(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	now := time.Now()
	used := now.Add(-time.Minute)

	resets := []models.PasswordReset{
		{UserID: user.ID, TokenHash: utils.HashToken("live"), ExpiresAt: now.Add(time.Hour)},
		{UserID: user.ID, TokenHash: utils.HashToken("expired"), ExpiresAt: now.Add(-time.Hour)},
		{UserID: user.ID, TokenHash: utils.HashToken("used"), ExpiresAt: now.Add(time.Hour), UsedAt: &used},
	}
	require.NoError(t, env.DB.Create(&resets).Error)

	n, err := utils.PurgePasswordResets(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left []models.PasswordReset
	require.NoError(t, env.DB.Unscoped().Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, utils.HashToken("live"), left[0].TokenHash)
}

func TestPurgeSessions(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	now := time.Now()
	recentlyRevoked := now.Add(-time.Hour)
	longRevoked := now.Add(-48 * time.Hour)

	sessions := []models.Session{
		{SessionID: uuid.NewString(), UserID: user.ID, ExpiresAt: now.Add(time.Hour)},
		{SessionID: uuid.NewString(), UserID: user.ID, ExpiresAt: now.Add(-72 * time.Hour)},
		{SessionID: uuid.NewString(), UserID: user.ID, ExpiresAt: now.Add(time.Hour), RevokedAt: &recentlyRevoked},
		{SessionID: uuid.NewString(), UserID: user.ID, ExpiresAt: now.Add(time.Hour), RevokedAt: &longRevoked},
	}
	require.NoError(t, env.DB.Create(&sessions).Error)

	n, err := utils.PurgeSessions(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int64
	env.DB.Unscoped().Model(&models.Session{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestCancelStaleOrders(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	now := time.Now()

	orders := []commerce.Order{
		{OrderNumber: "ORD-1", UserID: user.ID, Status: commerce.OrderPending, Currency: "USD"},
		{OrderNumber: "ORD-2", UserID: user.ID, Status: commerce.OrderPending, Currency: "USD"},
		{OrderNumber: "ORD-3", UserID: user.ID, Status: commerce.OrderPaid, Currency: "USD"},
	}
	orders[1].CreatedAt = now.Add(-48 * time.Hour)
	orders[2].CreatedAt = now.Add(-48 * time.Hour)
	require.NoError(t, env.DB.Create(&orders).Error)

	n, err := utils.CancelStaleOrders(now, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var stale, paid commerce.Order
	require.NoError(t, env.DB.Where("order_number = ?", "ORD-2").First(&stale).Error)
	require.NoError(t, env.DB.Where("order_number = ?", "ORD-3").First(&paid).Error)
	assert.Equal(t, commerce.OrderCancelled, stale.Status)
	assert.Equal(t, commerce.OrderPaid, paid.Status)
}

func TestExpireCertificates(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	course, _ := env.SeedCourse(testutil.CourseOptions{Title: "Go"})
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	issuances := []courseModels.CertificateIssuance{
		{UserID: user.ID, CourseID: course.ID, CertificateNumber: "CERT-A", TokenHash: "a", Status: courseModels.IssuanceActive, IssuedAt: now, ExpiresAt: &past},
		{UserID: user.ID, CourseID: course.ID, CertificateNumber: "CERT-B", TokenHash: "b", Status: courseModels.IssuanceActive, IssuedAt: now, ExpiresAt: &future},
		{UserID: user.ID, CourseID: course.ID, CertificateNumber: "CERT-C", TokenHash: "c", Status: courseModels.IssuanceActive, IssuedAt: now},
		{UserID: user.ID, CourseID: course.ID, CertificateNumber: "CERT-D", TokenHash: "d", Status: courseModels.IssuanceRevoked, IssuedAt: now, ExpiresAt: &past},
	}
	require.NoError(t, env.DB.Create(&issuances).Error)

	n, err := utils.ExpireCertificates(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var expired courseModels.CertificateIssuance
	require.NoError(t, env.DB.Where("certificate_number = ?", "CERT-A").First(&expired).Error)
	assert.Equal(t, courseModels.IssuanceExpired, expired.Status)
}

func TestRunMaintenance(t *testing.T) {
	env := testutil.Setup(t)
	user := env.CreateUser("Ada", "ada@example.com", models.RoleUser)
	require.NoError(t, env.DB.Create(&models.PasswordReset{
		UserID: user.ID, TokenHash: utils.HashToken("old"), ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	utils.RunMaintenance()

	var count int64
	env.DB.Unscoped().Model(&models.PasswordReset{}).Count(&count)
	assert.Zero(t, count)
}
