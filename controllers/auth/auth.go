package authController

import (
	"errors"
	"strings"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.RegisterRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		logger.Log.Error().Err(err).Msg("email lookup failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		logger.Log.Error().Err(err).Msg("error hashing password")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	if err := db.Create(&newUser).Error; err != nil {
		logger.Log.Error().Err(err).Str("email", reqData.Email).Msg("error saving user")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	utils.SendWelcomeEmail(newUser.Email, newUser.Name)
	utils.PublishEvent(utils.EventUserRegistered, newUser.ID, fiber.Map{"user_id": newUser.ID, "email": newUser.Email})

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	cfg := config.AppConfig
	now := time.Now()

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error().Err(err).Msg("user lookup failed")
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	ip := clientIP(c)
	userAgent := c.Get(fiber.HeaderUserAgent)

	if user.IsLocked(now) {
		recordLogin(user.ID, ip, userAgent, false)
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily locked. Try again later.", nil)
	}

	lockout := time.Duration(cfg.LockoutMinutes) * time.Minute

	// Old failures no longer count towards a lockout
	if user.LastFailedLogin != nil && now.Sub(*user.LastFailedLogin) > lockout {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		user.FailedLoginAttempts++
		user.LastFailedLogin = &now

		message := "Invalid credentials!"
		updates := map[string]interface{}{
			"failed_login_attempts": user.FailedLoginAttempts,
			"last_failed_login":     now,
		}
		if user.FailedLoginAttempts >= cfg.MaxLoginAttempts {
			lockedUntil := now.Add(lockout)
			updates["locked_until"] = lockedUntil
			message = "Too many failed attempts. Your account is temporarily locked."
			logger.Log.Warn().Uint("user_id", user.ID).Time("locked_until", lockedUntil).Msg("account locked")
		}

		if err := db.Model(&user).Updates(updates).Error; err != nil {
			logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("error saving failed login")
		}
		recordLogin(user.ID, ip, userAgent, false)

		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, message, nil)
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"last_failed_login":     nil,
		"locked_until":          nil,
		"last_login":            now,
	}).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("error saving last login time")
	}

	session := models.Session{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(time.Duration(cfg.TokenTTLHours) * time.Hour),
	}
	if err := db.Create(&session).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("error creating session")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}

	token, err := middleware.GenerateJWT(user, session.SessionID, session.ExpiresAt)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to sign token")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	recordLogin(user.ID, ip, userAgent, true)
	logger.Log.Info().Uint("user_id", user.ID).Str("ip", ip).Msg("user logged in")

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":       user,
		"token":      token,
		"expires_at": session.ExpiresAt,
	})
}

func Logout(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("sessionId").(string)
	if sessionID == "" {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	if err := database.Database.Db.Model(&models.Session{}).
		Where("session_id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", time.Now()).Error; err != nil {
		logger.Log.Error().Err(err).Msg("error revoking session")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to logout!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully.", nil)
}

func ForgotPassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedForgot").(*authValidator.ForgotPasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Same answer whether or not the account exists
	const message = "If the email is registered, a password reset link has been sent."

	db := database.Database.Db
	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error().Err(err).Msg("user lookup failed")
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, message, nil)
	}

	rawToken, err := utils.GenerateSecureToken(32)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to generate reset token")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	now := time.Now()
	ttl := time.Duration(config.AppConfig.PasswordResetTTLMinutes) * time.Minute

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordReset{}).
			Where("user_id = ? AND used_at IS NULL", user.ID).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordReset{
			UserID:    user.ID,
			TokenHash: utils.HashToken(rawToken),
			ExpiresAt: now.Add(ttl),
		}).Error
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to store password reset")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	link := config.AppConfig.AppURL + "/reset-password?token=" + rawToken
	utils.SendPasswordResetEmail(user.Email, user.Name, link, ttl)

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, nil)
}

func ResetPassword(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedReset").(*authValidator.ResetPasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	now := time.Now()

	var reset models.PasswordReset
	if err := db.Where("token_hash = ?", utils.HashToken(reqData.Token)).First(&reset).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset token!", nil)
	}
	if !reset.Usable(now) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset token!", nil)
	}

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", reset.UserID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid or expired reset token!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		logger.Log.Error().Err(err).Msg("error hashing password")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password":              string(hashedPassword),
			"failed_login_attempts": 0,
			"last_failed_login":     nil,
			"locked_until":          nil,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&reset).Update("used_at", now).Error; err != nil {
			return err
		}
		return revokeSessions(tx, user.ID, "", now)
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("password reset failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reset password!", nil)
	}

	utils.SendPasswordChangedEmail(user.Email, user.Name)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password has been reset. Please login again.", nil)
}

func ChangePassword(c *fiber.Ctx) error {
	userId, ok := middleware.CurrentUserID(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	sessionID, _ := c.Locals("sessionId").(string)

	reqData, ok := c.Locals("validatedPasswordChange").(*authValidator.ChangePasswordRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userId, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.CurrentPassword)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Current password is incorrect!", nil)
	}
	if reqData.CurrentPassword == reqData.NewPassword {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "New password must be different from the current password!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.NewPassword), config.AppConfig.SaltRound)
	if err != nil {
		logger.Log.Error().Err(err).Msg("error hashing password")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
			return err
		}
		return revokeSessions(tx, user.ID, sessionID, time.Now())
	})
	if err != nil {
		logger.Log.Error().Err(err).Uint("user_id", user.ID).Msg("password change failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to change password!", nil)
	}

	utils.SendPasswordChangedEmail(user.Email, user.Name)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Password changed successfully.", nil)
}

// revokeSessions revokes the user's live sessions except keepSessionID.
func revokeSessions(tx *gorm.DB, userID uint, keepSessionID string, now time.Time) error {
	q := tx.Model(&models.Session{}).Where("user_id = ? AND revoked_at IS NULL", userID)
	if keepSessionID != "" {
		q = q.Where("session_id <> ?", keepSessionID)
	}
	return q.Update("revoked_at", now).Error
}

func recordLogin(userID uint, ip, device string, success bool) {
	entry := models.LoginHistory{
		UserID:    userID,
		IPAddress: ip,
		Device:    device,
		Success:   success,
		Timestamp: time.Now(),
	}
	if err := database.Database.Db.Create(&entry).Error; err != nil {
		logger.Log.Error().Err(err).Uint("user_id", userID).Msg("error saving login history")
	}
}

func clientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return c.IP()
}
