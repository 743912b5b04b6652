package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/middleware"
	"github.com/cppla/winterarc/models"
	"github.com/cppla/winterarc/utils"
)

const (
	providerLocal     = "local"
	maxDisplayName    = 64
	minPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes
	maxPasswordLength = 72
)

// AuthController handles authentication related endpoints including local and third-party providers.
type AuthController struct {
	db *gorm.DB
	// oauthHTTP is used for provider user-info calls; tests may replace it.
	oauthHTTP *http.Client
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, oauthHTTP: &http.Client{Timeout: 10 * time.Second}}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Email       string `json:"email" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name" binding:"required"`
		AvatarURL   string `json:"avatar_url"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid email address")
		return
	}
	if l := len(req.Password); l < minPasswordLength || l > maxPasswordLength {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password must be 6-72 characters")
		return
	}
	displayName, ok := cleanDisplayName(req.DisplayName)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40002, "display name must be 1-64 characters")
		return
	}
	avatar, ok := cleanAvatarURL(req.AvatarURL)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40002, "avatar_url must be an http(s) url")
		return
	}

	// Anti-abuse: ban check, cooldown, per-IP daily limit
	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "registration temporarily blocked for this ip")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many attempts, retry later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("email = ? AND provider = ?", email, providerLocal).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	if count > 0 {
		utils.RegistrationFailRecord(ip)
		utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Provider:     providerLocal,
		ProviderID:   email,
		RegisterIP:   ip,
		DisplayName:  displayName,
		AvatarURL:    avatar,
	}
	if err := a.db.Create(&user).Error; err != nil {
		utils.RegistrationFailRecord(ip)
		// a concurrent registration won the race past the count check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	utils.RegistrationDailyIncrement(ip)
	utils.Sugar.Infof("user registered id=%d ip=%s", user.ID, ip)

	a.issueToken(ctx, user)
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	email, _ := normalizeEmail(req.Email)
	var user models.User
	if err := a.db.Where("email = ? AND provider = ?", email, providerLocal).First(&user).Error; err != nil {
		utils.BurnPasswordCheck(req.Password)
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	a.issueToken(ctx, user)
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	expiresAt := time.Now().Add(utils.TokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, userResponse(user))
}

// UpdateProfile allows the authenticated user to change display name and avatar.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req struct {
		DisplayName *string `json:"display_name"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		name, ok := cleanDisplayName(*req.DisplayName)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40031, "display name must be 1-64 characters")
			return
		}
		updates["display_name"] = name
	}
	if req.AvatarURL != nil {
		avatar, ok := cleanAvatarURL(*req.AvatarURL)
		if !ok {
			utils.Error(ctx, http.StatusBadRequest, 40032, "avatar_url must be an http(s) url")
			return
		}
		updates["avatar_url"] = avatar
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	if len(updates) > 0 {
		// coin and streak columns are owned by the progression engine and never touched here
		if err := a.db.Model(&user).Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
			return
		}
		if err := a.db.First(&user, userID).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to update profile")
			return
		}
	}
	utils.Success(ctx, userResponse(user))
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a user identity and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}
	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()
	reqCtx = context.WithValue(reqCtx, oauth2.HTTPClient, a.oauthHTTP)

	token, err := cfg.Exchange(reqCtx, code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}
	info, err := a.fetchOAuthUser(reqCtx, provider, cfg.Client(reqCtx, token))
	if err != nil {
		utils.Sugar.Warnf("oauth %s user info failed: %v", provider, err)
		utils.Error(ctx, http.StatusBadGateway, 50005, "failed to load provider profile")
		return
	}
	user, err := a.findOrCreateOAuthUser(provider, info)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to persist user")
		return
	}
	a.issueToken(ctx, *user)
}

func (a *AuthController) issueToken(ctx *gin.Context, user models.User) {
	token, err := utils.GenerateToken(user.ID, user.Email, utils.TokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type oauthUser struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

func (a *AuthController) fetchOAuthUser(ctx context.Context, provider string, client *http.Client) (*oauthUser, error) {
	switch provider {
	case "github":
		return fetchGitHubUser(ctx, client)
	case "google":
		return fetchGoogleUser(ctx, client)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func (a *AuthController) findOrCreateOAuthUser(provider string, data *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", provider, data.ID).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{"avatar_url": data.AvatarURL}
		if email, ok := normalizeEmail(data.Email); ok {
			updates["email"] = email
		}
		if err := a.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email, _ := normalizeEmail(data.Email)
	name, ok := cleanDisplayName(data.DisplayName)
	if !ok {
		name = fmt.Sprintf("%s user %s", provider, data.ID)
	}
	user = models.User{
		Email:       email,
		Provider:    provider,
		ProviderID:  data.ID,
		DisplayName: name,
		AvatarURL:   data.AvatarURL,
		RegisterIP:  "oauth",
	}
	if err := a.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func fetchGitHubUser(ctx context.Context, client *http.Client) (*oauthUser, error) {
	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &payload); err != nil {
		return nil, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	email := ""
	if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err == nil {
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
		if email == "" && len(emails) > 0 {
			email = emails[0].Email
		}
	}

	return &oauthUser{
		ID:          fmt.Sprintf("%d", payload.ID),
		DisplayName: fallback(payload.Name, payload.Login),
		Email:       email,
		AvatarURL:   payload.AvatarURL,
	}, nil
}

func fetchGoogleUser(ctx context.Context, client *http.Client) (*oauthUser, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &payload); err != nil {
		return nil, err
	}
	return &oauthUser{
		ID:          payload.ID,
		DisplayName: fallback(payload.Name, payload.Email),
		Email:       payload.Email,
		AvatarURL:   payload.Picture,
	}, nil
}

func fallback(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || len(email) > 255 {
		return "", false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

func cleanDisplayName(raw string) (string, bool) {
	name := utils.SanitizePlain(raw)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxDisplayName {
		return "", false
	}
	return name, true
}

func cleanAvatarURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", true
	}
	if len(u) > 512 || !(strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")) {
		return "", false
	}
	return u, true
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"provider":           user.Provider,
		"display_name":       user.DisplayName,
		"avatar_url":         user.AvatarURL,
		"total_coins":        user.TotalCoins,
		"current_streak":     user.CurrentStreak,
		"last_activity_date": user.LastActivityDate,
		"created_at":         user.CreatedAt,
	}
}
