package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"financial-hub/internal/auth"
	"financial-hub/internal/domain"
	"financial-hub/internal/export"
	"financial-hub/internal/finance"
	"financial-hub/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	accounts  service.AccountService
	exports   export.Service
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logrus.Logger
}

func NewHandler(users service.UserService, accounts service.AccountService, exports export.Service, jwtSecret string, tokenTTL time.Duration, logger *logrus.Logger) *Handler {
	return &Handler{
		users:     users,
		accounts:  accounts,
		exports:   exports,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Financial Hub API is running"})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
		}

		protected := api.Group("")
		protected.Use(h.authRequired())
		{
			protected.GET("/accounts", h.listAccounts)
			protected.POST("/accounts", h.createAccount)
			protected.GET("/accounts/:id", h.getAccount)
			protected.PUT("/accounts/:id", h.updateAccount)
			protected.DELETE("/accounts/:id", h.deleteAccount)

			protected.POST("/accounts/:id/entries", h.createEntry)
			protected.PUT("/accounts/:id/entries/:entryId", h.updateEntry)
			protected.DELETE("/accounts/:id/entries/:entryId", h.deleteEntry)

			protected.POST("/export", h.createExport)
			protected.GET("/export", h.listExports)
			protected.DELETE("/export", h.purgeExports)
		}
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountRequest struct {
	Name string `json:"name"`
}

type entryRequest struct {
	EntryDate   string   `json:"entry_date"`
	Cash        *float64 `json:"cash"`
	Investments *float64 `json:"investments"`
	Debt        *float64 `json:"debt"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   token,
		"user":    userToResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userToResponse(user),
	})
}

func (h *Handler) listAccounts(c *gin.Context) {
	userID := currentUserID(c)

	summaries, err := h.accounts.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]AccountSummaryResponse, len(summaries))
	for i := range summaries {
		resp[i] = summaryToResponse(summaries[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getAccount(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.accounts.GetAccount(c.Request.Context(), accountID, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, detailToResponse(*detail))
}

func (h *Handler) createAccount(c *gin.Context) {
	userID := currentUserID(c)

	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account name is required"})
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, accountToResponse(*account))
}

func (h *Handler) updateAccount(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account name is required"})
		return
	}

	account, err := h.accounts.RenameAccount(c.Request.Context(), accountID, userID, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountToResponse(*account))
}

func (h *Handler) deleteAccount(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), accountID, userID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

func (h *Handler) createEntry(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry date is required"})
		return
	}

	entry, err := h.accounts.AddEntry(c.Request.Context(), accountID, userID, service.EntryInput{
		EntryDate:   req.EntryDate,
		Cash:        req.Cash,
		Investments: req.Investments,
		Debt:        req.Debt,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entryToResponse(*entry))
}

func (h *Handler) updateEntry(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	var req entryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry date is required"})
		return
	}

	entry, err := h.accounts.UpdateEntry(c.Request.Context(), entryID, accountID, userID, service.EntryInput{
		EntryDate:   req.EntryDate,
		Cash:        req.Cash,
		Investments: req.Investments,
		Debt:        req.Debt,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entryToResponse(*entry))
}

func (h *Handler) deleteEntry(c *gin.Context) {
	userID := currentUserID(c)
	accountID, ok := pathID(c, "id")
	if !ok {
		return
	}
	entryID, ok := pathID(c, "entryId")
	if !ok {
		return
	}

	if err := h.accounts.DeleteEntry(c.Request.Context(), entryID, accountID, userID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted successfully"})
}

func (h *Handler) createExport(c *gin.Context) {
	userID := currentUserID(c)
	username := currentUsername(c)

	location, err := h.exports.Export(c.Request.Context(), &domain.User{ID: userID, Username: username})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"location": location})
}

func (h *Handler) listExports(c *gin.Context) {
	userID := currentUserID(c)

	objects, err := h.exports.List(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ExportObjectResponse, len(objects))
	for i := range objects {
		resp[i] = ExportObjectResponse{
			Key:  objects[i].Key,
			Size: objects[i].Size,
		}
		if objects[i].LastModified != nil && !objects[i].LastModified.IsZero() {
			v := objects[i].LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) purgeExports(c *gin.Context) {
	userID := currentUserID(c)

	if err := h.exports.Purge(c.Request.Context(), userID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Exports deleted successfully"})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
	case errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, service.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case errors.Is(err, export.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	if h.logger != nil {
		h.logger.WithField("request_id", requestID(c)).Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type AccountResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type EntryResponse struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	EntryDate   string  `json:"entry_date"`
	Cash        float64 `json:"cash"`
	Investments float64 `json:"investments"`
	Debt        float64 `json:"debt"`
	CreatedAt   string  `json:"created_at"`
}

type AccountSummaryResponse struct {
	AccountResponse
	LatestEntry *EntryResponse `json:"latestEntry"`
	NetWorth    float64        `json:"netWorth"`
}

type AccountDetailResponse struct {
	AccountResponse
	Entries       []EntryResponse `json:"entries"`
	NetWorth      float64         `json:"netWorth"`
	ChangePercent *float64        `json:"changePercent,omitempty"`
}

type ExportObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
	}
}

func accountToResponse(account domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		UserID:    account.UserID,
		Name:      account.Name,
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}

func entryToResponse(entry domain.AccountEntry) EntryResponse {
	return EntryResponse{
		ID:          entry.ID,
		AccountID:   entry.AccountID,
		EntryDate:   entry.EntryDate,
		Cash:        entry.Cash,
		Investments: entry.Investments,
		Debt:        entry.Debt,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	}
}

func summaryToResponse(summary domain.AccountSummary) AccountSummaryResponse {
	resp := AccountSummaryResponse{
		AccountResponse: accountToResponse(summary.Account),
	}
	if summary.LatestEntry != nil {
		entry := entryToResponse(*summary.LatestEntry)
		resp.LatestEntry = &entry
		resp.NetWorth = finance.NetWorth(*summary.LatestEntry)
	}
	return resp
}

func detailToResponse(detail domain.AccountDetail) AccountDetailResponse {
	resp := AccountDetailResponse{
		AccountResponse: accountToResponse(detail.Account),
		Entries:         make([]EntryResponse, len(detail.Entries)),
	}
	for i := range detail.Entries {
		resp.Entries[i] = entryToResponse(detail.Entries[i])
	}
	if latest := finance.LatestEntry(detail.Entries); latest != nil {
		resp.NetWorth = finance.NetWorth(*latest)
	}
	if change, ok := finance.PercentChange(detail.Entries); ok {
		resp.ChangePercent = &change
	}
	return resp
}
