package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jbarros93/dws-challenge/internal/accounts"
	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/shopspring/decimal"
)

// Handler contains all HTTP handlers
type Handler struct {
	service *accounts.Service
}

// NewHandler creates a new handler
func NewHandler(service *accounts.Service) *Handler {
	return &Handler{service: service}
}

// CreateAccountRequest is the request body for account creation
type CreateAccountRequest struct {
	AccountID string           `json:"accountId" binding:"required"`
	Balance   *decimal.Decimal `json:"balance" binding:"required"`
}

// AccountResponse renders a single account. Amounts go out as bare JSON
// numbers, never as quoted strings.
type AccountResponse struct {
	AccountID string      `json:"accountId"`
	Balance   json.Number `json:"balance"`
}

// ReceiptResponse renders a committed transfer
type ReceiptResponse struct {
	TransferID     string      `json:"transferId"`
	AccountFromID  string      `json:"accountFromId"`
	AccountToID    string      `json:"accountToId"`
	TransferAmount json.Number `json:"transferAmount"`
	FromBalance    json.Number `json:"accountFromBalance"`
	ToBalance      json.Number `json:"accountToBalance"`
}

// number renders d exactly as a JSON number literal.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func accountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{AccountID: account.ID(), Balance: number(account.Balance())}
}

// TransferRequest is the request body for transfer endpoint
type TransferRequest struct {
	AccountFromID  string           `json:"accountFromId" binding:"required"`
	AccountToID    string           `json:"accountToId" binding:"required"`
	TransferAmount *decimal.Decimal `json:"transferAmount" binding:"required"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// CreateAccount handles POST /v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	account, err := h.service.CreateAccount(c.Request.Context(), req.AccountID, *req.Balance)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, accountResponse(account))
}

// GetAccount handles GET /v1/accounts/:account_id
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.service.GetAccount(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountResponse(account))
}

// ListAccountsResponse is the response for the account listing
type ListAccountsResponse struct {
	Accounts     []AccountResponse `json:"accounts"`
	TotalBalance json.Number       `json:"totalBalance"`
	AccountCount int               `json:"accountCount"`
}

// ListAccounts handles GET /v1/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	all, err := h.service.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListAccountsResponse{
		Accounts:     make([]AccountResponse, 0, len(all)),
		AccountCount: len(all),
	}
	total := decimal.Zero
	for _, account := range all {
		balance := account.Balance()
		resp.Accounts = append(resp.Accounts, AccountResponse{AccountID: account.ID(), Balance: number(balance)})
		total = total.Add(balance)
	}
	resp.TotalBalance = number(total)
	c.JSON(http.StatusOK, resp)
}

// Transfer handles POST /v1/accounts/transfer
func (h *Handler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	receipt, err := h.service.Transfer(c.Request.Context(), domain.TransferRequest{
		FromID: req.AccountFromID,
		ToID:   req.AccountToID,
		Amount: *req.TransferAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReceiptResponse{
		TransferID:     receipt.TransferID,
		AccountFromID:  receipt.FromID,
		AccountToID:    receipt.ToID,
		TransferAmount: number(receipt.Amount),
		FromBalance:    number(receipt.FromBalance),
		ToBalance:      number(receipt.ToBalance),
	})
}

// HealthResponse is the response for health check endpoint
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps each error kind onto an HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindAccountNotFound:
		return http.StatusNotFound
	case domain.KindSameAccount,
		domain.KindNonPositiveAmount,
		domain.KindInsufficientBalance,
		domain.KindDuplicateAccount,
		domain.KindInvalidAccount:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}
	c.JSON(status, ErrorResponse{Error: msg, Kind: kind.String()})
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)

	v1 := r.Group("/v1/accounts")
	{
		v1.POST("", h.CreateAccount)
		v1.GET("", h.ListAccounts)
		v1.GET("/:account_id", h.GetAccount)
		v1.POST("/transfer", h.Transfer)
	}
}
