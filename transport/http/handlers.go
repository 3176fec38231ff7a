package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
	"github.com/pollux-labs/garuda/service"
)

// idempotencyTTL is how long a used Idempotency-Key stays reserved.
const idempotencyTTL = 24 * time.Hour

// TxHandlers contains HTTP handlers for the transaction pipeline endpoints
type TxHandlers struct {
	txService *service.TxService
	store     ports.Store
}

// NewTxHandlers creates new transaction handlers
func NewTxHandlers(txService *service.TxService, store ports.Store) *TxHandlers {
	return &TxHandlers{
		txService: txService,
		store:     store,
	}
}

type callArgument struct {
	Type  string          `json:"type" binding:"required"`
	Value json.RawMessage `json:"value"`
}

type executeCallRequest struct {
	Function          string         `json:"function" binding:"required"`
	TypeArgs          []string       `json:"type_args"`
	Args              []callArgument `json:"args"`
	PreferSponsorship bool           `json:"prefer_sponsorship"`
}

// ExecuteCall handles the call execution request
func (h *TxHandlers) ExecuteCall(c *gin.Context) {
	var req executeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Retried HTTP requests are the one double-submission vector the
	// pipeline cannot see; an Idempotency-Key lets clients opt into
	// protection against them.
	if key := c.GetHeader("Idempotency-Key"); key != "" && h.store != nil {
		ok, err := h.store.Reserve(c.Request.Context(), key, idempotencyTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check idempotency key"})
			return
		}
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": core.ErrDuplicateSubmission.Error()})
			return
		}
	}

	intent := core.CallIntent{
		Function: req.Function,
		TypeArgs: req.TypeArgs,
		Args:     make([]any, 0, len(req.Args)),
	}
	for _, arg := range req.Args {
		v, err := core.ArgumentFromJSON(arg.Type, arg.Value)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		intent.Args = append(intent.Args, v)
	}

	outcome, err := h.txService.ExecuteCall(c.Request.Context(), intent, req.PreferSponsorship)
	if err != nil {
		status, msg := mapPipelineError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// TransactionStatus returns the ledger's current view of a transaction
func (h *TxHandlers) TransactionStatus(c *gin.Context) {
	hash := c.Param("hash")

	status, err := h.txService.TransactionStatus(c.Request.Context(), hash)
	if err != nil {
		if errors.Is(err, core.ErrNetwork) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Ledger unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transaction status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":      status.Pending,
		"success":      status.Success,
		"abort_reason": status.AbortReason,
		"gas_used":     status.GasUsed,
	})
}

// SponsorshipStatus returns an address's sponsorship standing
func (h *TxHandlers) SponsorshipStatus(c *gin.Context) {
	address, err := core.ParseAddress(c.Query("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}

	status, feeEstimate, err := h.txService.SponsorshipStatus(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, core.ErrNetwork) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Sponsorship backend unreachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sponsorship status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              status.Success,
		"dailyUsed":            status.DailyUsed,
		"dailyLimit":           status.DailyLimit,
		"remaining":            status.Remaining,
		"enabled":              status.Enabled,
		"estimated_fee_per_tx": feeEstimate.String(),
	})
}

// Health reports service liveness
func (h *TxHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mapPipelineError maps the pipeline error taxonomy to HTTP status codes.
func mapPipelineError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidIntent):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrSponsorshipDenied):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, core.ErrBuildFailed), errors.Is(err, core.ErrExecutionFailed):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrSignerUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, core.ErrNetwork):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "Call execution failed"
	}
}
