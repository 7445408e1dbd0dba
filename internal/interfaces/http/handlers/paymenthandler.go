package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymentUsecases "vtm/internal/application/payment/usecases"
	"vtm/internal/interfaces/http/middleware"
	"vtm/internal/shared/logger"
	"vtm/internal/shared/utils"
)

type PaymentHandler struct {
	createIntentUC  *paymentUsecases.CreatePaymentIntentUseCase
	inspectIntentUC *paymentUsecases.InspectPaymentIntentUseCase
	reconcileUC     *paymentUsecases.ReconcilePaymentUseCase
	logger          logger.Interface
}

func NewPaymentHandler(
	createIntentUC *paymentUsecases.CreatePaymentIntentUseCase,
	inspectIntentUC *paymentUsecases.InspectPaymentIntentUseCase,
	reconcileUC *paymentUsecases.ReconcilePaymentUseCase,
	logger logger.Interface,
) *PaymentHandler {
	return &PaymentHandler{
		createIntentUC:  createIntentUC,
		inspectIntentUC: inspectIntentUC,
		reconcileUC:     reconcileUC,
		logger:          logger,
	}
}

type CreateIntentRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type CreateIntentResponse struct {
	OrderID     string `json:"order_id"`
	ApproveURL  string `json:"approve_url"`
	PaymentURL  string `json:"payment_url,omitempty"`
	IntentToken string `json:"intent_token"`
	PlanName    string `json:"plan_name"`
	Price       string `json:"price"`
}

// CreateIntent starts checkout for the authenticated session: creates the
// processor order and issues the short-lived intent token.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	claims, ok := middleware.GetSessionClaims(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "session required")
		return
	}

	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := paymentUsecases.CreatePaymentIntentCommand{
		SubjectID:  claims.SubjectID,
		CustomerID: claims.CustomerID,
		PlanID:     req.PlanID,
	}

	result, err := h.createIntentUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to create payment intent", "error", err, "customer_id", claims.CustomerID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	response := CreateIntentResponse{
		OrderID:     result.OrderID,
		ApproveURL:  result.ApproveURL,
		PaymentURL:  result.PaymentURL,
		IntentToken: result.IntentToken,
		PlanName:    result.PlanName,
		Price:       result.Price,
	}

	utils.SuccessResponse(c, http.StatusOK, "payment intent created", response)
}

type VerifyIntentRequest struct {
	IntentToken string `json:"intent_token" binding:"required"`
}

type VerifyIntentResponse struct {
	PlanID   string `json:"plan_id"`
	PlanName string `json:"plan_name"`
	Price    string `json:"price"`
}

// VerifyIntent decodes an intent token so the checkout page can show what
// is being purchased before capture.
func (h *PaymentHandler) VerifyIntent(c *gin.Context) {
	var req VerifyIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.inspectIntentUC.Execute(req.IntentToken)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	response := VerifyIntentResponse{
		PlanID:   result.PlanID,
		PlanName: result.PlanName,
		Price:    result.Price,
	}

	utils.SuccessResponse(c, http.StatusOK, "payment intent valid", response)
}

type CaptureRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	IntentToken string `json:"intent_token" binding:"required"`
}

type CaptureResponse struct {
	Granted        bool   `json:"granted"`
	AlreadyApplied bool   `json:"already_applied"`
	CustomerID     string `json:"customer_id,omitempty"`
	PlanID         string `json:"plan_id,omitempty"`
}

// Capture confirms the order with the processor and applies the plan grant
// exactly once per order id.
func (h *PaymentHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	cmd := paymentUsecases.ReconcilePaymentCommand{
		OrderID:     req.OrderID,
		IntentToken: req.IntentToken,
	}

	result, err := h.reconcileUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		h.logger.Errorw("failed to reconcile payment", "error", err, "order_id", req.OrderID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	response := CaptureResponse{
		Granted:        result.Granted,
		AlreadyApplied: result.AlreadyApplied,
		CustomerID:     result.CustomerID,
		PlanID:         result.PlanID,
	}

	if !result.Granted {
		utils.SuccessResponse(c, http.StatusAccepted, "payment not completed", response)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "payment reconciled", response)
}
