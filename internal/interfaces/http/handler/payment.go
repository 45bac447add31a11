package handler

import (
	"github.com/gin-gonic/gin"

	paymentapp "github.com/chakravyuh/backend/internal/application/payment"
)

// PaymentHandler handles gateway checkout and manual proof endpoints
type PaymentHandler struct {
	BaseHandler
	service *paymentapp.Service
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service *paymentapp.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreateOrder handles POST /api/v1/payments/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var input paymentapp.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Verify handles POST /api/v1/payments/verify, the gateway checkout callback
func (h *PaymentHandler) Verify(c *gin.Context) {
	var input paymentapp.VerifyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	reg, err := h.service.VerifyPayment(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessMessage(c, "Payment verified", registrationView{Registration: reg})
}

// SubmitProof handles POST /api/v1/registrations/:id/upi-proof. The body is
// a multipart form with utrNumber and a paymentScreenshot file.
func (h *PaymentHandler) SubmitProof(c *gin.Context) {
	input := paymentapp.SubmitProofInput{
		RegistrationKey: c.Param("id"),
		UTRNumber:       c.PostForm("utrNumber"),
	}

	fileName, contentType, data, found, err := formFile(c, "paymentScreenshot")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if found {
		input.Screenshot = paymentapp.ScreenshotInput{
			FileName:    fileName,
			ContentType: contentType,
			Data:        data,
		}
	}

	alreadyConfirmed, err := h.service.SubmitProof(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if alreadyConfirmed {
		h.SuccessMessage(c, "Already confirmed", nil)
		return
	}
	h.SuccessMessage(c, "Payment proof submitted successfully", nil)
}

// FinalApprove handles POST /api/v1/registrations/:id/final-approve (admin)
func (h *PaymentHandler) FinalApprove(c *gin.Context) {
	result, err := h.service.FinalApprove(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessMessage(c, "Payment approved", result)
}

// Reject handles POST /api/v1/registrations/:id/reject (admin). The
// registration returns to pending_payment with its proof cleared.
func (h *PaymentHandler) Reject(c *gin.Context) {
	reg, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessMessage(c, "Payment proof rejected", registrationView{Registration: reg})
}
