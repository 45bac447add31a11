package payment

// CreateOrderInput requests a gateway order for a registration
type CreateOrderInput struct {
	RegistrationKey string `json:"registrationId"`
}

// OrderResult is the created gateway order returned to the checkout client
type OrderResult struct {
	OrderID        string `json:"orderId"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	RegistrationID string `json:"registrationId"`
	KeyID          string `json:"keyId"`
}

// VerifyPaymentInput is the gateway checkout callback payload
type VerifyPaymentInput struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// SubmitProofInput carries a manual UPI payment proof
type SubmitProofInput struct {
	RegistrationKey string
	UTRNumber       string
	Screenshot      ScreenshotInput
}

// ScreenshotInput is the uploaded payment screenshot
type ScreenshotInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ApproveResult summarizes a final approval for the admin UI
type ApproveResult struct {
	RegistrationID  string `json:"registrationId"`
	Status          string `json:"status"`
	QRCode          string `json:"qrCode"`
	EmailQueued     bool   `json:"emailQueued"`
	EmailRecipients int    `json:"emailRecipients"`
}
