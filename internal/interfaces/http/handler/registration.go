package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	registrationapp "github.com/chakravyuh/backend/internal/application/registration"
	"github.com/chakravyuh/backend/internal/domain/registration"
)

// RegistrationHandler handles registration intake and retrieval endpoints
type RegistrationHandler struct {
	BaseHandler
	service *registrationapp.Service
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(service *registrationapp.Service) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// registrationView hides binary payloads from JSON responses while keeping
// the attachment metadata visible.
type registrationView struct {
	*registration.Registration
	PaymentRequired bool `json:"paymentRequired,omitempty"`
}

// Create handles POST /api/v1/registrations. The body is a multipart form:
// text fields plus an optional ieeeMembershipCertificate file and a
// teamMembers field carrying a JSON array.
func (h *RegistrationHandler) Create(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadSize + 1<<20); err != nil {
		h.BadRequest(c, "Invalid form data")
		return
	}

	input := registrationapp.CreateRegistrationInput{
		FullName:   c.PostForm("fullName"),
		Email:      c.PostForm("email"),
		Phone:      c.PostForm("phone"),
		College:    c.PostForm("college"),
		Event:      c.PostForm("event"),
		IEEEMember: c.PostForm("ieeeMember"),
		IEEEID:     c.PostForm("ieeeId"),
		TeamName:   c.PostForm("teamName"),
		IsTeam:     parseFormBool(c.PostForm("isTeam")),
	}

	if raw := strings.TrimSpace(c.PostForm("teamMembers")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.TeamMembers); err != nil {
			h.BadRequest(c, "Invalid teamMembers data")
			return
		}
	}

	fileName, contentType, data, found, err := formFile(c, "ieeeMembershipCertificate")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if found {
		input.Certificate = registrationapp.FileInput{
			FileName:    fileName,
			ContentType: contentType,
			Data:        data,
		}
	}

	reg, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.CreatedMessage(c, "Registration successful. Please complete the payment.",
		registrationView{Registration: reg, PaymentRequired: true})
}

// Get handles GET /api/v1/registrations/:id. The key is either the internal
// UUID or the public CHK registration id.
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.service.GetByKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, registrationView{Registration: reg})
}

// adminListEntry is one row in the admin registrations list
type adminListEntry struct {
	*registration.Registration
	HasIEEECertificate bool `json:"hasIeeeCertificate"`
}

// List handles GET /api/v1/registrations (admin)
func (h *RegistrationHandler) List(c *gin.Context) {
	regs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]adminListEntry, 0, len(regs))
	for i := range regs {
		entries = append(entries, adminListEntry{
			Registration:       &regs[i],
			HasIEEECertificate: regs[i].HasCertificate(),
		})
	}
	h.Success(c, entries)
}

// ieeeMemberEntry is one row in the IEEE certificates listing
type ieeeMemberEntry struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID string    `json:"registrationId"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	College        string    `json:"college"`
	Event          string    `json:"event"`
	IEEEID         string    `json:"ieeeId,omitempty"`
	IsTeam         bool      `json:"isTeam"`
	TeamName       string    `json:"teamName,omitempty"`
	FileName       string    `json:"fileName,omitempty"`
	ContentType    string    `json:"contentType,omitempty"`
}

// ListIEEEMembers handles GET /api/v1/registrations/ieee-certificates (admin).
// Only registrations with a certificate on file are returned.
func (h *RegistrationHandler) ListIEEEMembers(c *gin.Context) {
	regs, err := h.service.ListIEEEMembers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]ieeeMemberEntry, 0, len(regs))
	for _, r := range regs {
		entries = append(entries, ieeeMemberEntry{
			ID:             r.ID,
			RegistrationID: r.RegistrationID,
			FullName:       r.FullName,
			Email:          r.Email,
			Phone:          r.Phone,
			College:        r.College,
			Event:          r.Event,
			IEEEID:         r.IEEEID,
			IsTeam:         r.IsTeam,
			TeamName:       r.TeamName,
			FileName:       r.Certificate.FileName,
			ContentType:    r.Certificate.ContentType,
		})
	}
	h.Success(c, entries)
}

// Certificate handles GET /api/v1/registrations/:id/ieee-certificate (admin),
// streaming the stored certificate inline.
func (h *RegistrationHandler) Certificate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid registration id")
		return
	}

	att, err := h.service.Certificate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	serveAttachment(c, att, "certificate")
}

// Screenshot handles GET /api/v1/registrations/:id/payment-screenshot (admin)
func (h *RegistrationHandler) Screenshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid id")
		return
	}

	att, err := h.service.Screenshot(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	serveAttachment(c, att, "screenshot")
}

func serveAttachment(c *gin.Context, att *registration.Attachment, fallbackName string) {
	name := att.FileName
	if name == "" {
		name = fallbackName
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	c.Data(http.StatusOK, att.ContentType, att.Data)
}

func parseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
