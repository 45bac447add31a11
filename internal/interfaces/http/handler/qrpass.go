package handler

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	registrationapp "github.com/chakravyuh/backend/internal/application/registration"
	"github.com/chakravyuh/backend/internal/domain/registration"
)

// QRPassHandler serves the public pass page opened by scanning a QR code.
// No authentication: the page only shows what a desk volunteer needs.
type QRPassHandler struct {
	service *registrationapp.Service
	logger  *zap.Logger
}

// NewQRPassHandler creates a new QRPassHandler
func NewQRPassHandler(service *registrationapp.Service, logger *zap.Logger) *QRPassHandler {
	return &QRPassHandler{service: service, logger: logger}
}

type qrPassView struct {
	RegistrationID string
	Name           string
	Event          string
	IsTeam         bool
	TeamName       string
	TeamMembers    []string
	Status         string
	StatusClass    string
	Year           int
}

// Show handles GET /api/v1/registrations/qr/:registrationId
func (h *QRPassHandler) Show(c *gin.Context) {
	key := c.Param("registrationId")
	if key == "" {
		c.String(http.StatusBadRequest, "Invalid registration id")
		return
	}

	reg, err := h.service.GetByKey(c.Request.Context(), key)
	if err != nil {
		c.String(http.StatusNotFound, "Registration not found")
		return
	}

	view := qrPassView{
		RegistrationID: reg.RegistrationID,
		Name:           reg.FullName,
		Event:          reg.Event,
		IsTeam:         reg.IsTeam,
		TeamName:       reg.TeamName,
		Status:         string(reg.Status),
		StatusClass:    statusClass(reg.Status),
		Year:           time.Now().Year(),
	}
	for _, m := range reg.TeamMembers {
		view.TeamMembers = append(view.TeamMembers, m.Name)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := qrPassTemplate.Execute(c.Writer, view); err != nil {
		h.logger.Error("Failed to render QR pass page",
			zap.String("registration_id", reg.RegistrationID),
			zap.Error(err))
	}
}

func statusClass(s registration.Status) string {
	switch s {
	case registration.StatusConfirmed:
		return "status confirmed"
	case registration.StatusPendingPayment:
		return "status pending"
	case registration.StatusCancelled:
		return "status cancelled"
	}
	return "status"
}

var qrPassTemplate = template.Must(template.New("qrpass").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Chakravyuh 2.0 - QR Pass</title>
    <style>
      :root{ --card:#ffffff; --text:#0f172a; --muted:#64748b; --line:#e6e9f2; --brand1:#4a6cf7; --brand2:#6f8cff; }
      *{box-sizing:border-box;}
      body{
        margin:0;
        font-family: ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Arial, sans-serif;
        background: linear-gradient(135deg, #0b1020, #101a3a);
        color:#e5e7eb;
        padding:20px;
        min-height:100vh;
        display:flex;
        align-items:center;
        justify-content:center;
      }
      .wrap{width:100%; max-width:700px;}
      .card{background:var(--card); border-radius:18px; overflow:hidden; box-shadow:0 18px 45px rgba(0,0,0,0.35);}
      .header{padding:18px; background:linear-gradient(135deg, var(--brand1), var(--brand2)); color:#fff;}
      .headerTop{display:flex; align-items:center; justify-content:space-between; gap:12px;}
      .brand h1{margin:0; font-size:18px;}
      .brand p{margin:4px 0 0; font-size:12px; opacity:0.95;}
      .pill{display:inline-flex; padding:8px 12px; border-radius:999px; background:rgba(255,255,255,0.18); border:1px solid rgba(255,255,255,0.25); font-size:12px; font-weight:700; white-space:nowrap;}
      .content{padding:18px; color:var(--text);}
      .grid{display:grid; grid-template-columns:1fr; gap:12px; margin-top:14px;}
      .row{display:flex; justify-content:space-between; gap:12px; padding:12px; border:1px solid var(--line); border-radius:12px; background:#fbfcff;}
      .label{font-size:12px; color:var(--muted); font-weight:700; text-transform:uppercase;}
      .value{font-size:14px; font-weight:700; color:var(--text); text-align:right; word-break:break-word;}
      .status{display:inline-flex; padding:6px 10px; border-radius:999px; font-size:12px; font-weight:800;}
      .status.confirmed{background:#e9fff3; color:#0b7a39; border:1px solid #b7f3d0;}
      .status.pending{background:#fff7e6; color:#8a5a00; border:1px solid #ffe1a6;}
      .status.cancelled{background:#ffecec; color:#b42318; border:1px solid #ffc6c6;}
      .footer{padding:14px 18px 18px; color:black; font-size:12px; text-align:center;}
      @media (min-width: 620px){ .grid{grid-template-columns:1fr 1fr;} }
    </style>
  </head>
  <body>
    <div class="wrap">
      <div class="card">
        <div class="header">
          <div class="headerTop">
            <div class="brand">
              <h1>Chakravyuh 2.0</h1>
              <p>QR Pass &bull; Show this at the registration desk</p>
            </div>
            <div class="pill">ID: {{.RegistrationID}}</div>
          </div>
        </div>
        <div class="content">
          <div style="display:flex; align-items:center; justify-content:space-between; gap:12px; flex-wrap:wrap;">
            <div style="font-size:16px; font-weight:900;">Registration Details</div>
            <span class="{{.StatusClass}}">{{.Status}}</span>
          </div>
          <div class="grid">
            <div class="row"><div class="label">Registration ID</div><div class="value">{{.RegistrationID}}</div></div>
            {{if and .IsTeam .TeamName}}<div class="row"><div class="label">Team Name</div><div class="value">{{.TeamName}}</div></div>{{end}}
            <div class="row"><div class="label">Name</div><div class="value">{{.Name}}</div></div>
            <div class="row"><div class="label">Event</div><div class="value">{{.Event}}</div></div>
            {{range $i, $name := .TeamMembers}}<div class="row"><div class="label">Team Member</div><div class="value">{{$name}}</div></div>
            {{end}}
          </div>
          <div class="hint" style="margin-top:12px; font-size:12px; color:#64748b;">Tip: Keep this page open while entering the venue.</div>
        </div>
        <div class="footer">&copy; {{.Year}} Chakravyuh 2.0</div>
      </div>
    </div>
  </body>
</html>`))
