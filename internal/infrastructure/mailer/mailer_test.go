package mailer

import (
	"testing"

	"github.com/chakravyuh/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.EmailConfig
		want bool
	}{
		{
			name: "real credentials",
			cfg: config.EmailConfig{
				Host:     "smtp.gmail.com",
				Port:     587,
				Username: "events@chakravyuh.in",
				Password: "app-specific-pass",
			},
			want: true,
		},
		{
			name: "missing host",
			cfg:  config.EmailConfig{Username: "a@b.c", Password: "x"},
			want: false,
		},
		{
			name: "placeholder username",
			cfg: config.EmailConfig{
				Host:     "smtp.gmail.com",
				Username: "your-email@gmail.com",
				Password: "real",
			},
			want: false,
		},
		{
			name: "placeholder password",
			cfg: config.EmailConfig{
				Host:     "smtp.gmail.com",
				Username: "events@chakravyuh.in",
				Password: "CHANGEME",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSMTPMailer(tt.cfg).IsConfigured())
		})
	}
}

func TestRenderTemplate(t *testing.T) {
	t.Run("registration received", func(t *testing.T) {
		body, err := renderTemplate("registration-received", map[string]any{
			"Name":           "Asha Nair",
			"Event":          "RoboWars",
			"RegistrationID": "CHK-1700000000000-1234",
			"Amount":         "1200.00",
			"Currency":       "INR",
			"IsTeam":         false,
		})
		require.NoError(t, err)
		assert.Contains(t, body, "Asha Nair")
		assert.Contains(t, body, "RoboWars")
		assert.Contains(t, body, "CHK-1700000000000-1234")
		assert.NotContains(t, body, "Team</td>")
	})

	t.Run("payment confirmed references the embedded qr", func(t *testing.T) {
		body, err := renderTemplate("payment-confirmed", map[string]any{
			"Name":           "Circuit Breakers",
			"Event":          "RoboWars",
			"RegistrationID": "CHK-1700000000000-1234",
			"Amount":         "1200.00",
			"Currency":       "INR",
			"IsTeam":         true,
			"TeamName":       "Circuit Breakers",
		})
		require.NoError(t, err)
		assert.Contains(t, body, "cid:qrcode.png")
		assert.Contains(t, body, "Circuit Breakers")
	})

	t.Run("html in data is escaped", func(t *testing.T) {
		body, err := renderTemplate("registration-received", map[string]any{
			"Name":           "<script>alert(1)</script>",
			"Event":          "RoboWars",
			"RegistrationID": "CHK-1",
			"Amount":         "1200.00",
			"Currency":       "INR",
		})
		require.NoError(t, err)
		assert.NotContains(t, body, "<script>")
	})

	t.Run("unknown template errors", func(t *testing.T) {
		_, err := renderTemplate("does-not-exist", nil)
		assert.Error(t, err)
	})
}
