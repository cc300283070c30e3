// AngelaMos | 2026
// otp_template.go

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/carterperez-dev/minicms/internal/core"
)

var otpTemplate = template.Must(template.New("otp").Parse(`
<div dir="{{.Dir}}" style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333; text-align: center;">{{.Heading}}</h1>
  <div style="background-color: #f5f5f5; padding: 20px; border-radius: 5px; text-align: center;">
    <p style="font-size: 24px; font-weight: bold; color: #2196F3; margin: 20px 0;">{{.Code}}</p>
  </div>
  <p style="color: #666; text-align: center;">{{.Validity}}</p>
  <p style="color: #999; font-size: 12px; text-align: center; margin-top: 20px;">{{.Footer}}</p>
</div>
`))

type otpView struct {
	Dir      string
	Heading  string
	Code     string
	Validity string
	Footer   string
}

// OTPSender renders and delivers one-time codes.
type OTPSender struct {
	sender Sender
}

func NewOTPSender(sender Sender) *OTPSender {
	return &OTPSender{sender: sender}
}

func (s *OTPSender) SendOTP(
	ctx context.Context,
	to, code string,
	ttl time.Duration,
) (string, error) {
	body, err := RenderOTP(code, ttl)
	if err != nil {
		return "", err
	}

	minutes := strconv.Itoa(int(ttl.Minutes()))

	return s.sender.Send(ctx, Message{
		To:       to,
		Subject:  core.T("mail.otp_subject"),
		HTMLBody: body,
		TextBody: code + "\n" + core.T("mail.otp_validity", minutes),
	})
}

func RenderOTP(code string, ttl time.Duration) (string, error) {
	dir := "ltr"
	if core.Locale() == core.LocalePersian {
		dir = "rtl"
	}

	view := otpView{
		Dir:      dir,
		Heading:  core.T("mail.otp_heading"),
		Code:     code,
		Validity: core.T("mail.otp_validity", strconv.Itoa(int(ttl.Minutes()))),
		Footer:   core.T("mail.otp_footer"),
	}

	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render otp email: %w", err)
	}
	return buf.String(), nil
}
