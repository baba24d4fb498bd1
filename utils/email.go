package utils

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"lms/config"
	"lms/logger"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Mail is the active mailer. InitMailer replaces it with SendGrid when an
// API key is configured.
var Mail Mailer = ConsoleMailer{}

func InitMailer() {
	cfg := config.AppConfig
	if cfg.SendGridAPIKey == "" {
		logger.Log.Info().Msg("SENDGRID_API_KEY not set, emails are written to the log")
		Mail = ConsoleMailer{}
		return
	}
	Mail = NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailSender)
}

// ConsoleMailer logs messages instead of delivering them.
type ConsoleMailer struct{}

// Bodies can carry reset links and verification tokens, so they are only
// written at debug level.
func (ConsoleMailer) Send(_ context.Context, msg EmailMessage) error {
	logger.Log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("email (console)")
	logger.Log.Debug().Strs("to", msg.To).Str("text", msg.Text).Msg("email body (console)")
	return nil
}

type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

func NewSendGridMailer(key, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{key: key, from: sgmail.NewEmail(fromName, fromEmail)}
}

func (m *SendGridMailer) Send(_ context.Context, msg EmailMessage) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)

	req := sendgrid.GetRequest(m.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// SendEmail delivers msg in the background and logs failures.
func SendEmail(to, subject, title, bodyHTML, text string) {
	msg := EmailMessage{
		To:      []string{to},
		Subject: fmt.Sprintf("[%s] %s", config.AppConfig.AppName, subject),
		HTML:    getEmailTemplate(title, bodyHTML),
		Text:    text,
	}
	Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := Mail.Send(ctx, msg); err != nil {
			logger.Log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		}
	})
}

func getEmailTemplate(title, bodyContent string) string {
	appName := html.EscapeString(config.AppConfig.AppName)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f6f6f6; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background: #ffffff; border-radius: 8px; overflow: hidden;">
		<div style="background-color: #1f2a44; padding: 24px; text-align: center;">
			<h1 style="color: #ffffff; margin: 0; font-size: 22px;">%s</h1>
		</div>
		<div style="padding: 32px 28px; color: #1f2a44; line-height: 1.6;">
			<h2 style="margin-top: 0;">%s</h2>
			%s
		</div>
		<div style="background-color: #f6f6f6; padding: 16px; text-align: center; font-size: 12px; color: #666666;">
			&copy; %d %s
		</div>
	</div>
</body>
</html>`, appName, html.EscapeString(title), bodyContent, time.Now().Year(), appName)
}

func SendWelcomeEmail(email, name string) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Your account has been created. Browse the catalog and start learning.</p>`,
		html.EscapeString(name))
	SendEmail(email, "Welcome", "Welcome onboard!", body, fmt.Sprintf("Welcome %s, your account has been created.", name))
}

func SendEnrollmentEmail(email, name, courseTitle string) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>You have successfully enrolled in <strong>%s</strong>.</p>
<p>Complete every lecture to earn your certificate.</p>`, html.EscapeString(name), html.EscapeString(courseTitle))
	SendEmail(email, "Enrollment confirmed: "+courseTitle, "Enrollment Successful", body,
		fmt.Sprintf("You have enrolled in %s.", courseTitle))
}

func SendPasswordResetEmail(email, name, link string, ttl time.Duration) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>We received a request to reset your password.</p>
<p><a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #d7b56d; color: #ffffff; text-decoration: none; border-radius: 4px;">Reset password</a></p>
<p>This link expires in %d minutes. If you did not ask for it, ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(link), int(ttl.Minutes()))
	SendEmail(email, "Password reset", "Reset your password", body,
		fmt.Sprintf("Reset your password: %s (expires in %d minutes)", link, int(ttl.Minutes())))
}

func SendPasswordChangedEmail(email, name string) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Your password was changed. If this was not you, contact support immediately.</p>`,
		html.EscapeString(name))
	SendEmail(email, "Password changed", "Password changed", body, "Your password was changed.")
}

func SendCertificateEmail(email, name, courseTitle, certificateNumber, verifyLink string) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Congratulations on completing <strong>%s</strong>.</p>
<div style="background: #e8f0fe; padding: 15px; border-left: 4px solid #d7b56d; margin: 20px 0;">
	Certificate number: <strong>%s</strong>
</div>
<p>Anyone can verify your certificate at <a href="%s">%s</a>.</p>`,
		html.EscapeString(name), html.EscapeString(courseTitle), html.EscapeString(certificateNumber),
		html.EscapeString(verifyLink), html.EscapeString(verifyLink))
	SendEmail(email, "Certificate issued: "+courseTitle, "Certificate of Completion", body,
		fmt.Sprintf("Certificate %s for %s. Verify: %s", certificateNumber, courseTitle, verifyLink))
}

func SendCertificateRejectedEmail(email, name, courseTitle, reason string) {
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Your certificate request for <strong>%s</strong> was rejected.</p>
<p style="color: #dc3545; font-weight: bold;">Reason: %s</p>`,
		html.EscapeString(name), html.EscapeString(courseTitle), html.EscapeString(reason))
	SendEmail(email, "Certificate request rejected", "Certificate Request Rejected", body,
		fmt.Sprintf("Certificate request for %s rejected: %s", courseTitle, reason))
}

func SendOrderReceiptEmail(email, name, orderNumber string, totalCents int64, currency string) {
	total := FormatCents(totalCents, currency)
	body := fmt.Sprintf(`<p>Dear %s,</p><p>Thank you for your purchase.</p>
<p>Order <strong>%s</strong>, total <strong>%s</strong>. Your courses are now available.</p>`,
		html.EscapeString(name), html.EscapeString(orderNumber), total)
	SendEmail(email, "Order "+orderNumber+" confirmed", "Payment received", body,
		fmt.Sprintf("Order %s paid, total %s.", orderNumber, total))
}
