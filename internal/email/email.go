package email

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"ultra-eval/internal/config"
	"ultra-eval/internal/models"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendGradeNotification sends the evaluation summary email for a graded
// report. Callers treat failures as best-effort.
func (s *Service) SendGradeNotification(to, studentName string, report *models.Report, evaluation *models.Evaluation) error {
	if s.config.SMTPHost == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	subject := fmt.Sprintf("Your report was graded: +%d ELO", evaluation.EloAwarded)
	body := gradeNotificationBody(studentName, report.Title, evaluation)

	return s.sendEmail(to, subject, body)
}

func gradeNotificationBody(studentName, reportTitle string, evaluation *models.Evaluation) string {
	firstName := studentName
	if i := strings.IndexByte(studentName, ' '); i > 0 {
		firstName = studentName[:i]
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Report Graded</title>
</head>
<body style="font-family: -apple-system, Arial, sans-serif; line-height: 1.6; color: #000;">
    <div style="max-width: 600px; margin: 20px auto; padding: 40px;">
        <p style="font-size: 16px; font-weight: 500;">Hi %s,</p>

        <div style="background-color: #f4f4f5; border-radius: 16px; padding: 32px; margin-bottom: 32px;">
            <div style="font-size: 12px; font-weight: 700; text-transform: uppercase; color: #71717a;">ELO Awarded</div>
            <div style="font-size: 48px; font-weight: 800; color: #000;">+%d</div>
            <div style="font-size: 18px; font-weight: 600; color: #18181b;">%s</div>
        </div>

        <div style="font-size: 12px; font-weight: 700; text-transform: uppercase; color: #71717a;">Analysis</div>
        <div style="font-size: 15px; color: #3f3f46; margin-bottom: 32px; border-left: 2px solid #e4e4e7; padding-left: 20px;">
            %s
        </div>

        <div style="font-size: 12px; font-weight: 700; text-transform: uppercase; color: #71717a;">Metrics Breakdown</div>
        <table style="width: 100%%; border-collapse: separate; border-spacing: 6px;">
            <tr>
                <td style="background-color: #fafafa; border: 1px solid #f4f4f5; border-radius: 12px; padding: 16px; width: 50%%;">
                    <div style="font-size: 10px; font-weight: 700; text-transform: uppercase; color: #a1a1aa;">Impact</div>
                    <div style="font-size: 16px; font-weight: 700;">%d/10</div>
                </td>
                <td style="background-color: #fafafa; border: 1px solid #f4f4f5; border-radius: 12px; padding: 16px; width: 50%%;">
                    <div style="font-size: 10px; font-weight: 700; text-transform: uppercase; color: #a1a1aa;">Quality</div>
                    <div style="font-size: 16px; font-weight: 700;">%d/10</div>
                </td>
            </tr>
            <tr>
                <td style="background-color: #fafafa; border: 1px solid #f4f4f5; border-radius: 12px; padding: 16px;">
                    <div style="font-size: 10px; font-weight: 700; text-transform: uppercase; color: #a1a1aa;">Productivity</div>
                    <div style="font-size: 16px; font-weight: 700;">%d/10</div>
                </td>
                <td style="background-color: #fafafa; border: 1px solid #f4f4f5; border-radius: 12px; padding: 16px;">
                    <div style="font-size: 10px; font-weight: 700; text-transform: uppercase; color: #a1a1aa;">Relevance</div>
                    <div style="font-size: 16px; font-weight: 700;">%d/10</div>
                </td>
            </tr>
        </table>

        <hr style="border: none; border-top: 1px solid #f4f4f5; margin: 40px 0 20px;">
        <p style="color: #a1a1aa; font-size: 13px;">Ultra Eval. This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`,
		firstName,
		evaluation.EloAwarded,
		reportTitle,
		evaluation.Feedback,
		evaluation.CategoryScore.Impact,
		evaluation.CategoryScore.Quality,
		evaluation.CategoryScore.Productivity,
		evaluation.CategoryScore.Relevance,
	)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	headers := map[string]string{
		"From":         fmt.Sprintf("%q <%s>", s.config.SenderName, s.config.SMTPFrom),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message bytes.Buffer
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Connecting to SMTP server", "address", addr)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Error("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Local dev relays (e.g. Mailpit) accept mail without auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("Failed to close data writer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent successfully", "to", to)

	return nil
}
