package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/matiasvera/clinic-api/internal/model"
)

type Service interface {
	SendAppointmentConfirmation(ctx context.Context, to, name string, appointment *model.Appointment) error
	SendAppointmentReminder(ctx context.Context, to, name string, appointment *model.Appointment) error
	SendBatchSummary(ctx context.Context, to, name string, plan *model.TreatmentPlan, appointments []*model.Appointment) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to, name string, a *model.Appointment) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nTu cita ha sido confirmada para el %s a las %s.\n\nSaludos,\nLa clínica",
		name, a.Date, a.StartTime,
	)
	return s.send(to, "Confirmación de cita", body)
}

func (s *smtpService) SendAppointmentReminder(ctx context.Context, to, name string, a *model.Appointment) error {
	body := fmt.Sprintf(
		"Hola %s,\n\nTe recordamos tu cita de mañana %s a las %s.\n\nSaludos,\nLa clínica",
		name, a.Date, a.StartTime,
	)
	return s.send(to, "Recordatorio de cita", body)
}

func (s *smtpService) SendBatchSummary(ctx context.Context, to, name string, plan *model.TreatmentPlan, appointments []*model.Appointment) error {
	body := fmt.Sprintf("Hola %s,\n\nTu plan de %d sesiones ha quedado agendado:\n\n", name, plan.TotalSessions)
	for _, a := range appointments {
		body += fmt.Sprintf("  - %s %s\n", a.Date, a.StartTime)
	}
	body += "\nSaludos,\nLa clínica"
	return s.send(to, "Sesiones agendadas", body)
}

// NoopService satisfies Service without sending anything. Used when SMTP is
// not configured, e.g. in development.
type NoopService struct{}

func (NoopService) SendAppointmentConfirmation(context.Context, string, string, *model.Appointment) error {
	return nil
}

func (NoopService) SendAppointmentReminder(context.Context, string, string, *model.Appointment) error {
	return nil
}

func (NoopService) SendBatchSummary(context.Context, string, string, *model.TreatmentPlan, []*model.Appointment) error {
	return nil
}
