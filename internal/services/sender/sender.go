// Package services содержит бизнес-логику отправки писем об отмене записи.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/ptbr"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/sl"
	"github.com/magabrotheeeer/appointment-scheduler/internal/lib/smtp"
	"github.com/magabrotheeeer/appointment-scheduler/internal/models"
	"github.com/magabrotheeeer/appointment-scheduler/internal/rabbitmq"
)

// SenderService формирует и отправляет письмо мастеру об отмене записи.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendCancellationMail обрабатывает сообщение из очереди отмен: парсит
// полезную нагрузку, рендерит письмо и отправляет его мастеру.
// Ошибка отправки приводит к возврату сообщения в очередь потребителем,
// нечитаемая полезная нагрузка помечается как ErrBadMessage и отбрасывается.
func (s *SenderService) SendCancellationMail(body []byte) error {
	var message models.CancellationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", rabbitmq.ErrBadMessage)
	}

	to := []string{message.ProviderEmail}
	subject := "Agendamento cancelado"
	bodyText := fmt.Sprintf(`Olá, %s!

Houve um cancelamento de horário.

Cliente: %s
Data/hora: %s

O horário está novamente disponível para novos agendamentos.`,
		message.ProviderName, message.ClientName, ptbr.FormatDate(message.Date))

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("cancellation email sent", "to", to)
	return nil
}
