package smtpfilter

import (
	"io"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// backend implements the go-smtp Backend interface
type backend struct {
	filter *Filter
}

// NewSession creates a new SMTP session
func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// session implements the go-smtp Session interface
type session struct {
	filter     *Filter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *session) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message, then rejects or relays it
func (s *session) Data(r io.Reader) error {
	logger := s.filter.logger

	raw, err := io.ReadAll(r)
	if err != nil {
		logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	outcome, err := s.filter.Process(s.sender, s.recipients, raw)
	if err != nil {
		logger.Error("Failed to process message",
			zap.Error(err),
			zap.String("sender", s.sender))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Message could not be parsed",
		}
	}

	if !outcome.Exempt && outcome.Verdict.IsAnomaly() && s.filter.cfg.BlockAnomalies {
		logger.Info("Rejecting anomalous message",
			zap.String("sender", s.sender),
			zap.String("status", string(outcome.Verdict.Status)),
			zap.Int("recipients", outcome.Summary.NumRecipients),
			zap.Int("attachments", outcome.Summary.Attachments),
			zap.Int("size", outcome.Summary.Size))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Rejected: " + string(outcome.Verdict.Status),
		}
	}

	if s.filter.cfg.Relay.Enabled {
		if err := s.filter.relay(s.sender, s.recipients, outcome.Message); err != nil {
			logger.Error("Failed to relay message",
				zap.Error(err),
				zap.String("sender", s.sender))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 4, 0},
				Message:      "Downstream relay unavailable, try again later",
			}
		}
	} else {
		logger.Warn("Relay disabled, message accepted without re-injection")
	}

	logger.Info("Processed message",
		zap.String("sender", s.sender),
		zap.Bool("exempt", outcome.Exempt),
		zap.Int("anomaly", outcome.Verdict.Anomaly),
		zap.String("status", string(outcome.Verdict.Status)))

	return nil
}

// Logout handles SMTP logout
func (s *session) Logout() error {
	return nil
}
