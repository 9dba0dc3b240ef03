package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/studentsadda/studentsadda/internal/queue"
)

// Mailer sends booking notification emails over SMTP.  When no host is
// configured the mailer is a no-op, which keeps local development working
// without an outbound mail server.
type Mailer struct {
	host string
	port string
	user string
	pass string
	log  *logrus.Logger
}

// NewMailer builds a Mailer from SMTP settings.
func NewMailer(host, port, user, pass string, log *logrus.Logger) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, log: log}
}

// NotifyBookingEvent implements queue.Notifier by emailing the booking's
// contact address a summary of what happened.
func (m *Mailer) NotifyBookingEvent(ctx context.Context, ev queue.BookingEvent) error {
	if m.host == "" {
		m.log.WithField("ref", ev.BookingRef).Debug("mailer: no SMTP host configured, skipping")
		return nil
	}
	subject, intro := eventCopy(ev.Event)

	name := ev.ContactName
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n%s\r\n\r\n", name, intro)
	fmt.Fprintf(&b, "Reference: %s\r\n", ev.BookingRef)
	fmt.Fprintf(&b, "Library:   %s\r\n", ev.LibraryName)
	fmt.Fprintf(&b, "Seat:      %s\r\n", ev.SeatLabel)
	fmt.Fprintf(&b, "Date:      %s, %s - %s\r\n", ev.BookingDate, ev.StartTime, ev.EndTime)
	fmt.Fprintf(&b, "Amount:    %.2f %s\r\n\r\n", ev.Price, ev.Currency)
	b.WriteString("StudentsAdda\r\n")

	done := make(chan error, 1)
	go func() {
		auth := smtp.PlainAuth("", m.user, m.pass, m.host)
		done <- smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{ev.ContactEmail}, []byte(b.String()))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		m.log.WithFields(logrus.Fields{"ref": ev.BookingRef, "event": ev.Event}).Info("mailer: notification sent")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func eventCopy(event string) (subject, intro string) {
	switch event {
	case queue.EventBookingCreated:
		return "Your seat booking is confirmed", "Your seat booking has been confirmed. We look forward to seeing you."
	case queue.EventBookingCancelled:
		return "Your seat booking was cancelled", "Your seat booking has been cancelled."
	case queue.EventBookingCompleted:
		return "Thanks for your visit", "Your booking has been marked completed. Thanks for studying with us."
	case queue.EventBookingNoShow:
		return "We missed you", "Your booking was marked as a no-show."
	default:
		return "Booking update", "There has been an update to your seat booking."
	}
}
