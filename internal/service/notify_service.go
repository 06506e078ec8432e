package service

import (
	"fmt"
	"log"
	"time"

	"spotrent/internal/db"
)

// SenderService sends booking emails and SMS. Everything here is
// fire-and-forget: failures are logged and never block or roll back the
// state transition that triggered them.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) NotifyBooking(booking *db.Booking, user *db.User, status string) {
	if user == nil {
		return
	}
	if user.Email != "" {
		s.sendBookingEmail(booking, user, status)
	}
	if user.Phone != "" {
		s.sendBookingSMS(booking, user, status)
	}
}

func (s *SenderService) sendBookingEmail(booking *db.Booking, user *db.User, status string) {
	subject := fmt.Sprintf("Your Spotrent booking is %s - Code: %s", status, booking.Code)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking at Spotrent is %s.\n\n"+
			"Booking details:\n"+
			"Booking code: %s\n"+
			"%s\n\n"+
			"Thank you for choosing Spotrent.",
		user.Name, status, booking.Code, windowLine(booking),
	)

	go func(toEmail, toName, subject, body string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, body, ""); err != nil {
			log.Printf("ALERT (async): email delivery failed for booking %s: %v", booking.Code, err)
		}
	}(user.Email, user.Name, subject, body)
}

func (s *SenderService) sendBookingSMS(booking *db.Booking, user *db.User, status string) {
	message := fmt.Sprintf("Spotrent: booking %s is %s.\n%s\nMore details in your email.",
		booking.Code, status, windowLine(booking))

	go func(phone, message string) {
		if err := SendSMS(phone, message); err != nil {
			log.Printf("ALERT (async): SMS delivery failed for booking %s: %v", booking.Code, err)
		}
	}(user.Phone, message)
}

func windowLine(booking *db.Booking) string {
	const layout = "02 Jan 2006 15:04 MST"
	if booking.Mode == db.ModeAdvance && booking.StartTime.Valid && booking.EndTime.Valid {
		return fmt.Sprintf("Check-in: %s\nCheck-out: %s",
			booking.StartTime.Time.UTC().Format(layout),
			booking.EndTime.Time.UTC().Format(layout))
	}
	if booking.ActualStartTime.Valid {
		return fmt.Sprintf("Started: %s", booking.ActualStartTime.Time.UTC().Format(layout))
	}
	return fmt.Sprintf("Created: %s", booking.CreatedAt.UTC().Format(time.RFC822))
}
