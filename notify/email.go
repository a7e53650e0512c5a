package notify

import (
	"fmt"
	"net/smtp"
)

// EmailSink mails every event to the admin inbox as plain text.
type EmailSink struct {
	Addr string // host:port
	From string
	To   string
}

func (s *EmailSink) Deliver(ev Event) error {
	subject := fmt.Sprintf("[ipponyari] %s", ev.Kind)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s at %s\r\n\r\n%s\r\n",
		s.From, s.To, subject, ev.Kind, ev.At.Format("2006-01-02 15:04:05"), string(ev.Payload))
	return smtp.SendMail(s.Addr, nil, s.From, []string{s.To}, []byte(msg))
}
