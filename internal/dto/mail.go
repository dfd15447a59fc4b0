package dto

import "time"

type MailboxParams struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
}

// MailSearch is ANDed: Since, UnseenOnly and any one of Senders.
type MailSearch struct {
	Since      time.Time
	UnseenOnly bool
	Senders    []string
}

type MailMessage struct {
	SeqNum     uint32
	ReceivedAt time.Time
	Raw        []byte
}
