package model

import (
	"encoding/json"
	"fmt"
)

// NotificationMark tracks whether a party has been told about new activity.
// The string values are shared with external consumers and must not change.
type NotificationMark string

const (
	MarkNotNotified         NotificationMark = "not notified"
	MarkNotified            NotificationMark = "notified"
	MarkUnableToNotify      NotificationMark = "unable to notify"
	MarkNotificationIgnored NotificationMark = "notification ignored"
)

// NotificationMarks lists every accepted mark.
var NotificationMarks = []NotificationMark{
	MarkNotNotified,
	MarkNotified,
	MarkUnableToNotify,
	MarkNotificationIgnored,
}

func (m NotificationMark) Valid() bool {
	for _, v := range NotificationMarks {
		if m == v {
			return true
		}
	}
	return false
}

// Pertinence is a receiver's judgment on a submission. It is persisted as a
// small integer: 0 unexpressed, 1 negative, 2 positive.
type Pertinence int

const (
	PertinenceUnexpressed Pertinence = 0
	PertinenceNegative    Pertinence = 1
	PertinencePositive    Pertinence = 2
)

func (p Pertinence) String() string {
	switch p {
	case PertinenceUnexpressed:
		return "unexpressed"
	case PertinenceNegative:
		return "negative"
	case PertinencePositive:
		return "positive"
	default:
		return fmt.Sprintf("pertinence(%d)", int(p))
	}
}

func (p Pertinence) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pertinence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "unexpressed":
		*p = PertinenceUnexpressed
	case "negative":
		*p = PertinenceNegative
	case "positive":
		*p = PertinencePositive
	default:
		return fmt.Errorf("unknown pertinence %q", s)
	}
	return nil
}

// PertinenceFromVote maps a boolean vote to its persisted value.
func PertinenceFromVote(positive bool) Pertinence {
	if positive {
		return PertinencePositive
	}
	return PertinenceNegative
}

// FileMark is the processing state of an uploaded file. It is independent of
// the per-receiver delivery status.
type FileMark string

const (
	FileMarkNew     FileMark = "new"
	FileMarkReady   FileMark = "ready"
	FileMarkBlocked FileMark = "blocked"
)

// ParseFileMark accepts the three marks plus the legacy "not processed" alias
// for "new".
func ParseFileMark(s string) (FileMark, bool) {
	switch s {
	case string(FileMarkNew), "not processed":
		return FileMarkNew, true
	case string(FileMarkReady):
		return FileMarkReady, true
	case string(FileMarkBlocked):
		return FileMarkBlocked, true
	}
	return "", false
}

// Source identifies who authored a comment or message.
type Source string

const (
	SourceReceiver      Source = "receiver"
	SourceWhistleblower Source = "whistleblower"
	SourceSystem        Source = "system"
)

// ValidCommentSource reports whether s may author a comment.
func ValidCommentSource(s Source) bool {
	return s == SourceReceiver || s == SourceWhistleblower || s == SourceSystem
}

// ValidMessageSource reports whether s may author a private message.
func ValidMessageSource(s Source) bool {
	return s == SourceReceiver || s == SourceWhistleblower
}

// ReceiverFileStatus is the delivery state of a file copy for one receiver.
type ReceiverFileStatus string

const (
	ReceiverFileProcessing      ReceiverFileStatus = "processing"
	ReceiverFileDelivered       ReceiverFileStatus = "delivered"
	ReceiverFileUnableToDeliver ReceiverFileStatus = "unable to deliver"
)
