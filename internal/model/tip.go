package model

import (
	"encoding/json"
	"time"
)

// Context is the submission channel a tip was filed through. The core only
// looks contexts up; their lifecycle is managed elsewhere.
type Context struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	TipTimeToLiveDays int       `json:"tip_timetolive"`
	EnableComments    bool      `json:"enable_comments"`
	EnableMessages    bool      `json:"enable_messages"`
	CreatedAt         time.Time `json:"created_at"`
}

// TipTTL returns the absolute lifetime of tips filed in this context.
func (c Context) TipTTL() time.Duration {
	return time.Duration(c.TipTimeToLiveDays) * 24 * time.Hour
}

// Receiver is a recipient of tips. Referenced by id, never owned.
type Receiver struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Level                 int       `json:"level"`
	CanDeleteSubmission   bool      `json:"can_delete_submission"`
	CanPostponeExpiration bool      `json:"can_postpone_expiration"`
	CreatedAt             time.Time `json:"created_at"`
}

// InternalTip is the canonical record of one finalized submission and the root
// of the deletion cascade.
type InternalTip struct {
	ID              string          `json:"internaltip_id"`
	ContextID       string          `json:"context_id"`
	CreatedAt       time.Time       `json:"creation_date"`
	ExpirationDate  time.Time       `json:"expiration_date"`
	WBLastAccess    time.Time       `json:"wb_last_access"`
	Receivers       StringList      `json:"receivers"`
	Answers         json.RawMessage `json:"answers,omitempty"`
	TotalScore      int             `json:"total_score"`
	PertinenceScore int             `json:"pertinence"`
	New             bool            `json:"new"`
}

// ReceiverTip is one receiver's access view of an InternalTip.
type ReceiverTip struct {
	ID                  string           `json:"tip_id"`
	InternalTipID       string           `json:"internaltip_id"`
	ReceiverID          string           `json:"receiver_id"`
	AccessCounter       int              `json:"access_counter"`
	LastAccess          *time.Time       `json:"last_access"`
	NotificationMark    NotificationMark `json:"notification_mark"`
	NotificationDate    *time.Time       `json:"notification_date"`
	ExpressedPertinence Pertinence       `json:"expressed_pertinence"`
	AuthOptions         AuthOptions      `json:"authoptions"`
	Label               string           `json:"label"`
	EnableNotifications bool             `json:"enable_notifications"`
	CreatedAt           time.Time        `json:"creation_date"`
}

// WhistleblowerTip is the anonymous source's view of an InternalTip. It is
// keyed by the hash of the receipt handed out at finalization.
type WhistleblowerTip struct {
	ReceiptHash   string      `json:"-"`
	InternalTipID string      `json:"internaltip_id"`
	LastAccess    *time.Time  `json:"last_access"`
	AuthOptions   AuthOptions `json:"authoptions"`
	CreatedAt     time.Time   `json:"creation_date"`
}

// File describes one uploaded attachment. Content bytes live in external
// storage under StorageKey and are never part of a description.
type File struct {
	ID              string    `json:"file_id"`
	InternalTipID   string    `json:"internaltip_id"`
	Name            string    `json:"name"`
	Checksum        string    `json:"sha2sum"`
	Size            int64     `json:"size"`
	ContentType     string    `json:"content_type"`
	Description     string    `json:"description"`
	Mark            FileMark  `json:"mark"`
	Completed       bool      `json:"completed"`
	MetadataCleaned bool      `json:"metadata_cleaned"`
	UploadedAt      time.Time `json:"uploaded_date"`
	StorageKey      string    `json:"-"`
}

// ReceiverFile tracks delivery of a File to one ReceiverTip.
type ReceiverFile struct {
	ID            string             `json:"id"`
	FileID        string             `json:"file_id"`
	ReceiverTipID string             `json:"receivertip_id"`
	InternalTipID string             `json:"internaltip_id"`
	Status        ReceiverFileStatus `json:"status"`
	Downloads     int                `json:"downloads"`
	LastAccess    *time.Time         `json:"last_access"`
	CreatedAt     time.Time          `json:"creation_date"`
	StorageKey    string             `json:"-"`
}

// Comment is an append-only entry on an InternalTip timeline. Only the
// notification mark may change after creation.
type Comment struct {
	ID               string           `json:"comment_id"`
	InternalTipID    string           `json:"internaltip_id"`
	CreatedAt        time.Time        `json:"creation_time"`
	Source           Source           `json:"source"`
	AuthorID         string           `json:"author_id,omitempty"`
	Content          string           `json:"content"`
	NotificationMark NotificationMark `json:"notification_mark"`
}

// Message is a private entry between one receiver and the whistleblower.
type Message struct {
	ID               string           `json:"message_id"`
	ReceiverTipID    string           `json:"receivertip_id"`
	InternalTipID    string           `json:"internaltip_id"`
	CreatedAt        time.Time        `json:"creation_time"`
	Source           Source           `json:"source"`
	Content          string           `json:"content"`
	NotificationMark NotificationMark `json:"notification_mark"`
}

// SecureFileDelete records stored content that must be destroyed.
type SecureFileDelete struct {
	ID         string    `json:"id"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"creation_date"`
}
