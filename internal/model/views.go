package model

import (
	"encoding/json"
	"time"
)

// ReceiverTipDetail merges InternalTip and ReceiverTip fields. ID is the
// receiver tip id, which is the resource identifier seen by receivers.
type ReceiverTipDetail struct {
	ID                  string           `json:"id"`
	InternalTipID       string           `json:"internaltip_id"`
	ContextID           string           `json:"context_id"`
	CreationDate        time.Time        `json:"creation_date"`
	ExpirationDate      time.Time        `json:"expiration_date"`
	WBLastAccess        time.Time        `json:"wb_last_access"`
	Receivers           []string         `json:"receivers"`
	Answers             json.RawMessage  `json:"answers,omitempty"`
	PertinenceScore     int              `json:"pertinence"`
	ReceiverID          string           `json:"receiver_id"`
	ReceiverName        string           `json:"receiver_name"`
	AccessCounter       int              `json:"access_counter"`
	LastAccess          *time.Time       `json:"last_access"`
	NotificationMark    NotificationMark `json:"notification_mark"`
	ExpressedPertinence Pertinence       `json:"expressed_pertinence"`
	AuthOptions         AuthOptions      `json:"authoptions"`
	Label               string           `json:"label"`
	EnableNotifications bool             `json:"enable_notifications"`
}

// NewReceiverTipDetail builds the merged view.
func NewReceiverTipDetail(it InternalTip, rt ReceiverTip, receiverName string) ReceiverTipDetail {
	return ReceiverTipDetail{
		ID:                  rt.ID,
		InternalTipID:       it.ID,
		ContextID:           it.ContextID,
		CreationDate:        it.CreatedAt,
		ExpirationDate:      it.ExpirationDate,
		WBLastAccess:        it.WBLastAccess,
		Receivers:           append([]string{}, it.Receivers...),
		Answers:             it.Answers,
		PertinenceScore:     it.PertinenceScore,
		ReceiverID:          rt.ReceiverID,
		ReceiverName:        receiverName,
		AccessCounter:       rt.AccessCounter,
		LastAccess:          rt.LastAccess,
		NotificationMark:    rt.NotificationMark,
		ExpressedPertinence: rt.ExpressedPertinence,
		AuthOptions:         rt.AuthOptions.Clone(),
		Label:               rt.Label,
		EnableNotifications: rt.EnableNotifications,
	}
}

// ReceiverRef is the public part of a receiver shown to whistleblowers.
type ReceiverRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WhistleblowerTipDetail merges InternalTip fields with the receipt used as the
// external identifier.
type WhistleblowerTipDetail struct {
	ID             string          `json:"id"`
	InternalTipID  string          `json:"internaltip_id"`
	ContextID      string          `json:"context_id"`
	CreationDate   time.Time       `json:"creation_date"`
	ExpirationDate time.Time       `json:"expiration_date"`
	LastAccess     *time.Time      `json:"last_access"`
	Receivers      []ReceiverRef   `json:"receivers"`
	Answers        json.RawMessage `json:"answers,omitempty"`
}

// Siblings is the "remove myself and show me who else is assigned" view.
type Siblings struct {
	Siblings    []ReceiverTip `json:"siblings"`
	Requested   ReceiverTip   `json:"requested"`
	InternalTip InternalTip   `json:"internaltip"`
}

// ReceiversByTip lists the receivers working on the same InternalTip.
type ReceiversByTip struct {
	Others []Receiver `json:"others"`
	Actor  Receiver   `json:"actor"`
	Mapped []string   `json:"mapped"`
}

// TipsByTip lists the other tips of the receiver owning a tip.
type TipsByTip struct {
	OtherTips []ReceiverTip `json:"othertips"`
	Request   ReceiverTip   `json:"request"`
}

// ContextBundle groups an InternalTip with every dependent row.
type ContextBundle struct {
	InternalTip       InternalTip        `json:"internaltip"`
	ReceiverTips      []ReceiverTip      `json:"receivertip"`
	WhistleblowerTips []WhistleblowerTip `json:"whistleblowertip"`
	Comments          []Comment          `json:"comments"`
	Files             []File             `json:"files"`
}

// Counts reports the number of rows per entity kind.
type Counts struct {
	InternalTips      int `json:"internaltips"`
	ReceiverTips      int `json:"receivertips"`
	WhistleblowerTips int `json:"whistleblowertips"`
	Files             int `json:"files"`
	ReceiverFiles     int `json:"receiverfiles"`
	Comments          int `json:"comments"`
	Messages          int `json:"messages"`
	SecureFileDeletes int `json:"securefiledeletes"`
}

// PurgeReport reports what a cascade removed.
type PurgeReport struct {
	InternalTipID     string `json:"internaltip_id"`
	InternalTips      int    `json:"internaltips"`
	ReceiverTips      int    `json:"receivertips"`
	WhistleblowerTips int    `json:"whistleblowertips"`
	Files             int    `json:"files"`
	ReceiverFiles     int    `json:"receiverfiles"`
	Comments          int    `json:"comments"`
	Messages          int    `json:"messages"`
	SecureFileDeletes int    `json:"securefiledeletes"`
}
