package api

import (
	"time"

	"github.com/fwdgo/fwd-nagaoka/internal/repository"
)

type DisasterList struct {
	Count     int                `json:"count"`
	Disasters []DisasterDocument `json:"disasters"`
}

type DisasterDocument struct {
	ID               int64      `json:"id"`
	Text             string     `json:"text"`
	Zone             string     `json:"zone"`
	NotifyState      string     `json:"notify_state"`
	RetrievedAt      time.Time  `json:"retrieved_at"`
	Category         string     `json:"category"`
	CategoryDetail   string     `json:"category_detail"`
	Status           string     `json:"status"`
	OpenedAt         time.Time  `json:"opened_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	Locality         *string    `json:"locality,omitempty"`
	AddressPrimary   string     `json:"address_primary"`
	AddressSecondary *string    `json:"address_secondary,omitempty"`
}

func toDocuments(records []repository.DisasterRecord) DisasterList {
	docs := make([]DisasterDocument, 0, len(records))

	for _, rec := range records {
		docs = append(docs, DisasterDocument{
			ID:               rec.Statement.ID,
			Text:             rec.Statement.Text,
			Zone:             string(rec.Statement.Zone),
			NotifyState:      string(rec.Statement.NotifyState),
			RetrievedAt:      rec.Statement.RetrievedAt,
			Category:         string(rec.Detail.Category),
			CategoryDetail:   rec.Detail.CategoryDetail,
			Status:           string(rec.Detail.Status),
			OpenedAt:         rec.Detail.OpenedAt,
			ClosedAt:         rec.Detail.ClosedAt,
			Locality:         rec.Detail.Locality,
			AddressPrimary:   rec.Detail.AddressPrimary,
			AddressSecondary: rec.Detail.AddressSecondary,
		})
	}

	return DisasterList{
		Count:     len(docs),
		Disasters: docs,
	}
}
