package registry

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ticketchain/ticket-service/internal/models"
)

// GormStore keeps the registry in a ticket_mappings table. Saves replace the
// whole table inside one transaction so the persisted state always matches a
// single in-memory snapshot, mirroring the whole-document file layout.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load() (map[string]int64, error) {
	var rows []models.TicketMapping
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ticket mappings: %w", err)
	}

	entries := make(map[string]int64, len(rows))
	for _, row := range rows {
		entries[row.TicketID] = row.TokenID
	}
	return entries, nil
}

func (s *GormStore) Save(entries map[string]int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.TicketMapping{}).Error; err != nil {
			return fmt.Errorf("clear ticket mappings: %w", err)
		}

		if len(entries) == 0 {
			return nil
		}

		rows := make([]models.TicketMapping, 0, len(entries))
		for ticketID, tokenID := range entries {
			rows = append(rows, models.TicketMapping{TicketID: ticketID, TokenID: tokenID})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert ticket mappings: %w", err)
		}
		return nil
	})
}
