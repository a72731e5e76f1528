package service

import (
	"fmt"

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library

	"creditmanager/internal/domain"
)

// DeleteAttachment removes one attachment record and its backing file,
// returning the user owning the parent expense. Authorization: admins, or
// that owning user; everyone else gets ErrForbidden with the record intact.
// The file is reclaimed before the record goes away, so a destroyed record
// never leaves an orphaned file.
func (s *Service) DeleteAttachment(actor *domain.User, attachmentID uint) (uint, error) {
	var att domain.Attachment
	if err := s.db.First(&att, attachmentID).Error; err != nil {
		return 0, err // gorm.ErrRecordNotFound maps to 404 upstream
	}
	var expense domain.Expense
	if err := s.db.First(&expense, att.ExpenseID).Error; err != nil {
		return 0, fmt.Errorf("load parent expense: %w", err)
	}
	if !actor.IsAdmin && expense.UserID != actor.ID {
		return 0, ErrForbidden
	}
	if err := s.files.Remove(att.StoragePath); err != nil {
		return 0, fmt.Errorf("reclaim attachment file: %w", err)
	}
	if err := s.db.Delete(&domain.Attachment{}, att.ID).Error; err != nil {
		return 0, fmt.Errorf("delete attachment record: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"attachment_id": att.ID,
		"expense_id":    expense.ID,
		"actor_id":      actor.ID,
	}).Info("Attachment deleted")
	return expense.UserID, nil
}

// DeleteCard tears down a card and everything hanging off it: expenses,
// attachment records, and attachment files. The walk is an explicit
// post-order over the card -> expense -> attachment tree, reclaiming leaf
// files first and deleting rows inside one transaction, rather than trusting
// an implicit database cascade.
func (s *Service) DeleteCard(cardID uint) error {
	var card domain.Card
	if err := s.db.First(&card, cardID).Error; err != nil {
		return err // gorm.ErrRecordNotFound maps to 404 upstream
	}
	var expenses []domain.Expense
	if err := s.db.Where("card_id = ?", card.ID).Preload("Attachments").Find(&expenses).Error; err != nil {
		return fmt.Errorf("load card expenses: %w", err)
	}
	removedFiles := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, e := range expenses {
			for _, att := range e.Attachments {
				if err := s.files.Remove(att.StoragePath); err != nil {
					return fmt.Errorf("reclaim attachment file: %w", err)
				}
				removedFiles++
				if err := tx.Delete(&domain.Attachment{}, att.ID).Error; err != nil {
					return fmt.Errorf("delete attachment record: %w", err)
				}
			}
			if err := tx.Delete(&domain.Expense{}, e.ID).Error; err != nil {
				return fmt.Errorf("delete expense record: %w", err)
			}
		}
		if err := tx.Delete(&domain.Card{}, card.ID).Error; err != nil {
			return fmt.Errorf("delete card record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"card_id":  card.ID,
		"user_id":  card.UserID,
		"expenses": len(expenses),
		"files":    removedFiles,
	}).Info("Card deleted with cascade")
	return nil
}
