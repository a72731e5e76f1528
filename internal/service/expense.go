// Package service implements the expense registration workflow and the
// attachment/card deletion lifecycle over the entity store.
package service

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype" // Content sniffing for untyped uploads
	"github.com/shopspring/decimal"      // Exact currency amounts
	"github.com/sirupsen/logrus"         // Structured logging
	"gorm.io/gorm"                       // GORM ORM library

	"creditmanager/internal/domain"
	"creditmanager/internal/period"
	"creditmanager/internal/storage"
)

// MaxAttachmentSize is the inclusive per-file upload limit (10 MiB)
const MaxAttachmentSize = 10 << 20

// allowedAttachmentTypes is the accepted receipt content-type set
var allowedAttachmentTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/gif":       true,
	"image/webp":      true,
}

// Service runs expense and attachment operations against the store
type Service struct {
	db    *gorm.DB
	files storage.FileStore
}

// New returns a Service over db and files
func New(db *gorm.DB, files storage.FileStore) *Service {
	return &Service{db: db, files: files}
}

// AttachmentUpload is one uploaded receipt file. ContentType is the declared
// multipart type and may be empty, in which case the content is sniffed.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// RegisterExpenseInput is everything needed to record a new expense
type RegisterExpenseInput struct {
	Actor        *domain.User       // Authenticated caller
	TargetUserID uint               // Explicit target (admins only); 0 means default
	CardID       uint               // Card to charge; must belong to the target user
	Description  string             // What the money went on
	Amount       decimal.Decimal    // Charged amount
	Date         time.Time          // Calendar date; zero means today
	Attachments  []AttachmentUpload // Zero or more receipt files
}

// ResolveTargetUser picks the user a request operates on. Non-admins are
// always pinned to themselves; admins get the explicitly selected non-admin
// user, falling back to the first one by username when the selection is
// missing or invalid. ErrNoTargetUser when an admin has nobody to select.
func (s *Service) ResolveTargetUser(actor *domain.User, explicitID uint) (*domain.User, error) {
	if !actor.IsAdmin {
		return actor, nil
	}
	if explicitID != 0 {
		var target domain.User
		err := s.db.Where("id = ? AND is_admin = ?", explicitID, false).First(&target).Error
		if err == nil {
			return &target, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("load target user: %w", err)
		}
		// Invalid selection silently falls through to the default
	}
	var target domain.User
	err := s.db.Where("is_admin = ?", false).Order("username").First(&target).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNoTargetUser
	}
	if err != nil {
		return nil, fmt.Errorf("load default target user: %w", err)
	}
	return &target, nil
}

// normalizeContentType strips parameters like "; charset=binary"
func normalizeContentType(ct string) string {
	parsed, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return parsed
}

// validateAttachment checks one upload against the allowed type set and the
// size cap. The whole batch is rejected when any file fails, so the first
// error wins.
func validateAttachment(up *AttachmentUpload) error {
	ct := normalizeContentType(up.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		// No declared type: sniff the content and rewind for storage
		detected, err := mimetype.DetectReader(up.Content)
		if err != nil {
			return fmt.Errorf("sniff attachment type: %w", err)
		}
		if _, err := up.Content.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind attachment: %w", err)
		}
		ct = detected.String()
		ct = normalizeContentType(ct)
	}
	if !allowedAttachmentTypes[ct] {
		return fmt.Errorf("%w: %s", ErrUnsupportedAttachmentType, ct)
	}
	if up.Size > MaxAttachmentSize {
		return fmt.Errorf("%w: %d bytes", ErrAttachmentTooLarge, up.Size)
	}
	return nil
}

// RegisterExpense validates and persists a new expense with its attachments.
// Validation order: target user, card ownership, then per-file checks; any
// failure rejects the whole submission with nothing persisted. On success the
// expense row and every attachment row are committed in one transaction, and
// a transaction failure reclaims any files already stored.
func (s *Service) RegisterExpense(in RegisterExpenseInput) (*domain.Expense, error) {
	target, err := s.ResolveTargetUser(in.Actor, in.TargetUserID)
	if err != nil {
		return nil, err
	}
	var card domain.Card
	if err := s.db.First(&card, in.CardID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCardOwnershipMismatch
		}
		return nil, fmt.Errorf("load card: %w", err)
	}
	if card.UserID != target.ID {
		return nil, ErrCardOwnershipMismatch
	}
	for i := range in.Attachments {
		if err := validateAttachment(&in.Attachments[i]); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	date := in.Date
	if date.IsZero() {
		// Default to today's calendar date at midnight; a wall-clock time
		// would fall outside the midnight-bounded period ranges
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}

	// Store the files first so the database transaction only commits when
	// every attachment has a backing file.
	stored := make([]string, 0, len(in.Attachments))
	cleanup := func() {
		for _, path := range stored {
			if err := s.files.Remove(path); err != nil {
				logrus.WithFields(logrus.Fields{"path": path, "error": err.Error()}).Error("Failed to reclaim stored file after rollback")
			}
		}
	}
	for i := range in.Attachments {
		path, err := s.files.Save(in.Attachments[i].Content, in.Attachments[i].Filename, now)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		stored = append(stored, path)
	}

	expense := &domain.Expense{
		UserID:      target.ID,
		CardID:      card.ID,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        date,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check ownership right before persisting; the target could have
		// changed between validation and save.
		var fresh domain.Card
		if err := tx.First(&fresh, in.CardID).Error; err != nil {
			return fmt.Errorf("reload card: %w", err)
		}
		if fresh.UserID != target.ID {
			return ErrCardOwnershipMismatch
		}
		if err := tx.Create(expense).Error; err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
		for i, path := range stored {
			att := domain.Attachment{
				ExpenseID:    expense.ID,
				StoragePath:  path,
				OriginalName: in.Attachments[i].Filename,
			}
			if err := tx.Create(&att).Error; err != nil {
				return fmt.Errorf("create attachment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		cleanup() // No expense may survive with a partial attachment set
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":     target.ID,
		"card_id":     card.ID,
		"expense_id":  expense.ID,
		"amount":      in.Amount.StringFixed(2),
		"attachments": len(stored),
	}).Info("Expense registered")
	return expense, nil
}

// ListExpenses returns the target user's expenses inside the period, most
// recent first (date desc, then id desc as the stable tie-break), with card
// and attachments loaded.
func (s *Service) ListExpenses(userID uint, rng *period.Range) ([]domain.Expense, error) {
	q := s.db.Where("user_id = ?", userID)
	if rng != nil {
		q = q.Where("date BETWEEN ? AND ?", rng.Start, rng.End)
	}
	var expenses []domain.Expense
	if err := q.Preload("Card").Preload("Attachments").
		Order("date DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}
