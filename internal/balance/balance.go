// Package balance computes per-card and per-user credit summaries: total
// limit, spend inside a resolved period, and the remaining balance.
package balance

import (
	"fmt"

	"github.com/shopspring/decimal" // Exact currency arithmetic
	"gorm.io/gorm"                  // GORM ORM library

	"creditmanager/internal/domain"
	"creditmanager/internal/period"
)

// Aggregator reads cards and expenses to produce summaries
type Aggregator struct {
	db *gorm.DB
}

// New returns an Aggregator backed by db
func New(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// CardSummary is the per-card breakdown row
type CardSummary struct {
	CardID           uint            `json:"card_id"`           // Card primary key
	Name             string          `json:"name"`              // Display name
	MaskedNumber     string          `json:"masked_number"`     // **** **** **** 1234
	BrandLabel       string          `json:"brand_label"`       // Human-readable brand
	Limit            decimal.Decimal `json:"limit"`             // Credit limit
	PeriodSpend      decimal.Decimal `json:"period_spend"`      // Spend within the period
	RemainingBalance decimal.Decimal `json:"remaining_balance"` // Limit minus spend
	OverLimit        bool            `json:"over_limit"`        // Spend strictly exceeds the limit
}

// UserSummary aggregates one user's cards over a period
type UserSummary struct {
	UserID      uint            `json:"user_id"`      // Target user
	Username    string          `json:"username"`     // Target username
	LimitTotal  decimal.Decimal `json:"limit_total"`  // Sum of card limits
	PeriodSpend decimal.Decimal `json:"period_spend"` // Sum of expenses in the period
	Balance     decimal.Decimal `json:"balance"`      // LimitTotal minus PeriodSpend
	Negative    bool            `json:"negative"`     // Balance is strictly below zero
	Zero        bool            `json:"zero"`         // Balance is exactly zero
	Cards       []CardSummary   `json:"cards"`        // Per-card breakdown, ordered by name
}

// UserTotals is one row of the admin-wide summary
type UserTotals struct {
	UserID      uint            `json:"user_id"`      // User primary key
	Username    string          `json:"username"`     // Username
	LimitTotal  decimal.Decimal `json:"limit_total"`  // Sum of the user's card limits
	PeriodSpend decimal.Decimal `json:"period_spend"` // Sum of the user's expenses in the period
	Balance     decimal.Decimal `json:"balance"`      // LimitTotal minus PeriodSpend
	Negative    bool            `json:"negative"`     // Balance is strictly below zero
	Zero        bool            `json:"zero"`         // Balance is exactly zero
}

// AdminSummary is the all-users dashboard view
type AdminSummary struct {
	Users      []UserTotals    `json:"users"`       // One row per non-admin user, ordered by username
	TotalUsers int64           `json:"total_users"` // Number of non-admin users
	TotalCards int64           `json:"total_cards"` // Number of cards across all users
	TotalLimit decimal.Decimal `json:"total_limit"` // Sum of all card limits
}

// sumRow carries one row of a grouped SUM query
type sumRow struct {
	GroupID uint            // Grouping key (card_id or user_id)
	Total   decimal.Decimal // Summed amount
}

// spendByCard runs one grouped query over the user's expenses inside the
// period. Absent cards simply have no row and sum to zero.
func (a *Aggregator) spendByCard(userID uint, rng *period.Range) (map[uint]decimal.Decimal, error) {
	q := a.db.Model(&domain.Expense{}).
		Select("card_id AS group_id, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("card_id")
	if rng != nil {
		q = q.Where("date BETWEEN ? AND ?", rng.Start, rng.End) // Bounds inclusive
	}
	var rows []sumRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum expenses by card: %w", err)
	}
	spend := make(map[uint]decimal.Decimal, len(rows))
	for _, r := range rows {
		spend[r.GroupID] = r.Total
	}
	return spend, nil
}

// spendByUser is the admin-wide counterpart, one grouped query for every user.
func (a *Aggregator) spendByUser(rng *period.Range) (map[uint]decimal.Decimal, error) {
	q := a.db.Model(&domain.Expense{}).
		Select("user_id AS group_id, COALESCE(SUM(amount), 0) AS total").
		Group("user_id")
	if rng != nil {
		q = q.Where("date BETWEEN ? AND ?", rng.Start, rng.End) // Bounds inclusive
	}
	var rows []sumRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("sum expenses by user: %w", err)
	}
	spend := make(map[uint]decimal.Decimal, len(rows))
	for _, r := range rows {
		spend[r.GroupID] = r.Total
	}
	return spend, nil
}

// UserSummary computes the summary for one target user over a period. A nil
// range means no date restriction.
func (a *Aggregator) UserSummary(userID uint, rng *period.Range) (*UserSummary, error) {
	var user domain.User
	if err := a.db.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load target user: %w", err)
	}
	var cards []domain.Card
	if err := a.db.Where("user_id = ?", userID).Order("name").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("load user cards: %w", err)
	}
	spend, err := a.spendByCard(userID, rng)
	if err != nil {
		return nil, err
	}
	summary := &UserSummary{
		UserID:      user.ID,
		Username:    user.Username,
		LimitTotal:  decimal.Zero,
		PeriodSpend: decimal.Zero,
		Cards:       make([]CardSummary, 0, len(cards)),
	}
	for _, c := range cards {
		cardSpend, ok := spend[c.ID]
		if !ok {
			cardSpend = decimal.Zero // No expenses in the period sums to zero, never null
		}
		remaining := c.Limit.Sub(cardSpend)
		summary.Cards = append(summary.Cards, CardSummary{
			CardID:           c.ID,
			Name:             c.Name,
			MaskedNumber:     c.Masked(),
			BrandLabel:       c.BrandLabel(),
			Limit:            c.Limit,
			PeriodSpend:      cardSpend,
			RemainingBalance: remaining,
			OverLimit:        cardSpend.GreaterThan(c.Limit),
		})
		summary.LimitTotal = summary.LimitTotal.Add(c.Limit)
	}
	// The user total covers every expense of the user, including ones left
	// behind on a card that was reassigned to someone else; only the
	// per-card breakdown is restricted to currently-owned cards
	for _, cardSpend := range spend {
		summary.PeriodSpend = summary.PeriodSpend.Add(cardSpend)
	}
	summary.Balance = summary.LimitTotal.Sub(summary.PeriodSpend)
	summary.Negative = summary.Balance.IsNegative()
	summary.Zero = summary.Balance.IsZero()
	return summary, nil
}

// AdminSummary computes per-user totals for every non-admin user plus the
// global counters shown on the admin dashboard.
func (a *Aggregator) AdminSummary(rng *period.Range) (*AdminSummary, error) {
	var users []domain.User
	if err := a.db.Where("is_admin = ?", false).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	// One grouped query per concern: limits per user, spend per user
	var limitRows []sumRow
	if err := a.db.Model(&domain.Card{}).
		Select("user_id AS group_id, COALESCE(SUM(credit_limit), 0) AS total").
		Group("user_id").
		Scan(&limitRows).Error; err != nil {
		return nil, fmt.Errorf("sum card limits by user: %w", err)
	}
	limits := make(map[uint]decimal.Decimal, len(limitRows))
	for _, r := range limitRows {
		limits[r.GroupID] = r.Total
	}
	spend, err := a.spendByUser(rng)
	if err != nil {
		return nil, err
	}
	out := &AdminSummary{
		Users:      make([]UserTotals, 0, len(users)),
		TotalUsers: int64(len(users)),
		TotalLimit: decimal.Zero,
	}
	for _, u := range users {
		limitTotal, ok := limits[u.ID]
		if !ok {
			limitTotal = decimal.Zero
		}
		userSpend, ok := spend[u.ID]
		if !ok {
			userSpend = decimal.Zero
		}
		bal := limitTotal.Sub(userSpend)
		out.Users = append(out.Users, UserTotals{
			UserID:      u.ID,
			Username:    u.Username,
			LimitTotal:  limitTotal,
			PeriodSpend: userSpend,
			Balance:     bal,
			Negative:    bal.IsNegative(),
			Zero:        bal.IsZero(),
		})
	}
	if err := a.db.Model(&domain.Card{}).Count(&out.TotalCards).Error; err != nil {
		return nil, fmt.Errorf("count cards: %w", err)
	}
	var totalLimit sumRow
	if err := a.db.Model(&domain.Card{}).
		Select("0 AS group_id, COALESCE(SUM(credit_limit), 0) AS total").
		Scan(&totalLimit).Error; err != nil {
		return nil, fmt.Errorf("sum all card limits: %w", err)
	}
	out.TotalLimit = totalLimit.Total
	return out, nil
}
