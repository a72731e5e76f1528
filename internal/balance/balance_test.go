package balance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"creditmanager/internal/domain"
	"creditmanager/internal/period"
)

// BalanceSuite runs aggregation tests against a throwaway sqlite database
type BalanceSuite struct {
	suite.Suite
	db  *gorm.DB
	agg *Aggregator
}

// SetupTest runs before each test
func (s *BalanceSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(filepath.Join(s.T().TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "failed to open test database")
	require.NoError(s.T(), db.AutoMigrate(&domain.User{}, &domain.Card{}, &domain.Expense{}, &domain.Attachment{}))
	s.db = db
	s.agg = New(db)
}

func (s *BalanceSuite) user(username string, admin bool) *domain.User {
	u := &domain.User{Username: username, Password: "x", IsAdmin: admin}
	require.NoError(s.T(), s.db.Create(u).Error)
	return u
}

func (s *BalanceSuite) card(owner *domain.User, name, limit string) *domain.Card {
	c := &domain.Card{
		UserID:      owner.ID,
		Name:        name,
		Number:      "5500123412341234",
		ExpiryMonth: 6,
		ExpiryYear:  time.Now().Year() + 3,
		Limit:       dec(limit),
		Brand:       domain.BrandMastercard,
	}
	require.NoError(s.T(), s.db.Create(c).Error)
	return c
}

func (s *BalanceSuite) expense(owner *domain.User, card *domain.Card, amount string, date time.Time) {
	e := &domain.Expense{
		UserID:      owner.ID,
		CardID:      card.ID,
		Description: "test expense",
		Amount:      dec(amount),
		Date:        date,
	}
	require.NoError(s.T(), s.db.Create(e).Error)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s %v", want, got, msgAndArgs)
}

func (s *BalanceSuite) TestUserSummaryGroceriesScenario() {
	// Card with limit 500.00, one expense of 120.50 inside the current month
	owner := s.user("maria", false)
	card := s.card(owner, "Daily", "500.00")
	today := date(2025, time.March, 15)
	s.expense(owner, card, "120.50", today)

	summary, err := s.agg.UserSummary(owner.ID, period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)

	assertDecimal(s.T(), "500.00", summary.LimitTotal)
	assertDecimal(s.T(), "120.50", summary.PeriodSpend)
	assertDecimal(s.T(), "379.50", summary.Balance)
	assert.False(s.T(), summary.Negative)
	assert.False(s.T(), summary.Zero)

	require.Len(s.T(), summary.Cards, 1)
	row := summary.Cards[0]
	assert.Equal(s.T(), card.ID, row.CardID)
	assert.Equal(s.T(), "**** **** **** 1234", row.MaskedNumber)
	assert.Equal(s.T(), "Mastercard", row.BrandLabel)
	assertDecimal(s.T(), "120.50", row.PeriodSpend)
	assertDecimal(s.T(), "379.50", row.RemainingBalance)
	assert.False(s.T(), row.OverLimit)

	// The all-time view reports the same totals for the same data
	all, err := s.agg.UserSummary(owner.ID, period.Resolve(period.AllTime, today))
	require.NoError(s.T(), err)
	assertDecimal(s.T(), "120.50", all.PeriodSpend)
	assertDecimal(s.T(), "379.50", all.Balance)
}

func (s *BalanceSuite) TestUserSummaryOverLimit() {
	// 600.00 against a 500.00 limit: accepted at registration time, but the
	// aggregation reports the blowout
	owner := s.user("maria", false)
	card := s.card(owner, "Daily", "500.00")
	today := date(2025, time.March, 15)
	s.expense(owner, card, "600.00", today)

	summary, err := s.agg.UserSummary(owner.ID, period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)

	assertDecimal(s.T(), "-100.00", summary.Balance)
	assert.True(s.T(), summary.Negative)
	assert.False(s.T(), summary.Zero)
	require.Len(s.T(), summary.Cards, 1)
	assert.True(s.T(), summary.Cards[0].OverLimit)
	assertDecimal(s.T(), "-100.00", summary.Cards[0].RemainingBalance)
}

func (s *BalanceSuite) TestUserSummaryZeroBalance() {
	owner := s.user("maria", false)
	card := s.card(owner, "Daily", "200.00")
	today := date(2025, time.March, 15)
	s.expense(owner, card, "200.00", today)

	summary, err := s.agg.UserSummary(owner.ID, period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)
	assertDecimal(s.T(), "0.00", summary.Balance)
	assert.True(s.T(), summary.Zero)
	assert.False(s.T(), summary.Negative)
	// Spending exactly the limit is not over it
	assert.False(s.T(), summary.Cards[0].OverLimit)
}

func (s *BalanceSuite) TestUserSummaryPeriodFiltering() {
	owner := s.user("maria", false)
	card := s.card(owner, "Daily", "1000.00")
	today := date(2025, time.March, 15)

	s.expense(owner, card, "10.00", date(2025, time.March, 1))  // First day, inclusive
	s.expense(owner, card, "20.00", date(2025, time.March, 31)) // Last day, inclusive
	s.expense(owner, card, "40.00", date(2025, time.February, 28))
	s.expense(owner, card, "80.00", date(2025, time.April, 1))

	month, err := s.agg.UserSummary(owner.ID, period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)
	assertDecimal(s.T(), "30.00", month.PeriodSpend, "only March expenses, both bounds inclusive")

	all, err := s.agg.UserSummary(owner.ID, nil)
	require.NoError(s.T(), err)
	assertDecimal(s.T(), "150.00", all.PeriodSpend)

	last30, err := s.agg.UserSummary(owner.ID, period.Resolve(period.Last30Days, today))
	require.NoError(s.T(), err)
	assertDecimal(s.T(), "50.00", last30.PeriodSpend, "Feb 28 falls inside today-30")
}

func (s *BalanceSuite) TestUserSummaryCardWithoutExpenses() {
	owner := s.user("maria", false)
	s.card(owner, "Idle", "300.00")

	summary, err := s.agg.UserSummary(owner.ID, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), summary.Cards, 1)
	// Absent expenses sum to zero, never null
	assertDecimal(s.T(), "0.00", summary.Cards[0].PeriodSpend)
	assertDecimal(s.T(), "300.00", summary.Cards[0].RemainingBalance)
}

func (s *BalanceSuite) TestUserSummaryCardsOrderedByName() {
	owner := s.user("maria", false)
	s.card(owner, "Zeta", "100.00")
	s.card(owner, "Alpha", "100.00")

	summary, err := s.agg.UserSummary(owner.ID, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), summary.Cards, 2)
	assert.Equal(s.T(), "Alpha", summary.Cards[0].Name)
	assert.Equal(s.T(), "Zeta", summary.Cards[1].Name)
}

func (s *BalanceSuite) TestAdminSummary() {
	s.user("admin", true)
	ana := s.user("ana", false)
	bruna := s.user("bruna", false)
	anaCard := s.card(ana, "Ana 1", "500.00")
	s.card(bruna, "Bruna 1", "250.00")
	s.card(bruna, "Bruna 2", "250.00")

	today := date(2025, time.March, 15)
	s.expense(ana, anaCard, "120.50", today)

	summary, err := s.agg.AdminSummary(period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)

	// Admins are not counted among the users being summarized
	assert.Equal(s.T(), int64(2), summary.TotalUsers)
	assert.Equal(s.T(), int64(3), summary.TotalCards)
	assertDecimal(s.T(), "1000.00", summary.TotalLimit)

	require.Len(s.T(), summary.Users, 2)
	assert.Equal(s.T(), "ana", summary.Users[0].Username)
	assertDecimal(s.T(), "500.00", summary.Users[0].LimitTotal)
	assertDecimal(s.T(), "120.50", summary.Users[0].PeriodSpend)
	assertDecimal(s.T(), "379.50", summary.Users[0].Balance)
	assert.Equal(s.T(), "bruna", summary.Users[1].Username)
	assertDecimal(s.T(), "0.00", summary.Users[1].PeriodSpend)
}

func (s *BalanceSuite) TestAdminSummaryEmpty() {
	s.user("admin", true)
	summary, err := s.agg.AdminSummary(nil)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), summary.TotalUsers)
	assert.Zero(s.T(), summary.TotalCards)
	assertDecimal(s.T(), "0.00", summary.TotalLimit)
	assert.Empty(s.T(), summary.Users)
}

func (s *BalanceSuite) TestDeterminism() {
	owner := s.user("maria", false)
	card := s.card(owner, "Daily", "500.00")
	today := date(2025, time.March, 15)
	s.expense(owner, card, "10.25", today)
	s.expense(owner, card, "20.75", today)

	rng := period.Resolve(period.CurrentMonth, today)
	first, err := s.agg.UserSummary(owner.ID, rng)
	require.NoError(s.T(), err)
	second, err := s.agg.UserSummary(owner.ID, rng)
	require.NoError(s.T(), err)
	assert.True(s.T(), first.PeriodSpend.Equal(second.PeriodSpend))
	assertDecimal(s.T(), "31.00", first.PeriodSpend)
}

func (s *BalanceSuite) TestUserSummaryKeepsSpendOnReassignedCard() {
	owner := s.user("maria", false)
	other := s.user("joao", false)
	moved := s.card(owner, "Daily", "500.00")
	kept := s.card(owner, "Travel", "300.00")
	today := date(2025, time.March, 15)
	s.expense(owner, moved, "120.50", today)
	s.expense(owner, kept, "50.00", today)

	// An admin reassigns the card; the expense stays with its original user
	require.NoError(s.T(), s.db.Model(moved).Update("user_id", other.ID).Error)

	summary, err := s.agg.UserSummary(owner.ID, period.Resolve(period.CurrentMonth, today))
	require.NoError(s.T(), err)

	// The total still counts the expense left behind on the moved card,
	// while the per-card breakdown only lists currently-owned cards
	assertDecimal(s.T(), "170.50", summary.PeriodSpend)
	assertDecimal(s.T(), "300.00", summary.LimitTotal)
	assertDecimal(s.T(), "129.50", summary.Balance)
	require.Len(s.T(), summary.Cards, 1)
	assert.Equal(s.T(), kept.ID, summary.Cards[0].CardID)
	assertDecimal(s.T(), "50.00", summary.Cards[0].PeriodSpend)
}

func TestBalanceSuite(t *testing.T) {
	suite.Run(t, new(BalanceSuite))
}
