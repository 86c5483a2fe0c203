package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/repo"
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

// CashflowService 支出与收入记录
type CashflowService struct {
	logger *zap.Logger

	*orz.Service
	expenseRepo *repo.ExpenseRepo
	incomeRepo  *repo.IncomeRepo
}

func NewCashflowService(db *gorm.DB, logger *zap.Logger) *CashflowService {
	return &CashflowService{
		logger:      logger,
		Service:     orz.NewService(db),
		expenseRepo: repo.NewExpenseRepo(db),
		incomeRepo:  repo.NewIncomeRepo(db),
	}
}

// CashflowRequest 支出或收入请求，Category 对收入表示来源
type CashflowRequest struct {
	Date        string          `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"required,max=64"`
	Description string          `json:"description" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,len=3"`
}

func (r CashflowRequest) parse() (time.Time, string, error) {
	date, err := ledger.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, "", xe.Wrap(xe.ErrValidation, "date: %v", err)
	}
	if !r.Amount.IsPositive() {
		return time.Time{}, "", xe.Wrap(xe.ErrInvalidAmount, "amount %s must be positive", r.Amount)
	}
	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	return ledger.NormalizeDay(date), currency, nil
}

// ParseRange 解析可选的起止日期，结束日期包含当天
func ParseRange(from, to string) (repo.DateRange, error) {
	var rng repo.DateRange
	if from != "" {
		d, err := ledger.ParseDate(from)
		if err != nil {
			return rng, xe.Wrap(xe.ErrValidation, "from: %v", err)
		}
		rng.From, _ = ledger.DayBounds(d)
	}
	if to != "" {
		d, err := ledger.ParseDate(to)
		if err != nil {
			return rng, xe.Wrap(xe.ErrValidation, "to: %v", err)
		}
		_, rng.To = ledger.DayBounds(d)
	}
	return rng, nil
}

func (s *CashflowService) CreateExpense(ctx context.Context, req CashflowRequest) (*models.Expense, error) {
	date, currency, err := req.parse()
	if err != nil {
		return nil, err
	}
	item := models.Expense{
		ID:          ulid.Make().String(),
		Date:        date,
		Category:    strings.TrimSpace(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
	}
	if err := s.expenseRepo.Create(ctx, &item); err != nil {
		return nil, err
	}
	s.logger.Info("expense created", zap.String("expense_id", item.ID), zap.String("amount", item.Amount.String()))
	return &item, nil
}

func (s *CashflowService) UpdateExpense(ctx context.Context, id string, req CashflowRequest) (*models.Expense, error) {
	date, currency, err := req.parse()
	if err != nil {
		return nil, err
	}
	var item models.Expense
	err = s.Transaction(ctx, func(ctx context.Context) error {
		m, err := s.expenseRepo.FindById(ctx, id)
		if err != nil {
			return notFound(err, "expense", id)
		}
		m.Date = date
		m.Category = strings.TrimSpace(req.Category)
		m.Description = req.Description
		m.Amount = req.Amount
		m.Currency = currency
		if err := s.expenseRepo.Save(ctx, &m); err != nil {
			return err
		}
		item = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CashflowService) DeleteExpense(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.expenseRepo.FindById(ctx, id); err != nil {
			return notFound(err, "expense", id)
		}
		return s.expenseRepo.DeleteById(ctx, id)
	})
}

func (s *CashflowService) ListExpenses(ctx context.Context, rng repo.DateRange) ([]models.Expense, error) {
	return s.expenseRepo.FindInRange(ctx, rng)
}

func (s *CashflowService) CreateIncome(ctx context.Context, req CashflowRequest) (*models.Income, error) {
	date, currency, err := req.parse()
	if err != nil {
		return nil, err
	}
	item := models.Income{
		ID:          ulid.Make().String(),
		Date:        date,
		Source:      strings.TrimSpace(req.Category),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
	}
	if err := s.incomeRepo.Create(ctx, &item); err != nil {
		return nil, err
	}
	s.logger.Info("income created", zap.String("income_id", item.ID), zap.String("amount", item.Amount.String()))
	return &item, nil
}

func (s *CashflowService) UpdateIncome(ctx context.Context, id string, req CashflowRequest) (*models.Income, error) {
	date, currency, err := req.parse()
	if err != nil {
		return nil, err
	}
	var item models.Income
	err = s.Transaction(ctx, func(ctx context.Context) error {
		m, err := s.incomeRepo.FindById(ctx, id)
		if err != nil {
			return notFound(err, "income", id)
		}
		m.Date = date
		m.Source = strings.TrimSpace(req.Category)
		m.Description = req.Description
		m.Amount = req.Amount
		m.Currency = currency
		if err := s.incomeRepo.Save(ctx, &m); err != nil {
			return err
		}
		item = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CashflowService) DeleteIncome(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.incomeRepo.FindById(ctx, id); err != nil {
			return notFound(err, "income", id)
		}
		return s.incomeRepo.DeleteById(ctx, id)
	})
}

func (s *CashflowService) ListIncomes(ctx context.Context, rng repo.DateRange) ([]models.Income, error) {
	return s.incomeRepo.FindInRange(ctx, rng)
}

// CategoryTotal 分类合计
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CashflowSummary 收支汇总，金额按记录原值相加，不做汇率换算
type CashflowSummary struct {
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	Net           decimal.Decimal `json:"net"`
	ByCategory    []CategoryTotal `json:"by_category"`
	BySource      []CategoryTotal `json:"by_source"`
}

// Summary 汇总范围内的收支
func (s *CashflowService) Summary(ctx context.Context, rng repo.DateRange) (*CashflowSummary, error) {
	expenses, err := s.expenseRepo.FindInRange(ctx, rng)
	if err != nil {
		return nil, err
	}
	incomes, err := s.incomeRepo.FindInRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	summary := &CashflowSummary{
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}
	byCategory := map[string]decimal.Decimal{}
	for _, e := range expenses {
		summary.TotalExpenses = summary.TotalExpenses.Add(e.Amount)
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}
	bySource := map[string]decimal.Decimal{}
	for _, i := range incomes {
		summary.TotalIncome = summary.TotalIncome.Add(i.Amount)
		bySource[i.Source] = bySource[i.Source].Add(i.Amount)
	}
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.ByCategory = sortedTotals(byCategory)
	summary.BySource = sortedTotals(bySource)
	return summary, nil
}

// sortedTotals 按金额倒序，金额相同按名称
func sortedTotals(m map[string]decimal.Decimal) []CategoryTotal {
	totals := make([]CategoryTotal, 0, len(m))
	for k, v := range m {
		totals = append(totals, CategoryTotal{Category: k, Amount: v})
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Amount.Cmp(totals[j].Amount); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}
