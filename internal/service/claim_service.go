package service

import (
	"context"
	"errors"
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

// ClaimService 代币领取记录服务，同一 UTC 日期的领取合并为一条记录
type ClaimService struct {
	logger *zap.Logger

	*orz.Service
	*repo.ClaimRepo
}

// NewClaimService 创建领取记录服务
func NewClaimService(db *gorm.DB, logger *zap.Logger) *ClaimService {
	return &ClaimService{
		logger:    logger,
		Service:   orz.NewService(db),
		ClaimRepo: repo.NewClaimRepo(db),
	}
}

// ClaimRequest 提交或修改领取记录的请求
type ClaimRequest struct {
	Date          string               `json:"date" validate:"required"`
	TokenDetails  []ledger.TokenDetail `json:"token_details" validate:"dive"`
	TotalAmount   *decimal.Decimal     `json:"total_amount"` // 仅用于校对，以明细之和为准
	HeldForTaxes  bool                 `json:"held_for_taxes"`
	TaxAmount     *decimal.Decimal     `json:"tax_amount"`
	TaxPercentage *decimal.Decimal     `json:"tax_percentage"`
	Txn           string               `json:"txn" validate:"max=128"`
}

// TaxMode 根据请求确定预留税款方式：未勾选则清空，给出税率按比例，否则按固定金额
func (r ClaimRequest) TaxMode() ledger.TaxMode {
	switch {
	case !r.HeldForTaxes:
		return ledger.NoTax()
	case r.TaxPercentage != nil:
		return ledger.Percentage(*r.TaxPercentage)
	case r.TaxAmount != nil:
		return ledger.FixedAmount(*r.TaxAmount)
	default:
		return ledger.FixedAmount(decimal.Zero)
	}
}

func (r ClaimRequest) parse() (time.Time, ledger.TokenAmounts, error) {
	date, err := ledger.ParseDate(r.Date)
	if err != nil {
		return time.Time{}, nil, xe.Wrap(xe.ErrValidation, "date: %v", err)
	}
	for _, d := range r.TokenDetails {
		if ledger.NormalizeSymbol(d.Symbol) == "" {
			return time.Time{}, nil, xe.Wrap(xe.ErrValidation, "token symbol is required")
		}
		if d.Amount.IsNegative() {
			return time.Time{}, nil, xe.Wrap(xe.ErrInvalidAmount, "amount of %s is negative", d.Symbol)
		}
	}
	return date, ledger.ReduceTokenDetails(r.TokenDetails), nil
}

// ClaimView 领取记录的对外表示
type ClaimView struct {
	ID            string              `json:"id"`
	Date          string              `json:"date"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	TokenTotals   ledger.TokenAmounts `json:"token_totals"`
	HeldForTaxes  bool                `json:"held_for_taxes"`
	TaxAmount     *decimal.Decimal    `json:"tax_amount"`
	TaxPercentage *decimal.Decimal    `json:"tax_percentage"`
	NetAmount     decimal.Decimal     `json:"net_amount"`
	Txn           string              `json:"txn"`
}

// NewClaimView 转换为对外表示
func NewClaimView(c *models.Claim) ClaimView {
	return ClaimView{
		ID:            c.ID,
		Date:          c.Date.UTC().Format(time.RFC3339),
		TotalAmount:   c.TotalAmount,
		TokenTotals:   c.TokenClaims(),
		HeldForTaxes:  c.HeldForTaxes,
		TaxAmount:     c.TaxAmount,
		TaxPercentage: c.TaxPercentage,
		NetAmount:     c.NetAmount(),
		Txn:           c.Txn,
	}
}

// Submit 提交领取：当日无记录则新建，已有记录则合并
func (s *ClaimService) Submit(ctx context.Context, req ClaimRequest) (*ClaimView, error) {
	date, tokens, err := req.parse()
	if err != nil {
		return nil, err
	}
	s.checkCallerTotal(req.TotalAmount, tokens.Sum())

	var claim models.Claim
	submit := func(ctx context.Context) error {
		c, err := s.createOrMerge(ctx, date, tokens, req)
		if err != nil {
			return err
		}
		claim = c
		return nil
	}

	err = s.Transaction(ctx, submit)
	if isDuplicateKey(err) {
		// 并发提交抢先创建了当日记录，重试一次即走合并分支
		s.logger.Warn("claim day created concurrently, retrying as merge",
			zap.String("day", ledger.DayKey(ledger.NormalizeDay(date))))
		err = s.Transaction(ctx, submit)
	}
	if err != nil {
		return nil, err
	}

	view := NewClaimView(&claim)
	return &view, nil
}

func (s *ClaimService) createOrMerge(ctx context.Context, date time.Time, tokens ledger.TokenAmounts, req ClaimRequest) (models.Claim, error) {
	day := ledger.DayKey(ledger.NormalizeDay(date))
	existing, err := s.ClaimRepo.FindByDay(ctx, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.create(ctx, date, tokens, req)
	}
	if err != nil {
		return models.Claim{}, err
	}
	return s.merge(ctx, existing, tokens, req)
}

func (s *ClaimService) create(ctx context.Context, date time.Time, tokens ledger.TokenAmounts, req ClaimRequest) (models.Claim, error) {
	hold, err := ledger.ComputeTax(tokens.Sum(), req.TaxMode())
	if err != nil {
		return models.Claim{}, ledgerError(err)
	}

	claim := models.Claim{
		ID:  ulid.Make().String(),
		Txn: strings.TrimSpace(req.Txn),
	}
	claim.SetDate(date)
	claim.SetTokenClaims(tokens)
	claim.ApplyTaxHold(hold)

	if err := claim.Details.Data().Validate(); err != nil {
		return models.Claim{}, xe.Wrap(xe.ErrValidation, "%v", err)
	}
	if err := s.ClaimRepo.Create(ctx, &claim); err != nil {
		return models.Claim{}, err
	}

	s.logger.Info("claim created",
		zap.String("claim_id", claim.ID),
		zap.String("day", claim.Day),
		zap.String("total_amount", claim.TotalAmount.String()))
	return claim, nil
}

func (s *ClaimService) merge(ctx context.Context, existing models.Claim, tokens ledger.TokenAmounts, req ClaimRequest) (models.Claim, error) {
	merged := ledger.MergeTokenClaims(existing.TokenClaims(), tokens)

	existingTax := decimal.Zero
	if existing.TaxAmount != nil {
		existingTax = *existing.TaxAmount
	}

	// 固定金额以合并后总额扣除已预留部分为上限，仅调整税款的提交也能通过
	base := tokens.Sum()
	mode := req.TaxMode()
	if mode.Kind == ledger.TaxFixedAmount {
		base = merged.Sum().Sub(existingTax)
	}
	incoming, err := ledger.ComputeTax(base, mode)
	if err != nil {
		return models.Claim{}, ledgerError(err)
	}

	hold := ledger.TaxHold{HeldForTaxes: existing.HeldForTaxes || incoming.HeldForTaxes}
	if hold.HeldForTaxes {
		amount := existingTax
		if incoming.TaxAmount != nil {
			amount = amount.Add(*incoming.TaxAmount)
		}
		hold.TaxAmount = &amount
		if existing.TaxPercentage != nil && incoming.TaxPercentage != nil && existing.TaxPercentage.Equal(*incoming.TaxPercentage) {
			p := *existing.TaxPercentage
			hold.TaxPercentage = &p
		}
	}

	txn := strings.TrimSpace(req.Txn)
	switch {
	case existing.Txn == "":
		existing.Txn = txn
	case txn != "" && txn != existing.Txn:
		s.logger.Warn("claim merge keeps first transaction reference",
			zap.String("claim_id", existing.ID),
			zap.String("kept_txn", existing.Txn),
			zap.String("dropped_txn", txn))
	}

	existing.SetTokenClaims(merged)
	existing.ApplyTaxHold(hold)

	if err := existing.Details.Data().Validate(); err != nil {
		return models.Claim{}, xe.Wrap(xe.ErrValidation, "%v", err)
	}
	if err := s.ClaimRepo.Save(ctx, &existing); err != nil {
		return models.Claim{}, err
	}

	s.logger.Info("claim merged",
		zap.String("claim_id", existing.ID),
		zap.String("day", existing.Day),
		zap.Int("tokens", len(merged)),
		zap.String("total_amount", existing.TotalAmount.String()))
	return existing, nil
}

// Update 按ID直接覆盖领取记录，不做合并
func (s *ClaimService) Update(ctx context.Context, id string, req ClaimRequest) (*ClaimView, error) {
	date, tokens, err := req.parse()
	if err != nil {
		return nil, err
	}
	s.checkCallerTotal(req.TotalAmount, tokens.Sum())

	hold, err := ledger.ComputeTax(tokens.Sum(), req.TaxMode())
	if err != nil {
		return nil, ledgerError(err)
	}

	var claim models.Claim
	err = s.Transaction(ctx, func(ctx context.Context) error {
		c, err := s.ClaimRepo.FindById(ctx, id)
		if err != nil {
			return notFound(err, "claim", id)
		}

		c.SetDate(date)
		other, err := s.ClaimRepo.FindByDay(ctx, c.Day)
		if err == nil && other.ID != c.ID {
			return xe.Wrap(xe.ErrInvalidState, "claim %s already exists on %s", other.ID, c.Day)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		c.SetTokenClaims(tokens)
		c.ApplyTaxHold(hold)
		c.Txn = strings.TrimSpace(req.Txn)

		if err := c.Details.Data().Validate(); err != nil {
			return xe.Wrap(xe.ErrValidation, "%v", err)
		}
		if err := s.ClaimRepo.Save(ctx, &c); err != nil {
			return err
		}
		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("claim updated", zap.String("claim_id", id))
	view := NewClaimView(&claim)
	return &view, nil
}

// Delete 删除领取记录
func (s *ClaimService) Delete(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.ClaimRepo.FindById(ctx, id); err != nil {
			return notFound(err, "claim", id)
		}
		if err := s.ClaimRepo.DeleteById(ctx, id); err != nil {
			return err
		}
		s.logger.Info("claim deleted", zap.String("claim_id", id))
		return nil
	})
}

// Get 获取单条领取记录
func (s *ClaimService) Get(ctx context.Context, id string) (*ClaimView, error) {
	c, err := s.ClaimRepo.FindById(ctx, id)
	if err != nil {
		return nil, notFound(err, "claim", id)
	}
	view := NewClaimView(&c)
	return &view, nil
}

// List 按日期倒序列出领取记录，from/to 为可选的起止日期（含两端）
func (s *ClaimService) List(ctx context.Context, from, to string) ([]ClaimView, error) {
	fromDay, err := dayKeyOf("from", from)
	if err != nil {
		return nil, err
	}
	toDay, err := dayKeyOf("to", to)
	if err != nil {
		return nil, err
	}
	claims, err := s.ClaimRepo.FindBetweenDays(ctx, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	views := make([]ClaimView, 0, len(claims))
	for i := range claims {
		views = append(views, NewClaimView(&claims[i]))
	}
	return views, nil
}

// ClaimTotals 领取汇总
type ClaimTotals struct {
	Count       int                 `json:"count"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	TaxHeld     decimal.Decimal     `json:"tax_held"`
	NetAmount   decimal.Decimal     `json:"net_amount"`
	ByToken     ledger.TokenAmounts `json:"by_token"`
}

// Totals 汇总所有领取记录
func (s *ClaimService) Totals(ctx context.Context) (*ClaimTotals, error) {
	claims, err := s.ClaimRepo.FindAllOrderByDateDesc(ctx)
	if err != nil {
		return nil, err
	}

	totals := &ClaimTotals{
		Count:       len(claims),
		TotalAmount: decimal.Zero,
		TaxHeld:     decimal.Zero,
		ByToken:     ledger.TokenAmounts{},
	}
	for i := range claims {
		c := &claims[i]
		totals.TotalAmount = totals.TotalAmount.Add(c.TotalAmount)
		if c.TaxAmount != nil {
			totals.TaxHeld = totals.TaxHeld.Add(*c.TaxAmount)
		}
		totals.ByToken = ledger.MergeTokenClaims(totals.ByToken, c.TokenClaims())
	}
	totals.NetAmount = totals.TotalAmount.Sub(totals.TaxHeld)
	return totals, nil
}

func (s *ClaimService) checkCallerTotal(given *decimal.Decimal, derived decimal.Decimal) {
	if given != nil && !given.Equal(derived) {
		s.logger.Warn("claim total differs from token details, using derived sum",
			zap.String("given", given.String()),
			zap.String("derived", derived.String()))
	}
}

func dayKeyOf(field, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	d, err := ledger.ParseDate(value)
	if err != nil {
		return "", xe.Wrap(xe.ErrValidation, "%s: %v", field, err)
	}
	return ledger.DayKey(ledger.NormalizeDay(d)), nil
}
