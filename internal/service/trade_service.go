package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/repo"
	"github.com/dushixiang/coinbook/internal/telegram"
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier 平仓通知
type Notifier interface {
	Notify(msg string) error
}

// TradeService 持仓与平仓管理
type TradeService struct {
	logger *zap.Logger

	*orz.Service
	*repo.TradeRepo
	historyRepo *repo.TradeHistoryRepo
	pnlRepo     *repo.PnlEntryRepo

	prices      *PriceService
	notifier    Notifier
	reconciler  *ledger.Reconciler
	summaryRate decimal.Decimal
	now         func() time.Time
}

// TradeOptions 税率等可配置项
type TradeOptions struct {
	CloseTaxRate   decimal.Decimal
	SummaryTaxRate decimal.Decimal
}

// NewTradeService 创建持仓服务，prices 与 notifier 可以为空
func NewTradeService(db *gorm.DB, logger *zap.Logger, prices *PriceService, notifier Notifier, opts TradeOptions) *TradeService {
	if opts.CloseTaxRate.IsZero() {
		opts.CloseTaxRate = ledger.DefaultCloseTaxRate
	}
	if opts.SummaryTaxRate.IsZero() {
		opts.SummaryTaxRate = ledger.DefaultSummaryTaxRate
	}
	return &TradeService{
		logger:      logger,
		Service:     orz.NewService(db),
		TradeRepo:   repo.NewTradeRepo(db),
		historyRepo: repo.NewTradeHistoryRepo(db),
		pnlRepo:     repo.NewPnlEntryRepo(db),
		prices:      prices,
		notifier:    notifier,
		reconciler:  ledger.NewReconciler(opts.CloseTaxRate),
		summaryRate: opts.SummaryTaxRate,
		now:         time.Now,
	}
}

// CreateTradeRequest 开仓请求
type CreateTradeRequest struct {
	TokenID       string          `json:"token_id" validate:"required,max=128"`
	TokenSymbol   string          `json:"token_symbol" validate:"required,max=32"`
	TokenName     string          `json:"token_name" validate:"max=128"`
	TokenImage    string          `json:"token_image" validate:"omitempty,url"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchaseDate  string          `json:"purchase_date" validate:"required"`
}

// CloseTradeRequest 平仓请求
type CloseTradeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
	Date   string          `json:"date" validate:"required"`
}

// Create 开仓，图标缺失时尝试从行情服务补全
func (s *TradeService) Create(ctx context.Context, req CreateTradeRequest) (*models.Trade, error) {
	if !req.PurchasePrice.IsPositive() {
		return nil, xe.Wrap(xe.ErrInvalidAmount, "purchase price %s must be positive", req.PurchasePrice)
	}
	if !req.Quantity.IsPositive() {
		return nil, xe.Wrap(xe.ErrInvalidAmount, "quantity %s must be positive", req.Quantity)
	}
	date, err := ledger.ParseDate(req.PurchaseDate)
	if err != nil {
		return nil, xe.Wrap(xe.ErrValidation, "purchase_date: %v", err)
	}

	trade := models.Trade{
		ID:              ulid.Make().String(),
		TokenID:         strings.TrimSpace(strings.ToLower(req.TokenID)),
		TokenSymbol:     ledger.NormalizeSymbol(req.TokenSymbol),
		TokenName:       strings.TrimSpace(req.TokenName),
		TokenImage:      req.TokenImage,
		PurchasePrice:   req.PurchasePrice,
		InitialQuantity: req.Quantity,
		Quantity:        req.Quantity,
		PurchaseDate:    date,
		Status:          ledger.TradeOpen,
		RealizedPnl:     decimal.Zero,
	}
	if trade.TokenName == "" {
		trade.TokenName = trade.TokenSymbol
	}
	if trade.TokenImage == "" && s.prices != nil {
		if image, err := s.prices.TokenImage(ctx, trade.TokenID); err == nil {
			trade.TokenImage = image
		}
	}

	if err := s.TradeRepo.Create(ctx, &trade); err != nil {
		return nil, err
	}
	s.logger.Info("trade created",
		zap.String("trade_id", trade.ID),
		zap.String("token", trade.TokenSymbol),
		zap.String("quantity", trade.Quantity.String()),
		zap.String("purchase_price", trade.PurchasePrice.String()))
	return &trade, nil
}

// CloseResult 平仓后的持仓与本次平仓记录
type CloseResult struct {
	Trade   *models.Trade        `json:"trade"`
	History *models.TradeHistory `json:"history"`
}

// Close 全部或部分平仓，持仓、平仓记录与盈亏账本在同一事务内写入
func (s *TradeService) Close(ctx context.Context, id string, req CloseTradeRequest) (*CloseResult, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return nil, xe.Wrap(xe.ErrValidation, "date: %v", err)
	}

	var (
		trade   models.Trade
		history models.TradeHistory
		full    bool
	)
	err = s.Transaction(ctx, func(ctx context.Context) error {
		t, err := s.TradeRepo.FindById(ctx, id)
		if err != nil {
			return notFound(err, "trade", id)
		}

		result, err := s.reconciler.Close(t.Position(), req.Amount, req.Price, date)
		if err != nil {
			return ledgerError(err)
		}

		t.ApplyPosition(result.Position)
		if err := s.TradeRepo.Save(ctx, &t); err != nil {
			return err
		}

		h := models.TradeHistory{
			ID:      ulid.Make().String(),
			TradeID: t.ID,
			Date:    result.History.Date,
			Amount:  result.History.Amount,
			Price:   result.History.Price,
			Type:    result.History.Type,
			Pnl:     result.History.Pnl,
		}
		if err := s.historyRepo.Create(ctx, &h); err != nil {
			return err
		}

		if result.Pnl != nil {
			entry := models.PnlEntry{
				ID:          ulid.Make().String(),
				TradeID:     t.ID,
				HistoryID:   h.ID,
				Date:        result.Pnl.Date,
				TokenSymbol: result.Pnl.TokenSymbol,
				Amount:      result.Pnl.Amount,
				TaxEstimate: result.Pnl.TaxEstimate,
			}
			if err := s.pnlRepo.Create(ctx, &entry); err != nil {
				return err
			}
		}

		trade = t
		history = h
		full = result.FullClose()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trade closed",
		zap.String("trade_id", trade.ID),
		zap.String("type", string(history.Type)),
		zap.String("amount", history.Amount.String()),
		zap.String("pnl", history.Pnl.String()))

	if full && s.notifier != nil {
		go s.notifyClosed(trade)
	}
	return &CloseResult{Trade: &trade, History: &history}, nil
}

func (s *TradeService) notifyClosed(trade models.Trade) {
	closePrice := decimal.Zero
	if trade.ClosePrice != nil {
		closePrice = *trade.ClosePrice
	}
	msg := fmt.Sprintf("*%s* closed\nprice: %s\nrealized pnl: %s",
		telegram.EscapeMarkdownV2(trade.TokenSymbol),
		telegram.EscapeMarkdownV2(closePrice.String()),
		telegram.EscapeMarkdownV2(trade.RealizedPnl.String()))
	if err := s.notifier.Notify(msg); err != nil {
		s.logger.Warn("trade close notification failed", zap.String("trade_id", trade.ID), zap.Error(err))
	}
}

// DeleteHistoryEntry 撤销一次平仓，完全平仓时同时删除对应的盈亏账本条目
func (s *TradeService) DeleteHistoryEntry(ctx context.Context, historyID string) (*models.Trade, error) {
	var trade models.Trade
	err := s.Transaction(ctx, func(ctx context.Context) error {
		h, err := s.historyRepo.FindById(ctx, historyID)
		if err != nil {
			return notFound(err, "trade history", historyID)
		}
		t, err := s.TradeRepo.FindById(ctx, h.TradeID)
		if err != nil {
			return notFound(err, "trade", h.TradeID)
		}

		p, err := ledger.Undo(t.Position(), h.Entry())
		if err != nil {
			return ledgerError(err)
		}
		t.ApplyPosition(p)
		if err := s.TradeRepo.Save(ctx, &t); err != nil {
			return err
		}

		if h.Type == ledger.HistoryClose {
			n, err := s.pnlRepo.DeleteByHistory(ctx, t.ID, h.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				s.logger.Warn("no pnl ledger entry for undone close",
					zap.String("trade_id", t.ID), zap.String("history_id", h.ID))
			}
		}
		if err := s.historyRepo.DeleteById(ctx, h.ID); err != nil {
			return err
		}
		trade = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trade close undone", zap.String("trade_id", trade.ID), zap.String("history_id", historyID))
	return &trade, nil
}

// TradeDetail 持仓及其平仓记录和盈亏账本
type TradeDetail struct {
	Trade   models.Trade          `json:"trade"`
	History []models.TradeHistory `json:"history"`
	Pnl     []models.PnlEntry     `json:"pnl"`
}

// Get 获取持仓详情
func (s *TradeService) Get(ctx context.Context, id string) (*TradeDetail, error) {
	t, err := s.TradeRepo.FindById(ctx, id)
	if err != nil {
		return nil, notFound(err, "trade", id)
	}
	history, err := s.historyRepo.FindByTradeID(ctx, id)
	if err != nil {
		return nil, err
	}
	pnl, err := s.pnlRepo.FindByTradeID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TradeDetail{Trade: t, History: history, Pnl: pnl}, nil
}

// Delete 删除持仓及其平仓记录和盈亏账本
func (s *TradeService) Delete(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.TradeRepo.FindById(ctx, id); err != nil {
			return notFound(err, "trade", id)
		}
		if err := s.pnlRepo.DeleteByTradeID(ctx, id); err != nil {
			return err
		}
		if err := s.historyRepo.DeleteByTradeID(ctx, id); err != nil {
			return err
		}
		if err := s.TradeRepo.DeleteById(ctx, id); err != nil {
			return err
		}
		s.logger.Info("trade deleted", zap.String("trade_id", id))
		return nil
	})
}

// TradeList 持仓列表及汇总
type TradeList struct {
	Trades             []models.Trade  `json:"trades"`
	TotalRealizedPnl   decimal.Decimal `json:"total_realized_pnl"`
	TotalUnrealizedPnl decimal.Decimal `json:"total_unrealized_pnl"`
	TotalTaxEstimate   decimal.Decimal `json:"total_tax_estimate"`
}

// List 列出所有持仓，行情获取失败时不影响结果
func (s *TradeService) List(ctx context.Context) (*TradeList, error) {
	trades, err := s.TradeRepo.FindAllOrderByPurchaseDate(ctx)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, trades)

	list := &TradeList{
		Trades:             trades,
		TotalRealizedPnl:   decimal.Zero,
		TotalUnrealizedPnl: decimal.Zero,
	}
	for i := range trades {
		list.TotalRealizedPnl = list.TotalRealizedPnl.Add(trades[i].RealizedPnl)
		if trades[i].UnrealizedPnl != nil {
			list.TotalUnrealizedPnl = list.TotalUnrealizedPnl.Add(*trades[i].UnrealizedPnl)
		}
	}
	list.TotalTaxEstimate = ledger.SummaryTaxEstimate(list.TotalRealizedPnl, s.summaryRate)
	return list, nil
}

// enrich 用现价补全持仓中的未实现盈亏，只修改返回值不落库
func (s *TradeService) enrich(ctx context.Context, trades []models.Trade) {
	if s.prices == nil {
		return
	}
	ids := openTokenIDs(trades)
	if len(ids) == 0 {
		return
	}
	prices, err := s.prices.GetPrices(ctx, ids)
	if err != nil {
		return
	}
	now := s.now()
	for i := range trades {
		if price, ok := prices[trades[i].TokenID]; ok {
			trades[i].ApplyCurrentPrice(price, now)
		}
	}
}

// RefreshPrices 拉取现价并写入所有持仓中的记录，返回更新条数
func (s *TradeService) RefreshPrices(ctx context.Context) (int, error) {
	if s.prices == nil {
		return 0, nil
	}
	trades, err := s.TradeRepo.FindOpen(ctx)
	if err != nil {
		return 0, err
	}
	ids := openTokenIDs(trades)
	if len(ids) == 0 {
		return 0, nil
	}
	prices, err := s.prices.GetPrices(ctx, ids)
	if err != nil {
		return 0, err
	}

	now := s.now()
	updated := 0
	for i := range trades {
		t := &trades[i]
		price, ok := prices[t.TokenID]
		if !ok {
			continue
		}
		t.ApplyCurrentPrice(price, now)
		if err := s.TradeRepo.UpdateMarketPrice(ctx, t.ID, price, *t.UnrealizedPnl, now); err != nil {
			s.logger.Error("failed to update market price", zap.String("trade_id", t.ID), zap.Error(err))
			continue
		}
		updated++
	}
	return updated, nil
}

// ListPnl 按日期倒序列出盈亏账本
func (s *TradeService) ListPnl(ctx context.Context) ([]models.PnlEntry, error) {
	return s.pnlRepo.FindAllOrderByDateDesc(ctx)
}

func openTokenIDs(trades []models.Trade) []string {
	seen := make(map[string]struct{})
	var ids []string
	for i := range trades {
		if !trades[i].IsOpen() || trades[i].TokenID == "" {
			continue
		}
		if _, ok := seen[trades[i].TokenID]; ok {
			continue
		}
		seen[trades[i].TokenID] = struct{}{}
		ids = append(ids, trades[i].TokenID)
	}
	return ids
}
