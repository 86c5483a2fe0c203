package service

import (
	"context"

	"github.com/dushixiang/coinbook/internal/repo"
	"github.com/shopspring/decimal"
)

// DashboardService 汇总各模块数据
type DashboardService struct {
	claimService    *ClaimService
	tradeService    *TradeService
	cashflowService *CashflowService
}

func NewDashboardService(claimService *ClaimService, tradeService *TradeService, cashflowService *CashflowService) *DashboardService {
	return &DashboardService{
		claimService:    claimService,
		tradeService:    tradeService,
		cashflowService: cashflowService,
	}
}

// TradeSummary 持仓汇总
type TradeSummary struct {
	Open               int             `json:"open"`
	Closed             int             `json:"closed"`
	TotalRealizedPnl   decimal.Decimal `json:"total_realized_pnl"`
	TotalUnrealizedPnl decimal.Decimal `json:"total_unrealized_pnl"`
	TotalTaxEstimate   decimal.Decimal `json:"total_tax_estimate"`
}

// Dashboard 仪表盘数据
type Dashboard struct {
	Claims   ClaimTotals     `json:"claims"`
	Trades   TradeSummary    `json:"trades"`
	Cashflow CashflowSummary `json:"cashflow"`
}

// Summary 汇总领取、持仓与收支
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	claims, err := s.claimService.Totals(ctx)
	if err != nil {
		return nil, err
	}
	trades, err := s.tradeService.List(ctx)
	if err != nil {
		return nil, err
	}
	cashflow, err := s.cashflowService.Summary(ctx, repo.DateRange{})
	if err != nil {
		return nil, err
	}

	summary := TradeSummary{
		TotalRealizedPnl:   trades.TotalRealizedPnl,
		TotalUnrealizedPnl: trades.TotalUnrealizedPnl,
		TotalTaxEstimate:   trades.TotalTaxEstimate,
	}
	for i := range trades.Trades {
		if trades.Trades[i].IsOpen() {
			summary.Open++
		} else {
			summary.Closed++
		}
	}

	return &Dashboard{
		Claims:   *claims,
		Trades:   summary,
		Cashflow: *cashflow,
	}, nil
}
