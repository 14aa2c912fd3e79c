package binance

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/business/trading/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// FetchBalance returns every asset with a non-zero total.
func (c *Client) FetchBalance(ctx context.Context) (*arbdomain.BalanceSnapshot, error) {
	acct, err := call(ctx, c, "account", apperror.CodeBalanceFetchFailed, 20,
		func(ctx context.Context) (*binance.Account, error) {
			return c.api.NewGetAccountService().Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	balances := make(map[asset.Symbol]arbdomain.Balance, len(acct.Balances))
	for _, b := range acct.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			c.logger.Warn(ctx, "skipping malformed balance", "asset", b.Asset, "free", b.Free)
			continue
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			locked = decimal.Zero
		}
		total := free.Add(locked)
		if total.IsZero() {
			continue
		}
		balances[asset.NormalizeSymbol(b.Asset)] = arbdomain.Balance{Free: free, Total: total}
	}
	return arbdomain.NewBalanceSnapshot(balances, c.now()), nil
}

// CreateOrder places a GTC limit order.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	side, err := sideType(req.Side)
	if err != nil {
		return nil, err
	}
	symbol := c.exchangeSymbol(req.Pair)

	res, err := call(ctx, c, "create_order", apperror.CodeOrderSubmitFailed, 1,
		func(ctx context.Context) (*binance.CreateOrderResponse, error) {
			svc := c.api.NewCreateOrderService().
				Symbol(symbol).
				Side(side).
				Type(binance.OrderTypeLimit).
				TimeInForce(binance.TimeInForceTypeGTC).
				Quantity(req.Amount.String()).
				Price(req.Price.String())
			if req.ClientID != "" {
				svc = svc.NewClientOrderID(req.ClientID)
			}
			return svc.Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:        strconv.FormatInt(res.OrderID, 10),
		ClientID:  res.ClientOrderID,
		Pair:      req.Pair,
		Side:      req.Side,
		Type:      domain.OrderTypeLimit,
		Price:     parseOr(res.Price, req.Price),
		Amount:    parseOr(res.OrigQuantity, req.Amount),
		Filled:    parseOr(res.ExecutedQuantity, decimal.Zero),
		Cost:      parseOr(res.CummulativeQuoteQuantity, decimal.Zero),
		Status:    orderStatus(res.Status),
		Timestamp: time.UnixMilli(res.TransactTime),
	}, nil
}

// FetchOrder looks the order up by exchange id. The side is not needed on Binance.
func (c *Client) FetchOrder(ctx context.Context, q domain.OrderQuery) (*domain.Order, error) {
	id, err := strconv.ParseInt(q.ID, 10, 64)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("order id %q", q.ID), apperror.WithCause(err))
	}
	symbol := c.exchangeSymbol(q.Pair)

	res, err := call(ctx, c, "get_order", apperror.CodeOrderQueryFailed, 4,
		func(ctx context.Context) (*binance.Order, error) {
			return c.api.NewGetOrderService().Symbol(symbol).OrderID(id).Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	side := q.Side
	if s, err := arbdomain.ParseSide(string(res.Side)); err == nil {
		side = s
	}
	return &domain.Order{
		ID:        strconv.FormatInt(res.OrderID, 10),
		ClientID:  res.ClientOrderID,
		Pair:      q.Pair,
		Side:      side,
		Type:      domain.OrderTypeLimit,
		Price:     parseOr(res.Price, decimal.Zero),
		Amount:    parseOr(res.OrigQuantity, decimal.Zero),
		Filled:    parseOr(res.ExecutedQuantity, decimal.Zero),
		Cost:      parseOr(res.CummulativeQuoteQuantity, decimal.Zero),
		Status:    orderStatus(res.Status),
		Timestamp: time.UnixMilli(res.Time),
	}, nil
}

// FetchOrderStatus returns only the status of the order.
func (c *Client) FetchOrderStatus(ctx context.Context, q domain.OrderQuery) (domain.OrderStatus, error) {
	o, err := c.FetchOrder(ctx, q)
	if err != nil {
		return domain.StatusUnknown, err
	}
	return o.Status, nil
}

func sideType(s arbdomain.Side) (binance.SideType, error) {
	switch s {
	case arbdomain.SideBuy:
		return binance.SideTypeBuy, nil
	case arbdomain.SideSell:
		return binance.SideTypeSell, nil
	}
	return "", apperror.New(apperror.CodeInvalidInput, apperror.WithContextf("side %q", s))
}

func orderStatus(s binance.OrderStatusType) domain.OrderStatus {
	switch s {
	case binance.OrderStatusTypeNew, binance.OrderStatusTypePartiallyFilled:
		return domain.StatusOpen
	case binance.OrderStatusTypeFilled:
		return domain.StatusClosed
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypePendingCancel:
		return domain.StatusCanceled
	case binance.OrderStatusTypeRejected:
		return domain.StatusRejected
	case binance.OrderStatusTypeExpired, "EXPIRED_IN_MATCH":
		return domain.StatusExpired
	}
	return domain.StatusUnknown
}

func parseOr(s string, def decimal.Decimal) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return def
	}
	return v
}
