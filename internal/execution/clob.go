package execution

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mselser95/polymarket-lag/internal/markets"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"
)

// ClobVenue submits signed orders to the Polymarket CLOB.
type ClobVenue struct {
	baseURL       string
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string // EOA address (signer)
	proxyAddress  string // Proxy address (maker/funder)
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	httpClient    *http.Client
	metadata      *markets.CachedMetadataClient
	logger        *zap.Logger
}

// ClobConfig holds configuration for the live venue.
type ClobConfig struct {
	BaseURL       string
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	Address       string
	ProxyAddress  string
	SignatureType int
	Metadata      *markets.CachedMetadataClient // optional tick-size and min-size source
	Logger        *zap.Logger
}

// NewClobVenue creates a live CLOB venue.
func NewClobVenue(cfg *ClobConfig) (*ClobVenue, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	// Derive EOA address if not provided
	address := cfg.Address
	if address == "" {
		publicKey := privateKey.Public()
		publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
		address = crypto.PubkeyToAddress(*publicKeyECDSA).Hex()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://clob.polymarket.com"
	}

	chainID := big.NewInt(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(chainID, nil)

	return &ClobVenue{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		metadata:      cfg.Metadata,
		logger:        cfg.Logger,
	}, nil
}

// PlaceOrder builds, signs, and submits a single order. Immediate orders go
// out fill-or-kill at the quote price; price-protected orders go out GTC at
// the limit price.
func (v *ClobVenue) PlaceOrder(ctx context.Context, req OrderRequest) (*types.Fill, error) {
	start := time.Now()
	defer func() {
		OrderLatencySeconds.Observe(time.Since(start).Seconds())
	}()

	price := req.QuotePrice
	orderType := "FOK"
	if req.LimitPrice != nil {
		price = *req.LimitPrice
		orderType = "GTC"
	}

	if price <= 0 || req.Size <= 0 {
		OrdersRejectedTotal.WithLabelValues("invalid_request").Inc()
		return nil, &types.OrderRejectedError{
			Code:    types.ErrCodeUnknownStatus,
			Message: fmt.Sprintf("invalid order: price=%.4f size=%.4f", price, req.Size),
			TokenID: req.TokenID,
		}
	}

	price, err := v.applyTokenConstraints(ctx, req, price)
	if err != nil {
		return nil, err
	}

	makerAddress := v.address
	if v.proxyAddress != "" {
		makerAddress = v.proxyAddress
	}

	// BUY: maker pays USDC, taker amount is outcome tokens.
	// SELL: maker gives outcome tokens, taker amount is USDC.
	side := model.BUY
	makerAmount := usdToRawAmount(price * req.Size)
	takerAmount := usdToRawAmount(req.Size)
	if req.Side == Sell {
		side = model.SELL
		makerAmount = usdToRawAmount(req.Size)
		takerAmount = usdToRawAmount(price * req.Size)
	}

	orderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenId:       req.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        v.address,
		Expiration:    "0",
		SignatureType: v.signatureType,
	}

	signedOrder, err := v.orderBuilder.BuildSignedOrder(v.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build order: %w", err)
	}

	resp, err := v.submitOrder(ctx, signedOrder, orderType)
	if err != nil {
		return nil, err
	}

	if !resp.Success || resp.ErrorMsg != "" {
		OrdersRejectedTotal.WithLabelValues("venue_declined").Inc()
		return nil, &types.OrderRejectedError{
			Code:    resp.Status,
			Message: resp.ErrorMsg,
			TokenID: req.TokenID,
		}
	}

	OrdersPlacedTotal.WithLabelValues(string(req.Side), strings.ToLower(orderType)).Inc()

	v.logger.Info("order-placed",
		zap.String("order-id", resp.OrderID),
		zap.String("token-id", req.TokenID),
		zap.String("side", string(req.Side)),
		zap.String("order-type", orderType),
		zap.Float64("price", price),
		zap.Float64("size", req.Size))

	// The CLOB reports the signed price; FOK either fills fully at or better
	// than it, or rejects above.
	return &types.Fill{
		OrderID: resp.OrderID,
		Price:   price,
		Size:    req.Size,
		Time:    time.Now(),
	}, nil
}

// applyTokenConstraints snaps the price to the token's tick grid and rejects
// orders below the exchange minimum. Buys round down and sells round up so
// rounding never crosses the caller's price protection. Metadata fetch
// failures are logged and the order proceeds with the requested price.
func (v *ClobVenue) applyTokenConstraints(ctx context.Context, req OrderRequest, price float64) (float64, error) {
	if v.metadata == nil {
		return price, nil
	}

	tickSize, minOrderSize, err := v.metadata.GetTokenMetadata(ctx, req.TokenID)
	if err != nil {
		v.logger.Warn("token-metadata-unavailable",
			zap.String("token-id", req.TokenID),
			zap.Error(err))
		return price, nil
	}

	if req.Size < minOrderSize {
		OrdersRejectedTotal.WithLabelValues("below_min_order_size").Inc()
		return 0, &types.OrderRejectedError{
			Code:    types.ErrCodeUnknownStatus,
			Message: fmt.Sprintf("size %.4f below venue minimum %.4f", req.Size, minOrderSize),
			TokenID: req.TokenID,
		}
	}

	if tickSize > 0 {
		ticks := price / tickSize
		if req.Side == Sell {
			price = math.Ceil(ticks-1e-9) * tickSize
		} else {
			price = math.Floor(ticks+1e-9) * tickSize
		}
	}

	return price, nil
}

func (v *ClobVenue) submitOrder(ctx context.Context, order *model.SignedOrder, orderType string) (*types.OrderSubmissionResponse, error) {
	sideStr := "BUY"
	if order.Side.Uint64() == uint64(model.SELL) {
		sideStr = "SELL"
	}

	jsonOrder := types.SignedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}

	// "owner" is the API key, not the maker address
	orderRequest := types.OrderSubmissionRequest{
		Order:     jsonOrder,
		Owner:     v.apiKey,
		OrderType: orderType,
	}

	reqBody, err := json.Marshal(orderRequest)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	method := "POST"
	requestPath := "/order"

	signaturePayload := timestamp + method + requestPath + string(reqBody)

	// URL-safe base64 both ways, matching the official client
	secretBytes, err := base64.URLEncoding.DecodeString(v.secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(signaturePayload))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, method, v.baseURL+requestPath, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", v.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", v.passphrase)
	req.Header.Set("POLY_ADDRESS", v.address) // EOA address from private key

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var orderResp types.OrderSubmissionResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return &orderResp, nil
}

// Close is a no-op; the venue holds no persistent connections.
func (v *ClobVenue) Close() error {
	return nil
}

func usdToRawAmount(usd float64) string {
	rawAmount := int64(usd * 1000000)
	return fmt.Sprintf("%d", rawAmount)
}
