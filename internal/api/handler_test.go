package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ledgerpay/gen/paymentpb"
	"ledgerpay/internal/api"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/application"
	"ledgerpay/internal/payment/domain"
	"ledgerpay/internal/payment/infrastructure/memory"
)

// HandlerSuite tests gRPC handler behavior including error mapping.
//
// Justification: Error-to-status-code mapping is a boundary concern that requires
// RPC-level testing. Infrastructure errors must translate to appropriate gRPC
// codes while business declines travel in the response body with status OK.
type HandlerSuite struct {
	suite.Suite
	handler *api.Handler
	ds      *memory.DataStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ds = memory.NewDataStore()
	service := application.NewPaymentService(s.ds, 24*time.Hour)
	s.handler = api.NewHandler(service)
}

func (s *HandlerSuite) seedAccount(currency string, availableMinor int64) types.AccountID {
	id := types.NewAccountID()
	now := time.Now().UTC()
	s.ds.SeedAccount(&domain.Account{
		ID:        id,
		Currency:  currency,
		Status:    domain.AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	s.ds.SeedBalance(&domain.AccountBalance{
		AccountID:      id,
		AvailableMinor: availableMinor,
		Currency:       currency,
		Version:        1,
		UpdatedAt:      now,
	})
	return id
}

func (s *HandlerSuite) authorizeRequest(key string, payer, payee types.AccountID, amountCents int64) *paymentpb.AuthorizePaymentRequest {
	return &paymentpb.AuthorizePaymentRequest{
		IdempotencyKey: key,
		PayerAccountId: payer.String(),
		PayeeAccountId: payee.String(),
		AmountCents:    amountCents,
		Currency:       "USD",
	}
}

func (s *HandlerSuite) TestErrorMapping() {
	ctx := context.Background()

	s.Run("ErrRequestInFlight returns UNAVAILABLE", func() {
		payer := s.seedAccount("USD", 1_000)
		payee := s.seedAccount("USD", 0)

		claimed, _, err := s.ds.Idempotency().ClaimPending(ctx, "map-inflight", time.Now().UTC().Add(time.Hour))
		s.Require().NoError(err)
		s.Require().True(claimed)

		_, err = s.handler.AuthorizePayment(ctx, s.authorizeRequest("map-inflight", payer, payee, 100))

		s.Equal(codes.Unavailable, status.Code(err))
		s.Contains(status.Convert(err).Message(), "retry with the same idempotency key")
	})

	s.Run("ErrPaymentNotFound returns NOT_FOUND", func() {
		_, err := s.handler.GetPayment(ctx, &paymentpb.GetPaymentRequest{PaymentId: types.NewPaymentID().String()})

		s.Equal(codes.NotFound, status.Code(err))
		s.Contains(status.Convert(err).Message(), "payment not found")
	})

	s.Run("ErrBalanceNotFound returns NOT_FOUND", func() {
		_, err := s.handler.GetAccountBalance(ctx, &paymentpb.GetAccountBalanceRequest{AccountId: types.NewAccountID().String()})

		s.Equal(codes.NotFound, status.Code(err))
		s.Contains(status.Convert(err).Message(), "account balance not found")
	})

	s.Run("declines travel in the body, not as status codes", func() {
		payer := s.seedAccount("USD", 100)
		payee := s.seedAccount("USD", 0)

		resp, err := s.handler.AuthorizePayment(ctx, s.authorizeRequest("map-decline", payer, payee, 500))

		s.Require().NoError(err, "declines must not be transport errors")
		s.Equal(paymentpb.PaymentStatus_PAYMENT_STATUS_DECLINED, resp.GetStatus())
		s.Equal("INSUFFICIENT_FUNDS", resp.GetError().GetCode())
	})
}

func (s *HandlerSuite) TestRequestValidation() {
	ctx := context.Background()
	payer := types.NewAccountID()
	payee := types.NewAccountID()

	s.Run("missing idempotency_key returns INVALID_ARGUMENT", func() {
		req := s.authorizeRequest("", payer, payee, 100)

		_, err := s.handler.AuthorizePayment(ctx, req)

		s.Equal(codes.InvalidArgument, status.Code(err))
		s.Contains(status.Convert(err).Message(), "idempotency_key is required")
	})

	s.Run("missing payer_account_id returns INVALID_ARGUMENT", func() {
		req := s.authorizeRequest("val-1", payer, payee, 100)
		req.PayerAccountId = ""

		_, err := s.handler.AuthorizePayment(ctx, req)

		s.Equal(codes.InvalidArgument, status.Code(err))
		s.Contains(status.Convert(err).Message(), "payer_account_id is required")
	})

	s.Run("missing payee_account_id returns INVALID_ARGUMENT", func() {
		req := s.authorizeRequest("val-2", payer, payee, 100)
		req.PayeeAccountId = ""

		_, err := s.handler.AuthorizePayment(ctx, req)

		s.Equal(codes.InvalidArgument, status.Code(err))
		s.Contains(status.Convert(err).Message(), "payee_account_id is required")
	})

	s.Run("lowercase currency returns INVALID_ARGUMENT", func() {
		req := s.authorizeRequest("val-3", payer, payee, 100)
		req.Currency = "usd"

		_, err := s.handler.AuthorizePayment(ctx, req)

		s.Equal(codes.InvalidArgument, status.Code(err))
		s.Contains(status.Convert(err).Message(), "currency")
	})

	s.Run("invalid payment_id format returns INVALID_ARGUMENT", func() {
		_, err := s.handler.GetPayment(ctx, &paymentpb.GetPaymentRequest{PaymentId: "not-an-id"})

		s.Equal(codes.InvalidArgument, status.Code(err))
	})

	s.Run("invalid account_id format returns INVALID_ARGUMENT", func() {
		_, err := s.handler.GetAccountBalance(ctx, &paymentpb.GetAccountBalanceRequest{AccountId: "not-an-id"})

		s.Equal(codes.InvalidArgument, status.Code(err))
	})
}

func (s *HandlerSuite) TestSuccessfulResponses() {
	ctx := context.Background()

	s.Run("AuthorizePayment returns AUTHORIZED with payment id", func() {
		payer := s.seedAccount("USD", 10_000)
		payee := s.seedAccount("USD", 0)

		resp, err := s.handler.AuthorizePayment(ctx, s.authorizeRequest("ok-auth", payer, payee, 2_500))

		s.Require().NoError(err)
		s.Equal(paymentpb.PaymentStatus_PAYMENT_STATUS_AUTHORIZED, resp.GetStatus())
		s.NotEmpty(resp.GetPaymentId())
		s.Nil(resp.GetError())
		_, parseErr := time.Parse(time.RFC3339, resp.GetProcessedAt())
		s.NoError(parseErr, "processed_at must be RFC3339")
	})

	s.Run("replayed key returns DUPLICATE with the original payment id", func() {
		payer := s.seedAccount("USD", 1_000)
		payee := s.seedAccount("USD", 0)
		req := s.authorizeRequest("ok-dup", payer, payee, 100)

		first, err := s.handler.AuthorizePayment(ctx, req)
		s.Require().NoError(err)
		second, err := s.handler.AuthorizePayment(ctx, req)
		s.Require().NoError(err)

		s.Equal(paymentpb.PaymentStatus_PAYMENT_STATUS_DUPLICATE, second.GetStatus())
		s.Equal(first.GetPaymentId(), second.GetPaymentId())
	})

	s.Run("GetPayment returns the stored payment", func() {
		payer := s.seedAccount("USD", 1_000)
		payee := s.seedAccount("USD", 0)
		req := s.authorizeRequest("ok-get", payer, payee, 250)
		req.Description = "coffee"

		authResp, err := s.handler.AuthorizePayment(ctx, req)
		s.Require().NoError(err)

		p, err := s.handler.GetPayment(ctx, &paymentpb.GetPaymentRequest{PaymentId: authResp.GetPaymentId()})

		s.Require().NoError(err)
		s.Equal(int64(250), p.GetAmountCents())
		s.Equal("USD", p.GetCurrency())
		s.Equal("coffee", p.GetDescription())
		s.Equal(paymentpb.PaymentStatus_PAYMENT_STATUS_AUTHORIZED, p.GetStatus())
	})

	s.Run("GetAccountBalance returns available funds", func() {
		id := s.seedAccount("EUR", 4_200)

		b, err := s.handler.GetAccountBalance(ctx, &paymentpb.GetAccountBalanceRequest{AccountId: id.String()})

		s.Require().NoError(err)
		s.Equal(int64(4_200), b.GetAvailableCents())
		s.Equal("EUR", b.GetCurrency())
	})
}
