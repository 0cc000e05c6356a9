// Package api exposes the payment service over gRPC: request
// validation, domain-to-wire mapping, admission control and the server
// lifecycle.
package api

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ledgerpay/gen/paymentpb"
	"ledgerpay/internal/common/logging"
	"ledgerpay/internal/common/types"
	"ledgerpay/internal/payment/application"
	"ledgerpay/internal/payment/domain"
)

// Handler implements paymentpb.PaymentServiceServer.
//
// Transport statuses carry only transport concerns: INVALID_ARGUMENT
// for malformed requests, NOT_FOUND for missing reads, UNAVAILABLE for
// transient faults worth retrying. Domain outcomes, declines included,
// travel in the response body with status OK.
type Handler struct {
	paymentpb.UnimplementedPaymentServiceServer
	service *application.PaymentService
}

// NewHandler creates a Handler.
func NewHandler(service *application.PaymentService) *Handler {
	return &Handler{service: service}
}

// AuthorizePayment decides a proposed fund movement.
func (h *Handler) AuthorizePayment(ctx context.Context, req *paymentpb.AuthorizePaymentRequest) (*paymentpb.AuthorizePaymentResponse, error) {
	if req.GetIdempotencyKey() == "" {
		return nil, status.Error(codes.InvalidArgument, "idempotency_key is required")
	}
	if req.GetPayerAccountId() == "" {
		return nil, status.Error(codes.InvalidArgument, "payer_account_id is required")
	}
	if req.GetPayeeAccountId() == "" {
		return nil, status.Error(codes.InvalidArgument, "payee_account_id is required")
	}
	if !types.ValidCurrency(req.GetCurrency()) {
		return nil, status.Error(codes.InvalidArgument, "currency must be a 3-letter uppercase code")
	}

	res, err := h.service.Authorize(ctx, application.AuthorizeCommand{
		IdempotencyKey: req.GetIdempotencyKey(),
		PayerAccountID: types.AccountID(req.GetPayerAccountId()),
		PayeeAccountID: types.AccountID(req.GetPayeeAccountId()),
		Amount: types.Money{
			AmountMinor: req.GetAmountCents(),
			Currency:    req.GetCurrency(),
		},
		Description: req.GetDescription(),
	})
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	resp := &paymentpb.AuthorizePaymentResponse{
		PaymentId:   res.PaymentID.String(),
		Status:      statusToProto(res.Status),
		ProcessedAt: res.ProcessedAt.Format(time.RFC3339),
	}
	if res.ErrorCode != "" {
		resp.Error = &paymentpb.PaymentError{
			Code:    res.ErrorCode,
			Message: res.ErrorMessage,
		}
	}
	return resp, nil
}

// GetPayment returns a payment by id.
func (h *Handler) GetPayment(ctx context.Context, req *paymentpb.GetPaymentRequest) (*paymentpb.Payment, error) {
	id, err := types.ParsePaymentID(req.GetPaymentId())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "payment_id is not a valid id")
	}

	p, err := h.service.GetPayment(ctx, id)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		return nil, status.Error(codes.NotFound, "payment not found")
	}
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	return &paymentpb.Payment{
		PaymentId:      p.ID.String(),
		PayerAccountId: p.PayerAccountID.String(),
		PayeeAccountId: p.PayeeAccountID.String(),
		AmountCents:    p.Amount.AmountMinor,
		Currency:       p.Amount.Currency,
		Status:         statusToProto(p.Status),
		Description:    p.Description,
		ErrorCode:      p.ErrorCode,
		ErrorMessage:   p.ErrorMessage,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}, nil
}

// GetAccountBalance returns the balance for an account.
func (h *Handler) GetAccountBalance(ctx context.Context, req *paymentpb.GetAccountBalanceRequest) (*paymentpb.AccountBalance, error) {
	id, err := types.ParseAccountID(req.GetAccountId())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "account_id is not a valid id")
	}

	b, err := h.service.GetAccountBalance(ctx, id)
	if errors.Is(err, domain.ErrBalanceNotFound) {
		return nil, status.Error(codes.NotFound, "account balance not found")
	}
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	return &paymentpb.AccountBalance{
		AccountId:      b.AccountID.String(),
		AvailableCents: b.AvailableMinor,
		PendingCents:   b.PendingMinor,
		Currency:       b.Currency,
	}, nil
}

// mapError converts infrastructure errors to transport statuses.
// Transient faults map to UNAVAILABLE so clients retry with the same
// idempotency key.
func (h *Handler) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrRequestInFlight), errors.Is(err, domain.ErrOptimisticLock):
		return status.Error(codes.Unavailable, "request is being processed, retry with the same idempotency key")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	default:
		logging.ErrorContext(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func statusToProto(s domain.PaymentStatus) paymentpb.PaymentStatus {
	switch s {
	case domain.PaymentAuthorized:
		return paymentpb.PaymentStatus_PAYMENT_STATUS_AUTHORIZED
	case domain.PaymentDeclined:
		return paymentpb.PaymentStatus_PAYMENT_STATUS_DECLINED
	case domain.PaymentDuplicate:
		return paymentpb.PaymentStatus_PAYMENT_STATUS_DUPLICATE
	default:
		return paymentpb.PaymentStatus_PAYMENT_STATUS_UNSPECIFIED
	}
}

// Verify interface implementation.
var _ paymentpb.PaymentServiceServer = (*Handler)(nil)
