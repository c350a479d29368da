// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"counseling-platform/internal/domain"
	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/adapter"
)

// Compile-time check
var _ WebhookService = (*webhookUC)(nil)

// WebhookResult reports what one delivery did.
type WebhookResult struct {
	Event      model.EventKind
	Transition model.TransitionResult // empty for unhandled events
	PaymentID  string
	OrderID    string
	Amount     int64 // minor units, as reported by the gateway
}

// WebhookService receives asynchronous gateway deliveries. The gateway
// retries any non-2xx response, possibly delivering the same event several
// times in any order relative to the synchronous verify call — safe only
// because the ledger transition is idempotent.
type WebhookService interface {
	Handle(ctx context.Context, rawBody []byte, signatureHex string) (*WebhookResult, error)
}

type webhookUC struct {
	verifier adapter.SignatureVerifier
	ledger   LedgerService
	log      *zerolog.Logger
}

func NewWebhookService(verifier adapter.SignatureVerifier, ledger LedgerService, logger *zerolog.Logger) *webhookUC {
	return &webhookUC{verifier: verifier, ledger: ledger, log: logger}
}

// webhookEnvelope mirrors the gateway's delivery shape. Only the fields the
// dispatcher needs are decoded; the signature is checked over the raw bytes
// before this struct ever exists.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
				Amount  int64  `json:"amount"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (u *webhookUC) Handle(ctx context.Context, rawBody []byte, signatureHex string) (*WebhookResult, error) {
	// The raw body is hashed exactly as received: re-serialized JSON is not
	// guaranteed byte-identical, so parsing happens only after this check.
	if !u.verifier.VerifyWebhook(rawBody, signatureHex) {
		u.log.Error().Int("body_len", len(rawBody)).Msg("webhook signature mismatch")
		return nil, domain.ErrInvalidSignature
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("webhook payload: %w", domain.ErrValidation)
	}
	entity := env.Payload.Payment.Entity
	if env.Event == "" || entity.ID == "" || entity.OrderID == "" {
		return nil, fmt.Errorf("webhook payload incomplete: %w", domain.ErrValidation)
	}

	kind := model.ParseEventKind(env.Event)
	outcome, handled := kind.Outcome()
	if !handled {
		// Acknowledged as a no-op so the gateway does not retry-storm over
		// event types this service does not care about.
		u.log.Info().Str("event", env.Event).Msg("unhandled webhook event acknowledged")
		return &WebhookResult{Event: model.EventUnhandled}, nil
	}

	res, err := u.ledger.ApplyOutcome(ctx, entity.OrderID, entity.ID, outcome)
	if err != nil {
		// Propagated as a processing failure so the gateway redelivers;
		// redelivery is safe because ApplyOutcome is idempotent.
		return nil, err
	}
	u.log.Info().Str("event", env.Event).Str("order_id", entity.OrderID).
		Str("payment_id", entity.ID).Str("transition", string(res)).
		Msg("webhook event applied")
	return &WebhookResult{Event: kind, Transition: res, PaymentID: entity.ID, OrderID: entity.OrderID, Amount: entity.Amount}, nil
}
