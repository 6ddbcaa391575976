package reminderWorker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"walkieDesk/internal/dto"
	"walkieDesk/internal/ledger"
	"walkieDesk/internal/mailer"
	"walkieDesk/internal/rabbit"
)

// Reader consumes delayed overdue-check messages. It only reads ledger
// state; an overdue item is reported, never force-returned.
type Reader struct {
	RMQ    *rabbit.Client
	ledger *ledger.Ledger
	smtp   mailer.SMTPConfig
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, led *ledger.Ledger, smtp mailer.SMTPConfig) *Reader {
	return &Reader{
		RMQ:    rmq,
		ledger: led,
		smtp:   smtp,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("overdue reminder worker started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.OverdueCheckMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
				return err
			}
			return r.checkOverdue(cctx, msg)
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("overdue reminder worker stopped by context")
	}()
}

func (r *Reader) checkOverdue(ctx context.Context, msg dto.OverdueCheckMessage) error {
	col := ledger.Collection(msg.Collection)

	item, err := r.ledger.Item(ctx, col, msg.ItemID)
	if errors.Is(err, ledger.ErrItemNotFound) {
		// Deleted since sign-out; nothing to chase.
		return nil
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("item_id", msg.ItemID).Msg("failed to read item in worker")
		return err
	}

	// A different volunteer or a fresh assignedAt means the original
	// assignment was returned in the meantime.
	if item.AssignedTo == nil || *item.AssignedTo != msg.VolunteerID ||
		item.AssignedAt == nil || !item.AssignedAt.Equal(msg.SignedOutAt) {
		return nil
	}

	name := r.volunteerName(ctx, msg.VolunteerID)
	zlog.Logger.Warn().
		Str("collection", msg.Collection).
		Int("number", msg.ItemNumber).
		Str("volunteer", name).
		Msg("item overdue")

	if r.smtp.Enabled && r.smtp.AdminEmail != "" {
		cfg, err := r.ledger.GetConfig(ctx)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to read config in worker")
			return nil
		}
		if err := mailer.SendOverdueNotice(&zlog.Logger, r.smtp, cfg.EventName, col.Label(), msg.ItemNumber, name); err != nil {
			zlog.Logger.Warn().Err(err).Msg("failed to send overdue notice")
		}
	}
	return nil
}

func (r *Reader) volunteerName(ctx context.Context, id string) string {
	volunteers, err := r.ledger.Volunteers(ctx)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to read volunteers in worker")
		return "Unknown"
	}
	for _, v := range volunteers {
		if v.ID == id {
			return strings.TrimSpace(v.FirstName + " " + v.LastName)
		}
	}
	return "Unknown"
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
