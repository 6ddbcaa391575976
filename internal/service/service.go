package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"walkieDesk/internal/dto"
	"walkieDesk/internal/ledger"
	"walkieDesk/internal/rabbit"
	"walkieDesk/pkg/validator"
)

type Service interface {
	ListVolunteers(ctx *ginext.Context)
	CreateVolunteer(ctx *ginext.Context)
	UpdateVolunteer(ctx *ginext.Context)
	DeleteVolunteer(ctx *ginext.Context)

	ListItems(col ledger.Collection) func(ctx *ginext.Context)
	CreateItem(col ledger.Collection) func(ctx *ginext.Context)
	UpdateItem(col ledger.Collection) func(ctx *ginext.Context)
	DeleteItem(col ledger.Collection) func(ctx *ginext.Context)
	ToggleUnusable(col ledger.Collection) func(ctx *ginext.Context)
	SignOutItem(col ledger.Collection) func(ctx *ginext.Context)
	ReturnItem(col ledger.Collection) func(ctx *ginext.Context)
	ResetItems(col ledger.Collection) func(ctx *ginext.Context)

	VerifyPin(ctx *ginext.Context)
	GetConfig(ctx *ginext.Context)
	UpdateConfig(ctx *ginext.Context)
	GetAuditLog(ctx *ginext.Context)
	ClearAuditLog(ctx *ginext.Context)
	Health(ctx *ginext.Context)
}

type service struct {
	ledger         *ledger.Ledger
	log            *zerolog.Logger
	rbt            *rabbit.Client
	overdueMinutes int
}

// NewService builds the HTTP-facing service. rbt may be nil when overdue
// reminders are disabled.
func NewService(led *ledger.Ledger, logger *zerolog.Logger, rbt *rabbit.Client, overdueMinutes int) Service {
	return &service{
		ledger:         led,
		log:            logger,
		rbt:            rbt,
		overdueMinutes: overdueMinutes,
	}
}

// writeItemError maps ledger sentinels to operator-facing responses with
// the collection label spelled out, e.g. "Walkie already signed out".
func (s *service) writeItemError(ctx *ginext.Context, col ledger.Collection, err error) {
	switch {
	case errors.Is(err, ledger.ErrItemNotFound):
		dto.NotFoundError(ctx, col.Label()+" not found")
	case errors.Is(err, ledger.ErrNumberExists):
		dto.BadResponseError(ctx, dto.NumberExists, col.Label()+" number already exists")
	case errors.Is(err, ledger.ErrAlreadySignedOut):
		dto.BadResponseError(ctx, dto.AlreadyOut, col.Label()+" already signed out")
	case errors.Is(err, ledger.ErrItemUnusable):
		dto.BadResponseError(ctx, dto.Unusable, col.Label()+" is marked as unusable")
	case errors.Is(err, ledger.ErrNumberRequired):
		dto.BadResponseError(ctx, dto.FieldIncorrect, "number required")
	default:
		s.log.Error().Err(err).Str("collection", string(col)).Msg("item operation failed")
		dto.InternalServerError(ctx)
	}
}

func (s *service) ListVolunteers(ctx *ginext.Context) {
	volunteers, err := s.ledger.Volunteers(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list volunteers")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, volunteers)
}

func (s *service) CreateVolunteer(ctx *ginext.Context) {
	var req dto.CreateVolunteerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	volunteer, err := s.ledger.AddVolunteer(ctx.Request.Context(), req.FirstName, req.LastName, req.Phone)
	if err != nil {
		if errors.Is(err, ledger.ErrFirstNameRequired) {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "firstName required")
			return
		}
		s.log.Error().Err(err).Msg("failed to add volunteer")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessCreatedResponse(ctx, volunteer)
}

func (s *service) UpdateVolunteer(ctx *ginext.Context) {
	id := ctx.Param("id")

	var req dto.UpdateVolunteerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	volunteer, err := s.ledger.UpdateVolunteer(ctx.Request.Context(), id, ledger.VolunteerUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrVolunteerNotFound):
			dto.NotFoundError(ctx, "Volunteer not found")
		case errors.Is(err, ledger.ErrFirstNameRequired):
			dto.BadResponseError(ctx, dto.FieldIncorrect, "firstName required")
		default:
			s.log.Error().Err(err).Msg("failed to update volunteer")
			dto.InternalServerError(ctx)
		}
		return
	}

	dto.SuccessResponse(ctx, volunteer)
}

func (s *service) DeleteVolunteer(ctx *ginext.Context) {
	id := ctx.Param("id")

	if err := s.ledger.DeleteVolunteer(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, ledger.ErrVolunteerNotFound) {
			dto.NotFoundError(ctx, "Volunteer not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to delete volunteer")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessNoContent(ctx)
}

func (s *service) ListItems(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		items, err := s.ledger.Items(ctx.Request.Context(), col)
		if err != nil {
			s.log.Error().Err(err).Str("collection", string(col)).Msg("failed to list items")
			dto.InternalServerError(ctx)
			return
		}
		dto.SuccessResponse(ctx, items)
	}
}

func (s *service) CreateItem(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		var req dto.CreateItemRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
			return
		}

		if verr := validator.Validate(ctx, req); verr != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
			return
		}

		item, err := s.ledger.AddItem(ctx.Request.Context(), col, req.Number, req.Notes)
		if err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		dto.SuccessCreatedResponse(ctx, item)
	}
}

func (s *service) UpdateItem(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		id := ctx.Param("id")

		var req dto.UpdateItemRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
			return
		}

		item, err := s.ledger.UpdateItem(ctx.Request.Context(), col, id, ledger.ItemUpdate{
			Number:   req.Number,
			Notes:    req.Notes,
			Unusable: req.Unusable,
		})
		if err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		dto.SuccessResponse(ctx, item)
	}
}

func (s *service) DeleteItem(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		id := ctx.Param("id")

		if err := s.ledger.DeleteItem(ctx.Request.Context(), col, id); err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		dto.SuccessNoContent(ctx)
	}
}

func (s *service) ToggleUnusable(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		id := ctx.Param("id")

		item, err := s.ledger.ToggleUnusable(ctx.Request.Context(), col, id)
		if err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		dto.SuccessResponse(ctx, item)
	}
}

func (s *service) SignOutItem(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		var req dto.SignOutRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
			return
		}

		if verr := validator.Validate(ctx, req); verr != nil {
			dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
			return
		}

		item, err := s.ledger.SignOut(ctx.Request.Context(), col, req.ItemID, req.VolunteerID)
		if err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		s.publishOverdueCheck(col, item.ID, item.Number, req.VolunteerID, item.AssignedAt)

		dto.SuccessResponse(ctx, item)
	}
}

// publishOverdueCheck schedules a delayed overdue check. Reminders are
// best-effort: a publish failure never fails the sign-out.
func (s *service) publishOverdueCheck(col ledger.Collection, itemID string, number int, volunteerID string, assignedAt *time.Time) {
	if s.rbt == nil || s.overdueMinutes <= 0 || assignedAt == nil {
		return
	}

	msg := dto.OverdueCheckMessage{
		Collection:  string(col),
		ItemID:      itemID,
		ItemNumber:  number,
		VolunteerID: volunteerID,
		SignedOutAt: *assignedAt,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal overdue check message")
		return
	}

	if err := s.rbt.Publish(payload, s.overdueMinutes*60); err != nil {
		s.log.Error().Err(err).Msg("failed to publish overdue check message")
	}
}

func (s *service) ReturnItem(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		id := ctx.Param("id")

		item, err := s.ledger.Return(ctx.Request.Context(), col, id)
		if err != nil {
			s.writeItemError(ctx, col, err)
			return
		}

		dto.SuccessResponse(ctx, item)
	}
}

func (s *service) ResetItems(col ledger.Collection) func(ctx *ginext.Context) {
	return func(ctx *ginext.Context) {
		if err := s.ledger.ResetAll(ctx.Request.Context(), col); err != nil {
			s.log.Error().Err(err).Str("collection", string(col)).Msg("failed to reset assignments")
			dto.InternalServerError(ctx)
			return
		}

		dto.SuccessResponse(ctx, dto.MessageResponse{Message: "All " + strings.ToLower(col.Label()) + "s reset"})
	}
}

func (s *service) VerifyPin(ctx *ginext.Context) {
	var req dto.VerifyPinRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if err := s.ledger.VerifyPin(ctx.Request.Context(), req.Pin); err != nil {
		if errors.Is(err, ledger.ErrInvalidPin) {
			dto.UnauthorizedError(ctx, "Invalid PIN")
			return
		}
		s.log.Error().Err(err).Msg("failed to verify PIN")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.VerifyPinResponse{Valid: true})
}

func (s *service) GetConfig(ctx *ginext.Context) {
	cfg, err := s.ledger.GetConfig(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get config")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, cfg)
}

func (s *service) UpdateConfig(ctx *ginext.Context) {
	var req dto.UpdateConfigRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	cfg, err := s.ledger.UpdateConfig(ctx.Request.Context(), ledger.ConfigUpdate{
		EventName: req.EventName,
		AdminPin:  req.AdminPin,
		Theme:     req.Theme,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to update config")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, cfg)
}

func (s *service) GetAuditLog(ctx *ginext.Context) {
	entries, err := s.ledger.AuditLog(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read audit log")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, entries)
}

func (s *service) ClearAuditLog(ctx *ginext.Context) {
	if err := s.ledger.ClearAuditLog(ctx.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear audit log")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.MessageResponse{Message: "Audit log cleared"})
}

func (s *service) Health(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"status": "ok"})
}
