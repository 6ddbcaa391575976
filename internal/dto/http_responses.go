package dto

import (
	"github.com/wb-go/wbf/ginext"
)

const (
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	NotFound     = "NOT_FOUND"
	NumberExists = "NUMBER_EXISTS"
	AlreadyOut   = "ALREADY_SIGNED_OUT"
	Unusable     = "ITEM_UNUSABLE"
	InvalidPin   = "INVALID_PIN"
)

type CreateVolunteerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type UpdateVolunteerRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

type CreateItemRequest struct {
	Number *int   `json:"number" validate:"required"`
	Notes  string `json:"notes"`
}

type UpdateItemRequest struct {
	Number   *int    `json:"number"`
	Notes    *string `json:"notes"`
	Unusable *bool   `json:"unusable"`
}

type SignOutRequest struct {
	ItemID      string `json:"itemId" validate:"required"`
	VolunteerID string `json:"volunteerId" validate:"required"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

type UpdateConfigRequest struct {
	EventName *string `json:"eventName"`
	AdminPin  *string `json:"adminPin" validate:"omitempty,pin"`
	Theme     *string `json:"theme" validate:"omitempty,theme"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type VerifyPinResponse struct {
	Valid bool `json:"valid"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: NotFound,
			Desc: desc,
		},
	})
}

func UnauthorizedError(c *ginext.Context, desc string) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: InvalidPin,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessNoContent(c *ginext.Context) {
	c.Status(204)
}
