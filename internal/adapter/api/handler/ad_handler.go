package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type AdHandler struct {
	adUseCase *usecase.AdUseCase
}

func NewAdHandler(adUseCase *usecase.AdUseCase) *AdHandler {
	return &AdHandler{adUseCase: adUseCase}
}

type CreateAdRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=500"`
	Link        string `json:"link" validate:"required,url"`
}

func (h *AdHandler) List(c echo.Context) error {
	ads, err := h.adUseCase.ListAds(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, ads)
}

func (h *AdHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	var req CreateAdRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request format", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ad, err := h.adUseCase.CreateAd(c.Request().Context(), uid, usecase.CreateAdInput{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, ad)
}

func (h *AdHandler) Delete(c echo.Context) error {
	if err := h.adUseCase.DeleteAd(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Ad deleted"})
}
