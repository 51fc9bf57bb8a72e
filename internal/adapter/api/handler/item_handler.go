package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
)

type ItemHandler struct {
	itemUseCase *usecase.ItemUseCase
}

func NewItemHandler(itemUseCase *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{itemUseCase: itemUseCase}
}

// Create accepts a multipart form so the listing image can ride along with
// the fields.
func (h *ItemHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	price, err := strconv.ParseFloat(c.FormValue("price"), 64)
	if err != nil {
		return response.Error(c, errors.BadRequest("Price must be a number", err))
	}

	input := usecase.CreateItemInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Price:       price,
		Category:    c.FormValue("category"),
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return response.Error(c, errors.BadRequest("Could not read uploaded image", err))
		}
		defer file.Close()

		input.Image = file
		input.ImageContentType = fileHeader.Header.Get("Content-Type")
	}

	item, err := h.itemUseCase.CreateItem(c.Request().Context(), uid, input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, item)
}

func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.itemUseCase.ListItems(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, items)
}

func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.itemUseCase.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, item)
}

func (h *ItemHandler) MyListings(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	items, err := h.itemUseCase.MyListings(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, items)
}

func (h *ItemHandler) MarkSold(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	if err := h.itemUseCase.MarkSold(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Item marked as sold"})
}

func (h *ItemHandler) Delete(c echo.Context) error {
	uid, _ := c.Get("uid").(string)

	if err := h.itemUseCase.DeleteItem(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "Item deleted"})
}
