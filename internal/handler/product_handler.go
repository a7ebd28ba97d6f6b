package handler

import (
	"strconv"
	"strings"

	"go-catalog-admin/internal/repository"
	"go-catalog-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.CatalogService
}

func NewProductHandler(s service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

// getActor returns the operator recorded in audit columns and notifications.
func getActor(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok && email != "" {
		return email
	}
	if id, ok := c.Locals("user_id").(string); ok && id != "" {
		return id
	}
	return "system"
}

func parseID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseCategoryIDs accepts repeated category_id params and a comma separated
// category_ids param.
func parseCategoryIDs(c *fiber.Ctx) ([]uint, bool) {
	var raw []string
	for _, v := range c.Context().QueryArgs().PeekMulti("category_id") {
		raw = append(raw, string(v))
	}
	if list := c.Query("category_ids"); list != "" {
		raw = append(raw, strings.Split(list, ",")...)
	}

	ids := make([]uint, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := strconv.ParseUint(r, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, uint(id))
	}
	return ids, true
}

// GetProducts returns one page of the catalog
// GET /api/v1/products?name=&category_id=&page=&page_size=
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	categoryIDs, ok := parseCategoryIDs(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid category id"})
	}

	page, err := h.service.ListProducts(c.UserContext(), repository.ProductFilter{
		NameContains: c.Query("name"),
		CategoryIDs:  categoryIDs,
		Page:         c.QueryInt("page", 1),
		PageSize:     c.QueryInt("page_size", 0),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch products"})
	}
	return c.JSON(page)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": product, "categoryIds": product.CategoryIDs()})
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	out, err := h.service.CreateProduct(c.UserContext(), getActor(c), &req)
	return respondOutcome(c, fiber.StatusCreated, "Product created", out, err)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}
	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	out, err := h.service.UpdateProduct(c.UserContext(), getActor(c), id, &req)
	return respondOutcome(c, fiber.StatusOK, "Product updated", out, err)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}
	if err := h.service.DeleteProduct(c.UserContext(), getActor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid product id"})
	}
	var req stockRequest
	if err := c.BodyParser(&req); err != nil || req.Stock == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stock is required"})
	}

	product, err := h.service.UpdateStock(c.UserContext(), getActor(c), id, *req.Stock)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock updated", "data": product})
}

// ImportProducts creates products from an uploaded xlsx sheet
// POST /api/v1/products/import (multipart field "file")
func (h *ProductHandler) ImportProducts(c *fiber.Ctx) error {
	data, err := readFormFile(c, "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := h.service.ImportProducts(c.UserContext(), getActor(c), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
