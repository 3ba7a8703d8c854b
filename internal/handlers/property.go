package handlers

import (
	"log"
	"strconv"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/config"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/middleware"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/normalize"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/services"
	"github.com/gofiber/fiber/v2"
)

type PropertyHandler struct {
	service *services.PropertyService
}

func NewPropertyHandler(service *services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

func SetupPropertyRoutes(router fiber.Router, service *services.PropertyService, cfg *config.Config) {
	h := NewPropertyHandler(service)

	router.Get("/", h.List)
	router.Get("/mine", middleware.AuthRequired(cfg), h.Mine)
	router.Get("/:id", h.Get)
	router.Post("/", middleware.AuthRequired(cfg), h.Create)
	router.Patch("/:id", middleware.AuthRequired(cfg), h.Update)
	router.Delete("/:id", middleware.AuthRequired(cfg), h.Delete)
	router.Post("/:id/views", h.IncrementViews)
}

// List godoc
// @Summary Search property listings
// @Tags properties
// @Accept json
// @Produce json
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param propertyType query string false "Property type (house, apartment, ...; 'all' for no filter)"
// @Param minBedrooms query number false "Minimum bedrooms"
// @Param minBathrooms query number false "Minimum bathrooms"
// @Param minSquareFeet query number false "Minimum size"
// @Param maxSquareFeet query number false "Maximum size"
// @Param city query string false "Substring match on city/address/title/description"
// @Param location query string false "Substring match on city/address/title/description"
// @Param state query string false "State"
// @Param zipCode query string false "Zip code"
// @Param listingType query string false "Listing type"
// @Param status query string false "Listing status"
// @Param sortBy query string false "price | date | size | bedrooms"
// @Param sortOrder query string false "asc | desc"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param requireValidCoordinates query bool false "Drop listings without coordinates"
// @Success 200 {array} models.Property
// @Router /properties [get]
func (h *PropertyHandler) List(c *fiber.Ctx) error {
	filter := services.PropertyFilter{
		MinPrice:                queryFloat(c, "minPrice"),
		MaxPrice:                queryFloat(c, "maxPrice"),
		PropertyType:            c.Query("propertyType"),
		MinBedrooms:             queryFloat(c, "minBedrooms"),
		MinBathrooms:            queryFloat(c, "minBathrooms"),
		MinSquareFeet:           queryFloat(c, "minSquareFeet"),
		MaxSquareFeet:           queryFloat(c, "maxSquareFeet"),
		City:                    c.Query("city"),
		State:                   c.Query("state"),
		ZipCode:                 c.Query("zipCode"),
		Location:                c.Query("location"),
		ListingType:             c.Query("listingType"),
		Status:                  c.Query("status"),
		Limit:                   queryInt(c, "limit"),
		Offset:                  queryInt(c, "offset"),
		SortBy:                  c.Query("sortBy"),
		SortOrder:               c.Query("sortOrder"),
		RequireValidCoordinates: c.QueryBool("requireValidCoordinates", false),
	}

	properties, err := h.service.GetProperties(&filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(properties)
}

// Get godoc
// @Summary Get a property by ID
// @Tags properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} models.Property
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property ID"})
	}

	property, err := h.service.GetProperty(uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if property == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	// Reads count as view events.
	if err := h.service.IncrementPropertyViews(property.ID); err != nil {
		log.Printf("Failed to increment views for property %d: %v", property.ID, err)
	}

	return c.JSON(property)
}

// Create godoc
// @Summary Create a property listing
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param property body services.PropertyInput true "Listing"
// @Success 201 {object} models.Property
// @Router /properties [post]
func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	var input services.PropertyInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if userID, ok := c.Locals("userID").(uint); ok && input.OwnerID == nil {
		input.OwnerID = &userID
	}

	property, err := h.service.CreateProperty(&input)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

// Update godoc
// @Summary Partially update a property listing
// @Tags properties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Property ID"
// @Success 200 {object} models.Property
// @Router /properties/{id} [patch]
func (h *PropertyHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property ID"})
	}

	var updates map[string]any
	if err := c.BodyParser(&updates); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	property, err := h.service.UpdateProperty(uint(id), updates)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if property == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	return c.JSON(property)
}

// Delete godoc
// @Summary Delete a property listing
// @Tags properties
// @Security BearerAuth
// @Param id path int true "Property ID"
// @Success 204
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property ID"})
	}

	deleted, err := h.service.DeleteProperty(uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Mine godoc
// @Summary List the authenticated user's properties
// @Tags properties
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Property
// @Router /properties/mine [get]
func (h *PropertyHandler) Mine(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	properties, err := h.service.GetUserProperties(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(properties)
}

// IncrementViews godoc
// @Summary Record a view event for a property
// @Tags properties
// @Param id path int true "Property ID"
// @Success 204
// @Router /properties/{id}/views [post]
func (h *PropertyHandler) IncrementViews(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property ID"})
	}

	if err := h.service.IncrementPropertyViews(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func queryFloat(c *fiber.Ctx, name string) *float64 {
	return normalize.Finite(c.Query(name))
}

func queryInt(c *fiber.Ctx, name string) *int {
	if f := normalize.Finite(c.Query(name)); f != nil {
		v := int(*f)
		return &v
	}
	return nil
}
