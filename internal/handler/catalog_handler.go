package handler

import (
	"net/http"

	"github.com/Robertishimwe/inveprobackend-sub001/internal/middleware"
	"github.com/Robertishimwe/inveprobackend-sub001/internal/service"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/pagination"
	"github.com/Robertishimwe/inveprobackend-sub001/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.GET("/products", middleware.RequirePermission("catalog.read"), h.ListProducts)
		api.POST("/products", middleware.RequirePermission("catalog.write"), h.CreateProduct)
		api.GET("/products/:id", middleware.RequirePermission("catalog.read"), h.GetProduct)
		api.PUT("/products/:id", middleware.RequirePermission("catalog.write"), h.UpdateProduct)
		api.DELETE("/products/:id", middleware.RequirePermission("catalog.write"), h.DeleteProduct)

		api.GET("/locations", middleware.RequirePermission("catalog.read"), h.ListLocations)
		api.POST("/locations", middleware.RequirePermission("catalog.write"), h.CreateLocation)
		api.GET("/locations/:id", middleware.RequirePermission("catalog.read"), h.GetLocation)

		api.GET("/uoms", middleware.RequirePermission("catalog.read"), h.ListUoms)
		api.POST("/uoms", middleware.RequirePermission("catalog.write"), h.CreateUom)
	}
}

// ListProducts returns paginated catalog products
// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by name or SKU"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), tenantID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, products, params.Meta(total)))
}

// CreateProduct creates a catalog product
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Product payload"
// @Success      201  {object}  response.Response{data=model.Product}
// @Failure      400  {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// GetProduct fetches one product
// @Summary      Get product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Product UUID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// UpdateProduct updates catalog fields of a product
// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product UUID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), tenantID, actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct soft deletes a product
// @Summary      Delete product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Product UUID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), tenantID, actorFrom(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": "deleted"}))
}

// ListLocations returns paginated locations
// @Summary      List locations
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/locations [get]
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	params := pagination.Parse(c)

	locations, total, err := h.catalogService.ListLocations(c.Request.Context(), tenantID, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, locations, params.Meta(total)))
}

// CreateLocation creates a stock-holding location
// @Summary      Create location
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateLocationRequest  true  "Location payload"
// @Success      201  {object}  response.Response{data=model.Location}
// @Failure      400  {object}  response.Response
// @Router       /api/locations [post]
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	location, err := h.catalogService.CreateLocation(c.Request.Context(), tenantID, actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, location))
}

// GetLocation fetches one location
// @Summary      Get location
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Location UUID"
// @Success      200  {object}  response.Response{data=model.Location}
// @Failure      400  {object}  response.Response
// @Router       /api/locations/{id} [get]
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	location, err := h.catalogService.GetLocation(c.Request.Context(), tenantID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, location))
}

// ListUoms returns the tenant's units of measure
// @Summary      List units of measure
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/uoms [get]
func (h *CatalogHandler) ListUoms(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	uoms, err := h.catalogService.ListUoms(c.Request.Context(), tenantID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"uoms": uoms}))
}

// CreateUom creates a counting unit with its base conversion factor
// @Summary      Create unit of measure
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateUomRequest  true  "UOM payload"
// @Success      201  {object}  response.Response{data=model.UnitOfMeasure}
// @Failure      400  {object}  response.Response
// @Router       /api/uoms [post]
func (h *CatalogHandler) CreateUom(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}

	var req service.CreateUomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	uom, err := h.catalogService.CreateUom(c.Request.Context(), tenantID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, uom))
}
