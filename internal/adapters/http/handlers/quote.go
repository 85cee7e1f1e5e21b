package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-browser/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-browser/internal/app"
)

// QuoteHandler serves stateless one-shot searches.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// Search handles GET /api/v1/quotes?q=&page=.
// It fetches the catalogue, filters by q and returns the requested page.
//
// @Summary Search quotes
// @Tags quotes
// @Produce json
// @Param q query string false "Case-insensitive text or author filter"
// @Param page query int false "1-based page number"
// @Success 200 {object} dto.PageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)

		return
	}

	result, err := h.service.Search(c.Request.Context(), req.Query, req.GetPage())
	if err != nil {
		dto.HandleError(c, err)

		return
	}

	c.JSON(http.StatusOK, dto.FromResult(req.Query, result))
}

// RegisterRoutes registers the quote routes on rg.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quotes", h.Search)
}
