package controller

import (
	"ai-researcher-be/internal/dto"
	"ai-researcher-be/internal/pkg/serverutils"
	"ai-researcher-be/internal/service"
	"ai-researcher-be/pkg/toolgateway"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	ListTools(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService service.ISearchService
	gateway       *toolgateway.Client
	jwtSecret     string
}

func NewSearchController(searchService service.ISearchService, gateway *toolgateway.Client, jwtSecret string) ISearchController {
	return &searchController{
		searchService: searchService,
		gateway:       gateway,
		jwtSecret:     jwtSecret,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("", c.Search)
	h.Get("tools", c.ListTools)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserIdFromLocals(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Invalid user identity"))
	}

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Cot != nil {
		if err := serverutils.ValidateRequest(*req.Cot); err != nil {
			return err
		}
	}

	res, err := c.searchService.Search(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Search completed", res))
}

// ListTools reports the tool gateway's catalog. A degraded or open-circuit
// gateway yields an empty list, not an error.
func (c *searchController) ListTools(ctx *fiber.Ctx) error {
	if c.gateway == nil {
		return ctx.JSON(serverutils.SuccessResponse("Tool gateway not configured", []toolgateway.Tool{}))
	}

	result := c.gateway.ListTools(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse(string(result.Status), result.Tools))
}
