package controllers

import (
	"github.com/Jmdec/ipponyari-sub001/entity"
	"github.com/Jmdec/ipponyari-sub001/pkg/resp"
	"github.com/Jmdec/ipponyari-sub001/services"
	"github.com/Jmdec/ipponyari-sub001/utils"
	"github.com/gin-gonic/gin"
)

type CartController struct{ Svc *services.CartService }

func NewCartController(s *services.CartService) *CartController { return &CartController{Svc: s} }

func (h *CartController) state(cartID string) gin.H {
	return gin.H{"items": h.Svc.Lines(cartID), "total": h.Svc.Subtotal(cartID)}
}

// GET /api/cart
func (h *CartController) Get(c *gin.Context) {
	resp.OK(c, h.state(utils.CurrentCartID(c)))
}

// POST /api/cart/items
func (h *CartController) Add(c *gin.Context) {
	var in entity.LineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	line, err := in.Normalize()
	if err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cartID := utils.CurrentCartID(c)
	h.Svc.AddLine(cartID, line)
	resp.Created(c, h.state(cartID))
}

// PATCH /api/cart/items/:id
func (h *CartController) UpdateQty(c *gin.Context) {
	var body struct {
		Quantity *int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	cartID := utils.CurrentCartID(c)
	h.Svc.UpdateQuantity(cartID, c.Param("id"), *body.Quantity)
	resp.OK(c, h.state(cartID))
}

// DELETE /api/cart/items/:id
func (h *CartController) RemoveItem(c *gin.Context) {
	cartID := utils.CurrentCartID(c)
	h.Svc.RemoveLine(cartID, c.Param("id"))
	resp.OK(c, h.state(cartID))
}

// DELETE /api/cart
func (h *CartController) Clear(c *gin.Context) {
	cartID := utils.CurrentCartID(c)
	h.Svc.Clear(cartID)
	resp.OK(c, h.state(cartID))
}
