package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"umrah-desk/api"
	"umrah-desk/order"
	"umrah-desk/workflow"
)

// orderView is the list row and detail header the UI renders.
type orderView struct {
	order.Classification

	ID            int64           `json:"id"`
	BookingNumber string          `json:"booking_number"`
	Origin        order.Origin    `json:"origin"`
	Status        order.Status    `json:"status"`
	RawStatus     string          `json:"raw_status"`
	AgencyName    string          `json:"agency_name,omitempty"`
	ContactName   string          `json:"contact_name,omitempty"`
	TotalPax      int             `json:"total_pax"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     string          `json:"created_at,omitempty"`
	Booking       *api.Booking    `json:"booking,omitempty"`
}

func viewOf(o order.Order, detail bool) orderView {
	v := orderView{
		ID:             o.Booking.ID,
		BookingNumber:  o.BookingNumber(),
		Origin:         o.Origin,
		Status:         o.Status,
		RawStatus:      o.Booking.Status,
		Classification: o.Classification(),
		ContactName:    o.Booking.Contact("full_name"),
		TotalPax:       o.Booking.TotalPax,
		TotalAmount:    o.Booking.TotalAmount,
		CreatedAt:      o.Booking.CreatedAt,
	}
	if agency := o.AgencyRecord(); agency != nil {
		v.AgencyName = agency.Name
	}
	if detail {
		b := o.Booking
		v.Booking = &b
	}
	return v
}

type listResponse struct {
	Orders []orderView  `json:"orders"`
	Facets order.Facets `json:"facets"`
	Total  int          `json:"total"`
	Page   int          `json:"page"`
	Pages  int          `json:"pages"`
}

func (s *Server) listOrders(c *gin.Context) {
	branch, err := queryInt(c, "branch", 0)
	if err != nil {
		badRequest(c, err)
		return
	}
	tab := c.DefaultQuery("tab", string(s.opts.DefaultTab))
	criteria, err := order.ParseCriteria(tab, c.Query("order_type"), c.Query("package_type"), c.Query("status"), c.Query("q"), int64(branch))
	if err != nil {
		badRequest(c, err)
		return
	}
	if criteria.Payment, err = order.ParsePaymentFilter(c.Query("payment")); err != nil {
		badRequest(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, err)
		return
	}
	size, err := queryInt(c, "size", s.opts.PageSize)
	if err != nil {
		badRequest(c, err)
		return
	}

	sess := sessionOf(c)
	ctx := c.Request.Context()
	orders, err := s.desk.Source.FetchOrders(ctx, sess.rc)
	if err != nil {
		fail(c, err)
		return
	}
	orders = s.desk.Source.ResolveAgencies(ctx, sess.rc, orders)

	matched := order.Filter(orders, criteria)
	paged, pages := order.Paginate(matched, page, size)
	views := make([]orderView, 0, len(paged))
	for _, o := range paged {
		views = append(views, viewOf(o, false))
	}
	c.JSON(http.StatusOK, listResponse{
		Orders: views,
		Facets: order.CountFacets(orders, criteria),
		Total:  len(matched),
		Page:   max(page, 1),
		Pages:  pages,
	})
}

// fetch loads the order named in the path, agency resolved.
func (s *Server) fetch(c *gin.Context) (order.Order, bool) {
	sess := sessionOf(c)
	o, err := s.desk.Source.FetchOrder(c.Request.Context(), sess.rc, c.Param("bookingNumber"))
	if err != nil {
		fail(c, err)
		return order.Order{}, false
	}
	return s.desk.Source.ResolveAgency(c.Request.Context(), sess.rc, o), true
}

func (s *Server) getOrder(c *gin.Context) {
	o, ok := s.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(o, true))
}

func (s *Server) availability(c *gin.Context) {
	o, ok := s.fetch(c)
	if !ok {
		return
	}
	report, err := s.desk.Availability.Check(c.Request.Context(), sessionOf(c).rc, o)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type transitionRequest struct {
	Note      string `json:"note"`
	Confirmed bool   `json:"confirmed"`
}

type transitionResponse struct {
	workflow.Outcome
	Order orderView `json:"order"`
}

func (s *Server) transition(action workflow.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transitionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err)
			return
		}
		o, ok := s.fetch(c)
		if !ok {
			return
		}

		sess := sessionOf(c)
		ctx := c.Request.Context()
		machine := s.desk.Machine
		var outcome workflow.Outcome
		var err error
		switch action {
		case workflow.ActionConfirm:
			outcome, err = machine.Confirm(ctx, sess.rc, sess.operator, o)
		case workflow.ActionApprove:
			outcome, err = machine.Approve(ctx, sess.rc, sess.operator, o)
		case workflow.ActionReject:
			outcome, err = machine.Reject(ctx, sess.rc, sess.operator, o, req.Note)
		case workflow.ActionCancel:
			outcome, err = machine.Cancel(ctx, sess.rc, sess.operator, o, req.Confirmed)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, transitionResponse{Outcome: outcome, Order: viewOf(outcome.Order, true)})
	}
}

func (s *Server) editor(c *gin.Context) (workflow.SectionEditor, bool) {
	section, err := workflow.ParseSection(c.Param("section"))
	if err != nil {
		fail(c, fmt.Errorf("%w: %w", workflow.ErrInvalidItem, err))
		return nil, false
	}
	o, ok := s.fetch(c)
	if !ok {
		return nil, false
	}
	editor, err := s.desk.Sections.Editor(sessionOf(c).rc, o, section)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return editor, true
}

func (s *Server) addItem(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	editor, ok := s.editor(c)
	if !ok {
		return
	}
	s.sectionResult(c, editor, editor.AddJSON(c.Request.Context(), body))
}

func (s *Server) updateItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("index: %w", err))
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	editor, ok := s.editor(c)
	if !ok {
		return
	}
	s.sectionResult(c, editor, editor.PatchJSON(c.Request.Context(), index, body))
}

func (s *Server) removeItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, fmt.Errorf("index: %w", err))
		return
	}
	editor, ok := s.editor(c)
	if !ok {
		return
	}
	s.sectionResult(c, editor, editor.Remove(c.Request.Context(), index))
}

func (s *Server) clearSection(c *gin.Context) {
	editor, ok := s.editor(c)
	if !ok {
		return
	}
	s.sectionResult(c, editor, editor.RemoveAll(c.Request.Context()))
}

func (s *Server) sectionResult(c *gin.Context, editor workflow.SectionEditor, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"section": editor.Section(),
		"items":   editor.Len(),
		"order":   viewOf(editor.Order(), true),
	})
}

type visaRequest struct {
	Passengers []int  `json:"passengers" binding:"required,min=1"`
	Status     string `json:"status" binding:"required"`
}

func (s *Server) setVisa(c *gin.Context) {
	var req visaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	o, ok := s.fetch(c)
	if !ok {
		return
	}
	updated, err := s.desk.Visa.SetStatus(c.Request.Context(), sessionOf(c).rc, o, req.Passengers, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(updated, true))
}

func (s *Server) shirkas(c *gin.Context) {
	shirkas, err := s.desk.Visa.Shirkas(c.Request.Context(), sessionOf(c).rc)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, shirkas)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return value, nil
}
