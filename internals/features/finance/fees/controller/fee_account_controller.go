// file: internals/features/finance/fees/controller/fee_account_controller.go
package controller

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"schoolfee_backend/internals/features/finance/fees/dto"
	"schoolfee_backend/internals/features/finance/fees/repository"
	helper "schoolfee_backend/internals/helpers"
)

/* =======================================================================
   GET /api/u/fees/:id
======================================================================= */

func (h *FeePaymentController) GetFee(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "fee id tidak valid")
	}

	acc, err := h.Store.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Fee account not found")
		}
		return h.fail(c, err)
	}
	if !caller.CanAccess(acc) {
		return helper.JsonError(c, fiber.StatusForbidden, "Tidak boleh mengakses fee account ini")
	}
	return helper.JsonOK(c, "ok", dto.FromModel(acc))
}

/* =======================================================================
   GET /api/u/fees/student/:student_id
======================================================================= */

func (h *FeePaymentController) ListStudentFees(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	studentID, err := uuid.Parse(strings.TrimSpace(c.Params("student_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "student id tidak valid")
	}
	if !caller.CanAccessStudent(studentID) {
		return helper.JsonError(c, fiber.StatusForbidden, "Tidak boleh mengakses fee student lain")
	}

	rows, err := h.Store.ListByStudent(c.UserContext(), studentID)
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}

/* =======================================================================
   GET /api/a/fees?status=&outstanding=&page=&per_page=
   outstanding=true → semua yang masih ada sisa (pending, partial, overdue)
======================================================================= */

func (h *FeePaymentController) ListFees(c *fiber.Ctx) error {
	var q dto.FeeAccountQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "query tidak valid")
	}
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	if err := h.Validate.Struct(q); err != nil {
		return helper.ValidationError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Store.ListAccounts(c.UserContext(), q.ToFilter(p.Offset, p.Limit))
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

/* =======================================================================
   GET /api/a/fee-gateway-events?provider=&status=&order_id=&page=&per_page=
======================================================================= */

func (h *FeePaymentController) ListGatewayEvents(c *fiber.Ctx) error {
	var q dto.GatewayEventQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "query tidak valid")
	}
	q.Provider = strings.ToLower(strings.TrimSpace(q.Provider))
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	if err := h.Validate.Struct(q); err != nil {
		return helper.ValidationError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Store.ListGatewayEvents(c.UserContext(), q.ToFilter(p.Offset, p.Limit))
	if err != nil {
		return h.fail(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}
