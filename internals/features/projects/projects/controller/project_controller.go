package controller

import (
	"github.com/gofiber/fiber/v2"

	"galangdana_backend/internals/features/projects/projects/dto"
	"galangdana_backend/internals/features/projects/projects/service"
	helper "galangdana_backend/internals/helpers"
)

type ProjectController struct {
	Svc *service.ProjectService
}

func NewProjectController(svc *service.ProjectService) *ProjectController {
	return &ProjectController{Svc: svc}
}

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	uid, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: uid, IsAdmin: helper.IsAdmin(c)}, nil
}

// GET /projects?status=&q=&sort_by=&order=&page=&per_page=
func (h *ProjectController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 12, 100)
	sort := helper.ResolveSort(c, "created_at", "desc")
	list, total, err := h.Svc.List(c.Context(), service.ListFilter{
		Status: c.Query("status"),
		Q:      c.Query("q"),
	}, sort, p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(list), helper.BuildPagination(total, p, len(list)))
}

// GET /projects/:id
func (h *ProjectController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.GetByID(c.Context(), id)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModel(p))
}

// GET /projects/mine
func (h *ProjectController) ListMine(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	list, total, err := h.Svc.List(c.Context(), service.ListFilter{
		Status:       c.Query("status"),
		FundraiserID: &actor.UserID,
	}, helper.ResolveSort(c, "created_at", "desc"), p)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(list), helper.BuildPagination(total, p, len(list)))
}

// POST /projects
func (h *ProjectController) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.CreateProjectRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.Create(c.Context(), actor.UserID, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Project dibuat", dto.FromModel(p))
}

// PATCH /projects/:id
func (h *ProjectController) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateProjectRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.Update(c.Context(), actor, id, req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Project diperbarui", dto.FromModel(p))
}

// DELETE /projects/:id?force=true (force hanya berlaku untuk admin)
func (h *ProjectController) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	if err := h.Svc.Delete(c.Context(), actor, id, c.QueryBool("force", false)); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonDeleted(c, "Project dihapus", fiber.Map{"project_id": id})
}

/* ===================== ADMIN ===================== */

// PATCH /projects/:id/status
func (h *ProjectController) SetStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	id, err := helper.ParseUint64Param(c, "id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SetStatusRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := h.Svc.SetStatus(c.Context(), actor, id, req.Status)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "Status project diperbarui", dto.FromModel(p))
}

// POST /projects/sweep — jalankan sweep status sekarang
func (h *ProjectController) Sweep(c *fiber.Ctx) error {
	res, err := h.Svc.SweepStatuses(c.Context())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", res)
}
