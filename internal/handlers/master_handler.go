package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"timetable-service/internal/models"
	"timetable-service/internal/repo"
	"timetable-service/internal/service"
)

// MasterHandler manages the master-data records the timetable core consumes.
// Pure create/read/delete passthroughs except for time slots, which carry
// format and (day, period) uniqueness rules plus an in-use deletion guard.
type MasterHandler struct {
	repo    *repo.MasterRepo
	entries service.EntryStore
}

func NewMasterHandler(r *repo.MasterRepo, entries service.EntryStore) *MasterHandler {
	return &MasterHandler{repo: r, entries: entries}
}

func createErr(c *gin.Context, err error) {
	if errors.Is(err, service.ErrConflict) {
		respondFail(c, http.StatusBadRequest, "Duplicate record found")
		return
	}
	respondErr(c, err)
}

// ---- batches ----

func (h *MasterHandler) ListBatches(c *gin.Context) {
	batches, err := h.repo.ListBatches(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, batches, "")
}

func (h *MasterHandler) CreateBatch(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		StartYear int    `json:"startYear" binding:"required"`
		EndYear   int    `json:"endYear" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.EndYear < req.StartYear {
		respondFail(c, http.StatusBadRequest, "endYear must be greater than or equal to startYear")
		return
	}
	now := time.Now().UTC()
	batch, err := h.repo.InsertBatch(c.Request.Context(), models.Batch{
		Name: req.Name, StartYear: req.StartYear, EndYear: req.EndYear,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, batch, "Batch created successfully")
}

func (h *MasterHandler) DeleteBatch(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteBatch, "Batch deleted successfully")
}

// ---- branches ----

func (h *MasterHandler) ListBranches(c *gin.Context) {
	branches, err := h.repo.ListBranches(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, branches, "")
}

func (h *MasterHandler) CreateBranch(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		BranchCode string `json:"branchCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	branch, err := h.repo.InsertBranch(c.Request.Context(), models.Branch{
		Name: req.Name, BranchCode: req.BranchCode, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, branch, "Branch created successfully")
}

func (h *MasterHandler) DeleteBranch(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteBranch, "Branch deleted successfully")
}

// ---- semesters ----

func (h *MasterHandler) ListSemesters(c *gin.Context) {
	semesters, err := h.repo.ListAllSemesters(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, semesters, "")
}

func (h *MasterHandler) CreateSemester(c *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Batch  string `json:"batch" binding:"required"`
		Branch string `json:"branch" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	batchID, err := parseID(req.Batch)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	branchID, err := parseID(req.Branch)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.repo.BatchByID(c.Request.Context(), batchID); err != nil {
		respondErr(c, abridgeNotFound(err, "batch", req.Batch))
		return
	}
	if _, err := h.repo.BranchByID(c.Request.Context(), branchID); err != nil {
		respondErr(c, abridgeNotFound(err, "branch", req.Branch))
		return
	}
	now := time.Now().UTC()
	semester, err := h.repo.InsertSemester(c.Request.Context(), models.Semester{
		Name: req.Name, Batch: batchID, Branch: branchID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, semester, "Semester created successfully")
}

func (h *MasterHandler) DeleteSemester(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteSemester, "Semester deleted successfully")
}

// ---- sections ----

func (h *MasterHandler) ListSections(c *gin.Context) {
	sections, err := h.repo.ListSections(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, sections, "")
}

func (h *MasterHandler) CreateSection(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Semester string `json:"semester" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	semesterID, err := parseID(req.Semester)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.repo.SemesterByID(c.Request.Context(), semesterID); err != nil {
		respondErr(c, abridgeNotFound(err, "semester", req.Semester))
		return
	}
	now := time.Now().UTC()
	section, err := h.repo.InsertSection(c.Request.Context(), models.Section{
		Name: req.Name, Semester: semesterID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, section, "Section created successfully")
}

func (h *MasterHandler) DeleteSection(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteSection, "Section deleted successfully")
}

// ---- subjects ----

func (h *MasterHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.repo.ListSubjects(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, subjects, "")
}

func (h *MasterHandler) CreateSubject(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Semester string `json:"semester" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	semesterID, err := parseID(req.Semester)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := h.repo.SemesterByID(c.Request.Context(), semesterID); err != nil {
		respondErr(c, abridgeNotFound(err, "semester", req.Semester))
		return
	}
	now := time.Now().UTC()
	subject, err := h.repo.InsertSubject(c.Request.Context(), models.Subject{
		Name: req.Name, Code: req.Code, Semester: semesterID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, subject, "Subject created successfully")
}

func (h *MasterHandler) DeleteSubject(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteSubject, "Subject deleted successfully")
}

// ---- faculty ----

func (h *MasterHandler) ListFaculty(c *gin.Context) {
	faculty, err := h.repo.ListFaculty(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, faculty, "")
}

func (h *MasterHandler) CreateFaculty(c *gin.Context) {
	var req struct {
		Name     string   `json:"name" binding:"required"`
		Email    string   `json:"email" binding:"required,email"`
		Subjects []string `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	faculty := models.Faculty{Name: req.Name, Email: req.Email}
	for _, raw := range req.Subjects {
		id, err := parseID(raw)
		if err != nil {
			respondFail(c, http.StatusBadRequest, err.Error())
			return
		}
		faculty.Subjects = append(faculty.Subjects, id)
	}
	now := time.Now().UTC()
	faculty.CreatedAt, faculty.UpdatedAt = now, now

	created, err := h.repo.InsertFaculty(c.Request.Context(), faculty)
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, created, "Faculty created successfully")
}

func (h *MasterHandler) DeleteFaculty(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteFaculty, "Faculty deleted successfully")
}

// ---- classrooms ----

func (h *MasterHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.repo.ListClassrooms(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, classrooms, "")
}

func (h *MasterHandler) CreateClassroom(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Capacity int    `json:"capacity" binding:"required,min=1"`
		Type     string `json:"type"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now().UTC()
	classroom, err := h.repo.InsertClassroom(c.Request.Context(), models.Classroom{
		Name: req.Name, Capacity: req.Capacity, Type: req.Type, Location: req.Location,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		createErr(c, err)
		return
	}
	respond(c, http.StatusCreated, classroom, "Classroom created successfully")
}

func (h *MasterHandler) DeleteClassroom(c *gin.Context) {
	h.deleteByID(c, h.repo.DeleteClassroom, "Classroom deleted successfully")
}

// ---- time slots ----

func (h *MasterHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.repo.ListTimeSlots(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, slots, "Time slots fetched successfully")
}

func (h *MasterHandler) CreateTimeSlot(c *gin.Context) {
	var req struct {
		Day       string `json:"day" binding:"required"`
		Period    int    `json:"period" binding:"required"`
		StartTime string `json:"startTime" binding:"required"`
		EndTime   string `json:"endTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := service.ValidateTimeSlot(req.Day, req.Period, req.StartTime, req.EndTime); err != nil {
		respondErr(c, err)
		return
	}

	// Pre-check gives the friendly message; the unique (day, period) index
	// remains the real guard.
	if _, err := h.repo.TimeSlotByDayPeriod(c.Request.Context(), req.Day, req.Period); err == nil {
		respondFail(c, http.StatusBadRequest,
			fmt.Sprintf("Time slot already exists for %s, Period %d", req.Day, req.Period))
		return
	} else if !errors.Is(err, service.ErrNotFound) {
		respondErr(c, err)
		return
	}

	now := time.Now().UTC()
	slot, err := h.repo.InsertTimeSlot(c.Request.Context(), models.TimeSlot{
		Day: req.Day, Period: req.Period, StartTime: req.StartTime, EndTime: req.EndTime,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respondFail(c, http.StatusBadRequest,
				fmt.Sprintf("Time slot already exists for %s, Period %d", req.Day, req.Period))
			return
		}
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, slot, "Time slot created successfully")
}

// DeleteTimeSlot refuses to remove a slot that any timetable entry still
// references.
func (h *MasterHandler) DeleteTimeSlot(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	inUse, err := h.entries.ExistsByTimeSlot(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if inUse {
		respondFail(c, http.StatusBadRequest, "Cannot delete time slot in use by timetable")
		return
	}
	if err := h.repo.DeleteTimeSlot(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondFail(c, http.StatusNotFound, "Time slot not found")
			return
		}
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Time slot deleted successfully")
}

// ---- shared ----

func (h *MasterHandler) deleteByID(c *gin.Context, del func(ctx context.Context, id primitive.ObjectID) error, message string) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, nil, message)
}

func abridgeNotFound(err error, kind, id string) error {
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", service.ErrNotFound, kind, id)
	}
	return err
}
