package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"timetable-service/internal/service"
)

// TimetableHandler exposes the conflict checker and entry assigner over HTTP.
type TimetableHandler struct {
	svc    *service.TimetableService
	logger *zap.Logger
}

func NewTimetableHandler(svc *service.TimetableService, logger *zap.Logger) *TimetableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableHandler{svc: svc, logger: logger}
}

type candidateRequest struct {
	Section   string `json:"section" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Faculty   string `json:"faculty" binding:"required"`
	Classroom string `json:"classroom" binding:"required"`
	TimeSlot  string `json:"timeSlot" binding:"required"`
}

func (r candidateRequest) toCandidate() (service.CandidateEntry, error) {
	var cand service.CandidateEntry
	var err error
	if cand.Section, err = parseID(r.Section); err != nil {
		return cand, err
	}
	if cand.Subject, err = parseID(r.Subject); err != nil {
		return cand, err
	}
	if cand.Faculty, err = parseID(r.Faculty); err != nil {
		return cand, err
	}
	if cand.Classroom, err = parseID(r.Classroom); err != nil {
		return cand, err
	}
	if cand.TimeSlot, err = parseID(r.TimeSlot); err != nil {
		return cand, err
	}
	return cand, nil
}

// Create handles POST /api/timetable: validates and persists a batch of
// entries, all-or-nothing.
func (h *TimetableHandler) Create(c *gin.Context) {
	var req struct {
		Entries []candidateRequest `json:"entries" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	candidates := make([]service.CandidateEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		cand, err := e.toCandidate()
		if err != nil {
			respondFail(c, http.StatusBadRequest, err.Error())
			return
		}
		candidates = append(candidates, cand)
	}

	created, err := h.svc.CreateBatch(c.Request.Context(), candidates)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusCreated, created, "Timetable entries created successfully")
}

// CheckConflicts handles POST /api/timetable/check-conflicts: a read-only
// dry run that always answers 200 with the (possibly empty) conflict list,
// failing only on missing required fields.
func (h *TimetableHandler) CheckConflicts(c *gin.Context) {
	var req struct {
		TimeSlot       string `json:"timeSlot" binding:"required"`
		Faculty        string `json:"faculty" binding:"required"`
		Classroom      string `json:"classroom" binding:"required"`
		ExcludeEntryID string `json:"excludeEntryId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	slot, err := parseID(req.TimeSlot)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	faculty, err := parseID(req.Faculty)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	classroom, err := parseID(req.Classroom)
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	var exclude *primitive.ObjectID
	if req.ExcludeEntryID != "" {
		id, err := parseID(req.ExcludeEntryID)
		if err != nil {
			respondFail(c, http.StatusBadRequest, err.Error())
			return
		}
		exclude = &id
	}

	conflicts, err := h.svc.CheckConflicts(c.Request.Context(), slot, faculty, classroom, exclude)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"conflicts": conflicts}, "")
}

// Assign handles PUT /api/timetable/:id: replaces an existing entry with a
// new assignment, excluding the entry itself from conflict checks.
func (h *TimetableHandler) Assign(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	cand, err := req.toCandidate()
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.svc.AssignSlot(c.Request.Context(), cand, &id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, updated, "Timetable entry updated successfully")
}

// Delete handles DELETE /api/timetable/:id. Removal is never gated by
// conflict logic.
func (h *TimetableHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteEntry(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Timetable entry deleted successfully")
}

func (h *TimetableHandler) BySection(c *gin.Context) {
	id, err := parseID(c.Param("sectionId"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.EntriesForSection(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entries, "")
}

func (h *TimetableHandler) ByFaculty(c *gin.Context) {
	id, err := parseID(c.Param("facultyId"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.EntriesForFaculty(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entries, "")
}

func (h *TimetableHandler) ByClassroom(c *gin.Context) {
	id, err := parseID(c.Param("classroomId"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.EntriesForClassroom(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entries, "")
}

// Filter handles GET /api/timetable/filter?batch=&branch=&semester=&section=.
func (h *TimetableHandler) Filter(c *gin.Context) {
	params := map[string]*primitive.ObjectID{
		"batch": nil, "branch": nil, "semester": nil, "section": nil,
	}
	for name := range params {
		if raw := c.Query(name); raw != "" {
			id, err := parseID(raw)
			if err != nil {
				respondFail(c, http.StatusBadRequest, err.Error())
				return
			}
			params[name] = &id
		}
	}

	entries, err := h.svc.EntriesForFilters(c.Request.Context(),
		params["batch"], params["branch"], params["semester"], params["section"])
	if err != nil {
		respondErr(c, err)
		return
	}
	respond(c, http.StatusOK, entries, "")
}
