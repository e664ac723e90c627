package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timetable-service/internal/config"
	"timetable-service/internal/middleware"
)

// Router wires every handler behind the /api prefix. Mutating routes require
// an admin token; reads are open to any authenticated consumer of the UI.
func Router(cfg config.Config, logger *zap.Logger, tt *TimetableHandler, master *MasterHandler, auth *AuthHandler, healthz gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger, "/healthz"))
	r.Use(middleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Handler())

	r.GET("/healthz", healthz)

	admin := middleware.RequireRole(cfg.JWTSecret, cfg.JWTIssuer, "admin")

	api := r.Group("/api")
	api.POST("/auth/login", auth.Login)

	timetable := api.Group("/timetable")
	timetable.POST("", admin, tt.Create)
	timetable.POST("/check-conflicts", tt.CheckConflicts)
	timetable.PUT("/:id", admin, tt.Assign)
	timetable.DELETE("/:id", admin, tt.Delete)
	timetable.GET("/section/:sectionId", tt.BySection)
	timetable.GET("/faculty/:facultyId", tt.ByFaculty)
	timetable.GET("/classroom/:classroomId", tt.ByClassroom)
	timetable.GET("/filter", tt.Filter)
	timetable.GET("/export/section/:sectionId", tt.ExportSection)

	for _, res := range []struct {
		path   string
		list   gin.HandlerFunc
		create gin.HandlerFunc
		remove gin.HandlerFunc
	}{
		{"/batches", master.ListBatches, master.CreateBatch, master.DeleteBatch},
		{"/branches", master.ListBranches, master.CreateBranch, master.DeleteBranch},
		{"/semesters", master.ListSemesters, master.CreateSemester, master.DeleteSemester},
		{"/sections", master.ListSections, master.CreateSection, master.DeleteSection},
		{"/subjects", master.ListSubjects, master.CreateSubject, master.DeleteSubject},
		{"/faculty", master.ListFaculty, master.CreateFaculty, master.DeleteFaculty},
		{"/classrooms", master.ListClassrooms, master.CreateClassroom, master.DeleteClassroom},
		{"/timeslots", master.ListTimeSlots, master.CreateTimeSlot, master.DeleteTimeSlot},
	} {
		api.GET(res.path, res.list)
		api.POST(res.path, admin, res.create)
		api.DELETE(res.path+"/:id", admin, res.remove)
	}

	return r
}
