package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"timetable-service/internal/models"
)

// EntryStore persists timetable entries. Implementations must enforce
// uniqueness of (timeSlot, faculty) and (timeSlot, classroom) pairs
// atomically on write and return ErrConflict when a write would violate
// either pair, so the check-then-write race is closed at the storage
// boundary rather than in this package.
type EntryStore interface {
	Insert(ctx context.Context, entry models.TimetableEntry) (models.TimetableEntry, error)
	InsertMany(ctx context.Context, entries []models.TimetableEntry) ([]models.TimetableEntry, error)
	Update(ctx context.Context, id primitive.ObjectID, entry models.TimetableEntry) (models.TimetableEntry, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.TimetableEntry, error)

	// FindBySlotFaculty and FindBySlotClassroom return entries occupying the
	// given time slot with the given faculty/classroom, skipping exclude when
	// non-nil.
	FindBySlotFaculty(ctx context.Context, slot, faculty primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error)
	FindBySlotClassroom(ctx context.Context, slot, classroom primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error)

	ListBySection(ctx context.Context, section primitive.ObjectID) ([]models.TimetableEntry, error)
	ListBySections(ctx context.Context, sections []primitive.ObjectID) ([]models.TimetableEntry, error)
	ListByFaculty(ctx context.Context, faculty primitive.ObjectID) ([]models.TimetableEntry, error)
	ListByClassroom(ctx context.Context, classroom primitive.ObjectID) ([]models.TimetableEntry, error)
	ExistsByTimeSlot(ctx context.Context, slot primitive.ObjectID) (bool, error)
}

// ReferenceStore resolves the master-data records the core consumes. Lookups
// return ErrNotFound when the referenced record does not exist.
type ReferenceStore interface {
	TimeSlotByID(ctx context.Context, id primitive.ObjectID) (models.TimeSlot, error)
	FacultyByID(ctx context.Context, id primitive.ObjectID) (models.Faculty, error)
	ClassroomByID(ctx context.Context, id primitive.ObjectID) (models.Classroom, error)
	SectionByID(ctx context.Context, id primitive.ObjectID) (models.Section, error)
	SubjectByID(ctx context.Context, id primitive.ObjectID) (models.Subject, error)
	BatchByID(ctx context.Context, id primitive.ObjectID) (models.Batch, error)
	BranchByID(ctx context.Context, id primitive.ObjectID) (models.Branch, error)
	SemesterByID(ctx context.Context, id primitive.ObjectID) (models.Semester, error)

	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	ListSemesters(ctx context.Context, batch, branch *primitive.ObjectID) ([]models.Semester, error)
	ListSectionsBySemesters(ctx context.Context, semesters []primitive.ObjectID) ([]models.Section, error)
}

// TimetableCache is an optional read cache for enriched section timetables.
// A nil cache disables caching.
type TimetableCache interface {
	GetSection(ctx context.Context, sectionID string) ([]models.EnrichedEntry, bool)
	SetSection(ctx context.Context, sectionID string, entries []models.EnrichedEntry)
	InvalidateSections(ctx context.Context, sectionIDs ...string)
}
