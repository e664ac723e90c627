package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"timetable-service/internal/models"
)

// ConflictChecker decides whether assigning a (time slot, faculty, classroom)
// triple would double-book the faculty member or the classroom. It is
// read-only; the authoritative guard against write races is the storage
// layer's unique indexes.
type ConflictChecker struct {
	entries EntryStore
	refs    ReferenceStore
}

func NewConflictChecker(entries EntryStore, refs ReferenceStore) *ConflictChecker {
	return &ConflictChecker{entries: entries, refs: refs}
}

// CheckConflicts returns one human-readable description per violation, in
// faculty-then-classroom order. An empty result means no conflict. The two
// checks are independent; both can fire in the same call. exclude, when
// non-nil, names an entry being edited that must not conflict with itself.
func (c *ConflictChecker) CheckConflicts(ctx context.Context, slot, faculty, classroom primitive.ObjectID, exclude *primitive.ObjectID) ([]string, error) {
	conflicts := []string{}

	facultyMatches, err := c.entries.FindBySlotFaculty(ctx, slot, faculty, exclude)
	if err != nil {
		return nil, err
	}
	if len(facultyMatches) > 0 {
		// Duplicates should not exist if the invariant holds; report the
		// first match either way.
		subject, section := c.displayNames(ctx, facultyMatches[0])
		conflicts = append(conflicts, fmt.Sprintf(
			"Faculty is already assigned to %s in section %s at this time slot", subject, section))
	}

	classroomMatches, err := c.entries.FindBySlotClassroom(ctx, slot, classroom, exclude)
	if err != nil {
		return nil, err
	}
	if len(classroomMatches) > 0 {
		subject, section := c.displayNames(ctx, classroomMatches[0])
		conflicts = append(conflicts, fmt.Sprintf(
			"Classroom is already booked for %s in section %s at this time slot", subject, section))
	}

	return conflicts, nil
}

// displayNames resolves the subject and section names of a conflicting entry.
// A conflict description must never fail solely because a denormalized
// lookup dangles, so unresolved references read "Unknown".
func (c *ConflictChecker) displayNames(ctx context.Context, entry models.TimetableEntry) (subject, section string) {
	subject, section = "Unknown", "Unknown"
	if s, err := c.refs.SubjectByID(ctx, entry.Subject); err == nil {
		subject = s.Name
	}
	if s, err := c.refs.SectionByID(ctx, entry.Section); err == nil {
		section = s.Name
	}
	return subject, section
}
