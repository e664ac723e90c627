package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"timetable-service/internal/models"
)

// CandidateEntry is a proposed timetable assignment prior to validation,
// conflict checking and persistence.
type CandidateEntry struct {
	Section   primitive.ObjectID
	Subject   primitive.ObjectID
	Faculty   primitive.ObjectID
	Classroom primitive.ObjectID
	TimeSlot  primitive.ObjectID
}

func (c CandidateEntry) complete() bool {
	return !c.Section.IsZero() && !c.Subject.IsZero() && !c.Faculty.IsZero() &&
		!c.Classroom.IsZero() && !c.TimeSlot.IsZero()
}

// TimetableService validates candidate entries, runs the conflict checker and
// persists the survivors. Batch creation is all-or-nothing: every candidate
// is validated and conflict-checked before anything is written, and a write
// race detected by the store's unique indexes rolls this call's inserts back.
type TimetableService struct {
	entries EntryStore
	refs    ReferenceStore
	checker *ConflictChecker
	cache   TimetableCache
	logger  *zap.Logger
	clock   func() time.Time
}

func NewTimetableService(entries EntryStore, refs ReferenceStore, cache TimetableCache, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		entries: entries,
		refs:    refs,
		checker: NewConflictChecker(entries, refs),
		cache:   cache,
		logger:  logger,
		clock:   time.Now,
	}
}

// CheckConflicts exposes the conflict checker for the dry-run endpoint.
func (s *TimetableService) CheckConflicts(ctx context.Context, slot, faculty, classroom primitive.ObjectID, exclude *primitive.ObjectID) ([]string, error) {
	return s.checker.CheckConflicts(ctx, slot, faculty, classroom, exclude)
}

// CreateBatch validates and persists a batch of candidate entries in input
// order. The first candidate with missing fields, an unresolvable time slot
// or a non-empty conflict list fails the whole operation; nothing persists on
// failure. Candidates are also checked against earlier candidates in the same
// batch, which the stored state cannot see yet.
func (s *TimetableService) CreateBatch(ctx context.Context, candidates []CandidateEntry) ([]models.EnrichedEntry, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: entries are required", ErrInvalidInput)
	}

	now := s.clock().UTC()
	prepared := make([]models.TimetableEntry, 0, len(candidates))
	slotFaculty := map[string]int{}
	slotClassroom := map[string]int{}

	for i, cand := range candidates {
		if !cand.complete() {
			return nil, fmt.Errorf("entry %d: %w: section, subject, faculty, classroom and timeSlot are required", i+1, ErrInvalidInput)
		}
		if _, err := s.refs.TimeSlotByID(ctx, cand.TimeSlot); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("entry %d: %w: time slot %s not found", i+1, ErrInvalidInput, cand.TimeSlot.Hex())
			}
			return nil, err
		}

		conflicts, err := s.checker.CheckConflicts(ctx, cand.TimeSlot, cand.Faculty, cand.Classroom, nil)
		if err != nil {
			return nil, err
		}
		if j, ok := slotFaculty[pairKey(cand.TimeSlot, cand.Faculty)]; ok {
			subject, section := s.checker.displayNames(ctx, prepared[j])
			conflicts = append(conflicts, fmt.Sprintf(
				"Faculty is already assigned to %s in section %s at this time slot", subject, section))
		}
		if j, ok := slotClassroom[pairKey(cand.TimeSlot, cand.Classroom)]; ok {
			subject, section := s.checker.displayNames(ctx, prepared[j])
			conflicts = append(conflicts, fmt.Sprintf(
				"Classroom is already booked for %s in section %s at this time slot", subject, section))
		}
		if len(conflicts) > 0 {
			s.logger.Info("batch rejected on conflict",
				zap.Int("entry", i+1),
				zap.Strings("conflicts", conflicts))
			return nil, &ConflictError{Entry: i + 1, Conflicts: conflicts}
		}

		slotFaculty[pairKey(cand.TimeSlot, cand.Faculty)] = i
		slotClassroom[pairKey(cand.TimeSlot, cand.Classroom)] = i
		prepared = append(prepared, models.TimetableEntry{
			ID:        primitive.NewObjectID(),
			Section:   cand.Section,
			Subject:   cand.Subject,
			Faculty:   cand.Faculty,
			Classroom: cand.Classroom,
			TimeSlot:  cand.TimeSlot,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	inserted, err := s.entries.InsertMany(ctx, prepared)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			// Lost a race against a concurrent writer after the pre-check
			// passed. Undo whatever this call managed to insert and report
			// the conflict the racer created.
			s.rollback(ctx, prepared)
			return nil, s.conflictAfterRace(ctx, candidates)
		}
		return nil, err
	}

	s.invalidateSections(ctx, prepared)
	out := make([]models.EnrichedEntry, 0, len(inserted))
	for _, e := range inserted {
		out = append(out, s.enrich(ctx, e))
	}
	return out, nil
}

// AssignSlot validates and persists a single candidate. When existing is
// non-nil the candidate replaces that entry in place and the conflict check
// excludes it, so an entry can be re-saved unchanged or moved without
// conflicting with itself.
func (s *TimetableService) AssignSlot(ctx context.Context, cand CandidateEntry, existing *primitive.ObjectID) (models.EnrichedEntry, error) {
	if !cand.complete() {
		return models.EnrichedEntry{}, fmt.Errorf("%w: section, subject, faculty, classroom and timeSlot are required", ErrInvalidInput)
	}
	if _, err := s.refs.TimeSlotByID(ctx, cand.TimeSlot); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.EnrichedEntry{}, fmt.Errorf("%w: time slot %s not found", ErrInvalidInput, cand.TimeSlot.Hex())
		}
		return models.EnrichedEntry{}, err
	}

	var prev models.TimetableEntry
	if existing != nil {
		var err error
		prev, err = s.entries.FindByID(ctx, *existing)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return models.EnrichedEntry{}, fmt.Errorf("%w: timetable entry %s", ErrNotFound, existing.Hex())
			}
			return models.EnrichedEntry{}, err
		}
	}

	conflicts, err := s.checker.CheckConflicts(ctx, cand.TimeSlot, cand.Faculty, cand.Classroom, existing)
	if err != nil {
		return models.EnrichedEntry{}, err
	}
	if len(conflicts) > 0 {
		return models.EnrichedEntry{}, &ConflictError{Conflicts: conflicts}
	}

	now := s.clock().UTC()
	var saved models.TimetableEntry
	if existing != nil {
		entry := prev
		entry.Section = cand.Section
		entry.Subject = cand.Subject
		entry.Faculty = cand.Faculty
		entry.Classroom = cand.Classroom
		entry.TimeSlot = cand.TimeSlot
		entry.UpdatedAt = now
		saved, err = s.entries.Update(ctx, *existing, entry)
	} else {
		saved, err = s.entries.Insert(ctx, models.TimetableEntry{
			ID:        primitive.NewObjectID(),
			Section:   cand.Section,
			Subject:   cand.Subject,
			Faculty:   cand.Faculty,
			Classroom: cand.Classroom,
			TimeSlot:  cand.TimeSlot,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return models.EnrichedEntry{}, s.conflictAfterRace(ctx, []CandidateEntry{cand})
		}
		return models.EnrichedEntry{}, err
	}

	sections := []models.TimetableEntry{saved}
	if existing != nil && prev.Section != saved.Section {
		sections = append(sections, prev)
	}
	s.invalidateSections(ctx, sections)
	return s.enrich(ctx, saved), nil
}

// DeleteEntry removes an entry. Removal is never gated by conflict logic.
func (s *TimetableService) DeleteEntry(ctx context.Context, id primitive.ObjectID) error {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: timetable entry %s", ErrNotFound, id.Hex())
		}
		return err
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateSections(ctx, []models.TimetableEntry{entry})
	return nil
}

// EntriesForSection returns the section's enriched timetable, served from the
// cache when available.
func (s *TimetableService) EntriesForSection(ctx context.Context, sectionID primitive.ObjectID) ([]models.EnrichedEntry, error) {
	if _, err := s.refs.SectionByID(ctx, sectionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: section %s", ErrNotFound, sectionID.Hex())
		}
		return nil, err
	}
	if s.cache != nil {
		if cached, ok := s.cache.GetSection(ctx, sectionID.Hex()); ok {
			return cached, nil
		}
	}
	rows, err := s.entries.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	out := s.enrichAll(ctx, rows)
	if s.cache != nil {
		s.cache.SetSection(ctx, sectionID.Hex(), out)
	}
	return out, nil
}

func (s *TimetableService) EntriesForFaculty(ctx context.Context, facultyID primitive.ObjectID) ([]models.EnrichedEntry, error) {
	if _, err := s.refs.FacultyByID(ctx, facultyID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: faculty %s", ErrNotFound, facultyID.Hex())
		}
		return nil, err
	}
	rows, err := s.entries.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rows), nil
}

func (s *TimetableService) EntriesForClassroom(ctx context.Context, classroomID primitive.ObjectID) ([]models.EnrichedEntry, error) {
	if _, err := s.refs.ClassroomByID(ctx, classroomID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: classroom %s", ErrNotFound, classroomID.Hex())
		}
		return nil, err
	}
	rows, err := s.entries.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rows), nil
}

// EntriesForFilters narrows entries by any combination of batch, branch,
// semester and section. Every provided filter must resolve to an existing
// record.
func (s *TimetableService) EntriesForFilters(ctx context.Context, batch, branch, semester, section *primitive.ObjectID) ([]models.EnrichedEntry, error) {
	if batch != nil {
		if _, err := s.refs.BatchByID(ctx, *batch); err != nil {
			return nil, filterLookupErr(err, "batch", *batch)
		}
	}
	if branch != nil {
		if _, err := s.refs.BranchByID(ctx, *branch); err != nil {
			return nil, filterLookupErr(err, "branch", *branch)
		}
	}
	if semester != nil {
		if _, err := s.refs.SemesterByID(ctx, *semester); err != nil {
			return nil, filterLookupErr(err, "semester", *semester)
		}
	}
	if section != nil {
		if _, err := s.refs.SectionByID(ctx, *section); err != nil {
			return nil, filterLookupErr(err, "section", *section)
		}
	}

	var sectionIDs []primitive.ObjectID
	if section != nil {
		sectionIDs = []primitive.ObjectID{*section}
	} else {
		var semesterIDs []primitive.ObjectID
		if semester != nil {
			semesterIDs = []primitive.ObjectID{*semester}
		} else {
			semesters, err := s.refs.ListSemesters(ctx, batch, branch)
			if err != nil {
				return nil, err
			}
			for _, sem := range semesters {
				semesterIDs = append(semesterIDs, sem.ID)
			}
		}
		sections, err := s.refs.ListSectionsBySemesters(ctx, semesterIDs)
		if err != nil {
			return nil, err
		}
		for _, sec := range sections {
			sectionIDs = append(sectionIDs, sec.ID)
		}
	}

	if len(sectionIDs) == 0 {
		return []models.EnrichedEntry{}, nil
	}
	rows, err := s.entries.ListBySections(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	return s.enrichAll(ctx, rows), nil
}

// TimeSlots lists every defined time slot, sorted by day then period.
func (s *TimetableService) TimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	return s.refs.ListTimeSlots(ctx)
}

// enrich resolves display names for one entry, substituting "Unknown" for any
// reference that no longer resolves.
func (s *TimetableService) enrich(ctx context.Context, e models.TimetableEntry) models.EnrichedEntry {
	out := models.EnrichedEntry{
		ID:            e.ID.Hex(),
		Section:       e.Section.Hex(),
		SectionName:   "Unknown",
		Subject:       e.Subject.Hex(),
		SubjectName:   "Unknown",
		Faculty:       e.Faculty.Hex(),
		FacultyName:   "Unknown",
		Classroom:     e.Classroom.Hex(),
		ClassroomName: "Unknown",
		TimeSlot:      e.TimeSlot.Hex(),
		Day:           "Unknown",
	}
	if sec, err := s.refs.SectionByID(ctx, e.Section); err == nil {
		out.SectionName = sec.Name
	}
	if sub, err := s.refs.SubjectByID(ctx, e.Subject); err == nil {
		out.SubjectName = sub.Name
		out.SubjectCode = sub.Code
	}
	if fac, err := s.refs.FacultyByID(ctx, e.Faculty); err == nil {
		out.FacultyName = fac.Name
	}
	if room, err := s.refs.ClassroomByID(ctx, e.Classroom); err == nil {
		out.ClassroomName = room.Name
	}
	if slot, err := s.refs.TimeSlotByID(ctx, e.TimeSlot); err == nil {
		out.Day = slot.Day
		out.Period = slot.Period
		out.StartTime = slot.StartTime
		out.EndTime = slot.EndTime
	}
	return out
}

func (s *TimetableService) enrichAll(ctx context.Context, rows []models.TimetableEntry) []models.EnrichedEntry {
	out := make([]models.EnrichedEntry, 0, len(rows))
	for _, e := range rows {
		out = append(out, s.enrich(ctx, e))
	}
	return out
}

// conflictAfterRace re-runs the checker after a unique-index violation to
// recover proper descriptions from the entry that won the race.
func (s *TimetableService) conflictAfterRace(ctx context.Context, candidates []CandidateEntry) error {
	s.logger.Warn("write race lost to concurrent assignment; surfacing as conflict")
	for i, cand := range candidates {
		conflicts, err := s.checker.CheckConflicts(ctx, cand.TimeSlot, cand.Faculty, cand.Classroom, nil)
		if err == nil && len(conflicts) > 0 {
			return &ConflictError{Entry: i + 1, Conflicts: conflicts}
		}
	}
	return &ConflictError{Conflicts: []string{
		"Faculty or classroom was booked concurrently at this time slot",
	}}
}

func (s *TimetableService) rollback(ctx context.Context, prepared []models.TimetableEntry) {
	ids := make([]primitive.ObjectID, 0, len(prepared))
	for _, e := range prepared {
		ids = append(ids, e.ID)
	}
	if err := s.entries.DeleteByIDs(ctx, ids); err != nil {
		s.logger.Error("batch rollback failed", zap.Error(err))
	}
}

func (s *TimetableService) invalidateSections(ctx context.Context, entries []models.TimetableEntry) {
	if s.cache == nil || len(entries) == 0 {
		return
	}
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		hex := e.Section.Hex()
		if _, ok := seen[hex]; ok {
			continue
		}
		seen[hex] = struct{}{}
		ids = append(ids, hex)
	}
	s.cache.InvalidateSections(ctx, ids...)
}

func pairKey(a, b primitive.ObjectID) string {
	return a.Hex() + "/" + b.Hex()
}

func filterLookupErr(err error, kind string, id primitive.ObjectID) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id.Hex())
	}
	return err
}
