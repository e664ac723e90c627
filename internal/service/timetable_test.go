package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"timetable-service/internal/models"
	"timetable-service/internal/service"
)

type fakeEntryStore struct {
	mu             sync.Mutex
	entries        map[primitive.ObjectID]models.TimetableEntry
	failInsertMany error
	failInsert     error
	deleted        []primitive.ObjectID
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: map[primitive.ObjectID]models.TimetableEntry{}}
}

func (f *fakeEntryStore) Insert(ctx context.Context, e models.TimetableEntry) (models.TimetableEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return models.TimetableEntry{}, f.failInsert
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeEntryStore) InsertMany(ctx context.Context, es []models.TimetableEntry) ([]models.TimetableEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertMany != nil {
		return nil, f.failInsertMany
	}
	for i := range es {
		if es[i].ID.IsZero() {
			es[i].ID = primitive.NewObjectID()
		}
		f.entries[es[i].ID] = es[i]
	}
	return es, nil
}

func (f *fakeEntryStore) Update(ctx context.Context, id primitive.ObjectID, e models.TimetableEntry) (models.TimetableEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return models.TimetableEntry{}, service.ErrNotFound
	}
	e.ID = id
	f.entries[id] = e
	return e, nil
}

func (f *fakeEntryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[id]; !ok {
		return service.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeEntryStore) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.entries, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

func (f *fakeEntryStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.TimetableEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return models.TimetableEntry{}, service.ErrNotFound
	}
	return e, nil
}

func (f *fakeEntryStore) FindBySlotFaculty(ctx context.Context, slot, faculty primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error) {
	return f.filter(func(e models.TimetableEntry) bool {
		return e.TimeSlot == slot && e.Faculty == faculty && (exclude == nil || e.ID != *exclude)
	}), nil
}

func (f *fakeEntryStore) FindBySlotClassroom(ctx context.Context, slot, classroom primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error) {
	return f.filter(func(e models.TimetableEntry) bool {
		return e.TimeSlot == slot && e.Classroom == classroom && (exclude == nil || e.ID != *exclude)
	}), nil
}

func (f *fakeEntryStore) ListBySection(ctx context.Context, section primitive.ObjectID) ([]models.TimetableEntry, error) {
	return f.filter(func(e models.TimetableEntry) bool { return e.Section == section }), nil
}

func (f *fakeEntryStore) ListBySections(ctx context.Context, sections []primitive.ObjectID) ([]models.TimetableEntry, error) {
	set := map[primitive.ObjectID]struct{}{}
	for _, s := range sections {
		set[s] = struct{}{}
	}
	return f.filter(func(e models.TimetableEntry) bool {
		_, ok := set[e.Section]
		return ok
	}), nil
}

func (f *fakeEntryStore) ListByFaculty(ctx context.Context, faculty primitive.ObjectID) ([]models.TimetableEntry, error) {
	return f.filter(func(e models.TimetableEntry) bool { return e.Faculty == faculty }), nil
}

func (f *fakeEntryStore) ListByClassroom(ctx context.Context, classroom primitive.ObjectID) ([]models.TimetableEntry, error) {
	return f.filter(func(e models.TimetableEntry) bool { return e.Classroom == classroom }), nil
}

func (f *fakeEntryStore) ExistsByTimeSlot(ctx context.Context, slot primitive.ObjectID) (bool, error) {
	return len(f.filter(func(e models.TimetableEntry) bool { return e.TimeSlot == slot })) > 0, nil
}

func (f *fakeEntryStore) filter(keep func(models.TimetableEntry) bool) []models.TimetableEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.TimetableEntry{}
	for _, e := range f.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

type fakeRefStore struct {
	slots      map[primitive.ObjectID]models.TimeSlot
	faculty    map[primitive.ObjectID]models.Faculty
	classrooms map[primitive.ObjectID]models.Classroom
	sections   map[primitive.ObjectID]models.Section
	subjects   map[primitive.ObjectID]models.Subject
	batches    map[primitive.ObjectID]models.Batch
	branches   map[primitive.ObjectID]models.Branch
	semesters  map[primitive.ObjectID]models.Semester
}

func newFakeRefStore() *fakeRefStore {
	return &fakeRefStore{
		slots:      map[primitive.ObjectID]models.TimeSlot{},
		faculty:    map[primitive.ObjectID]models.Faculty{},
		classrooms: map[primitive.ObjectID]models.Classroom{},
		sections:   map[primitive.ObjectID]models.Section{},
		subjects:   map[primitive.ObjectID]models.Subject{},
		batches:    map[primitive.ObjectID]models.Batch{},
		branches:   map[primitive.ObjectID]models.Branch{},
		semesters:  map[primitive.ObjectID]models.Semester{},
	}
}

func (f *fakeRefStore) TimeSlotByID(ctx context.Context, id primitive.ObjectID) (models.TimeSlot, error) {
	if v, ok := f.slots[id]; ok {
		return v, nil
	}
	return models.TimeSlot{}, service.ErrNotFound
}

func (f *fakeRefStore) FacultyByID(ctx context.Context, id primitive.ObjectID) (models.Faculty, error) {
	if v, ok := f.faculty[id]; ok {
		return v, nil
	}
	return models.Faculty{}, service.ErrNotFound
}

func (f *fakeRefStore) ClassroomByID(ctx context.Context, id primitive.ObjectID) (models.Classroom, error) {
	if v, ok := f.classrooms[id]; ok {
		return v, nil
	}
	return models.Classroom{}, service.ErrNotFound
}

func (f *fakeRefStore) SectionByID(ctx context.Context, id primitive.ObjectID) (models.Section, error) {
	if v, ok := f.sections[id]; ok {
		return v, nil
	}
	return models.Section{}, service.ErrNotFound
}

func (f *fakeRefStore) SubjectByID(ctx context.Context, id primitive.ObjectID) (models.Subject, error) {
	if v, ok := f.subjects[id]; ok {
		return v, nil
	}
	return models.Subject{}, service.ErrNotFound
}

func (f *fakeRefStore) BatchByID(ctx context.Context, id primitive.ObjectID) (models.Batch, error) {
	if v, ok := f.batches[id]; ok {
		return v, nil
	}
	return models.Batch{}, service.ErrNotFound
}

func (f *fakeRefStore) BranchByID(ctx context.Context, id primitive.ObjectID) (models.Branch, error) {
	if v, ok := f.branches[id]; ok {
		return v, nil
	}
	return models.Branch{}, service.ErrNotFound
}

func (f *fakeRefStore) SemesterByID(ctx context.Context, id primitive.ObjectID) (models.Semester, error) {
	if v, ok := f.semesters[id]; ok {
		return v, nil
	}
	return models.Semester{}, service.ErrNotFound
}

func (f *fakeRefStore) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	out := []models.TimeSlot{}
	for _, v := range f.slots {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRefStore) ListSemesters(ctx context.Context, batch, branch *primitive.ObjectID) ([]models.Semester, error) {
	out := []models.Semester{}
	for _, v := range f.semesters {
		if batch != nil && v.Batch != *batch {
			continue
		}
		if branch != nil && v.Branch != *branch {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRefStore) ListSectionsBySemesters(ctx context.Context, semesters []primitive.ObjectID) ([]models.Section, error) {
	set := map[primitive.ObjectID]struct{}{}
	for _, s := range semesters {
		set[s] = struct{}{}
	}
	out := []models.Section{}
	for _, v := range f.sections {
		if _, ok := set[v.Semester]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// fixture wires a service over fakes with one slot, two sections, two
// subjects, two faculty and two classrooms, mirroring the canonical
// double-booking scenario.
type fixture struct {
	svc     *service.TimetableService
	entries *fakeEntryStore
	refs    *fakeRefStore

	slot1              primitive.ObjectID
	section1, section2 primitive.ObjectID
	subject1, subject2 primitive.ObjectID
	faculty1, faculty2 primitive.ObjectID
	room1, room2       primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		entries:  newFakeEntryStore(),
		refs:     newFakeRefStore(),
		slot1:    primitive.NewObjectID(),
		section1: primitive.NewObjectID(),
		section2: primitive.NewObjectID(),
		subject1: primitive.NewObjectID(),
		subject2: primitive.NewObjectID(),
		faculty1: primitive.NewObjectID(),
		faculty2: primitive.NewObjectID(),
		room1:    primitive.NewObjectID(),
		room2:    primitive.NewObjectID(),
	}
	f.refs.slots[f.slot1] = models.TimeSlot{ID: f.slot1, Day: "Monday", Period: 1, StartTime: "09:00", EndTime: "10:00"}
	f.refs.sections[f.section1] = models.Section{ID: f.section1, Name: "S1"}
	f.refs.sections[f.section2] = models.Section{ID: f.section2, Name: "S2"}
	f.refs.subjects[f.subject1] = models.Subject{ID: f.subject1, Name: "X1", Code: "X1"}
	f.refs.subjects[f.subject2] = models.Subject{ID: f.subject2, Name: "X2", Code: "X2"}
	f.refs.faculty[f.faculty1] = models.Faculty{ID: f.faculty1, Name: "F1"}
	f.refs.faculty[f.faculty2] = models.Faculty{ID: f.faculty2, Name: "F2"}
	f.refs.classrooms[f.room1] = models.Classroom{ID: f.room1, Name: "C1", Capacity: 60}
	f.refs.classrooms[f.room2] = models.Classroom{ID: f.room2, Name: "C2", Capacity: 60}
	f.svc = service.NewTimetableService(f.entries, f.refs, nil, nil)
	return f
}

func (f *fixture) candidate(section, subject, faculty, room primitive.ObjectID) service.CandidateEntry {
	return service.CandidateEntry{
		Section: section, Subject: subject, Faculty: faculty, Classroom: room, TimeSlot: f.slot1,
	}
}

func (f *fixture) seedEntry(t *testing.T, section, subject, faculty, room primitive.ObjectID) models.TimetableEntry {
	t.Helper()
	e, err := f.entries.Insert(context.Background(), models.TimetableEntry{
		ID: primitive.NewObjectID(), Section: section, Subject: subject,
		Faculty: faculty, Classroom: room, TimeSlot: f.slot1,
	})
	require.NoError(t, err)
	return e
}

func TestCheckConflictsNoFalsePositive(t *testing.T) {
	f := newFixture(t)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room1, nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckConflictsFacultyDoubleBooked(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room2, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Faculty is already assigned to X1 in section S1 at this time slot", conflicts[0])
}

func TestCheckConflictsClassroomDoubleBooked(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty2, f.room1, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Classroom is already booked for X1 in section S1 at this time slot", conflicts[0])
}

func TestCheckConflictsBothFireInOrder(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room1, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Contains(t, conflicts[0], "Faculty is already assigned")
	assert.Contains(t, conflicts[1], "Classroom is already booked")
}

func TestCheckConflictsSelfExclusion(t *testing.T) {
	f := newFixture(t)
	e := f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room1, &e.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckConflictsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	first, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room1, nil)
	require.NoError(t, err)
	second, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room1, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckConflictsUnknownFallback(t *testing.T) {
	f := newFixture(t)
	// Entry referencing a subject and section that no longer resolve.
	_, err := f.entries.Insert(context.Background(), models.TimetableEntry{
		ID: primitive.NewObjectID(), Section: primitive.NewObjectID(), Subject: primitive.NewObjectID(),
		Faculty: f.faculty1, Classroom: f.room1, TimeSlot: f.slot1,
	})
	require.NoError(t, err)

	conflicts, err := f.svc.CheckConflicts(context.Background(), f.slot1, f.faculty1, f.room2, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Faculty is already assigned to Unknown in section Unknown at this time slot", conflicts[0])
}

func TestCreateBatchSuccessEnriches(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{
		f.candidate(f.section1, f.subject1, f.faculty1, f.room1),
		f.candidate(f.section2, f.subject2, f.faculty2, f.room2),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "X1", created[0].SubjectName)
	assert.Equal(t, "F1", created[0].FacultyName)
	assert.Equal(t, "C1", created[0].ClassroomName)
	assert.Equal(t, "Monday", created[0].Day)
	assert.Equal(t, 1, created[0].Period)
	assert.Equal(t, "09:00", created[0].StartTime)
	assert.Len(t, f.entries.entries, 2)
}

func TestCreateBatchEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBatch(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateBatchMissingFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{
		{Section: f.section1, Subject: f.subject1, Faculty: f.faculty1}, // no classroom, no slot
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCreateBatchUnresolvedTimeSlot(t *testing.T) {
	f := newFixture(t)
	cand := f.candidate(f.section1, f.subject1, f.faculty1, f.room1)
	cand.TimeSlot = primitive.NewObjectID()

	_, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{cand})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Contains(t, err.Error(), "time slot")
	assert.Empty(t, f.entries.entries)
}

func TestCreateBatchRejectsConflictingEntryAndPersistsNothing(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	slot2 := primitive.NewObjectID()
	f.refs.slots[slot2] = models.TimeSlot{ID: slot2, Day: "Tuesday", Period: 2, StartTime: "10:00", EndTime: "11:00"}

	valid1 := service.CandidateEntry{Section: f.section2, Subject: f.subject2, Faculty: f.faculty2, Classroom: f.room2, TimeSlot: slot2}
	valid2 := service.CandidateEntry{Section: f.section1, Subject: f.subject2, Faculty: f.faculty2, Classroom: f.room1, TimeSlot: slot2}
	conflicting3 := f.candidate(f.section2, f.subject2, f.faculty1, f.room2) // faculty1 busy on slot1
	valid4 := f.candidate(f.section2, f.subject2, f.faculty2, f.room2)

	_, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{valid1, valid2, conflicting3, valid4})
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Entry)
	require.Len(t, ce.Conflicts, 1)
	assert.Equal(t, "Faculty is already assigned to X1 in section S1 at this time slot", ce.Conflicts[0])

	// All-or-nothing: only the pre-existing entry remains.
	assert.Len(t, f.entries.entries, 1)
}

func TestCreateBatchCatchesIntraBatchDuplicates(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{
		f.candidate(f.section1, f.subject1, f.faculty1, f.room1),
		f.candidate(f.section2, f.subject2, f.faculty1, f.room2), // same faculty, same slot
	})
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Entry)
	require.Len(t, ce.Conflicts, 1)
	assert.Equal(t, "Faculty is already assigned to X1 in section S1 at this time slot", ce.Conflicts[0])
	assert.Empty(t, f.entries.entries)
}

func TestCreateBatchRollsBackOnWriteRace(t *testing.T) {
	f := newFixture(t)
	f.entries.failInsertMany = service.ErrConflict

	_, err := f.svc.CreateBatch(context.Background(), []service.CandidateEntry{
		f.candidate(f.section1, f.subject1, f.faculty1, f.room1),
	})
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.NotEmpty(t, ce.Conflicts)
	// Rollback attempted for the prepared IDs.
	assert.Len(t, f.entries.deleted, 1)
}

func TestAssignSlotInsert(t *testing.T) {
	f := newFixture(t)

	entry, err := f.svc.AssignSlot(context.Background(), f.candidate(f.section1, f.subject1, f.faculty1, f.room1), nil)
	require.NoError(t, err)
	assert.Equal(t, "S1", entry.SectionName)
	assert.Len(t, f.entries.entries, 1)
}

func TestAssignSlotUpdateExcludesSelf(t *testing.T) {
	f := newFixture(t)
	e := f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	// Re-save unchanged: must not conflict with itself.
	updated, err := f.svc.AssignSlot(context.Background(), f.candidate(f.section1, f.subject1, f.faculty1, f.room1), &e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID.Hex(), updated.ID)
	assert.Len(t, f.entries.entries, 1)
}

func TestAssignSlotUpdateMissingEntry(t *testing.T) {
	f := newFixture(t)
	missing := primitive.NewObjectID()

	_, err := f.svc.AssignSlot(context.Background(), f.candidate(f.section1, f.subject1, f.faculty1, f.room1), &missing)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAssignSlotConflict(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	_, err := f.svc.AssignSlot(context.Background(), f.candidate(f.section2, f.subject2, f.faculty1, f.room2), nil)
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Conflicts, 1)
	assert.Equal(t, "Faculty is already assigned to X1 in section S1 at this time slot", ce.Conflicts[0])
	assert.Len(t, f.entries.entries, 1)
}

func TestSharedSlotWithDistinctResourcesSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	_, err := f.svc.AssignSlot(context.Background(), f.candidate(f.section2, f.subject2, f.faculty2, f.room2), nil)
	require.NoError(t, err)
	assert.Len(t, f.entries.entries, 2)
}

func TestDeleteEntryNotGatedByConflicts(t *testing.T) {
	f := newFixture(t)
	e := f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	require.NoError(t, f.svc.DeleteEntry(context.Background(), e.ID))
	assert.Empty(t, f.entries.entries)

	err := f.svc.DeleteEntry(context.Background(), e.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntriesForSectionEnrichedAndValidated(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	entries, err := f.svc.EntriesForSection(context.Background(), f.section1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "X1", entries[0].SubjectName)

	_, err = f.svc.EntriesForSection(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntriesForFacultyAndClassroom(t *testing.T) {
	f := newFixture(t)
	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	byFaculty, err := f.svc.EntriesForFaculty(context.Background(), f.faculty1)
	require.NoError(t, err)
	assert.Len(t, byFaculty, 1)

	byRoom, err := f.svc.EntriesForClassroom(context.Background(), f.room1)
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)

	_, err = f.svc.EntriesForFaculty(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.EntriesForClassroom(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntriesForFilters(t *testing.T) {
	f := newFixture(t)
	batch := primitive.NewObjectID()
	branch := primitive.NewObjectID()
	semester := primitive.NewObjectID()
	f.refs.batches[batch] = models.Batch{ID: batch, Name: "2023-2027"}
	f.refs.branches[branch] = models.Branch{ID: branch, Name: "CSE", BranchCode: "CSE"}
	f.refs.semesters[semester] = models.Semester{ID: semester, Name: "1-1", Batch: batch, Branch: branch}
	sec := f.refs.sections[f.section1]
	sec.Semester = semester
	f.refs.sections[f.section1] = sec

	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)
	f.seedEntry(t, f.section2, f.subject2, f.faculty2, f.room2)

	bySection, err := f.svc.EntriesForFilters(context.Background(), nil, nil, nil, &f.section1)
	require.NoError(t, err)
	assert.Len(t, bySection, 1)

	byBatch, err := f.svc.EntriesForFilters(context.Background(), &batch, &branch, nil, nil)
	require.NoError(t, err)
	assert.Len(t, byBatch, 1)

	bySemester, err := f.svc.EntriesForFilters(context.Background(), nil, nil, &semester, nil)
	require.NoError(t, err)
	assert.Len(t, bySemester, 1)

	missing := primitive.NewObjectID()
	_, err = f.svc.EntriesForFilters(context.Background(), &missing, nil, nil, nil)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEnrichmentFallsBackToUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.entries.Insert(context.Background(), models.TimetableEntry{
		ID: primitive.NewObjectID(), Section: f.section1,
		Subject: primitive.NewObjectID(), Faculty: primitive.NewObjectID(),
		Classroom: primitive.NewObjectID(), TimeSlot: primitive.NewObjectID(),
	})
	require.NoError(t, err)

	entries, err := f.svc.EntriesForSection(context.Background(), f.section1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Unknown", entries[0].SubjectName)
	assert.Equal(t, "Unknown", entries[0].FacultyName)
	assert.Equal(t, "Unknown", entries[0].ClassroomName)
	assert.Equal(t, "Unknown", entries[0].Day)
	assert.Equal(t, "S1", entries[0].SectionName)
}

type recordingCache struct {
	mu          sync.Mutex
	data        map[string][]models.EnrichedEntry
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[string][]models.EnrichedEntry{}}
}

func (c *recordingCache) GetSection(ctx context.Context, sectionID string) ([]models.EnrichedEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[sectionID]
	return v, ok
}

func (c *recordingCache) SetSection(ctx context.Context, sectionID string, entries []models.EnrichedEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[sectionID] = entries
}

func (c *recordingCache) InvalidateSections(ctx context.Context, sectionIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range sectionIDs {
		delete(c.data, id)
		c.invalidated = append(c.invalidated, id)
	}
}

func TestSectionCacheFilledAndInvalidated(t *testing.T) {
	f := newFixture(t)
	cache := newRecordingCache()
	f.svc = service.NewTimetableService(f.entries, f.refs, cache, nil)

	f.seedEntry(t, f.section1, f.subject1, f.faculty1, f.room1)

	_, err := f.svc.EntriesForSection(context.Background(), f.section1)
	require.NoError(t, err)
	_, ok := cache.data[f.section1.Hex()]
	assert.True(t, ok, "cache should be filled after a read")

	_, err = f.svc.AssignSlot(context.Background(), f.candidate(f.section1, f.subject2, f.faculty2, f.room2), nil)
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, f.section1.Hex())
}

func TestConflictErrorUnwrapsToErrConflict(t *testing.T) {
	err := error(&service.ConflictError{Conflicts: []string{"x"}})
	assert.True(t, errors.Is(err, service.ErrConflict))
	assert.Equal(t, "x", err.Error())
}
