package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"timetable-service/internal/models"
	"timetable-service/internal/service"
)

// MasterRepo stores the master data the timetable core consumes: batches,
// branches, semesters, sections, subjects, faculty, classrooms, time slots
// and users. It satisfies service.ReferenceStore.
type MasterRepo struct {
	db *mongo.Database
}

func NewMasterRepo(db *mongo.Database) *MasterRepo {
	return &MasterRepo{db: db}
}

func (r *MasterRepo) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// ---- lookups (service.ReferenceStore) ----

func (r *MasterRepo) TimeSlotByID(ctx context.Context, id primitive.ObjectID) (models.TimeSlot, error) {
	var out models.TimeSlot
	return out, r.findByID(ctx, collTimeSlots, id, &out)
}

func (r *MasterRepo) FacultyByID(ctx context.Context, id primitive.ObjectID) (models.Faculty, error) {
	var out models.Faculty
	return out, r.findByID(ctx, collFaculty, id, &out)
}

func (r *MasterRepo) ClassroomByID(ctx context.Context, id primitive.ObjectID) (models.Classroom, error) {
	var out models.Classroom
	return out, r.findByID(ctx, collClassrooms, id, &out)
}

func (r *MasterRepo) SectionByID(ctx context.Context, id primitive.ObjectID) (models.Section, error) {
	var out models.Section
	return out, r.findByID(ctx, collSections, id, &out)
}

func (r *MasterRepo) SubjectByID(ctx context.Context, id primitive.ObjectID) (models.Subject, error) {
	var out models.Subject
	return out, r.findByID(ctx, collSubjects, id, &out)
}

func (r *MasterRepo) BatchByID(ctx context.Context, id primitive.ObjectID) (models.Batch, error) {
	var out models.Batch
	return out, r.findByID(ctx, collBatches, id, &out)
}

func (r *MasterRepo) BranchByID(ctx context.Context, id primitive.ObjectID) (models.Branch, error) {
	var out models.Branch
	return out, r.findByID(ctx, collBranches, id, &out)
}

func (r *MasterRepo) SemesterByID(ctx context.Context, id primitive.ObjectID) (models.Semester, error) {
	var out models.Semester
	return out, r.findByID(ctx, collSemesters, id, &out)
}

func (r *MasterRepo) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	out := []models.TimeSlot{}
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}, {Key: "period", Value: 1}})
	return out, r.findAll(ctx, collTimeSlots, bson.M{}, &out, opts)
}

func (r *MasterRepo) ListSemesters(ctx context.Context, batch, branch *primitive.ObjectID) ([]models.Semester, error) {
	filter := bson.M{}
	if batch != nil {
		filter["batch"] = *batch
	}
	if branch != nil {
		filter["branch"] = *branch
	}
	out := []models.Semester{}
	return out, r.findAll(ctx, collSemesters, filter, &out, nil)
}

func (r *MasterRepo) ListSectionsBySemesters(ctx context.Context, semesters []primitive.ObjectID) ([]models.Section, error) {
	if len(semesters) == 0 {
		return []models.Section{}, nil
	}
	out := []models.Section{}
	return out, r.findAll(ctx, collSections, bson.M{"semester": bson.M{"$in": semesters}}, &out, nil)
}

// ---- master-data CRUD ----

func (r *MasterRepo) ListBatches(ctx context.Context) ([]models.Batch, error) {
	out := []models.Batch{}
	return out, r.findAll(ctx, collBatches, bson.M{}, &out, nil)
}

func (r *MasterRepo) ListBranches(ctx context.Context) ([]models.Branch, error) {
	out := []models.Branch{}
	return out, r.findAll(ctx, collBranches, bson.M{}, &out, nil)
}

func (r *MasterRepo) ListAllSemesters(ctx context.Context) ([]models.Semester, error) {
	return r.ListSemesters(ctx, nil, nil)
}

func (r *MasterRepo) ListSections(ctx context.Context) ([]models.Section, error) {
	out := []models.Section{}
	return out, r.findAll(ctx, collSections, bson.M{}, &out, nil)
}

func (r *MasterRepo) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	out := []models.Subject{}
	return out, r.findAll(ctx, collSubjects, bson.M{}, &out, nil)
}

func (r *MasterRepo) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	out := []models.Faculty{}
	return out, r.findAll(ctx, collFaculty, bson.M{}, &out, nil)
}

func (r *MasterRepo) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	out := []models.Classroom{}
	return out, r.findAll(ctx, collClassrooms, bson.M{}, &out, nil)
}

func (r *MasterRepo) InsertBatch(ctx context.Context, b models.Batch) (models.Batch, error) {
	b.ID = ensureID(b.ID)
	return b, r.insertDoc(ctx, collBatches, b)
}

func (r *MasterRepo) InsertBranch(ctx context.Context, b models.Branch) (models.Branch, error) {
	b.ID = ensureID(b.ID)
	return b, r.insertDoc(ctx, collBranches, b)
}

func (r *MasterRepo) InsertSemester(ctx context.Context, s models.Semester) (models.Semester, error) {
	s.ID = ensureID(s.ID)
	return s, r.insertDoc(ctx, collSemesters, s)
}

func (r *MasterRepo) InsertSection(ctx context.Context, s models.Section) (models.Section, error) {
	s.ID = ensureID(s.ID)
	return s, r.insertDoc(ctx, collSections, s)
}

func (r *MasterRepo) InsertSubject(ctx context.Context, s models.Subject) (models.Subject, error) {
	s.ID = ensureID(s.ID)
	return s, r.insertDoc(ctx, collSubjects, s)
}

func (r *MasterRepo) InsertFaculty(ctx context.Context, f models.Faculty) (models.Faculty, error) {
	f.ID = ensureID(f.ID)
	return f, r.insertDoc(ctx, collFaculty, f)
}

func (r *MasterRepo) InsertClassroom(ctx context.Context, c models.Classroom) (models.Classroom, error) {
	c.ID = ensureID(c.ID)
	return c, r.insertDoc(ctx, collClassrooms, c)
}

func (r *MasterRepo) InsertTimeSlot(ctx context.Context, t models.TimeSlot) (models.TimeSlot, error) {
	t.ID = ensureID(t.ID)
	return t, r.insertDoc(ctx, collTimeSlots, t)
}

func (r *MasterRepo) TimeSlotByDayPeriod(ctx context.Context, day string, period int) (models.TimeSlot, error) {
	var out models.TimeSlot
	err := r.coll(collTimeSlots).FindOne(ctx, bson.M{"day": day, "period": period}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TimeSlot{}, service.ErrNotFound
	}
	return out, err
}

func (r *MasterRepo) DeleteBatch(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collBatches, id)
}

func (r *MasterRepo) DeleteBranch(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collBranches, id)
}

func (r *MasterRepo) DeleteSemester(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collSemesters, id)
}

func (r *MasterRepo) DeleteSection(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collSections, id)
}

func (r *MasterRepo) DeleteSubject(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collSubjects, id)
}

func (r *MasterRepo) DeleteFaculty(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collFaculty, id)
}

func (r *MasterRepo) DeleteClassroom(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collClassrooms, id)
}

func (r *MasterRepo) DeleteTimeSlot(ctx context.Context, id primitive.ObjectID) error {
	return r.deleteByID(ctx, collTimeSlots, id)
}

// ---- users ----

func (r *MasterRepo) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var out models.User
	err := r.coll(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, service.ErrNotFound
	}
	return out, err
}

func (r *MasterRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.coll(collUsers).CountDocuments(ctx, bson.M{})
}

func (r *MasterRepo) InsertUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = ensureID(u.ID)
	return u, r.insertDoc(ctx, collUsers, u)
}

// ---- helpers ----

func (r *MasterRepo) findByID(ctx context.Context, coll string, id primitive.ObjectID, out interface{}) error {
	err := r.coll(coll).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return service.ErrNotFound
	}
	return err
}

func (r *MasterRepo) findAll(ctx context.Context, coll string, filter bson.M, out interface{}, opts *options.FindOptions) error {
	var cur *mongo.Cursor
	var err error
	if opts != nil {
		cur, err = r.coll(coll).Find(ctx, filter, opts)
	} else {
		cur, err = r.coll(coll).Find(ctx, filter)
	}
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

func ensureID(id primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		return primitive.NewObjectID()
	}
	return id
}

func (r *MasterRepo) insertDoc(ctx context.Context, coll string, doc interface{}) error {
	_, err := r.coll(coll).InsertOne(ctx, doc)
	return mapWriteErr(err)
}

func (r *MasterRepo) deleteByID(ctx context.Context, coll string, id primitive.ObjectID) error {
	res, err := r.coll(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return service.ErrNotFound
	}
	return nil
}
