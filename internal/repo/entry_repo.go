package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"timetable-service/internal/models"
	"timetable-service/internal/service"
)

// EntryRepo stores timetable entries in Mongo. It satisfies
// service.EntryStore; duplicate-key violations of the (time_slot, faculty)
// and (time_slot, classroom) unique indexes map to service.ErrConflict.
type EntryRepo struct {
	coll *mongo.Collection
}

func NewEntryRepo(db *mongo.Database) *EntryRepo {
	return &EntryRepo{coll: db.Collection(collEntries)}
}

func (r *EntryRepo) Insert(ctx context.Context, entry models.TimetableEntry) (models.TimetableEntry, error) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return models.TimetableEntry{}, mapWriteErr(err)
	}
	return entry, nil
}

func (r *EntryRepo) InsertMany(ctx context.Context, entries []models.TimetableEntry) ([]models.TimetableEntry, error) {
	docs := make([]interface{}, 0, len(entries))
	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, entries[i])
	}
	// Ordered insert: stops at the first failure so the caller knows no
	// document after the failing one was written.
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return nil, mapWriteErr(err)
	}
	return entries, nil
}

func (r *EntryRepo) Update(ctx context.Context, id primitive.ObjectID, entry models.TimetableEntry) (models.TimetableEntry, error) {
	entry.ID = id
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, entry)
	if err != nil {
		return models.TimetableEntry{}, mapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		return models.TimetableEntry{}, service.ErrNotFound
	}
	return entry, nil
}

func (r *EntryRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (r *EntryRepo) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (r *EntryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (models.TimetableEntry, error) {
	var entry models.TimetableEntry
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.TimetableEntry{}, service.ErrNotFound
	}
	if err != nil {
		return models.TimetableEntry{}, err
	}
	return entry, nil
}

func (r *EntryRepo) FindBySlotFaculty(ctx context.Context, slot, faculty primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error) {
	filter := bson.M{"time_slot": slot, "faculty": faculty}
	return r.find(ctx, withExclude(filter, exclude))
}

func (r *EntryRepo) FindBySlotClassroom(ctx context.Context, slot, classroom primitive.ObjectID, exclude *primitive.ObjectID) ([]models.TimetableEntry, error) {
	filter := bson.M{"time_slot": slot, "classroom": classroom}
	return r.find(ctx, withExclude(filter, exclude))
}

func (r *EntryRepo) ListBySection(ctx context.Context, section primitive.ObjectID) ([]models.TimetableEntry, error) {
	return r.find(ctx, bson.M{"section": section})
}

func (r *EntryRepo) ListBySections(ctx context.Context, sections []primitive.ObjectID) ([]models.TimetableEntry, error) {
	if len(sections) == 0 {
		return []models.TimetableEntry{}, nil
	}
	return r.find(ctx, bson.M{"section": bson.M{"$in": sections}})
}

func (r *EntryRepo) ListByFaculty(ctx context.Context, faculty primitive.ObjectID) ([]models.TimetableEntry, error) {
	return r.find(ctx, bson.M{"faculty": faculty})
}

func (r *EntryRepo) ListByClassroom(ctx context.Context, classroom primitive.ObjectID) ([]models.TimetableEntry, error) {
	return r.find(ctx, bson.M{"classroom": classroom})
}

func (r *EntryRepo) ExistsByTimeSlot(ctx context.Context, slot primitive.ObjectID) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"time_slot": slot}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *EntryRepo) find(ctx context.Context, filter bson.M) ([]models.TimetableEntry, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TimetableEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func withExclude(filter bson.M, exclude *primitive.ObjectID) bson.M {
	if exclude != nil {
		filter["_id"] = bson.M{"$ne": *exclude}
	}
	return filter
}

func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", service.ErrConflict, err)
	}
	return err
}
