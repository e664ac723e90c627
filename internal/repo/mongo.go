package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	collBatches    = "batches"
	collBranches   = "branches"
	collSemesters  = "semesters"
	collSections   = "sections"
	collSubjects   = "subjects"
	collFaculty    = "faculties"
	collClassrooms = "classrooms"
	collTimeSlots  = "timeslots"
	collEntries    = "timetable_entries"
	collUsers      = "users"
)

// Connect opens a Mongo client with a bounded dial window and verifies the
// connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the service relies on. The unique pairs
// on timetable_entries are the authoritative guard against concurrent
// double-booking: a write that loses the race fails with a duplicate-key
// error which the repos surface as a conflict.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collEntries).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "time_slot", Value: 1}, {Key: "faculty", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "time_slot", Value: 1}, {Key: "classroom", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "section", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(collTimeSlots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "day", Value: 1}, {Key: "period", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	for coll, key := range map[string]string{
		collBatches:  "name",
		collBranches: "branch_code",
		collSubjects: "code",
		collFaculty:  "email",
		collUsers:    "email",
	} {
		_, err = db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
