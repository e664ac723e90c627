package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Days of the week on which classes may be scheduled. Sunday is never valid.
var DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type Batch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	StartYear int                `bson:"start_year" json:"startYear"`
	EndYear   int                `bson:"end_year" json:"endYear"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Branch struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name       string             `bson:"name" json:"name"`
	BranchCode string             `bson:"branch_code" json:"branchCode"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Semester struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Batch     primitive.ObjectID `bson:"batch" json:"batch"`
	Branch    primitive.ObjectID `bson:"branch" json:"branch"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Section struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Semester  primitive.ObjectID `bson:"semester" json:"semester"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Subject struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Code      string             `bson:"code" json:"code"`
	Semester  primitive.ObjectID `bson:"semester" json:"semester"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Faculty struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name      string               `bson:"name" json:"name"`
	Email     string               `bson:"email" json:"email"`
	Subjects  []primitive.ObjectID `bson:"subjects,omitempty" json:"subjects,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updatedAt"`
}

type Classroom struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Capacity  int                `bson:"capacity" json:"capacity"`
	Type      string             `bson:"type,omitempty" json:"type,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TimeSlot is a (day, period) pair with concrete clock times, shared across
// all sections. Unique per (day, period).
type TimeSlot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Day       string             `bson:"day" json:"day"`
	Period    int                `bson:"period" json:"period"`
	StartTime string             `bson:"start_time" json:"startTime"` // HH:MM, 24-hour
	EndTime   string             `bson:"end_time" json:"endTime"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// TimetableEntry is one scheduled occupation of a time slot by a section for
// a subject, taught by a faculty member in a classroom. For any fixed time
// slot at most one entry may reference a given faculty and at most one may
// reference a given classroom; both pairs carry unique indexes.
type TimetableEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Section   primitive.ObjectID `bson:"section" json:"section"`
	Subject   primitive.ObjectID `bson:"subject" json:"subject"`
	Faculty   primitive.ObjectID `bson:"faculty" json:"faculty"`
	Classroom primitive.ObjectID `bson:"classroom" json:"classroom"`
	TimeSlot  primitive.ObjectID `bson:"time_slot" json:"timeSlot"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// EnrichedEntry is a TimetableEntry with referenced display data resolved for
// UI consumption. Dangling references resolve to "Unknown" rather than error.
type EnrichedEntry struct {
	ID            string `json:"_id"`
	Section       string `json:"section"`
	SectionName   string `json:"sectionName"`
	Subject       string `json:"subject"`
	SubjectName   string `json:"subjectName"`
	SubjectCode   string `json:"subjectCode"`
	Faculty       string `json:"faculty"`
	FacultyName   string `json:"facultyName"`
	Classroom     string `json:"classroom"`
	ClassroomName string `json:"classroomName"`
	TimeSlot      string `json:"timeSlot"`
	Day           string `json:"day"`
	Period        int    `json:"period"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"` // admin or faculty
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
