package directory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository handles DB operations for the directory collections.
type Repository struct {
	users       *mongo.Collection
	groups      *mongo.Collection
	departments *mongo.Collection
}

// NewRepository creates a new repository over the directory collections.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		users:       db.Collection("users"),
		groups:      db.Collection("groups"),
		departments: db.Collection("departments"),
	}
}

// ListUsers fetches all user records from the remote store.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListGroups fetches all group records from the remote store.
func (r *Repository) ListGroups(ctx context.Context) ([]Group, error) {
	cursor, err := r.groups.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var groups []Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListDepartments fetches all department records from the remote store.
func (r *Repository) ListDepartments(ctx context.Context) ([]Department, error) {
	cursor, err := r.departments.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var departments []Department
	if err := cursor.All(ctx, &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

// RenameDepartment updates the department record and cascades the new name to
// every user that carried the old one.
func (r *Repository) RenameDepartment(ctx context.Context, id int64, oldName, newName string) error {
	now := time.Now()
	_, err := r.departments.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"name": newName, "updated_at": now}})
	if err != nil {
		return err
	}
	_, err = r.users.UpdateMany(ctx, bson.M{"department": oldName},
		bson.M{"$set": bson.M{"department": newName, "updated_at": now}})
	return err
}
