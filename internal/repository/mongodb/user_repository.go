package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/database/mongodb"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/errors"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/query"
)

const usersCollection = "users"

// UserRepository implements interfaces.UserRepository on MongoDB
type UserRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
	logger     logging.Logger
}

// NewUserRepository creates a MongoDB-backed user repository
func NewUserRepository(conn *mongodb.Connection, logger logging.Logger) *UserRepository {
	return &UserRepository{
		collection: conn.Collection(usersCollection),
		timeout:    conn.QueryTimeout(),
		logger:     logger,
	}
}

func liveUsers() bson.M {
	return bson.M{"isDeleted": false}
}

// EnsureIndexes creates the indexes the user queries rely on
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "adminVerified", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		return errors.Wrap(err, "failed to create user indexes")
	}
	return nil
}

// Create inserts a new user. A duplicate email surfaces as a conflict.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.NewConflict("email already registered")
		}
		r.logger.Error(ctx, "Failed to insert user", err)
		return nil, errors.Wrap(err, "failed to insert user")
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	return user, nil
}

// GetByID returns a live user by id
func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveUsers()
	filter["_id"] = id

	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound("user not found")
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	return &user, nil
}

// GetByEmail returns a live user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveUsers()
	filter["email"] = email

	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound("user not found")
		}
		return nil, errors.Wrap(err, "failed to find user")
	}

	return &user, nil
}

// List runs the accumulated query against live users
func (r *UserRepository) List(ctx context.Context, qb *query.Builder) ([]domain.User, query.Meta, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := qb.Criteria()

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to count users")
	}

	cursor, err := r.collection.Find(ctx, filter, qb.FindOptions())
	if err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to list users")
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, query.Meta{}, errors.Wrap(err, "failed to decode users")
	}

	return users, qb.MetaFor(total), nil
}

// SetVerification updates a technician's review state
func (r *UserRepository) SetVerification(ctx context.Context, id primitive.ObjectID, status domain.VerificationStatus, at time.Time) (*domain.User, error) {
	return r.updateOne(ctx, id, bson.M{"adminVerified": status, "updatedAt": at})
}

// SetBlocked toggles the block flag
func (r *UserRepository) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool, at time.Time) (*domain.User, error) {
	return r.updateOne(ctx, id, bson.M{"isBlocked": blocked, "updatedAt": at})
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveUsers()
	filter["_id"] = id

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.NewNotFound("user not found")
		}
		r.logger.Error(ctx, "Failed to update user", err, map[string]interface{}{"userId": id.Hex()})
		return nil, errors.Wrap(err, "failed to update user")
	}

	return &user, nil
}

// SoftDelete marks a user deleted
func (r *UserRepository) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveUsers()
	filter["_id"] = id

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{"isDeleted": true, "updatedAt": at},
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if result.MatchedCount == 0 {
		return errors.NewNotFound("user not found")
	}

	return nil
}

func eligibleTechnicianFilter() bson.M {
	filter := liveUsers()
	filter["role"] = domain.RoleTechnician
	filter["adminVerified"] = domain.VerificationVerified
	filter["isBlocked"] = false
	return filter
}

// EligibleTechnicians returns every verified, unblocked, live technician
func (r *UserRepository) EligibleTechnicians(ctx context.Context) ([]domain.User, error) {
	return r.findAll(ctx, eligibleTechnicianFilter())
}

// Admins returns every live admin and super admin
func (r *UserRepository) Admins(ctx context.Context) ([]domain.User, error) {
	filter := liveUsers()
	filter["role"] = bson.M{"$in": bson.A{domain.RoleAdmin, domain.RoleSuperAdmin}}
	return r.findAll(ctx, filter)
}

func (r *UserRepository) findAll(ctx context.Context, filter bson.M) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "failed to decode users")
	}

	return users, nil
}

// CountTechniciansByVerification counts live technicians in the given review state
func (r *UserRepository) CountTechniciansByVerification(ctx context.Context, status domain.VerificationStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := liveUsers()
	filter["role"] = domain.RoleTechnician
	filter["adminVerified"] = status

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count technicians")
	}

	return count, nil
}
