package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/marketplace-admin/console/internal/core/domain"
	"github.com/marketplace-admin/console/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionCounters = "counters"
)

// UserRepository stores accounts with sequential integer ids drawn from a
// counters collection.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(collectionUsers),
		counters: db.Collection(collectionCounters),
	}
}

type userDoc struct {
	ID           int64      `bson:"_id"`
	Username     string     `bson:"username"`
	Email        string     `bson:"email"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	UserType     string     `bson:"user_type"`
	IsActive     bool       `bson:"is_active"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
	DateJoined   *time.Time `bson:"date_joined,omitempty"`
	PasswordHash string     `bson:"password_hash"`
}

func toDoc(a *domain.Account) userDoc {
	return userDoc{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		UserType:     string(a.UserType),
		IsActive:     a.IsActive,
		LastLogin:    a.LastLogin,
		DateJoined:   a.DateJoined,
		PasswordHash: a.PasswordHash,
	}
}

func (d userDoc) account() *domain.Account {
	return &domain.Account{
		User: domain.User{
			ID:         d.ID,
			Username:   d.Username,
			Email:      d.Email,
			FirstName:  d.FirstName,
			LastName:   d.LastName,
			UserType:   domain.UserType(d.UserType),
			IsActive:   d.IsActive,
			LastLogin:  d.LastLogin,
			DateJoined: d.DateJoined,
		},
		PasswordHash: d.PasswordHash,
	}
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": collectionUsers},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

// Create assigns the next id and inserts the account.
func (r *UserRepository) Create(ctx context.Context, acc *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	doc := toDoc(acc)
	doc.ID = id

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.account(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.account(), nil
}

// List applies the filter server-side. Search is a case-insensitive
// substring match over username, email and names.
func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.users.Find(ctx, listFilter(f), options.Find().SetSort(listSort(f)))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.account())
	}
	return out, nil
}

func listFilter(f domain.UserFilter) bson.M {
	filter := bson.M{}
	if f.UserType != "" {
		filter["user_type"] = string(f.UserType)
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"email": re},
			bson.M{"first_name": re},
			bson.M{"last_name": re},
		}
	}
	return filter
}

func listSort(f domain.UserFilter) bson.D {
	field, desc, _ := f.Order()
	dir := 1
	if desc {
		dir = -1
	}
	if field == "id" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

// Update replaces the stored account.
func (r *UserRepository) Update(ctx context.Context, acc *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": acc.ID}, toDoc(acc))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique username index and the list filters'
// supporting indexes.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "date_joined", Value: -1}}},
	}
	_, err := r.users.Indexes().CreateMany(ctx, indexes)
	return err
}
