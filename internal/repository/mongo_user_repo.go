package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"todo-api/internal/domain"
)

const usersCollection = "users"

type tokenDocument struct {
	Access string `bson:"access"`
	Token  string `bson:"token"`
}

type userDocument struct {
	ID           bson.ObjectID   `bson:"_id,omitempty"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"password"`
	Tokens       []tokenDocument `bson:"tokens"`
	CreatedAt    time.Time       `bson:"createdAt"`
}

func (d userDocument) toDomain() domain.User {
	user := domain.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
	for _, t := range d.Tokens {
		user.Tokens = append(user.Tokens, domain.AuthToken{Purpose: t.Access, Token: t.Token})
	}
	return user
}

// MongoUserRepository guarda usuarios como documentos con su lista de tokens embebida.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

// EnsureIndexes crea el indice unico de email.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	doc := userDocument{
		ID:           bson.NewObjectID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Tokens:       []tokenDocument{},
		CreatedAt:    user.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	for _, t := range user.Tokens {
		doc.Tokens = append(doc.Tokens, tokenDocument{Access: t.Purpose, Token: t.Token})
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoUserRepository) Update(ctx context.Context, user domain.User) error {
	oid, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"email": user.Email, "password": user.PasswordHash}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetByToken(ctx context.Context, id string, token domain.AuthToken) (domain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return domain.User{}, ErrNotFound
	}
	return r.findOne(ctx, tokenLookupFilter(oid, token))
}

func (r *MongoUserRepository) AddToken(ctx context.Context, id string, token domain.AuthToken) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		pushTokenUpdate(token),
	)
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveToken usa $pull; los tokens llevan jti asi que cada valor aparece una sola vez.
func (r *MongoUserRepository) RemoveToken(ctx context.Context, id string, token string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		pullTokenUpdate(token),
	)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if res.ModifiedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// tokenLookupFilter exige que proposito y token coincidan en la misma entrada.
func tokenLookupFilter(id bson.ObjectID, token domain.AuthToken) bson.M {
	return bson.M{
		"_id": id,
		"tokens": bson.M{"$elemMatch": bson.M{
			"access": token.Purpose,
			"token":  token.Token,
		}},
	}
}

func pushTokenUpdate(token domain.AuthToken) bson.M {
	return bson.M{"$push": bson.M{"tokens": tokenDocument{Access: token.Purpose, Token: token.Token}}}
}

func pullTokenUpdate(token string) bson.M {
	return bson.M{"$pull": bson.M{"tokens": bson.M{"token": token}}}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return doc.toDomain(), nil
}
