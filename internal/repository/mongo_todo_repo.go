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

const todosCollection = "todos"

type todoDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Text        string        `bson:"text"`
	Completed   bool          `bson:"completed"`
	CompletedAt *int64        `bson:"completedAt"`
	Creator     bson.ObjectID `bson:"_creator"`
	CreatedAt   time.Time     `bson:"createdAt"`
}

func (d todoDocument) toDomain() domain.Todo {
	return domain.Todo{
		ID:          d.ID.Hex(),
		Text:        d.Text,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		OwnerID:     d.Creator.Hex(),
		CreatedAt:   d.CreatedAt,
	}
}

// MongoTodoRepository guarda tareas con la referencia al dueño en _creator.
type MongoTodoRepository struct {
	coll *mongo.Collection
}

func NewMongoTodoRepository(db *mongo.Database) *MongoTodoRepository {
	return &MongoTodoRepository{coll: db.Collection(todosCollection)}
}

// EnsureIndexes indexa por dueño, que es el filtro de todas las consultas.
func (r *MongoTodoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "_creator", Value: 1}},
	})
	return err
}

func (r *MongoTodoRepository) Create(ctx context.Context, todo domain.Todo) (domain.Todo, error) {
	owner, err := bson.ObjectIDFromHex(todo.OwnerID)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: invalid owner id %q", todo.OwnerID)
	}
	doc := todoDocument{
		ID:          bson.NewObjectID(),
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAt,
		Creator:     owner,
		CreatedAt:   todo.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Todo, error) {
	owner, err := bson.ObjectIDFromHex(ownerID)
	if err != nil {
		return []domain.Todo{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_creator": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	todos := make([]domain.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, d.toDomain())
	}
	return todos, nil
}

func (r *MongoTodoRepository) GetByID(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return domain.Todo{}, ErrNotFound
	}
	var doc todoDocument
	return decodeTodo(r.coll.FindOne(ctx, filter), &doc)
}

func (r *MongoTodoRepository) Update(ctx context.Context, ownerID, id string, patch domain.TodoPatch) (domain.Todo, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return domain.Todo{}, ErrNotFound
	}
	update := todoPatchUpdate(patch)
	if update == nil {
		return r.GetByID(ctx, ownerID, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc todoDocument
	return decodeTodo(r.coll.FindOneAndUpdate(ctx, filter, update, opts), &doc)
}

func (r *MongoTodoRepository) Delete(ctx context.Context, ownerID, id string) (domain.Todo, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return domain.Todo{}, ErrNotFound
	}
	var doc todoDocument
	return decodeTodo(r.coll.FindOneAndDelete(ctx, filter), &doc)
}

// todoPatchUpdate arma el $set del patch; completedAt solo se toca junto con
// completed. Devuelve nil si no hay nada que cambiar.
func todoPatchUpdate(patch domain.TodoPatch) bson.M {
	set := bson.M{}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
		set["completedAt"] = patch.CompletedAt
	}
	if len(set) == 0 {
		return nil
	}
	return bson.M{"$set": set}
}

func ownedFilter(ownerID, id string) (bson.M, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	owner, err := bson.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "_creator": owner}, true
}

func decodeTodo(res *mongo.SingleResult, doc *todoDocument) (domain.Todo, error) {
	err := res.Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Todo{}, ErrNotFound
	}
	if err != nil {
		return domain.Todo{}, fmt.Errorf("todo query: %w", err)
	}
	return doc.toDomain(), nil
}
