package node

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resonance_net/internal/model"
)

type (
	NodeRepo struct {
		collection *mongo.Collection
	}
)

func NewNodeRepo(db *mongo.Database) *NodeRepo {
	return &NodeRepo{
		collection: db.Collection("nodes"),
	}
}

// EnsureIndexes creates the unique name index the directory lookups rely on.
func (r *NodeRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *NodeRepo) GetByName(ctx context.Context, name string) (*model.Node, error) {
	filter := bson.M{
		"name": name,
	}

	var node model.Node
	err := r.collection.FindOne(ctx, filter).Decode(&node)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &node, nil
}

func (r *NodeRepo) Create(ctx context.Context, node *model.Node) (primitive.ObjectID, error) {
	res, err := r.collection.InsertOne(ctx, node)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id := res.InsertedID.(primitive.ObjectID)
	node.ID = id
	return id, nil
}
