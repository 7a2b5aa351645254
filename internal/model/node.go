package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type (
	// Node is a participant identity stored in the directory. The signing
	// key is only ever read by the owning node's client.
	Node struct {
		ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
		Name      string             `bson:"name" json:"name"`
		SignPriv  []byte             `bson:"sign_priv" json:"-"`
		SignPub   []byte             `bson:"sign_pub" json:"sign_pub"`
		CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	}

	// NodeCard is the public directory record the relay serves for a node.
	NodeCard struct {
		Name    string `json:"name"`
		SignPub []byte `json:"sign_pub"`
	}
)

func (n *Node) Card() *NodeCard {
	return &NodeCard{Name: n.Name, SignPub: n.SignPub}
}
