package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh product identifier as a 24-char hex ObjectID.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a syntactically valid product identifier.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
