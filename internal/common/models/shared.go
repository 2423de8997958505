package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

// Log is the record shape the async zap sink writes to the logs collection
type Log struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AppId        string             `bson:"app_id" json:"app_id"`
	Message      string             `bson:"message" json:"message"`
	IpAddress    string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	CustomerDoc  string             `bson:"customer_doc,omitempty" json:"customer_doc,omitempty"`
	Caller       string             `bson:"caller,omitempty" json:"caller,omitempty"`
	LogLevelId   int                `bson:"log_level_id" json:"log_level_id"`
	CreatedOnUtc time.Time          `bson:"created_on_utc" json:"created_on_utc"`
}
