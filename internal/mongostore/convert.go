package mongostore

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.mongodb.org/mongo-driver/bson"
)

// documentJSON renders a stored document as plain JSON without its _id.
func documentJSON(raw bson.Raw) ([]byte, error) {
	var doc bson.D
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		if elem.Key == "_id" {
			continue
		}
		out = append(out, elem)
	}
	return bson.MarshalExtJSON(out, false, false)
}

// bsonFromJSON converts a JSON object into a BSON document keeping numeric types.
func bsonFromJSON(body []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(body, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// snowflakeID extracts a snowflake id from an _id value. Documents written by
// other tools carry ObjectIDs and map to zero.
func snowflakeID(raw bson.Raw) snowflake.ID {
	value, err := raw.LookupErr("_id")
	if err != nil {
		return 0
	}
	switch value.Type {
	case bson.TypeInt64:
		return snowflake.ID(value.Int64())
	case bson.TypeInt32:
		return snowflake.ID(value.Int32())
	default:
		return 0
	}
}

// assigneeIDValues matches assignee.id whether it was stored as a number or a string.
func assigneeIDValues(id string) bson.A {
	values := bson.A{id}
	if v, err := strconv.ParseInt(id, 10, 64); err == nil {
		values = append(values, v)
	}
	return values
}

// withField replaces or appends key in doc.
func withField(doc bson.D, key string, value any) bson.D {
	out := make(bson.D, 0, len(doc)+1)
	for _, elem := range doc {
		if elem.Key != key {
			out = append(out, elem)
		}
	}
	return append(out, bson.E{Key: key, Value: value})
}
