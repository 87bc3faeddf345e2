package validators

import "go.mongodb.org/mongo-driver/bson"

var LeaseContractValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"vehicle_id",
			"holder_id",
			"lease_start",
			"lease_end",
			"total_cost",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vehicle_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"holder_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"lease_start": bson.M{
				"bsonType": "date",
			},

			"lease_end": bson.M{
				"bsonType": "date",
			},

			"total_cost": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
