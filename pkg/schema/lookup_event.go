package schema

import "time"

const LookupEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "recycled",
	"name": "product_lookup",
	"fields" : [
		{"name": "barcode", "type": "string"},
		{"name": "found", "type": "boolean"},
		{"name": "product_id", "type": "long"},
		{"name": "materials", "type": "int"},
		{"name": "recommendations", "type": "int"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type LookupEventV1 struct {
	Barcode         string    `avro:"barcode"`
	Found           bool      `avro:"found"`
	ProductID       int64     `avro:"product_id"`
	Materials       int       `avro:"materials"`
	Recommendations int       `avro:"recommendations"`
	OccurredAt      time.Time `avro:"occurred_at"`
}
