package xmetrics

import "go.opentelemetry.io/otel/attribute"

// Attr 即 OpenTelemetry 属性
type Attr = attribute.KeyValue

// 存储与消息的属性键
const (
	KeyDBSystem   = "db.system"
	KeyCollection = "db.collection"
	KeyModelID    = "model.id"
	KeyCount      = "count"
	KeyChannel    = "messaging.channel"

	keyComponent = "component"
	keyOperation = "operation"
	keyStatus    = "status"
)

var (
	String = attribute.String
	Bool   = attribute.Bool
	Int    = attribute.Int
	Int64  = attribute.Int64
)

func DBSystem(name string) Attr   { return String(KeyDBSystem, name) }
func Collection(name string) Attr { return String(KeyCollection, name) }
func ModelID(id string) Attr      { return String(KeyModelID, id) }
