// Package validation revisa payloads JSON de primer nivel contra una tabla
// de tipos declarada por entidad y una lista de campos permitidos.
package validation

// FieldType es el tipo de un valor JSON ya decodificado.
type FieldType int

const (
	Unknown FieldType = iota
	String
	Boolean
	Number
	Null
	Object
	Array
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	case Number:
		return "Number"
	case Null:
		return "Null"
	case Object:
		return "Object"
	case Array:
		return "Array"
	default:
		return "Unknown"
	}
}

// Schema asocia cada campo con el tipo que debe traer.
type Schema map[string]FieldType

// UserSchema es la tabla de tipos para credenciales de usuario.
var UserSchema = Schema{
	"email":    String,
	"password": String,
}

// TodoSchema es la tabla de tipos para tareas.
var TodoSchema = Schema{
	"text":        String,
	"completed":   Boolean,
	"completedAt": Number,
	"ownerId":     String,
}

var (
	// CredentialFields son los campos aceptados por registro y login.
	CredentialFields = []string{"email", "password"}
	// TodoFields son los campos que un cliente puede fijar en una tarea.
	TodoFields = []string{"text", "completed"}
)

// TypeOf clasifica un valor producido por el decodificador JSON.
func TypeOf(v any) FieldType {
	switch v.(type) {
	case nil:
		return Null
	case string:
		return String
	case bool:
		return Boolean
	case float64, float32, int, int32, int64:
		return Number
	case map[string]any:
		return Object
	case []any:
		return Array
	default:
		return Unknown
	}
}

// Validate acepta el payload solo si no esta vacio, todos sus campos estan en
// allowed y cada valor coincide con el tipo declarado en schema. No revisa
// campos anidados ni largos o formatos.
func Validate(payload map[string]any, schema Schema, allowed []string) bool {
	if len(payload) == 0 {
		return false
	}
	for field, value := range payload {
		if !contains(allowed, field) {
			return false
		}
		want, ok := schema[field]
		if !ok || TypeOf(value) != want {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
