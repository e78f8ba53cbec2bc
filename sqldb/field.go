package sqldb

import "go.browserstore.dev/core/blob"

// FieldType enumerates the kinds of value a Field may hold.
type FieldType int

const (
	FieldNull FieldType = iota
	FieldInteger
	FieldFloat
	FieldText
	FieldBlob
)

func (t FieldType) String() string {
	switch t {
	case FieldNull:
		return "NULL"
	case FieldInteger:
		return "INTEGER"
	case FieldFloat:
		return "FLOAT"
	case FieldText:
		return "TEXT"
	case FieldBlob:
		return "BLOB"
	}
	return "UNKNOWN"
}

// Field is an immutable, tagged SQL value: exactly one of NULL, an integer,
// a double, text, or a Blob. Accessors of a kind other than the one held
// return that kind's zero value rather than an error.
type Field struct {
	v any // One of nil, int64, float64, string, or *blob.Blob.
}

// NullField returns a NULL Field.
func NullField() Field { return Field{} }

// IntField returns an INTEGER Field.
func IntField(v int64) Field { return Field{v: v} }

// DoubleField returns a FLOAT Field.
func DoubleField(v float64) Field { return Field{v: v} }

// TextField returns a TEXT Field.
func TextField(v string) Field { return Field{v: v} }

// BlobField returns a BLOB Field sharing |b|. A nil |b| yields a NULL Field.
func BlobField(b *blob.Blob) Field {
	if b == nil {
		return Field{}
	}
	return Field{v: b}
}

// Type of the Field's value.
func (f Field) Type() FieldType {
	switch f.v.(type) {
	case int64:
		return FieldInteger
	case float64:
		return FieldFloat
	case string:
		return FieldText
	case *blob.Blob:
		return FieldBlob
	}
	return FieldNull
}

// IsNull is true if the Field is NULL.
func (f Field) IsNull() bool { return f.v == nil }

// Value returns the held value, which is nil or one of int64, float64,
// string, or *blob.Blob.
func (f Field) Value() any { return f.v }

func (f Field) Int() int { return int(f.Int64()) }

func (f Field) Int64() int64 {
	var v, _ = f.v.(int64)
	return v
}

func (f Field) Double() float64 {
	var v, _ = f.v.(float64)
	return v
}

func (f Field) Text() string {
	var v, _ = f.v.(string)
	return v
}

func (f Field) Blob() *blob.Blob {
	var v, _ = f.v.(*blob.Blob)
	return v
}
