package repository

import (
	"fmt"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/coerce"
)

// Shape is the declared result shape of a repository method.
type Shape int

// Result shapes. The zero value lets the dispatcher pick the natural shape
// of the call: affected rows for writes, a scalar for count and exists
// finders, an entity list otherwise.
const (
	Auto Shape = iota
	Entity
	EntityList
	Scalar
	ScalarList
	Map
	MapList
	Affected
)

var shapeNames = [...]string{
	Auto:       "auto",
	Entity:     "entity",
	EntityList: "entity list",
	Scalar:     "scalar",
	ScalarList: "scalar list",
	Map:        "map",
	MapList:    "map list",
	Affected:   "affected",
}

// String returns the shape name.
func (s Shape) String() string {
	if s >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Result is the outcome of an invocation. Only the fields of its Shape
// are set.
type Result struct {
	Shape Shape
	// Entities holds the entity of an Entity result, or the entities of an
	// EntityList result.
	Entities []any
	// Values holds the scalar of a Scalar result, or the first column of
	// every row of a ScalarList result.
	Values []any
	// Records holds the field map of a Map result, or every row of a
	// MapList result, keyed in driver column order.
	Records []*reposql.Record
	// Affected is the affected-row count of an Affected result.
	Affected int64
}

// One returns the single entity of an Entity result.
func One[T any](res *Result) (*T, error) {
	if res.Shape != Entity || len(res.Entities) != 1 {
		return nil, shapeError(res, Entity)
	}
	e, ok := res.Entities[0].(*T)
	if !ok {
		return nil, fmt.Errorf("repository: entity is %T, not %T", res.Entities[0], e)
	}
	return e, nil
}

// List returns the entities of an Entity or EntityList result.
func List[T any](res *Result) ([]*T, error) {
	if res.Shape != Entity && res.Shape != EntityList {
		return nil, shapeError(res, EntityList)
	}
	return typed[T](res.Entities)
}

// ScalarAs converts the value of a Scalar result to V.
func ScalarAs[V any](res *Result) (V, error) {
	var v V
	if res.Shape != Scalar || len(res.Values) != 1 {
		return v, shapeError(res, Scalar)
	}
	if err := coerce.Assign(&v, res.Values[0]); err != nil {
		return v, reposql.NewDecodeError("", res.Values[0], err)
	}
	return v, nil
}

// Maps returns the records of a Map or MapList result.
func Maps(res *Result) ([]*reposql.Record, error) {
	if res.Shape != Map && res.Shape != MapList {
		return nil, shapeError(res, MapList)
	}
	return res.Records, nil
}

func typed[T any](entities []any) ([]*T, error) {
	out := make([]*T, len(entities))
	for i, e := range entities {
		t, ok := e.(*T)
		if !ok {
			return nil, fmt.Errorf("repository: entity is %T, not %T", e, t)
		}
		out[i] = t
	}
	return out, nil
}

func shapeError(res *Result, want Shape) error {
	return fmt.Errorf("repository: result shape is %s, not %s", res.Shape, want)
}
