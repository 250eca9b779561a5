package query

// Order is one sort key with its direction.
type Order[T any] struct {
	Field      Field[T]
	Descending bool
}

// ResolveSort produces the ordered list of sort keys for a request.
// With no sort field the result is the identity field ascending. With
// an explicit sort field, resolved through the same registry that
// governs filtering, the identity field is appended as a secondary
// ascending key so that rows with equal primary keys still come back in
// a deterministic order.
func ResolveSort[T any](reg *Registry[T], sortBy string, descending bool) ([]Order[T], error) {
	identity := reg.Identity()

	if sortBy == "" {
		return []Order[T]{{Field: identity, Descending: descending}}, nil
	}

	field, ok := reg.Resolve(sortBy)
	if !ok {
		return nil, &UnknownSortFieldError{Field: sortBy, Allowed: reg.FieldNames()}
	}

	orders := []Order[T]{{Field: field, Descending: descending}}
	if field.Name != identity.Name {
		orders = append(orders, Order[T]{Field: identity})
	}
	return orders, nil
}

// Less compares two entities under the resolved sort keys.
func Less[T any](orders []Order[T], a, b T) bool {
	for _, o := range orders {
		cmp := compareValues(o.Field.Type, o.Field.Value(a), o.Field.Value(b))
		if cmp == 0 {
			continue
		}
		if o.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}
