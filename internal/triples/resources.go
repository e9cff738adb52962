package triples

import "slices"

// Resource is every predicate and object recorded for one subject.
type Resource struct {
	Subject string

	// Properties maps predicates to their objects in arrival order.
	// Duplicates are kept.
	Properties map[string][]string

	order []string
}

func newResource(subject string) *Resource {
	return &Resource{Subject: subject, Properties: make(map[string][]string)}
}

func (r *Resource) add(predicate, object string) {
	if _, ok := r.Properties[predicate]; !ok {
		r.order = append(r.order, predicate)
	}
	r.Properties[predicate] = append(r.Properties[predicate], object)
}

// Predicates returns the predicates in the order they were first seen.
func (r *Resource) Predicates() []string {
	return slices.Clone(r.order)
}

// ResourceIterator merges consecutive relation rows that share a subject.
// It does not sort: rows of one subject must arrive as one block.
type ResourceIterator struct {
	relations *RelationsIterator

	subject   string
	predicate string
	object    string

	// pending is true when relations is positioned on a row that belongs to
	// the next resource.
	pending bool
	current *Resource
	done    bool
}

// NewResourceIterator groups the rows of rel. The three names are the row
// keys holding the subject, predicate and object.
func NewResourceIterator(rel *RelationsIterator, subject, predicate, object string) *ResourceIterator {
	return &ResourceIterator{
		relations: rel,
		subject:   subject,
		predicate: predicate,
		object:    object,
	}
}

// Next advances to the next resource.
func (it *ResourceIterator) Next() bool {
	if it.done {
		return false
	}
	if !it.pending && !it.relations.Next() {
		it.done = true
		it.current = nil
		return false
	}

	row := it.relations.Row()
	key := row[it.subject]
	res := newResource(key.String)

	for {
		res.add(row[it.predicate].String, row[it.object].String)

		if !it.relations.Next() {
			it.pending = false
			break
		}
		row = it.relations.Row()
		if row[it.subject] != key {
			it.pending = true
			break
		}
	}

	it.current = res
	return true
}

// Resource returns the current resource.
func (it *ResourceIterator) Resource() *Resource {
	return it.current
}

// Key returns the subject of the current resource.
func (it *ResourceIterator) Key() string {
	if it.current == nil {
		return ""
	}
	return it.current.Subject
}

// Err returns the error that ended iteration, if any.
func (it *ResourceIterator) Err() error {
	return it.relations.Err()
}

// Close closes the underlying relations iterator.
func (it *ResourceIterator) Close() error {
	it.done = true
	return it.relations.Close()
}

