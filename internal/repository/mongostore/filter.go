package mongostore

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
)

// FilterBuilder helps build MongoDB filters fluently. Conditions on the same
// field are merged, so Eq and Ne on an array field can be combined.
type FilterBuilder struct {
	filter bson.M
	and    []bson.M
}

func NewFilter() *FilterBuilder {
	return &FilterBuilder{filter: bson.M{}}
}

func (f *FilterBuilder) set(field string, cond interface{}) *FilterBuilder {
	if _, taken := f.filter[field]; taken {
		f.and = append(f.and, bson.M{field: cond})
		return f
	}
	f.filter[field] = cond
	return f
}

func (f *FilterBuilder) Eq(field string, value interface{}) *FilterBuilder {
	return f.set(field, value)
}

func (f *FilterBuilder) Ne(field string, value interface{}) *FilterBuilder {
	return f.set(field, bson.M{"$ne": value})
}

func (f *FilterBuilder) Lt(field string, value interface{}) *FilterBuilder {
	return f.set(field, bson.M{"$lt": value})
}

func (f *FilterBuilder) In(field string, values interface{}) *FilterBuilder {
	return f.set(field, bson.M{"$in": values})
}

func (f *FilterBuilder) NotIn(field string, values interface{}) *FilterBuilder {
	return f.set(field, bson.M{"$nin": values})
}

// Contains adds a case-insensitive substring match. value is matched literally.
func (f *FilterBuilder) Contains(field string, value string) *FilterBuilder {
	return f.set(field, bson.M{"$regex": regexp.QuoteMeta(value), "$options": "i"})
}

func (f *FilterBuilder) Or(filters ...bson.M) *FilterBuilder {
	if len(filters) > 0 {
		f.and = append(f.and, bson.M{"$or": filters})
	}
	return f
}

func (f *FilterBuilder) Build() bson.M {
	out := bson.M{}
	for k, v := range f.filter {
		out[k] = v
	}
	if len(f.and) > 0 {
		out["$and"] = f.and
	}
	return out
}
